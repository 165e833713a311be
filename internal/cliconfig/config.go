// Package cliconfig resolves labelpress configuration from file, environment
// and flags, with flags taking precedence over environment over file over
// defaults. The core receives a snapshot resolved once per job.
package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labelpress/labelpress/internal/domain"
)

// Transport names selectable per printer.
const (
	TransportSpool = "spool"
	TransportQueue = "queue"
	TransportBLE   = "ble"
)

// Config holds the full labelpress configuration.
type Config struct {
	// DefaultPrinter names the printer section used when the caller does
	// not pick one.
	DefaultPrinter string

	// DateFormat is the Go time layout for date stamps.
	DateFormat string

	// FontPath selects the label font; empty uses the embedded face.
	FontPath string

	MinFontSize int
	MaxFontSize int

	// Retry and pacing budget for dispatch.
	MaxRetries         int
	WaitBetweenTries   time.Duration
	PauseBetweenLabels time.Duration

	// MonthSizeRatios maps month names to date-band height ratios.
	MonthSizeRatios map[string]float64

	// CacheDir holds the BLE device identity cache.
	CacheDir string

	// Serve mode settings.
	ListenAddr string
	LogFile    string

	// Printers maps printer names to their transport settings.
	Printers map[string]PrinterConfig
}

// PrinterConfig is the per-printer section.
type PrinterConfig struct {
	Transport string

	LabelWidthIn  float64
	LabelHeightIn float64
	DPI           int

	MarginRatio       float64
	TextHeightRatio   float64
	MaxTextWidthRatio float64
	BorderWidth       int
	BorderMargin      int

	// TSPL tuning for the ble transport.
	GapMM     float64
	Density   int
	Speed     int
	Direction int
	Invert    bool

	// ble identity.
	DeviceName    string
	DeviceAddress string
	ConnectWait   time.Duration
	ScanWindow    time.Duration

	// queue transport.
	QueueName string

	// spool transport.
	PositioningMode  string
	HorizontalOffset int
}

// DefaultConfig returns a Config with working defaults for an RW402B-class
// printer on the ble transport.
func DefaultConfig() Config {
	return Config{
		DefaultPrinter:     "rw402b",
		DateFormat:         "January 02, 2006",
		MinFontSize:        10,
		MaxFontSize:        500,
		MaxRetries:         3,
		WaitBetweenTries:   2 * time.Second,
		PauseBetweenLabels: 1 * time.Second,
		ListenAddr:         ":8745",
		Printers: map[string]PrinterConfig{
			"rw402b": DefaultPrinterConfig(),
		},
	}
}

// DefaultPrinterConfig returns the per-printer defaults: a 2.25x1.25 inch
// label at 203 DPI over ble.
func DefaultPrinterConfig() PrinterConfig {
	return PrinterConfig{
		Transport:         TransportBLE,
		LabelWidthIn:      2.25,
		LabelHeightIn:     1.25,
		DPI:               203,
		MarginRatio:       0.02,
		TextHeightRatio:   0.2,
		MaxTextWidthRatio: 0.9,
		BorderWidth:       6,
		BorderMargin:      4,
		GapMM:             3,
		Density:           8,
		Speed:             4,
		Direction:         1,
		Invert:            true,
		ConnectWait:       3 * time.Second,
		ScanWindow:        6 * time.Second,
		PositioningMode:   "auto",
	}
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if c.DateFormat == "" {
		c.DateFormat = "January 02, 2006"
	}
	if c.MinFontSize <= 0 {
		c.MinFontSize = 10
	}
	if c.MaxFontSize <= c.MinFontSize {
		return &domain.ConfigError{Field: "max_font_size", Reason: "must exceed min_font_size"}
	}
	if c.MaxRetries < 0 {
		return &domain.ConfigError{Field: "max_retries", Reason: "must not be negative"}
	}
	if c.WaitBetweenTries < 0 || c.PauseBetweenLabels < 0 {
		return &domain.ConfigError{Field: "pacing", Reason: "durations must not be negative"}
	}
	if len(c.Printers) == 0 {
		return &domain.ConfigError{Field: "printers", Reason: "at least one printer section required"}
	}
	if _, ok := c.Printers[c.DefaultPrinter]; !ok {
		return &domain.ConfigError{Field: "default_printer", Reason: fmt.Sprintf("printer %q not configured", c.DefaultPrinter)}
	}

	for name, pc := range c.Printers {
		switch pc.Transport {
		case TransportSpool, TransportQueue, TransportBLE:
		default:
			return &domain.ConfigError{
				Field:  "printers." + name + ".transport",
				Reason: fmt.Sprintf("unknown transport %q", pc.Transport),
			}
		}
		if pc.DPI <= 0 {
			return &domain.ConfigError{Field: "printers." + name + ".dpi", Reason: "must be positive"}
		}
		if pc.Transport == TransportQueue && pc.QueueName == "" {
			return &domain.ConfigError{Field: "printers." + name + ".queue_name", Reason: "required for queue transport"}
		}
	}

	if _, err := c.monthRatios(); err != nil {
		return err
	}
	return nil
}

// ResolvePrinter returns the named printer section, or the default section
// when name is empty.
func (c Config) ResolvePrinter(name string) (string, PrinterConfig, error) {
	if name == "" {
		name = c.DefaultPrinter
	}
	pc, ok := c.Printers[name]
	if !ok {
		return "", PrinterConfig{}, &domain.ConfigError{
			Field:  "printer",
			Reason: fmt.Sprintf("printer %q not configured", name),
		}
	}
	return name, pc, nil
}

// LabelSpecFor builds the immutable LabelSpec for the named printer.
func (c Config) LabelSpecFor(name string) (domain.LabelSpec, error) {
	_, pc, err := c.ResolvePrinter(name)
	if err != nil {
		return domain.LabelSpec{}, err
	}
	months, err := c.monthRatios()
	if err != nil {
		return domain.LabelSpec{}, err
	}
	return domain.LabelSpec{
		WidthIn:           pc.LabelWidthIn,
		HeightIn:          pc.LabelHeightIn,
		DPI:               pc.DPI,
		MarginRatio:       pc.MarginRatio,
		MinFontSize:       c.MinFontSize,
		MaxFontSize:       c.MaxFontSize,
		TextHeightRatio:   pc.TextHeightRatio,
		MaxTextWidthRatio: pc.MaxTextWidthRatio,
		MonthSizeRatios:   months,
		BorderWidth:       pc.BorderWidth,
		BorderMargin:      pc.BorderMargin,
	}, nil
}

// monthRatios parses the month-name keys into time.Month values.
func (c Config) monthRatios() (map[time.Month]float64, error) {
	if len(c.MonthSizeRatios) == 0 {
		return nil, nil
	}
	out := make(map[time.Month]float64, len(c.MonthSizeRatios))
	for name, ratio := range c.MonthSizeRatios {
		t, err := time.Parse("January", name)
		if err != nil {
			return nil, &domain.ConfigError{
				Field:  "month_size_ratios",
				Reason: fmt.Sprintf("unknown month %q", name),
			}
		}
		out[t.Month()] = ratio
	}
	return out, nil
}

// configSetter applies configuration values while respecting flag
// precedence: a value is skipped when its flag was set explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr applies a value whose absence is modelled as nil rather than
// zero, so fields like max_retries can be set to 0 explicitly.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setCountFromString is setIntFromString for fields where zero is a valid
// explicit value. Validate still rejects negatives.
func (s *configSetter) setCountFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}
