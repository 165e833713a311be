package cliconfig

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DefaultPrinter     string             `toml:"default_printer"`
	DateFormat         string             `toml:"date_format"`
	FontPath           string             `toml:"font_path"`
	MinFontSize        int                `toml:"min_font_size"`
	MaxFontSize        int                `toml:"max_font_size"`
	MaxRetries         *int               `toml:"max_retries"`
	WaitBetweenTries   string             `toml:"wait_between_tries"`
	PauseBetweenLabels string             `toml:"pause_between_labels"`
	CacheDir           string             `toml:"cache_dir"`
	ListenAddr         string             `toml:"listen_addr"`
	LogFile            string             `toml:"log_file"`
	MonthSizeRatios    map[string]float64 `toml:"month_size_ratios"`

	Printers map[string]FilePrinterConfig `toml:"printers"`
}

// FilePrinterConfig mirrors PrinterConfig for one [printers.NAME] table.
type FilePrinterConfig struct {
	Transport string `toml:"transport"`

	LabelWidthIn  float64 `toml:"label_width_in"`
	LabelHeightIn float64 `toml:"label_height_in"`
	DPI           int     `toml:"dpi"`

	MarginRatio       float64 `toml:"margin_ratio"`
	TextHeightRatio   float64 `toml:"text_height_ratio"`
	MaxTextWidthRatio float64 `toml:"max_text_width_ratio"`
	BorderWidth       int     `toml:"border_width"`
	BorderMargin      int     `toml:"border_margin"`

	GapMM     float64 `toml:"gap_mm"`
	Density   int     `toml:"density"`
	Speed     int     `toml:"speed"`
	Direction *int    `toml:"direction"`
	Invert    *bool   `toml:"invert"`

	DeviceName    string `toml:"device_name"`
	DeviceAddress string `toml:"device_address"`
	ConnectWait   string `toml:"connect_wait"`
	ScanWindow    string `toml:"scan_window"`

	QueueName string `toml:"queue_name"`

	PositioningMode  string `toml:"positioning_mode"`
	HorizontalOffset *int   `toml:"horizontal_offset"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.labelpress/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".labelpress", "config.toml")
	}
	return ""
}

// DefaultCacheDir returns the default device cache directory.
func DefaultCacheDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".labelpress")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("printer", fc.DefaultPrinter, &cfg.DefaultPrinter)
	s.setString("date-format", fc.DateFormat, &cfg.DateFormat)
	s.setString("font", fc.FontPath, &cfg.FontPath)
	s.setString("cache-dir", fc.CacheDir, &cfg.CacheDir)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("log-file", fc.LogFile, &cfg.LogFile)

	s.setInt("min-font-size", fc.MinFontSize, &cfg.MinFontSize)
	s.setInt("max-font-size", fc.MaxFontSize, &cfg.MaxFontSize)
	// max_retries = 0 means "no retries", so absence is a nil pointer rather
	// than a zero value.
	s.setIntPtr("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	if err := s.setDuration("wait-between-tries", fc.WaitBetweenTries, &cfg.WaitBetweenTries); err != nil {
		return err
	}
	if err := s.setDuration("pause-between-labels", fc.PauseBetweenLabels, &cfg.PauseBetweenLabels); err != nil {
		return err
	}

	if len(fc.MonthSizeRatios) > 0 {
		if cfg.MonthSizeRatios == nil {
			cfg.MonthSizeRatios = make(map[string]float64, len(fc.MonthSizeRatios))
		}
		for month, ratio := range fc.MonthSizeRatios {
			cfg.MonthSizeRatios[month] = ratio
		}
	}

	for name, fpc := range fc.Printers {
		pc, ok := cfg.Printers[name]
		if !ok {
			pc = DefaultPrinterConfig()
		}
		if err := applyFilePrinter(&pc, fpc); err != nil {
			return err
		}
		if cfg.Printers == nil {
			cfg.Printers = make(map[string]PrinterConfig)
		}
		cfg.Printers[name] = pc
	}

	return nil
}

// applyFilePrinter merges one [printers.NAME] table over the section's
// current values. Printer tables have no flag counterpart, so zero values
// simply mean "keep the default".
func applyFilePrinter(pc *PrinterConfig, fpc FilePrinterConfig) error {
	if fpc.Transport != "" {
		pc.Transport = fpc.Transport
	}
	if fpc.LabelWidthIn > 0 {
		pc.LabelWidthIn = fpc.LabelWidthIn
	}
	if fpc.LabelHeightIn > 0 {
		pc.LabelHeightIn = fpc.LabelHeightIn
	}
	if fpc.DPI > 0 {
		pc.DPI = fpc.DPI
	}
	if fpc.MarginRatio > 0 {
		pc.MarginRatio = fpc.MarginRatio
	}
	if fpc.TextHeightRatio > 0 {
		pc.TextHeightRatio = fpc.TextHeightRatio
	}
	if fpc.MaxTextWidthRatio > 0 {
		pc.MaxTextWidthRatio = fpc.MaxTextWidthRatio
	}
	if fpc.BorderWidth > 0 {
		pc.BorderWidth = fpc.BorderWidth
	}
	if fpc.BorderMargin > 0 {
		pc.BorderMargin = fpc.BorderMargin
	}
	if fpc.GapMM > 0 {
		pc.GapMM = fpc.GapMM
	}
	if fpc.Density > 0 {
		pc.Density = fpc.Density
	}
	if fpc.Speed > 0 {
		pc.Speed = fpc.Speed
	}
	if fpc.Direction != nil {
		pc.Direction = *fpc.Direction
	}
	if fpc.Invert != nil {
		pc.Invert = *fpc.Invert
	}
	if fpc.DeviceName != "" {
		pc.DeviceName = fpc.DeviceName
	}
	if fpc.DeviceAddress != "" {
		pc.DeviceAddress = fpc.DeviceAddress
	}
	if fpc.QueueName != "" {
		pc.QueueName = fpc.QueueName
	}
	if fpc.PositioningMode != "" {
		pc.PositioningMode = fpc.PositioningMode
	}
	if fpc.HorizontalOffset != nil {
		pc.HorizontalOffset = *fpc.HorizontalOffset
	}
	if fpc.ConnectWait != "" {
		d, err := time.ParseDuration(fpc.ConnectWait)
		if err != nil {
			return err
		}
		pc.ConnectWait = d
	}
	if fpc.ScanWindow != "" {
		d, err := time.ParseDuration(fpc.ScanWindow)
		if err != nil {
			return err
		}
		pc.ScanWindow = d
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
