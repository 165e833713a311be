package cliconfig

import (
	"errors"
	"testing"
	"time"

	"github.com/labelpress/labelpress/internal/domain"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.WaitBetweenTries != 2*time.Second {
		t.Errorf("WaitBetweenTries = %v, want 2s", cfg.WaitBetweenTries)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max font not above min", func(c *Config) { c.MaxFontSize = c.MinFontSize }},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }},
		{"negative pacing", func(c *Config) { c.WaitBetweenTries = -time.Second }},
		{"no printers", func(c *Config) { c.Printers = nil }},
		{"default printer missing", func(c *Config) { c.DefaultPrinter = "ghost" }},
		{"unknown transport", func(c *Config) {
			pc := c.Printers["rw402b"]
			pc.Transport = "carrier-pigeon"
			c.Printers["rw402b"] = pc
		}},
		{"zero dpi", func(c *Config) {
			pc := c.Printers["rw402b"]
			pc.DPI = 0
			c.Printers["rw402b"] = pc
		}},
		{"queue without queue name", func(c *Config) {
			pc := c.Printers["rw402b"]
			pc.Transport = TransportQueue
			pc.QueueName = ""
			c.Printers["rw402b"] = pc
		}},
		{"unknown month", func(c *Config) { c.MonthSizeRatios = map[string]float64{"Brumaire": 0.2} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, domain.ErrConfig) {
				t.Errorf("Validate() error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestResolvePrinter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Printers["office"] = PrinterConfig{Transport: TransportQueue, QueueName: "office", DPI: 300}

	name, pc, err := cfg.ResolvePrinter("")
	if err != nil {
		t.Fatalf("ResolvePrinter(\"\") error = %v", err)
	}
	if name != "rw402b" || pc.Transport != TransportBLE {
		t.Errorf("ResolvePrinter(\"\") = %q/%s, want rw402b/ble", name, pc.Transport)
	}

	name, pc, err = cfg.ResolvePrinter("office")
	if err != nil {
		t.Fatalf("ResolvePrinter(office) error = %v", err)
	}
	if name != "office" || pc.QueueName != "office" {
		t.Errorf("ResolvePrinter(office) = %q/%q", name, pc.QueueName)
	}

	if _, _, err := cfg.ResolvePrinter("nope"); !errors.Is(err, domain.ErrConfig) {
		t.Errorf("ResolvePrinter(nope) error = %v, want ErrConfig", err)
	}
}

func TestLabelSpecFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonthSizeRatios = map[string]float64{"December": 0.3}

	spec, err := cfg.LabelSpecFor("")
	if err != nil {
		t.Fatalf("LabelSpecFor() error = %v", err)
	}
	if spec.WidthIn != 2.25 || spec.HeightIn != 1.25 || spec.DPI != 203 {
		t.Errorf("spec geometry = %vx%v@%d, want 2.25x1.25@203", spec.WidthIn, spec.HeightIn, spec.DPI)
	}
	if spec.MinFontSize != cfg.MinFontSize || spec.MaxFontSize != cfg.MaxFontSize {
		t.Errorf("font bounds = %d..%d, want %d..%d",
			spec.MinFontSize, spec.MaxFontSize, cfg.MinFontSize, cfg.MaxFontSize)
	}
	if got := spec.MonthSizeRatios[time.December]; got != 0.3 {
		t.Errorf("December ratio = %v, want 0.3", got)
	}
}

func TestConfigSetter_RespectsChangedFlags(t *testing.T) {
	changed := map[string]bool{"printer": true}
	s := newConfigSetter(changed)

	got := "from-flag"
	s.setString("printer", "from-file", &got)
	if got != "from-flag" {
		t.Errorf("setString overwrote explicitly set flag: %q", got)
	}

	other := ""
	s.setString("font", "fallback", &other)
	if other != "fallback" {
		t.Errorf("setString skipped unset flag: %q", other)
	}

	var d time.Duration = 5 * time.Second
	if err := s.setDuration("wait-between-tries", "bogus", &d); err == nil {
		t.Error("setDuration accepted invalid duration")
	}
	if err := s.setDuration("wait-between-tries", "7s", &d); err != nil || d != 7*time.Second {
		t.Errorf("setDuration = %v, %v, want 7s, nil", d, err)
	}
}
