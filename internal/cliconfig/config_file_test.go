package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileConfig(t *testing.T) {
	path := writeTempConfig(t, `
default_printer = "kitchen"
date_format = "2006-01-02"
max_retries = 5
wait_between_tries = "4s"

[month_size_ratios]
December = 0.3

[printers.kitchen]
transport = "ble"
device_name = "RW402B-1A2B"
label_width_in = 2.25
label_height_in = 1.25
dpi = 203
connect_wait = "5s"

[printers.office]
transport = "queue"
queue_name = "ZJ-58"
dpi = 300
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.DefaultPrinter != "kitchen" {
		t.Errorf("DefaultPrinter = %q, want kitchen", fc.DefaultPrinter)
	}
	if len(fc.Printers) != 2 {
		t.Fatalf("printers = %d, want 2", len(fc.Printers))
	}
	if fc.Printers["office"].QueueName != "ZJ-58" {
		t.Errorf("office queue_name = %q, want ZJ-58", fc.Printers["office"].QueueName)
	}
}

func TestApplyFileConfig(t *testing.T) {
	path := writeTempConfig(t, `
default_printer = "kitchen"
max_retries = 5
wait_between_tries = "4s"

[printers.kitchen]
transport = "ble"
device_name = "RW402B-1A2B"
connect_wait = "5s"
invert = false
`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}

	if cfg.DefaultPrinter != "kitchen" {
		t.Errorf("DefaultPrinter = %q, want kitchen", cfg.DefaultPrinter)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.WaitBetweenTries != 4*time.Second {
		t.Errorf("WaitBetweenTries = %v, want 4s", cfg.WaitBetweenTries)
	}

	pc, ok := cfg.Printers["kitchen"]
	if !ok {
		t.Fatal("kitchen printer not created")
	}
	if pc.DeviceName != "RW402B-1A2B" {
		t.Errorf("DeviceName = %q", pc.DeviceName)
	}
	if pc.ConnectWait != 5*time.Second {
		t.Errorf("ConnectWait = %v, want 5s", pc.ConnectWait)
	}
	// Unset table keys keep the section defaults.
	if pc.DPI != 203 || pc.Density != 8 {
		t.Errorf("defaults not preserved: dpi=%d density=%d", pc.DPI, pc.Density)
	}
	// Explicit false survives the merge.
	if pc.Invert {
		t.Error("invert = true, want false (explicitly set in file)")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("merged config invalid: %v", err)
	}
}

func TestApplyFileConfig_ZeroMaxRetries(t *testing.T) {
	path := writeTempConfig(t, `max_retries = 0`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatalf("ApplyFileConfig() error = %v", err)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 (explicit zero disables retries)", cfg.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, zero retries is valid", err)
	}

	// An absent key keeps the default.
	path = writeTempConfig(t, `default_printer = "rw402b"`)
	fc, err = LoadFileConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg = DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, nil); err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRetries != DefaultConfig().MaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", cfg.MaxRetries, DefaultConfig().MaxRetries)
	}
}

func TestApplyFileConfig_FlagPrecedence(t *testing.T) {
	path := writeTempConfig(t, `default_printer = "from-file"`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.DefaultPrinter = "from-flag"
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{"printer": true}); err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultPrinter != "from-flag" {
		t.Errorf("DefaultPrinter = %q, want from-flag (flag wins)", cfg.DefaultPrinter)
	}
}

func TestApplyFileConfig_BadDuration(t *testing.T) {
	path := writeTempConfig(t, `
[printers.p]
transport = "ble"
connect_wait = "soon"
`)
	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc, nil); err == nil {
		t.Error("ApplyFileConfig() accepted invalid duration")
	}
}

func TestFileExists(t *testing.T) {
	path := writeTempConfig(t, "")
	if !FileExists(path) {
		t.Errorf("FileExists(%q) = false, want true", path)
	}
	if FileExists(filepath.Join(t.TempDir(), "absent.toml")) {
		t.Error("FileExists reported a missing file as present")
	}
}
