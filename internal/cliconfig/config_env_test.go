package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("LABELPRESS_PRINTER", "env-printer")
	t.Setenv("LABELPRESS_MAX_RETRIES", "7")
	t.Setenv("LABELPRESS_WAIT_BETWEEN_TRIES", "9s")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}
	if cfg.DefaultPrinter != "env-printer" {
		t.Errorf("DefaultPrinter = %q, want env-printer", cfg.DefaultPrinter)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.MaxRetries)
	}
	if cfg.WaitBetweenTries != 9*time.Second {
		t.Errorf("WaitBetweenTries = %v, want 9s", cfg.WaitBetweenTries)
	}
}

func TestApplyEnvConfig_FlagPrecedence(t *testing.T) {
	t.Setenv("LABELPRESS_PRINTER", "env-printer")

	cfg := DefaultConfig()
	cfg.DefaultPrinter = "flag-printer"
	if err := ApplyEnvConfig(&cfg, map[string]bool{"printer": true}); err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultPrinter != "flag-printer" {
		t.Errorf("DefaultPrinter = %q, want flag-printer", cfg.DefaultPrinter)
	}
}

func TestApplyEnvConfig_ZeroMaxRetries(t *testing.T) {
	t.Setenv("LABELPRESS_MAX_RETRIES", "0")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err != nil {
		t.Fatalf("ApplyEnvConfig() error = %v", err)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 (explicit zero disables retries)", cfg.MaxRetries)
	}
}

func TestApplyEnvConfig_BadValue(t *testing.T) {
	t.Setenv("LABELPRESS_MAX_RETRIES", "many")

	cfg := DefaultConfig()
	if err := ApplyEnvConfig(&cfg, nil); err == nil {
		t.Error("ApplyEnvConfig() accepted non-numeric retries")
	}
}
