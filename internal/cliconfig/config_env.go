package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (LABELPRESS_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("printer", os.Getenv("LABELPRESS_PRINTER"), &cfg.DefaultPrinter)
	s.setString("date-format", os.Getenv("LABELPRESS_DATE_FORMAT"), &cfg.DateFormat)
	s.setString("font", os.Getenv("LABELPRESS_FONT_PATH"), &cfg.FontPath)
	s.setString("cache-dir", os.Getenv("LABELPRESS_CACHE_DIR"), &cfg.CacheDir)
	s.setString("listen", os.Getenv("LABELPRESS_LISTEN_ADDR"), &cfg.ListenAddr)
	s.setString("log-file", os.Getenv("LABELPRESS_LOG_FILE"), &cfg.LogFile)

	if err := s.setIntFromString("min-font-size", os.Getenv("LABELPRESS_MIN_FONT_SIZE"), &cfg.MinFontSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-font-size", os.Getenv("LABELPRESS_MAX_FONT_SIZE"), &cfg.MaxFontSize); err != nil {
		return err
	}
	if err := s.setCountFromString("max-retries", os.Getenv("LABELPRESS_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}

	if err := s.setDuration("wait-between-tries", os.Getenv("LABELPRESS_WAIT_BETWEEN_TRIES"), &cfg.WaitBetweenTries); err != nil {
		return err
	}
	if err := s.setDuration("pause-between-labels", os.Getenv("LABELPRESS_PAUSE_BETWEEN_LABELS"), &cfg.PauseBetweenLabels); err != nil {
		return err
	}

	return nil
}
