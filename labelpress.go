// Package labelpress renders and prints food-rotation labels on thermal
// printers.
//
// Example usage:
//
//	cfg := labelpress.DefaultConfig()
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	req := labelpress.ContentRequest{Message: "Chicken Soup", ShowDate: true, Date: time.Now(), Copies: 1}
//	if err := labelpress.Print(context.Background(), cfg, "", req); err != nil {
//	    log.Fatal(err)
//	}
package labelpress

import (
	"context"
	"image"

	"github.com/rs/zerolog"

	"github.com/labelpress/labelpress/internal/app"
	"github.com/labelpress/labelpress/internal/cliconfig"
	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/pkg/log"
)

// Config holds the full labelpress configuration.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// PrinterConfig is one [printers.NAME] section of the configuration.
type PrinterConfig = cliconfig.PrinterConfig

// ContentRequest is the caller-supplied content for one label.
type ContentRequest = domain.ContentRequest

// LabelSpec describes the physical label and its typographic limits.
type LabelSpec = domain.LabelSpec

// Sentinel errors for classifying failures with errors.Is.
var (
	ErrConfig  = domain.ErrConfig
	ErrContent = domain.ErrContent
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// DefaultConfigPath returns the default configuration file path,
// ~/.labelpress/config.toml when the home directory is accessible.
func DefaultConfigPath() string {
	return cliconfig.DefaultConfigPath()
}

// Render produces the label bitmap for the request without printing it.
// printer selects a configured printer section; empty uses the default.
func Render(cfg Config, printer string, req ContentRequest) (*image.Gray, error) {
	spec, err := cfg.LabelSpecFor(printer)
	if err != nil {
		return nil, err
	}
	p, err := app.NewPipeline(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	return p.Render(spec, req, cfg.DateFormat)
}

// Print renders the request and dispatches it to the named printer,
// blocking until every copy is acknowledged or the retry budget is spent.
func Print(ctx context.Context, cfg Config, printer string, req ContentRequest) error {
	return app.Print(ctx, cfg, printer, req, log.NewZerologAdapterWithLogger(Logger()))
}

// Logger returns the package-level zerolog logger.
func Logger() zerolog.Logger {
	return cliconfig.Logger()
}
