//go:build !windows

package spool

import (
	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/internal/ports"
	"github.com/labelpress/labelpress/pkg/log"
)

// New fails on non-Windows platforms: the spool transport is the Windows
// GDI path. Use the queue or ble transports elsewhere.
func New(cfg Config, logger log.Logger) (ports.Driver, error) {
	return nil, &domain.ConfigError{
		Field:  "transport",
		Reason: "spool transport is only available on windows",
	}
}

// List is unavailable off Windows.
func List() ([]string, error) {
	return nil, &domain.ConfigError{
		Field:  "transport",
		Reason: "spooler enumeration is only available on windows",
	}
}
