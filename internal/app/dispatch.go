// Package app orchestrates labelpress jobs: it renders a request into a
// bitmap and drives the retry/reconnect state machine that delivers the
// bitmap to a printer transport.
package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/internal/ports"
	"github.com/labelpress/labelpress/pkg/log"
)

// State identifies where the dispatch state machine is for one attempt.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateSending
	StateSuccess
	StateFailed
)

// String returns the state name used in log events.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateSending:
		return "Sending"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DispatchConfig bounds the retry loop and paces the transport.
type DispatchConfig struct {
	// MaxRetries is the number of retries after the first attempt; the
	// total attempt budget per copy is MaxRetries + 1.
	MaxRetries int

	// WaitBetweenTries is the pause before re-entering Connecting after a
	// failed attempt.
	WaitBetweenTries time.Duration

	// PauseBetweenLabels is the pause between successful copies.
	PauseBetweenLabels time.Duration
}

// Dispatcher runs one print job to a terminal outcome. A job is strictly
// sequential: each copy completes (with its retries) before the next
// starts, because the physical printer serializes everything anyway.
type Dispatcher struct {
	driver ports.Driver
	cfg    DispatchConfig
	clock  clockwork.Clock
	logger log.Logger
}

// NewDispatcher creates a dispatcher for one driver. A nil clock selects
// the real clock; a nil logger discards events.
func NewDispatcher(driver ports.Driver, cfg DispatchConfig, clock clockwork.Clock, logger log.Logger) *Dispatcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Dispatcher{driver: driver, cfg: cfg, clock: clock, logger: logger}
}

// Dispatch sends every copy of the job, retrying each copy up to the
// configured budget. It returns nil once all copies are acknowledged, or a
// DispatchError carrying the last SendError once a copy exhausts its
// retries. The connection is closed before returning either way.
func (d *Dispatcher) Dispatch(ctx context.Context, job *domain.PrintJob) error {
	defer d.driver.Close()

	connected := false
	for copyNum := 1; copyNum <= job.Copies; copyNum++ {
		if err := d.sendCopy(ctx, job, copyNum, &connected); err != nil {
			return err
		}

		if copyNum < job.Copies {
			d.clock.Sleep(d.cfg.PauseBetweenLabels)
			// Stateless transports re-open per copy.
			if !d.driver.Persistent() {
				d.driver.Close()
				connected = false
			}
		}
	}

	d.logger.Info("job complete",
		log.Str("job", job.ID.String()),
		log.Str("transport", d.driver.Transport()),
		log.Int("copies", job.Copies),
	)
	return nil
}

// sendCopy runs the Idle -> Connecting -> Sending machine for one copy.
func (d *Dispatcher) sendCopy(ctx context.Context, job *domain.PrintJob, copyNum int, connected *bool) error {
	var lastErr error

	for attempt := 1; attempt <= d.cfg.MaxRetries+1; attempt++ {
		if !*connected {
			d.event(StateConnecting, job, copyNum, attempt, nil)
			if err := d.driver.Connect(ctx); err != nil {
				lastErr = err
				d.event(StateFailed, job, copyNum, attempt, err)
				if attempt <= d.cfg.MaxRetries {
					// A failed connect waits the transport's own settle
					// delay, not the generic retry pause on top of it.
					delay := d.driver.ConnectDelay()
					if delay <= 0 {
						delay = d.cfg.WaitBetweenTries
					}
					d.clock.Sleep(delay)
				}
				continue
			}
			*connected = true
		}

		d.event(StateSending, job, copyNum, attempt, nil)
		err := d.driver.Send(ctx, job)
		if err == nil {
			d.event(StateSuccess, job, copyNum, attempt, nil)
			return nil
		}

		lastErr = err
		d.event(StateFailed, job, copyNum, attempt, err)

		// A failed send leaves the transport in an unknown state; drop the
		// connection so the next attempt reconnects.
		d.driver.Close()
		*connected = false

		if attempt <= d.cfg.MaxRetries {
			d.clock.Sleep(d.cfg.WaitBetweenTries)
		}
	}

	return &domain.DispatchError{
		Attempts: d.cfg.MaxRetries + 1,
		Copy:     copyNum,
		Err:      lastErr,
	}
}

func (d *Dispatcher) event(s State, job *domain.PrintJob, copyNum, attempt int, err error) {
	fields := []log.Field{
		log.Str("state", s.String()),
		log.Str("job", job.ID.String()),
		log.Str("transport", d.driver.Transport()),
		log.Int("copy", copyNum),
		log.Int("attempt", attempt),
	}
	switch s {
	case StateFailed:
		d.logger.Warn("print attempt failed", append(fields, log.Err(err))...)
	case StateSuccess:
		d.logger.Info("copy printed", fields...)
	default:
		d.logger.Debug("dispatch", fields...)
	}
}
