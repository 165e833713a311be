// Package queue implements the print driver for named Unix print queues.
// Jobs are submitted through the CUPS lp client; success means queue
// acceptance, not physical completion.
package queue

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/internal/ports"
	"github.com/labelpress/labelpress/pkg/log"
)

// runner executes one external command and returns its combined output.
// Swapped out in tests.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Config parameterizes one queue driver.
type Config struct {
	// QueueName is the CUPS destination passed to lp -d.
	QueueName string

	// Label geometry forwarded as lp media/resolution options.
	WidthIn  float64
	HeightIn float64
	DPI      int
}

// Driver submits bitmaps to a named system print queue.
type Driver struct {
	cfg    Config
	run    runner
	logger log.Logger
}

var _ ports.Driver = (*Driver)(nil)

// New creates a queue driver.
func New(cfg Config, logger log.Logger) (*Driver, error) {
	if cfg.QueueName == "" {
		return nil, &domain.ConfigError{Field: "queue_name", Reason: "required for queue transport"}
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Driver{cfg: cfg, run: execRunner, logger: logger}, nil
}

func (d *Driver) Transport() string { return "queue" }

// Persistent is false: every submission is an independent lp invocation.
func (d *Driver) Persistent() bool { return false }

func (d *Driver) ConnectDelay() time.Duration { return 0 }

// Connect verifies the queue is known to the scheduler.
func (d *Driver) Connect(ctx context.Context) error {
	out, err := d.run(ctx, "lpstat", "-p", d.cfg.QueueName)
	if err != nil {
		return &domain.SendError{
			Kind:      domain.QueueUnavailable,
			Transport: d.Transport(),
			Err:       fmt.Errorf("lpstat -p %s: %w (%s)", d.cfg.QueueName, err, strings.TrimSpace(string(out))),
		}
	}
	return nil
}

// Send writes the bitmap to a temp PNG and submits it with lp. Queue
// acceptance is the success criterion.
func (d *Driver) Send(ctx context.Context, job *domain.PrintJob) error {
	f, err := os.CreateTemp("", "labelpress-*.png")
	if err != nil {
		return &domain.SendError{Kind: domain.QueueUnavailable, Transport: d.Transport(), Err: err}
	}
	path := f.Name()
	defer os.Remove(path)

	if err := png.Encode(f, job.Bitmap); err != nil {
		f.Close()
		return &domain.SendError{Kind: domain.QueueUnavailable, Transport: d.Transport(), Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.SendError{Kind: domain.QueueUnavailable, Transport: d.Transport(), Err: err}
	}

	args := []string{
		"-d", d.cfg.QueueName,
		"-o", fmt.Sprintf("media=Custom.%.2fx%.2fin", d.cfg.WidthIn, d.cfg.HeightIn),
		"-o", fmt.Sprintf("Resolution=%ddpi", d.cfg.DPI),
		"-o", "fit-to-page",
		path,
	}
	out, err := d.run(ctx, "lp", args...)
	if err != nil {
		return &domain.SendError{
			Kind:      domain.QueueUnavailable,
			Transport: d.Transport(),
			Err:       fmt.Errorf("lp: %w (%s)", err, strings.TrimSpace(string(out))),
		}
	}

	d.logger.Info("job accepted by queue",
		log.Str("queue", d.cfg.QueueName),
		log.Str("lp_output", strings.TrimSpace(string(out))),
	)
	return nil
}

// Close is a no-op; lp holds no session.
func (d *Driver) Close() error { return nil }

// List returns the queue names known to the scheduler, parsed from
// lpstat -p output lines of the form "printer NAME is idle. ...".
func List(ctx context.Context) ([]string, error) {
	return listWith(ctx, execRunner)
}

func listWith(ctx context.Context, run runner) ([]string, error) {
	out, err := run(ctx, "lpstat", "-p")
	if err != nil {
		return nil, fmt.Errorf("lpstat -p: %w", err)
	}

	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "printer" {
			names = append(names, fields[1])
		}
	}
	return names, nil
}
