package app

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/labelpress/labelpress/internal/adapters/ble"
	"github.com/labelpress/labelpress/internal/adapters/devcache"
	"github.com/labelpress/labelpress/internal/adapters/queue"
	"github.com/labelpress/labelpress/internal/adapters/spool"
	"github.com/labelpress/labelpress/internal/cliconfig"
	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/internal/ports"
	"github.com/labelpress/labelpress/internal/render"
	"github.com/labelpress/labelpress/internal/tspl"
	"github.com/labelpress/labelpress/pkg/log"
)

// Pipeline renders content requests into label bitmaps. One Pipeline holds
// one loaded font; it is safe for concurrent use.
type Pipeline struct {
	fonts      *render.FontSource
	planner    *render.Planner
	compositor *render.Compositor
}

// NewPipeline loads the font at fontPath (empty selects the embedded face)
// and wires the layout and raster stages around it.
func NewPipeline(fontPath string) (*Pipeline, error) {
	src, err := render.NewFontSource(fontPath)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		fonts:      src,
		planner:    render.NewPlanner(src),
		compositor: render.NewCompositor(src),
	}, nil
}

// Render produces the final grayscale bitmap for one request. The date
// string is formatted with dateFormat when the request shows dates.
func (p *Pipeline) Render(spec domain.LabelSpec, req domain.ContentRequest, dateFormat string) (*image.Gray, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var dateStr string
	if req.ShowDate {
		dateStr = req.Date.Format(dateFormat)
	}

	var bg image.Image
	if req.ImagePath != "" {
		img, err := loadPNG(req.ImagePath)
		if err != nil {
			return nil, err
		}
		bg = img
	}

	plan, err := p.planner.Plan(spec, req, dateStr, bg)
	if err != nil {
		return nil, err
	}
	return p.compositor.Compose(plan, spec)
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ContentError{Reason: fmt.Sprintf("open image %s: %v", path, err)}
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, &domain.ContentError{Reason: fmt.Sprintf("decode image %s: %v", path, err)}
	}
	return img, nil
}

// NewDriver builds the transport driver for the named printer section.
func NewDriver(cfg cliconfig.Config, name string, logger log.Logger) (ports.Driver, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	name, pc, err := cfg.ResolvePrinter(name)
	if err != nil {
		return nil, err
	}

	switch pc.Transport {
	case cliconfig.TransportBLE:
		cacheDir := cfg.CacheDir
		if cacheDir == "" {
			cacheDir = cliconfig.DefaultCacheDir()
		}
		var cache *devcache.Cache
		if cacheDir != "" {
			cache, err = devcache.Open(cacheDir)
			if err != nil {
				// Cache trouble should never block printing.
				logger.Warn("device cache unavailable", log.Str("dir", cacheDir), log.Err(err))
				cache = nil
			}
		}
		return ble.New(ble.Config{
			DeviceName:  pc.DeviceName,
			Address:     pc.DeviceAddress,
			ConnectWait: pc.ConnectWait,
			ScanWindow:  pc.ScanWindow,
			TSPL: tspl.Options{
				WidthMM:   tspl.InchesToMM(pc.LabelWidthIn),
				HeightMM:  tspl.InchesToMM(pc.LabelHeightIn),
				GapMM:     pc.GapMM,
				Density:   pc.Density,
				Speed:     pc.Speed,
				Direction: pc.Direction,
				DPI:       pc.DPI,
				Invert:    pc.Invert,
			},
		}, cache, logger)

	case cliconfig.TransportQueue:
		return queue.New(queue.Config{
			QueueName: pc.QueueName,
			WidthIn:   pc.LabelWidthIn,
			HeightIn:  pc.LabelHeightIn,
			DPI:       pc.DPI,
		}, logger)

	case cliconfig.TransportSpool:
		d, err := spool.New(spool.Config{
			PrinterName:      name,
			WidthIn:          pc.LabelWidthIn,
			HeightIn:         pc.LabelHeightIn,
			DPI:              pc.DPI,
			PositioningMode:  pc.PositioningMode,
			HorizontalOffset: pc.HorizontalOffset,
			ConnectWait:      pc.ConnectWait,
		}, logger)
		if err != nil {
			return nil, err
		}
		return d, nil

	default:
		return nil, &domain.ConfigError{
			Field:  "transport",
			Reason: fmt.Sprintf("unknown transport %q", pc.Transport),
		}
	}
}

// Print renders the request and dispatches it to the named printer. It is
// the one-call entry used by both the CLI and the HTTP server.
func Print(ctx context.Context, cfg cliconfig.Config, printer string, req domain.ContentRequest, logger log.Logger) error {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	name, _, err := cfg.ResolvePrinter(printer)
	if err != nil {
		return err
	}
	spec, err := cfg.LabelSpecFor(name)
	if err != nil {
		return err
	}

	pipeline, err := NewPipeline(cfg.FontPath)
	if err != nil {
		return err
	}
	bitmap, err := pipeline.Render(spec, req, cfg.DateFormat)
	if err != nil {
		return err
	}

	driver, err := NewDriver(cfg, name, logger)
	if err != nil {
		return err
	}

	job := domain.NewPrintJob(bitmap, req.Copies)
	logger.Info("dispatching job",
		log.Str("job", job.ID.String()),
		log.Str("printer", name),
		log.Str("transport", driver.Transport()),
		log.Int("copies", job.Copies),
	)

	d := NewDispatcher(driver, DispatchConfig{
		MaxRetries:         cfg.MaxRetries,
		WaitBetweenTries:   cfg.WaitBetweenTries,
		PauseBetweenLabels: cfg.PauseBetweenLabels,
	}, clockwork.NewRealClock(), logger)
	return d.Dispatch(ctx, job)
}
