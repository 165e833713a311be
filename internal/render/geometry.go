package render

import (
	"image"
	"math"

	"github.com/labelpress/labelpress/internal/domain"
)

// minCanvasPx is the smallest usable canvas dimension. Anything below this
// cannot hold even a single glyph at the minimum font size.
const minCanvasPx = 10

// Canvas is the device-pixel drawing surface resolved from a LabelSpec.
// It is owned exclusively by a single render pass.
type Canvas struct {
	W, H    int
	MarginX int
	MarginY int
}

// Bounds returns the full canvas rectangle.
func (c Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.W, c.H)
}

// Interior returns the canvas minus its margins.
func (c Canvas) Interior() image.Rectangle {
	return image.Rect(c.MarginX, c.MarginY, c.W-c.MarginX, c.H-c.MarginY)
}

// ResolveGeometry converts the physical label dimensions and DPI of a
// LabelSpec into a pixel canvas with margins. Pure; called once per request.
func ResolveGeometry(spec domain.LabelSpec) (Canvas, error) {
	if spec.DPI <= 0 {
		return Canvas{}, &domain.ConfigError{Field: "dpi", Reason: "must be positive"}
	}
	if spec.MarginRatio < 0 || spec.MarginRatio >= 0.5 {
		return Canvas{}, &domain.ConfigError{Field: "margin_ratio", Reason: "must be in [0, 0.5)"}
	}

	c := Canvas{
		W: int(math.Round(spec.WidthIn * float64(spec.DPI))),
		H: int(math.Round(spec.HeightIn * float64(spec.DPI))),
	}
	if c.W < minCanvasPx || c.H < minCanvasPx {
		return Canvas{}, &domain.ConfigError{Field: "label size", Reason: "canvas smaller than 10px"}
	}

	c.MarginX = int(math.Round(spec.MarginRatio * float64(c.W)))
	c.MarginY = int(math.Round(spec.MarginRatio * float64(c.H)))
	return c, nil
}
