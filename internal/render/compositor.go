package render

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/fogleman/gg"

	"github.com/labelpress/labelpress/internal/domain"
)

// Compositor rasterizes a Plan onto a grayscale bitmap.
type Compositor struct {
	src *FontSource
}

// NewCompositor creates a compositor drawing with the given font source.
func NewCompositor(src *FontSource) *Compositor {
	return &Compositor{src: src}
}

// Compose draws the plan: background image first, then each text block,
// then the border frame. The returned bitmap matches the canvas dimensions
// exactly. A block outside the canvas is a contract violation and panics.
func (c *Compositor) Compose(plan *Plan, spec domain.LabelSpec) (*image.Gray, error) {
	canvas := plan.Canvas
	dc := gg.NewContext(canvas.W, canvas.H)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if plan.Image != nil {
		drawCropped(dc, plan.Image)
	}

	dc.SetRGB(0, 0, 0)
	for i, b := range plan.Blocks {
		if !b.Rect.In(canvas.Bounds()) {
			panic(fmt.Sprintf("render: block %d %v outside canvas %dx%d", i, b.Rect, canvas.W, canvas.H))
		}
		if err := c.drawBlock(dc, b); err != nil {
			return nil, err
		}
	}

	if spec.BorderWidth > 0 {
		drawFrame(dc, canvas, spec.BorderMargin, spec.BorderWidth)
	}

	gray := image.NewGray(canvas.Bounds())
	draw.Draw(gray, gray.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return gray, nil
}

// drawBlock renders one text block centered horizontally in its rectangle,
// aligned vertically per the block flag, rotated about the rect center.
func (c *Compositor) drawBlock(dc *gg.Context, b TextBlock) error {
	face, err := c.src.Face(b.FontSize)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	_, textH, err := c.src.Measure(b.Text, b.FontSize)
	if err != nil {
		return err
	}

	cx := float64(b.Rect.Min.X) + float64(b.Rect.Dx())/2
	var cy float64
	switch b.VAlign {
	case AlignTop:
		cy = float64(b.Rect.Min.Y) + float64(textH)/2
	case AlignBottom:
		cy = float64(b.Rect.Max.Y) - float64(textH)/2
	default:
		cy = float64(b.Rect.Min.Y) + float64(b.Rect.Dy())/2
	}

	if b.Rotation == Rotate0 {
		dc.DrawStringAnchored(b.Text, cx, cy, 0.5, 0.5)
		return nil
	}

	// Rotated blocks pivot about the same aligned anchor so a bottom-aligned
	// stamp stays on the band edge after rotation. The fitter already sized
	// the text against the swapped dimensions.
	dc.Push()
	dc.RotateAbout(gg.Radians(float64(b.Rotation)), cx, cy)
	dc.DrawStringAnchored(b.Text, cx, cy, 0.5, 0.5)
	dc.Pop()
	return nil
}

// drawFrame strokes the border rectangle inset from the canvas edge.
func drawFrame(dc *gg.Context, canvas Canvas, margin, width int) {
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(float64(width))
	half := float64(width) / 2
	dc.DrawRectangle(
		float64(margin)+half,
		float64(margin)+half,
		float64(canvas.W-2*margin)-float64(width),
		float64(canvas.H-2*margin)-float64(width),
	)
	dc.Stroke()
}

// drawCropped draws only the top-left crop of the placed image that fits its
// rectangle.
func drawCropped(dc *gg.Context, p *ImagePlacement) {
	cropped := image.NewRGBA(image.Rect(0, 0, p.Rect.Dx(), p.Rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), p.Image, p.Image.Bounds().Min, draw.Src)
	dc.DrawImage(cropped, p.Rect.Min.X, p.Rect.Min.Y)
}
