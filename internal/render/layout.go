package render

import (
	"fmt"
	"image"
	"math"

	"github.com/labelpress/labelpress/internal/domain"
)

// VAlign controls vertical placement of text within its rectangle.
type VAlign int

const (
	AlignMiddle VAlign = iota
	AlignTop
	AlignBottom
)

// Rotation is the clockwise rotation applied when drawing a block.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Pixel gaps separating layout regions. The frame pad keeps text off the
// border stroke; the region gap guarantees split regions cannot touch.
const (
	framePad  = 3
	regionGap = 6
)

// TextBlock is one positioned, sized piece of text. Produced by the planner,
// consumed read-only by the compositor.
type TextBlock struct {
	Text     string
	Rect     image.Rectangle
	FontSize int
	VAlign   VAlign
	Rotation Rotation
}

// ImagePlacement positions a background image within the canvas.
type ImagePlacement struct {
	Image image.Image
	Rect  image.Rectangle
}

// Plan is the full layout for one label: the canvas, every text block, and
// an optional background image. Blocks never overlap and always lie inside
// the canvas interior.
type Plan struct {
	Canvas Canvas
	Blocks []TextBlock
	Image  *ImagePlacement
}

// Planner partitions a canvas into regions and assigns one TextBlock per
// populated content field.
type Planner struct {
	fitter *Fitter
	src    *FontSource
}

// NewPlanner creates a planner fitting text with the given font source.
func NewPlanner(src *FontSource) *Planner {
	return &Planner{fitter: NewFitter(src), src: src}
}

// Plan lays out the request on a canvas resolved from spec. dateStr is the
// formatted date used for both stamps when req.ShowDate is set. bg is the
// decoded background image, nil when req has none.
func (p *Planner) Plan(spec domain.LabelSpec, req domain.ContentRequest, dateStr string, bg image.Image) (*Plan, error) {
	canvas, err := ResolveGeometry(spec)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Canvas: canvas}

	// Interior inset past the border frame so text never touches the stroke.
	inset := framePad
	if spec.BorderWidth > 0 {
		inset += spec.BorderMargin + spec.BorderWidth
	}
	interior := canvas.Interior().Inset(inset)
	if interior.Dx() < 1 || interior.Dy() < 1 {
		return nil, &domain.ConfigError{
			Field:  "label size",
			Reason: "interior vanishes inside margins and border frame",
		}
	}

	area := interior

	if req.ShowDate {
		bandH := int(math.Round(float64(canvas.H) * spec.DateBandRatio(req.Date.Month())))
		bandH = clampBand(bandH, area.Dy())

		top := image.Rect(area.Min.X, area.Min.Y, area.Max.X, area.Min.Y+bandH)
		bottom := image.Rect(area.Min.X, area.Max.Y-bandH, area.Max.X, area.Max.Y)

		plan.Blocks = append(plan.Blocks,
			p.block(spec, dateStr, top, AlignTop, Rotate0),
			// The bottom stamp reads from the opposite side of the label.
			p.block(spec, dateStr, bottom, AlignBottom, Rotate180),
		)

		// image.Rect canonicalizes an inverted range into a rect overlapping
		// the bands, so the degenerate case must be caught before it.
		minY, maxY := top.Max.Y+regionGap, bottom.Min.Y-regionGap
		if maxY-minY < 1 {
			if req.HasMessage() || req.HasBorderMessage() || req.HasSideMessage() {
				return nil, &domain.ConfigError{
					Field:  "label size",
					Reason: "no room left between date bands",
				}
			}
			area = image.Rectangle{}
		} else {
			area = image.Rect(area.Min.X, minY, area.Max.X, maxY)
		}
	}

	if req.HasSideMessage() {
		stripW := int(math.Round(float64(canvas.H) * spec.TextHeightRatio))
		stripW = clampBand(stripW, area.Dx())

		left := image.Rect(area.Min.X, area.Min.Y, area.Min.X+stripW, area.Max.Y)
		right := image.Rect(area.Max.X-stripW, area.Min.Y, area.Max.X, area.Max.Y)

		plan.Blocks = append(plan.Blocks,
			p.block(spec, req.SideMessage, left, AlignMiddle, Rotate90),
			p.block(spec, req.SideMessage, right, AlignMiddle, Rotate270),
		)

		minX, maxX := left.Max.X+regionGap, right.Min.X-regionGap
		if maxX-minX < 1 {
			if req.HasMessage() || req.HasBorderMessage() {
				return nil, &domain.ConfigError{
					Field:  "label size",
					Reason: "no room left beside side captions",
				}
			}
			area = image.Rectangle{}
		} else {
			area = image.Rect(minX, area.Min.Y, maxX, area.Max.Y)
		}
	}

	// The message area splits 60/40 between main and border text when both
	// are present; a single message takes the whole area.
	switch {
	case req.HasMessage() && req.HasBorderMessage():
		usable := area.Dy() - regionGap
		mainH := int(math.Round(float64(usable) * 0.6))

		main := image.Rect(area.Min.X, area.Min.Y, area.Max.X, area.Min.Y+mainH)
		border := image.Rect(area.Min.X, main.Max.Y+regionGap, area.Max.X, area.Max.Y)

		plan.Blocks = append(plan.Blocks,
			p.block(spec, req.Message, main, AlignMiddle, Rotate0),
			p.block(spec, req.BorderMessage, border, AlignMiddle, Rotate0),
		)
	case req.HasMessage():
		plan.Blocks = append(plan.Blocks, p.block(spec, req.Message, area, AlignMiddle, Rotate0))
	case req.HasBorderMessage():
		plan.Blocks = append(plan.Blocks, p.block(spec, req.BorderMessage, area, AlignMiddle, Rotate0))
	}

	// The background image fills the frame-inset interior regardless of how
	// text partitioned it; text draws over the image.
	if bg != nil {
		plan.Image = placeImage(bg, interior)
	}

	validate(plan, canvas.Interior())
	return plan, nil
}

// block fits text into rect and builds its TextBlock. Rotated blocks fit
// against swapped dimensions since the glyph run lies along the rect's
// vertical axis.
func (p *Planner) block(spec domain.LabelSpec, text string, rect image.Rectangle, va VAlign, rot Rotation) TextBlock {
	maxW, maxH := rect.Dx(), rect.Dy()
	if rot == Rotate90 || rot == Rotate270 {
		maxW, maxH = maxH, maxW
	}
	maxW = int(math.Round(float64(maxW) * spec.MaxTextWidthRatio))

	size := p.fitter.Fit(text, maxW, maxH, spec.MinFontSize, spec.MaxFontSize, TierCap(text))
	return TextBlock{
		Text:     text,
		Rect:     rect,
		FontSize: size,
		VAlign:   va,
		Rotation: rot,
	}
}

// placeImage crops the image to the area (no scaling) and centers it.
func placeImage(img image.Image, area image.Rectangle) *ImagePlacement {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w > area.Dx() {
		w = area.Dx()
	}
	if h > area.Dy() {
		h = area.Dy()
	}
	x := area.Min.X + (area.Dx()-w)/2
	y := area.Min.Y + (area.Dy()-h)/2
	return &ImagePlacement{
		Image: img,
		Rect:  image.Rect(x, y, x+w, y+h),
	}
}

// clampBand caps a band or strip to at most a third of the available run so
// two bands plus a usable middle always fit.
func clampBand(px, avail int) int {
	if limit := avail / 3; px > limit {
		px = limit
	}
	if px < 1 {
		px = 1
	}
	return px
}

// validate enforces the plan invariants: every block inside the interior,
// no two blocks overlapping. Violations are contract failures in the
// partition logic, not user errors, so they abort loudly.
func validate(plan *Plan, interior image.Rectangle) {
	for i, b := range plan.Blocks {
		if !b.Rect.In(interior) {
			panic(fmt.Sprintf("render: block %d %v escapes interior %v", i, b.Rect, interior))
		}
		for j := i + 1; j < len(plan.Blocks); j++ {
			if b.Rect.Overlaps(plan.Blocks[j].Rect) {
				panic(fmt.Sprintf("render: blocks %d and %d overlap: %v, %v",
					i, j, b.Rect, plan.Blocks[j].Rect))
			}
		}
	}
}
