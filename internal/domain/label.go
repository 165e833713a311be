package domain

import (
	"strings"
	"time"
)

// Copy count bounds for a single print job.
const (
	MinCopies = 1
	MaxCopies = 99
)

// LabelSpec describes the physical label and the typographic limits used to
// lay it out. It is resolved from configuration once per job and immutable
// afterwards.
type LabelSpec struct {
	// Physical dimensions in inches and the printer's dot density.
	WidthIn  float64
	HeightIn float64
	DPI      int

	// MarginRatio is the fraction of each canvas dimension reserved as an
	// outer margin.
	MarginRatio float64

	// Font size bounds in device pixels.
	MinFontSize int
	MaxFontSize int

	// TextHeightRatio is the fraction of canvas height reserved for each
	// date-stamp band when dates are shown.
	TextHeightRatio float64

	// MaxTextWidthRatio scales the width budget handed to the font fitter,
	// keeping text off the region edges.
	MaxTextWidthRatio float64

	// MonthSizeRatios overrides TextHeightRatio for date stamps of specific
	// calendar months.
	MonthSizeRatios map[time.Month]float64

	// Border frame stroked around the label: thickness and inset from the
	// canvas edge, both in device pixels. Zero width disables the frame.
	BorderWidth  int
	BorderMargin int
}

// DateBandRatio returns the height ratio used for the date bands of the
// given month, falling back to TextHeightRatio when no override exists.
func (s LabelSpec) DateBandRatio(m time.Month) float64 {
	if r, ok := s.MonthSizeRatios[m]; ok && r > 0 {
		return r
	}
	return s.TextHeightRatio
}

// ContentRequest is the caller-supplied content for one label.
// Empty strings are treated as absent fields, not as empty blocks.
type ContentRequest struct {
	Message       string
	BorderMessage string
	SideMessage   string

	Date     time.Time
	ShowDate bool

	// ImagePath optionally names a PNG drawn beneath the text, cropped to
	// the label interior and centered.
	ImagePath string

	Copies int
}

// HasMessage reports whether a non-blank main message is present.
func (r ContentRequest) HasMessage() bool { return strings.TrimSpace(r.Message) != "" }

// HasBorderMessage reports whether a non-blank border message is present.
func (r ContentRequest) HasBorderMessage() bool { return strings.TrimSpace(r.BorderMessage) != "" }

// HasSideMessage reports whether a non-blank side caption is present.
func (r ContentRequest) HasSideMessage() bool { return strings.TrimSpace(r.SideMessage) != "" }

// Validate rejects requests with no printable content or an out-of-bounds
// copy count. Returns a ContentError wrapping ErrContent.
func (r ContentRequest) Validate() error {
	if !r.HasMessage() && !r.HasBorderMessage() && !r.HasSideMessage() &&
		!r.ShowDate && r.ImagePath == "" {
		return &ContentError{Reason: "no message, border message, side message, date, or image to print"}
	}
	if r.Copies < MinCopies || r.Copies > MaxCopies {
		return &ContentError{Reason: "copy count out of bounds (1-99)"}
	}
	return nil
}
