package render

import "unicode/utf8"

// Length-tiered caps keep short strings from filling the whole box at an
// absurd size. Brackets are rune counts; values are max font pixel sizes.
var tierCaps = []struct {
	maxLen int
	cap    int
}{
	{2, 60},
	{5, 55},
	{10, 50},
	{20, 35},
}

// tierCapFloor applies to strings longer than the last bracket.
const tierCapFloor = 25

// TierCap returns the maximum font pixel size allowed for text of the given
// length.
func TierCap(text string) int {
	n := utf8.RuneCountInString(text)
	for _, t := range tierCaps {
		if n <= t.maxLen {
			return t.cap
		}
	}
	return tierCapFloor
}

// Fitter finds the largest font size that renders a string inside a box.
type Fitter struct {
	src *FontSource
}

// NewFitter creates a fitter measuring with the given font source.
func NewFitter(src *FontSource) *Fitter {
	return &Fitter{src: src}
}

// Fit returns the largest size in [minSize, min(maxSize, tierCap)] at which
// text renders within maxW and maxH. It shrinks iteratively from the cap and
// never fails: when nothing fits it degrades to minSize. Deterministic for
// identical inputs.
func (f *Fitter) Fit(text string, maxW, maxH, minSize, maxSize, tierCap int) int {
	start := maxSize
	if tierCap < start {
		start = tierCap
	}
	if start < minSize {
		return minSize
	}

	for size := start; size > minSize; size-- {
		w, h, err := f.src.Measure(text, size)
		if err != nil {
			return minSize
		}
		if w <= maxW && h <= maxH {
			return size
		}
	}
	return minSize
}
