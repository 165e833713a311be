package render

import (
	"strings"
	"testing"
)

func newTestFitter(t *testing.T) *Fitter {
	t.Helper()
	src, err := NewFontSource("")
	if err != nil {
		t.Fatalf("NewFontSource() error = %v", err)
	}
	return NewFitter(src)
}

func TestTierCap(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"A", 60},
		{"Hi", 60},
		{"Cat", 55},
		{"Pasta", 55},
		{"Sauce!", 50},
		{"Chicken", 50},
		{"TenLetters", 50},
		{"ElevenChars", 35},
		{"Twenty characters ok", 35},
		{"Twenty-one characters", 25},
		{strings.Repeat("x", 50), 25},
	}

	for _, tt := range tests {
		if got := TierCap(tt.text); got != tt.want {
			t.Errorf("TierCap(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestFitter_Fit_NeverExceedsTierCap(t *testing.T) {
	f := newTestFitter(t)

	texts := []string{"A", "Cat", "Chicken", "A longer message", "An even longer border caption"}
	for _, text := range texts {
		cap := TierCap(text)
		got := f.Fit(text, 1000, 1000, 10, 500, cap)
		if got > cap {
			t.Errorf("Fit(%q) = %d, exceeds tier cap %d", text, got, cap)
		}
	}
}

func TestFitter_Fit_Idempotent(t *testing.T) {
	f := newTestFitter(t)

	first := f.Fit("Chicken", 400, 120, 10, 500, TierCap("Chicken"))
	second := f.Fit("Chicken", 400, 120, 10, 500, TierCap("Chicken"))
	if first != second {
		t.Errorf("Fit() not idempotent: %d then %d", first, second)
	}
}

func TestFitter_Fit_ShrinksToFit(t *testing.T) {
	f := newTestFitter(t)

	wide := f.Fit("A very long string that cannot fit", 80, 40, 10, 500, 60)
	if got, _, err := f.src.Measure("A very long string that cannot fit", wide); err == nil {
		if wide > 10 && got > 80 {
			t.Errorf("Fit() returned %d but width %d exceeds budget 80", wide, got)
		}
	}
}

func TestFitter_Fit_DegradesToMinSize(t *testing.T) {
	f := newTestFitter(t)

	// A box too small for anything still yields the minimum, never an error.
	got := f.Fit("Unfittable message", 3, 3, 10, 500, 60)
	if got != 10 {
		t.Errorf("Fit() in tiny box = %d, want min size 10", got)
	}
}

func TestFitter_Fit_RespectsMaxSize(t *testing.T) {
	f := newTestFitter(t)

	got := f.Fit("Hi", 10000, 10000, 10, 40, 60)
	if got > 40 {
		t.Errorf("Fit() = %d, exceeds max size 40", got)
	}
}
