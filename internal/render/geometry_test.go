package render

import (
	"errors"
	"testing"

	"github.com/labelpress/labelpress/internal/domain"
)

func TestResolveGeometry(t *testing.T) {
	tests := []struct {
		name    string
		spec    domain.LabelSpec
		wantW   int
		wantH   int
		wantErr bool
	}{
		{
			name:  "munbyn 2.25x1.25 at 203dpi",
			spec:  domain.LabelSpec{WidthIn: 2.25, HeightIn: 1.25, DPI: 203},
			wantW: 456, wantH: 254, // ±1 rounding tolerance checked below
		},
		{
			name:  "square inch at 300dpi",
			spec:  domain.LabelSpec{WidthIn: 1, HeightIn: 1, DPI: 300},
			wantW: 300, wantH: 300,
		},
		{
			name:    "zero dpi",
			spec:    domain.LabelSpec{WidthIn: 2, HeightIn: 1, DPI: 0},
			wantErr: true,
		},
		{
			name:    "negative dpi",
			spec:    domain.LabelSpec{WidthIn: 2, HeightIn: 1, DPI: -10},
			wantErr: true,
		},
		{
			name:    "canvas below minimum",
			spec:    domain.LabelSpec{WidthIn: 0.01, HeightIn: 1, DPI: 100},
			wantErr: true,
		},
		{
			name:    "margin ratio out of range",
			spec:    domain.LabelSpec{WidthIn: 2, HeightIn: 1, DPI: 203, MarginRatio: 0.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ResolveGeometry(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveGeometry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, domain.ErrConfig) {
					t.Errorf("error does not wrap ErrConfig: %v", err)
				}
				return
			}
			if abs(c.W-tt.wantW) > 1 || abs(c.H-tt.wantH) > 1 {
				t.Errorf("canvas = %dx%d, want %dx%d (+-1)", c.W, c.H, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCanvas_Interior(t *testing.T) {
	spec := domain.LabelSpec{WidthIn: 1, HeightIn: 1, DPI: 100, MarginRatio: 0.1}
	c, err := ResolveGeometry(spec)
	if err != nil {
		t.Fatalf("ResolveGeometry() error = %v", err)
	}

	in := c.Interior()
	if in.Min.X != 10 || in.Min.Y != 10 || in.Max.X != 90 || in.Max.Y != 90 {
		t.Errorf("Interior() = %v, want (10,10)-(90,90)", in)
	}
	if !in.In(c.Bounds()) {
		t.Error("interior must lie within canvas bounds")
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
