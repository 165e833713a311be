package spool

import "testing"

func TestHorizontalOffset(t *testing.T) {
	caps := Capabilities{
		PrintableWidth: 500,
		OffsetX:        12,
	}

	tests := []struct {
		name   string
		mode   string
		imageW int
		manual int
		want   int
	}{
		{"auto centers in wider area", PositionAuto, 456, 0, 22},
		{"auto falls back to physical offset", PositionAuto, 500, 0, 12},
		{"center mode", PositionCenter, 456, 0, 22},
		{"physical offset mode", PositionPhysicalOffset, 456, 0, 12},
		{"manual mode ignores caps", PositionManual, 456, 30, 30},
		{"manual adjustment added in auto", PositionAuto, 456, 5, 27},
		{"unknown mode behaves like auto", "bogus", 456, 0, 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := horizontalOffset(caps, tt.mode, tt.imageW, tt.manual)
			if got != tt.want {
				t.Errorf("horizontalOffset() = %d, want %d", got, tt.want)
			}
		})
	}
}
