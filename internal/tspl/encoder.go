package tspl

import (
	"bytes"
	"fmt"
	"image"
	"math"
)

const mmPerInch = 25.4

// blackThreshold splits grayscale into ink and no-ink.
const blackThreshold = 128

// Options parameterize one TSPL program.
type Options struct {
	WidthMM  float64
	HeightMM float64
	GapMM    float64

	Density   int // 0-15 burn density
	Speed     int // inches per second
	Direction int // 0 or 1, feed orientation

	DPI int

	// Invert flips every payload byte. The RW402B expects inverted bitmap
	// data relative to the TSPL documentation.
	Invert bool
}

// MMToDots converts millimeters to printer dots at the given density.
func MMToDots(mm float64, dpi int) int {
	return int(math.Round(mm * float64(dpi) / mmPerInch))
}

// InchesToMM converts inches to millimeters.
func InchesToMM(in float64) float64 {
	return in * mmPerInch
}

// Encode builds the complete TSPL program printing img as one label.
// The image is thresholded to 1bpp, scaled to the label dot width if it
// differs, and clamped to the label dot height.
func Encode(img image.Image, o Options) ([]byte, error) {
	if o.DPI <= 0 {
		return nil, fmt.Errorf("tspl: dpi must be positive, got %d", o.DPI)
	}
	if o.WidthMM <= 0 || o.HeightMM <= 0 {
		return nil, fmt.Errorf("tspl: label size %gx%g mm invalid", o.WidthMM, o.HeightMM)
	}

	packed, widthBytes, rows := packBitmap(img, MMToDots(o.WidthMM, o.DPI), MMToDots(o.HeightMM, o.DPI), o.Invert)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "SIZE %.2f mm,%.2f mm\r\n", o.WidthMM, o.HeightMM)
	fmt.Fprintf(&buf, "GAP %.2f mm,0\r\n", o.GapMM)
	fmt.Fprintf(&buf, "DENSITY %d\r\n", o.Density)
	fmt.Fprintf(&buf, "SPEED %d\r\n", o.Speed)
	fmt.Fprintf(&buf, "DIRECTION %d\r\n", o.Direction)
	buf.WriteString("CLS\r\n")
	fmt.Fprintf(&buf, "BITMAP 0,0,%d,%d,0,", widthBytes, rows)
	buf.Write(packed)
	buf.WriteString("\r\nPRINT 1\r\n")
	return buf.Bytes(), nil
}

// packBitmap thresholds img to 1bpp and packs rows MSB-first, one bit per
// dot, 1 = black. Width is scaled (nearest neighbor) to targetW when it
// differs; height is clamped to targetH.
func packBitmap(img image.Image, targetW, targetH int, invert bool) (packed []byte, widthBytes, rows int) {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	outW := targetW
	outH := srcH
	if srcW != targetW {
		outH = int(math.Round(float64(srcH) * float64(targetW) / float64(srcW)))
	}
	if outH > targetH {
		outH = targetH
	}

	widthBytes = (outW + 7) / 8
	packed = make([]byte, 0, widthBytes*outH)

	for y := 0; y < outH; y++ {
		srcY := b.Min.Y + y*srcH/outH
		var cur byte
		bits := 0
		for x := 0; x < outW; x++ {
			srcX := b.Min.X + x*srcW/outW
			cur <<= 1
			if luminance(img, srcX, srcY) < blackThreshold {
				cur |= 1
			}
			bits++
			if bits == 8 {
				packed = append(packed, cur)
				cur, bits = 0, 0
			}
		}
		if bits > 0 {
			cur <<= uint(8 - bits)
			packed = append(packed, cur)
		}
	}

	if invert {
		for i := range packed {
			packed[i] = ^packed[i]
		}
	}
	return packed, widthBytes, outH
}

func luminance(img image.Image, x, y int) uint8 {
	if g, ok := img.(*image.Gray); ok {
		return g.GrayAt(x, y).Y
	}
	r, g, b, _ := img.At(x, y).RGBA()
	// Rec. 601 luma, 16-bit channels down to 8.
	return uint8((299*r + 587*g + 114*b) / 1000 >> 8)
}
