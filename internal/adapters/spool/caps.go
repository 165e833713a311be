// Package spool implements the print driver for the local OS print spooler
// (Windows GDI raster path). On other platforms the constructor fails with a
// configuration error; the queue or ble transports apply there.
package spool

import "time"

// Capabilities are the device answers to the capability query, exposed as
// named fields. The raw query indices never leave the platform layer.
type Capabilities struct {
	PhysicalWidth   int // full paper width, device units
	PhysicalHeight  int // full paper height, device units
	LogicalDPIX     int
	LogicalDPIY     int
	PrintableWidth  int // printable area, pixels
	PrintableHeight int
	OffsetX         int // unprintable left margin, device units
	OffsetY         int // unprintable top margin, device units
}

// Positioning modes for horizontal placement of the bitmap on the physical
// label. Some spooler drivers center content in a wider printable area;
// others expect the physical offset applied verbatim.
const (
	PositionAuto           = "auto"
	PositionPhysicalOffset = "physical_offset"
	PositionCenter         = "center"
	PositionManual         = "manual"
)

// Config parameterizes one spool driver.
type Config struct {
	// PrinterName is the spooler name of the target printer.
	PrinterName string

	// Expected label geometry, cross-checked against device capabilities.
	WidthIn  float64
	HeightIn float64
	DPI      int

	// PositioningMode selects the horizontal placement strategy; see the
	// Position constants. HorizontalOffset adds a manual adjustment in
	// device pixels.
	PositioningMode  string
	HorizontalOffset int

	// ConnectWait is the pacing before connect retries, for spooler
	// printers backed by a classic paired Bluetooth link.
	ConnectWait time.Duration
}

// horizontalOffset resolves the x position for a bitmap of the given width
// under the configured positioning mode.
func horizontalOffset(caps Capabilities, mode string, imageWidth, manual int) int {
	center := 0
	if caps.PrintableWidth > imageWidth {
		center = (caps.PrintableWidth - imageWidth) / 2
	}

	var offset int
	switch mode {
	case PositionCenter:
		offset = center
	case PositionPhysicalOffset:
		offset = caps.OffsetX
	case PositionManual:
		return manual
	default: // auto: center when the printable area is wider, else physical
		if center > 0 {
			offset = center
		} else {
			offset = caps.OffsetX
		}
	}
	return offset + manual
}
