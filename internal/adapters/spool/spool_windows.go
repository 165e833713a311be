//go:build windows

package spool

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/labelpress/labelpress/internal/domain"
	"github.com/labelpress/labelpress/internal/ports"
	"github.com/labelpress/labelpress/pkg/log"
)

var (
	gdi32    = windows.NewLazySystemDLL("gdi32.dll")
	winspool = windows.NewLazySystemDLL("winspool.drv")

	procCreateDC      = gdi32.NewProc("CreateDCW")
	procDeleteDC      = gdi32.NewProc("DeleteDC")
	procGetDeviceCaps = gdi32.NewProc("GetDeviceCaps")
	procSetMapMode    = gdi32.NewProc("SetMapMode")
	procStartDoc      = gdi32.NewProc("StartDocW")
	procEndDoc        = gdi32.NewProc("EndDoc")
	procStartPage     = gdi32.NewProc("StartPage")
	procEndPage       = gdi32.NewProc("EndPage")
	procStretchDIBits = gdi32.NewProc("StretchDIBits")

	procEnumPrinters = winspool.NewProc("EnumPrintersW")
)

// deviceCap is a GetDeviceCaps query index. The enum-to-meaning mapping
// lives here and nowhere else; callers only see the Capabilities struct.
type deviceCap uintptr

const (
	capHorzRes         deviceCap = 8
	capVertRes         deviceCap = 10
	capLogPixelsX      deviceCap = 88
	capLogPixelsY      deviceCap = 90
	capPhysicalWidth   deviceCap = 110
	capPhysicalHeight  deviceCap = 111
	capPhysicalOffsetX deviceCap = 112
	capPhysicalOffsetY deviceCap = 113
)

const (
	mmText       = 1 // MM_TEXT mapping mode, 1 logical unit = 1 pixel
	dibRGBColors = 0
	srcCopy      = 0x00CC0020
	biRGB        = 0

	printerEnumLocal       = 2
	printerEnumConnections = 4
)

type docInfo struct {
	size     int32
	docName  *uint16
	output   *uint16
	datatype *uint16
	docType  uint32
}

type bitmapInfoHeader struct {
	size          uint32
	width         int32
	height        int32
	planes        uint16
	bitCount      uint16
	compression   uint32
	sizeImage     uint32
	xPelsPerMeter int32
	yPelsPerMeter int32
	clrUsed       uint32
	clrImportant  uint32
}

// Driver streams raster jobs to a named spooler printer through a GDI
// device context.
type Driver struct {
	cfg    Config
	logger log.Logger

	hdc  uintptr
	caps Capabilities
}

var _ ports.Driver = (*Driver)(nil)

// New creates a spool driver for the named printer.
func New(cfg Config, logger log.Logger) (*Driver, error) {
	if cfg.PrinterName == "" {
		return nil, &domain.ConfigError{Field: "printer_name", Reason: "required for spool transport"}
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Driver{cfg: cfg, logger: logger}, nil
}

func (d *Driver) Transport() string { return "spool" }

// Persistent is true: the device context is reusable across copies.
func (d *Driver) Persistent() bool { return true }

func (d *Driver) ConnectDelay() time.Duration { return d.cfg.ConnectWait }

// Connect opens a device context for the printer and queries its
// capabilities, cross-checking the configured label geometry.
func (d *Driver) Connect(ctx context.Context) error {
	if d.hdc != 0 {
		return nil
	}

	name, err := windows.UTF16PtrFromString(d.cfg.PrinterName)
	if err != nil {
		return d.sendErr(domain.DeviceNotFound, err)
	}

	hdc, _, callErr := procCreateDC.Call(0, uintptr(unsafe.Pointer(name)), 0, 0)
	if hdc == 0 {
		return d.sendErr(domain.DeviceNotFound,
			fmt.Errorf("CreateDC %q: %w", d.cfg.PrinterName, callErr))
	}

	d.hdc = hdc
	d.caps = queryCapabilities(hdc)

	// The device's idea of the label should match ours; a mismatch prints,
	// but misaligned.
	wantW := int(math.Round(d.cfg.WidthIn * float64(d.cfg.DPI)))
	if d.caps.LogicalDPIX != d.cfg.DPI || abs(d.caps.PrintableWidth-wantW) > 8 {
		d.logger.Warn("device geometry differs from configuration",
			log.Int("device_dpi", d.caps.LogicalDPIX),
			log.Int("config_dpi", d.cfg.DPI),
			log.Int("device_printable_width", d.caps.PrintableWidth),
			log.Int("config_width_px", wantW),
		)
	}
	return nil
}

// Send streams one copy of the bitmap through StartDoc/StretchDIBits/EndDoc.
func (d *Driver) Send(ctx context.Context, job *domain.PrintJob) error {
	if d.hdc == 0 {
		return d.sendErr(domain.NotConnected, nil)
	}

	bounds := job.Bitmap.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	docName, err := windows.UTF16PtrFromString("labelpress " + job.ID.String())
	if err != nil {
		return d.sendErr(domain.SpoolerRejected, err)
	}
	di := docInfo{size: int32(unsafe.Sizeof(docInfo{})), docName: docName}

	if ret, _, callErr := procStartDoc.Call(d.hdc, uintptr(unsafe.Pointer(&di))); int32(ret) <= 0 {
		return d.sendErr(domain.SpoolerRejected, fmt.Errorf("StartDoc: %w", callErr))
	}
	if ret, _, callErr := procStartPage.Call(d.hdc); int32(ret) <= 0 {
		procEndDoc.Call(d.hdc)
		return d.sendErr(domain.SpoolerRejected, fmt.Errorf("StartPage: %w", callErr))
	}

	procSetMapMode.Call(d.hdc, mmText)

	bits, stride := grayToBGR(job.Bitmap)
	hdr := bitmapInfoHeader{
		size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		width:       int32(w),
		height:      -int32(h), // negative height = top-down rows
		planes:      1,
		bitCount:    24,
		compression: biRGB,
		sizeImage:   uint32(stride * h),
	}

	x := horizontalOffset(d.caps, d.cfg.PositioningMode, w, d.cfg.HorizontalOffset)
	ret, _, callErr := procStretchDIBits.Call(
		d.hdc,
		uintptr(x), 0, uintptr(w), uintptr(h),
		0, 0, uintptr(w), uintptr(h),
		uintptr(unsafe.Pointer(&bits[0])),
		uintptr(unsafe.Pointer(&hdr)),
		dibRGBColors,
		srcCopy,
	)
	if int32(ret) <= 0 {
		procEndPage.Call(d.hdc)
		procEndDoc.Call(d.hdc)
		return d.sendErr(domain.SpoolerRejected, fmt.Errorf("StretchDIBits: %w", callErr))
	}

	if ret, _, callErr := procEndPage.Call(d.hdc); int32(ret) <= 0 {
		procEndDoc.Call(d.hdc)
		return d.sendErr(domain.SpoolerRejected, fmt.Errorf("EndPage: %w", callErr))
	}
	if ret, _, callErr := procEndDoc.Call(d.hdc); int32(ret) <= 0 {
		return d.sendErr(domain.SpoolerRejected, fmt.Errorf("EndDoc: %w", callErr))
	}

	d.logger.Info("raster job submitted",
		log.Str("printer", d.cfg.PrinterName),
		log.Int("x_offset", x),
	)
	return nil
}

// Close releases the device context.
func (d *Driver) Close() error {
	if d.hdc == 0 {
		return nil
	}
	procDeleteDC.Call(d.hdc)
	d.hdc = 0
	return nil
}

func (d *Driver) sendErr(kind domain.SendErrorKind, err error) *domain.SendError {
	return &domain.SendError{Kind: kind, Transport: d.Transport(), Err: err}
}

func queryCapabilities(hdc uintptr) Capabilities {
	query := func(c deviceCap) int {
		ret, _, _ := procGetDeviceCaps.Call(hdc, uintptr(c))
		return int(int32(ret))
	}
	return Capabilities{
		PhysicalWidth:   query(capPhysicalWidth),
		PhysicalHeight:  query(capPhysicalHeight),
		LogicalDPIX:     query(capLogPixelsX),
		LogicalDPIY:     query(capLogPixelsY),
		PrintableWidth:  query(capHorzRes),
		PrintableHeight: query(capVertRes),
		OffsetX:         query(capPhysicalOffsetX),
		OffsetY:         query(capPhysicalOffsetY),
	}
}

// grayToBGR expands a grayscale bitmap into the 24bpp BGR DIB layout with
// rows padded to 4-byte boundaries.
func grayToBGR(img *image.Gray) ([]byte, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	stride := (w*3 + 3) &^ 3

	out := make([]byte, stride*h)
	for y := 0; y < h; y++ {
		row := out[y*stride:]
		for x := 0; x < w; x++ {
			v := img.GrayAt(b.Min.X+x, b.Min.Y+y).Y
			row[x*3+0] = v
			row[x*3+1] = v
			row[x*3+2] = v
		}
	}
	return out, stride
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// List enumerates local and connected spooler printers by name.
func List() ([]string, error) {
	var needed, count uint32
	flags := uintptr(printerEnumLocal | printerEnumConnections)

	// First call sizes the buffer.
	procEnumPrinters.Call(flags, 0, 4, 0, 0,
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&count)))
	if needed == 0 {
		return nil, nil
	}

	buf := make([]byte, needed)
	ret, _, callErr := procEnumPrinters.Call(flags, 0, 4,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(needed),
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&count)))
	if ret == 0 {
		return nil, fmt.Errorf("EnumPrinters: %w", callErr)
	}

	// PRINTER_INFO_4: name pointer, server pointer, attributes.
	type printerInfo4 struct {
		printerName *uint16
		serverName  *uint16
		attributes  uint32
	}

	infos := unsafe.Slice((*printerInfo4)(unsafe.Pointer(&buf[0])), count)
	names := make([]string, 0, count)
	for _, info := range infos {
		if info.printerName != nil {
			names = append(names, windows.UTF16PtrToString(info.printerName))
		}
	}
	return names, nil
}
