// Package tspl encodes bitmaps into TSPL raster programs as understood by
// Munbyn/Beeprt RW402B-class thermal printers: a SIZE/GAP/DENSITY/SPEED/
// DIRECTION/CLS header, a BITMAP command carrying packed 1bpp image data,
// and a PRINT trailer.
package tspl
