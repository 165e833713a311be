// Package render turns a LabelSpec and a ContentRequest into a monochrome
// bitmap. It resolves physical dimensions into a device-pixel canvas,
// partitions the canvas into non-overlapping text regions, fits each text to
// its region, and rasterizes the result.
//
// Overlap between text blocks is structurally impossible: regions are
// assigned by partitioning the canvas, never by fitting blocks
// independently. A plan that violates this is a programming error and
// panics rather than producing a corrupted bitmap.
package render
