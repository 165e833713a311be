package domain

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// PrintJob is a rendered bitmap plus its delivery parameters. It is owned by
// the dispatch controller for the duration of its send loop and discarded
// after all copies complete or after terminal failure.
type PrintJob struct {
	ID     uuid.UUID
	Bitmap *image.Gray
	Copies int

	CreatedAt time.Time
}

// NewPrintJob wraps a rendered bitmap into a job with a fresh id.
func NewPrintJob(bitmap *image.Gray, copies int) *PrintJob {
	return &PrintJob{
		ID:        uuid.New(),
		Bitmap:    bitmap,
		Copies:    copies,
		CreatedAt: time.Now(),
	}
}
