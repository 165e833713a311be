package ports

import (
	"context"
	"time"

	"github.com/labelpress/labelpress/internal/domain"
)

// Driver delivers a rendered bitmap to one physical printer over one
// transport. Implementations are not safe for concurrent use; the dispatch
// controller owns a driver exclusively for the duration of one job.
type Driver interface {
	// Transport returns the transport name ("spool", "queue", "ble") used in
	// logs and SendError values.
	Transport() string

	// Persistent reports whether an established connection can be reused
	// across copies within one job. Stateless transports return false and
	// are re-opened per copy.
	Persistent() bool

	// ConnectDelay is the pacing applied after a failed connect attempt
	// before the next retry. Zero for transports with cheap connects.
	ConnectDelay() time.Duration

	// Connect establishes the transport session. Called lazily before the
	// first send attempt and again after any failure. Errors are SendError
	// values and count against the retry budget.
	Connect(ctx context.Context) error

	// Send transmits one copy of the job's bitmap. Requires a prior
	// successful Connect. A failed send leaves the connection in an unknown
	// state; the controller closes and reconnects before retrying.
	Send(ctx context.Context, job *domain.PrintJob) error

	// Close releases the transport session. Safe to call when not connected.
	Close() error
}
