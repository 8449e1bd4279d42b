package gaudit

import (
	"context"
	"fmt"

	"github.com/mickamy/gaudit/internal/buffer"
)

// Store persists and retrieves audit records.
type Store interface {
	// Create validates and persists r. It must fail if r is rejected.
	Create(ctx context.Context, r *Record) error
	// Query returns every record matching f.
	Query(ctx context.Context, f Filter) ([]Record, error)
}

// Deferred buffers created records until Flush, so a host can write audits
// only when its own transaction commits.
type Deferred struct {
	next Store
	buf  *buffer.Buffer[*Record]
}

// NewDeferred wraps next with a write buffer.
func NewDeferred(next Store) *Deferred {
	return &Deferred{next: next, buf: buffer.New[*Record]()}
}

// Create validates r and buffers it.
func (d *Deferred) Create(_ context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	d.buf.Push(r)
	return nil
}

// Query reads from the underlying store; buffered records are not visible.
func (d *Deferred) Query(ctx context.Context, f Filter) ([]Record, error) {
	return d.next.Query(ctx, f)
}

// Flush writes buffered records to the underlying store in order.
// On failure the unwritten records stay buffered.
func (d *Deferred) Flush(ctx context.Context) error {
	rs := d.buf.Drain()
	for i, r := range rs {
		if err := d.next.Create(ctx, r); err != nil {
			d.buf.Requeue(rs[i:])
			return fmt.Errorf("gaudit: failed to flush record %s: %w", r.ID, err)
		}
	}
	return nil
}

// Discard drops every buffered record.
func (d *Deferred) Discard() {
	d.buf.Drain()
}

// Pending returns the number of buffered records.
func (d *Deferred) Pending() int {
	return d.buf.Len()
}
