package nexusq

import (
	"context"
	"runtime"
	"time"
)

// Receiver reads values published by any Sender on the same Nexus, in
// global publication order, at its own pace. Construction and Clone both
// claim a reader slot on the receiver's starting cell and register with
// the Nexus's receiver census; Close (or the finalizer backstop) releases
// both.
type Receiver[T any] struct {
	n *nexus[T]

	cursor        uint64 // next id this receiver expects
	previousIndex uint64 // buffer index currently held in that cell's reader count
}

// Recv blocks until the next value is published, in the global publication
// order. It has no disconnect error: a receiver that outlives every sender
// simply blocks forever, by design (spec §7).
func (r *Receiver[T]) Recv() T {
	c := r.n.cellAt(r.cursor)
	c.waitForPublished(r.cursor)
	return r.advance(c)
}

// TryRecv returns the next value without blocking, or NoNewData if the
// next cell has not been published yet.
func (r *Receiver[T]) TryRecv() (T, error) {
	c := r.n.cellAt(r.cursor)
	if !c.published(r.cursor) {
		var zero T
		return zero, &RecvError{Kind: NoNewData}
	}
	return r.advance(c), nil
}

// TryRecvUntil returns the next value, blocking at most until deadline.
func (r *Receiver[T]) TryRecvUntil(deadline time.Time) (T, error) {
	c := r.n.cellAt(r.cursor)
	if !c.waitForPublishedUntil(r.cursor, deadline) {
		var zero T
		return zero, &RecvError{Kind: RecvTimeout}
	}
	return r.advance(c), nil
}

// Next is the context-aware, cooperative-cancellation equivalent of
// poll_next: a single select over the cell's Listener and ctx.Done(),
// performed inside the wait strategy, stands in for register-waker-then-
// poll (see SPEC_FULL.md §5).
func (r *Receiver[T]) Next(ctx context.Context) (T, error) {
	c := r.n.cellAt(r.cursor)
	if err := c.waitForPublishedContext(r.cursor, ctx); err != nil {
		var zero T
		return zero, &RecvError{Kind: RecvTimeout}
	}
	return r.advance(c), nil
}

// TryRecvBatch clones as many already-published values as are available,
// up to max, into out (which must have capacity max), and returns the
// count written. It peeks the Nexus's claimed counter to avoid reading a
// cell that the in-progress claim itself would still need to publish, and
// performs a single move_to/move_from pair for the whole batch instead of
// one pair per value (spec §4.4, §9).
func (r *Receiver[T]) TryRecvBatch(max int, out []T) int {
	if max <= 0 || len(out) == 0 {
		return 0
	}
	if max > len(out) {
		max = len(out)
	}

	claimed := r.n.claimed.Load()
	// claimed is the next id that will be handed to a sender; the highest
	// id that could possibly be published already is claimed-1, since
	// advanceHead bumps claimed to h+1 before writeAndPublish(h) runs.
	available := claimed
	if available > 0 {
		available--
	}

	// The most recent claim, id `available`, may have been handed out but
	// not yet published; peeking current_id on that exact cell tells us
	// whether to trust `available` as-is or pull it back by one.
	if available > 0 {
		inProgress := r.n.cellAt(available)
		if !inProgress.published(available) {
			available--
		}
	}

	if r.cursor > available {
		return 0
	}

	limit := r.cursor + uint64(max) - 1
	if limit > available {
		limit = available
	}

	n := 0
	var lastCell *cell[T]
	for id := r.cursor; id <= limit; id++ {
		c := r.n.cellAt(id)
		if !c.published(id) {
			break
		}
		out[n] = c.read()
		n++
		lastCell = c
		r.cursor = id + 1
	}

	if lastCell != nil {
		lastCell.moveTo()
		r.n.cellAt(r.previousIndex).moveFrom()
		r.previousIndex = (r.cursor - 1) & r.n.mask
	}

	return n
}

// advance performs the common claim-this-cell / release-previous-cell /
// cursor-bump sequence shared by every blocking read variant (spec §4.4
// steps 3-6).
func (r *Receiver[T]) advance(c *cell[T]) T {
	c.moveTo()
	r.n.cellAt(r.previousIndex).moveFrom()

	r.previousIndex = r.cursor & r.n.mask
	r.cursor++

	return c.read()
}

// Lag reports how many published-but-unread values lie between this
// receiver's cursor and the latest claim id, a cheap backlog indicator
// supplementing the core protocol (see SPEC_FULL.md §6).
func (r *Receiver[T]) Lag() uint64 {
	claimed := r.n.claimed.Load()
	if claimed <= r.cursor {
		return 0
	}
	return claimed - r.cursor
}

// NewSender creates a fresh Sender handle sharing the same Nexus as r, per
// spec §4.4's "new-sender-from-receiver: allowed" note.
func (r *Receiver[T]) NewSender() *Sender[T] {
	r.n.cloneHandle()
	sender := &Sender[T]{n: r.n}
	runtime.SetFinalizer(sender, senderFinalizerFor[T])
	return sender
}

// Clone creates a new Receiver sharing the same Nexus, starting from this
// receiver's current cursor and previous-cell claim (spec §4.4
// "Construction/clone": increments num_receivers, increments read_counter
// on the receiver's initial previous_cell — here, the clone source's
// current previous cell).
func (r *Receiver[T]) Clone() *Receiver[T] {
	r.n.cloneHandle()
	r.n.cloneReceiver()
	r.n.cellAt(r.previousIndex).moveTo()

	clone := &Receiver[T]{
		n:             r.n,
		cursor:        r.cursor,
		previousIndex: r.previousIndex,
	}
	runtime.SetFinalizer(clone, receiverFinalizerFor[T])
	return clone
}

// Close releases this Receiver's handle and reader claim. Safe to call
// more than once; subsequent calls are no-ops.
func (r *Receiver[T]) Close() {
	if r.n == nil {
		return
	}
	n := r.n
	r.n = nil
	runtime.SetFinalizer(r, nil)

	n.cellAt(r.previousIndex).moveFrom()
	n.closeReceiver()
	n.closeHandle()
}

func (r *Receiver[T]) finalize() {
	r.Close()
}

func receiverFinalizerFor[T any](r *Receiver[T]) {
	r.finalize()
}
