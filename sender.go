package nexusq

import (
	"context"
	"runtime"
	"time"

	"github.com/go-nexus/nexusq/ctxtool"
)

// Sender publishes values to every attached Receiver. Clones share the
// underlying Nexus; constructing one retains the shared handles RefCount,
// but senders are not census-tracked the way receivers are — spec §4.3
// step 1 checks num_receivers, not num_senders, since there is no
// receive-side disconnect error (spec §7).
type Sender[T any] struct {
	n *nexus[T]
}

// Send blocks until the value is published, or returns a Disconnected
// SendError if no receiver is attached.
func (s *Sender[T]) Send(v T) error {
	if s.n.numReceivers.Load() == 0 {
		return &SendError[T]{Kind: Disconnected, Value: v, HasValue: true}
	}

	h := s.n.writeHead.Take()
	c := s.n.cellAt(h)
	c.waitForWriteSafe()

	s.n.advanceHead(h + 1)
	c.writeAndPublish(v, h)
	return nil
}

// TrySend attempts a non-blocking publish, failing with Full if the
// write-head is contended or the target cell is not yet safe to write.
func (s *Sender[T]) TrySend(v T) error {
	if s.n.numReceivers.Load() == 0 {
		return &SendError[T]{Kind: Disconnected, Value: v, HasValue: true}
	}

	h, ok := s.n.writeHead.TryTake()
	if !ok {
		return &SendError[T]{Kind: Full, Value: v, HasValue: true}
	}

	c := s.n.cellAt(h)
	if !c.safeToWrite() {
		s.n.writeHead.Restore(h)
		return &SendError[T]{Kind: Full, Value: v, HasValue: true}
	}

	s.n.advanceHead(h + 1)
	c.writeAndPublish(v, h)
	return nil
}

// TrySendBefore attempts a publish, giving up once deadline passes.
func (s *Sender[T]) TrySendBefore(v T, deadline time.Time) error {
	if s.n.numReceivers.Load() == 0 {
		return &SendError[T]{Kind: Disconnected, Value: v, HasValue: true}
	}

	h, ok := s.n.writeHead.TakeBefore(deadline)
	if !ok {
		return &SendError[T]{Kind: SendTimeout, Value: v, HasValue: true}
	}

	c := s.n.cellAt(h)
	if !c.waitForWriteSafeUntil(deadline) {
		s.n.writeHead.Restore(h)
		return &SendError[T]{Kind: SendTimeout, Value: v, HasValue: true}
	}

	s.n.advanceHead(h + 1)
	c.writeAndPublish(v, h)
	return nil
}

// SendContext is the context-aware, cooperative-cancellation equivalent of
// the Sink poll surface described in spec §4.3. A single select over a
// Listener's ready channel and ctx.Done() (performed inside the wait
// strategy) is the Go realization of register-waker-then-poll, so there is
// no separate poll_ready/start_send pair: SendContext composes the caller's
// context with the channel's disconnect signal via ctxtool.WithChannel and
// drives the exact same claim-publish protocol as Send.
func (s *Sender[T]) SendContext(ctx context.Context, v T) error {
	if s.n.numReceivers.Load() == 0 {
		return &SendError[T]{Kind: Disconnected, Value: v, HasValue: true}
	}

	merged := ctxtool.WithChannel(ctx, s.n.disconnected.Done())

	h, err := s.n.writeHead.TakeContext(merged)
	if err != nil {
		return s.contextSendError(v)
	}

	c := s.n.cellAt(h)
	if err := c.waitForWriteSafeContext(merged); err != nil {
		s.n.writeHead.Restore(h)
		return s.contextSendError(v)
	}

	s.n.advanceHead(h + 1)
	c.writeAndPublish(v, h)
	return nil
}

func (s *Sender[T]) contextSendError(v T) error {
	if s.n.disconnected.Err() != nil {
		return &SendError[T]{Kind: Disconnected, Value: v, HasValue: true}
	}
	return &SendError[T]{Kind: SendTimeout, Value: v, HasValue: true}
}

// NewSenderFrom creates a fresh Sender handle sharing the same Nexus as s,
// per spec §4.4's "new-sender-from-receiver: allowed" note generalized to
// any existing handle.
func NewSenderFrom[T any](s *Sender[T]) *Sender[T] {
	s.n.cloneHandle()
	clone := &Sender[T]{n: s.n}
	runtime.SetFinalizer(clone, senderFinalizerFor[T])
	return clone
}

// Close releases this Sender's handle on the Nexus. Safe to call more than
// once; subsequent calls are no-ops.
func (s *Sender[T]) Close() {
	if s.n == nil {
		return
	}
	n := s.n
	s.n = nil
	runtime.SetFinalizer(s, nil)
	n.closeHandle()
}

func (s *Sender[T]) finalize() {
	s.Close()
}

func senderFinalizerFor[T any](s *Sender[T]) {
	s.finalize()
}
