package nexusq

import (
	"runtime"

	"github.com/go-nexus/nexusq/waitstrategy"
)

// MakeChannel constructs a new broadcast channel with the given buffer
// size (rounded up to the next power of two, minimum 2) and the default
// Hybrid wait strategy for both the write-head and every cell, returning
// the one Sender and one Receiver handle that own it.
func MakeChannel[T any](size int) (*Sender[T], *Receiver[T], error) {
	return MakeChannelWith[T](size, waitstrategy.NewHybrid(64, 64), waitstrategy.DefaultFactory())
}

// MakeChannelWith is MakeChannel with caller-supplied wait strategies: one
// shared instance guarding the write-head token, and a factory invoked
// once per cell so each cell gets its own independent strategy instance
// (spec §4.1's construction contract; §3's "plug in a different
// spin/yield/block policy" design goal).
func MakeChannelWith[T any](size int, writerWait waitstrategy.Waitable, cellFactory waitstrategy.Factory) (*Sender[T], *Receiver[T], error) {
	if size < 2 {
		return nil, nil, &NexusError{Kind: BufferTooSmall}
	}
	if size > maxBufferSize {
		return nil, nil, &NexusError{Kind: BufferTooLarge}
	}

	n := newNexus[T](roundUpPow2(size), writerWait, cellFactory)

	// handles.Retain and numReceivers.Store(1) both account for the
	// receiver census's and handles' RefCounts zero value already holding
	// one implicit reference (refcount.go): that covers exactly one of the
	// two handles construction hands back. The other — here, the second
	// half of the initial Sender+Receiver pair — needs one explicit
	// cloneHandle so handles reaches count 2 before either side can close.
	n.numReceivers.Store(1)
	n.cloneHandle()
	n.cells[0].moveTo()

	sender := &Sender[T]{n: n}
	receiver := &Receiver[T]{n: n, cursor: 1, previousIndex: 0}

	runtime.SetFinalizer(sender, senderFinalizerFor[T])
	runtime.SetFinalizer(receiver, receiverFinalizerFor[T])

	return sender, receiver, nil
}
