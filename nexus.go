package nexusq

import (
	"math/bits"
	"sync/atomic"

	"github.com/go-nexus/nexusq/waitstrategy"
)

// maxBufferSize is the largest size MakeChannelWith accepts; any larger
// size fails with BufferTooLarge. It lies below Go's maximum int because
// sizes are rounded up to a power of two, and the rounded size must still
// fit in an int on 64-bit platforms.
const maxBufferSize = 1<<62 - 1

// nexus is the shared channel state behind every Sender/Receiver handle:
// the ring of cells, the write-head token, the claimed counter, and the
// live receiver census. It is reference counted (handles) and torn down
// deterministically once the last handle goes away.
type nexus[T any] struct {
	cells []*cell[T]
	mask  uint64

	claimed   atomic.Uint64
	writeHead *waitstrategy.Token

	numReceivers atomic.Int64 // cheap fast-path check for Sender.Send*
	receivers    RefCount      // authoritative census; Action fires disconnect
	disconnected *OnceSignaler

	handles RefCount // retained by every Sender and Receiver; Action tears down
}

func newNexus[T any](size int, writerWait waitstrategy.Waitable, cellFactory waitstrategy.Factory) *nexus[T] {
	n := &nexus[T]{
		disconnected: NewOnceSignaler(),
	}
	n.cells = make([]*cell[T], size)
	for i := range n.cells {
		n.cells[i] = newCell[T](cellFactory())
	}
	n.mask = uint64(size - 1)
	n.claimed.Store(1)
	n.writeHead = waitstrategy.NewToken(1, writerWait)
	n.handles.Action = n.drainAndRelease
	n.receivers.Action = n.disconnected.Trigger
	return n
}

// cellAt returns the cell responsible for claim id.
func (n *nexus[T]) cellAt(id uint64) *cell[T] {
	return n.cells[id&n.mask]
}

// advanceHead releases the write-head token with the next id and mirrors
// that id into claimed, the plain atomic counter external observers like
// Receiver.TryRecvBatch peek without going through the token itself.
func (n *nexus[T]) advanceHead(next uint64) {
	n.writeHead.Restore(next)
	n.claimed.Store(next)
}

// cloneReceiver registers an additional live receiver beyond the first.
// The first receiver returned by MakeChannelWith needs no Retain call: a
// RefCount's zero value already represents one live reference (see
// refcount.go), so it is accounted for by a direct numReceivers.Store(1) at
// construction instead.
func (n *nexus[T]) cloneReceiver() {
	n.numReceivers.Add(1)
	n.receivers.Retain()
}

// closeReceiver drops one receiver's claim on the census. Once the last
// one goes, receivers.Action fires the disconnect signal.
func (n *nexus[T]) closeReceiver() {
	n.numReceivers.Add(-1)
	n.receivers.Release()
}

// cloneHandle registers an additional Sender or Receiver handle beyond the
// first pair. As with cloneReceiver, the initial Sender+Receiver pair
// needs only one explicit Retain (see MakeChannelWith) because the
// RefCount's zero value already accounts for the first handle.
func (n *nexus[T]) cloneHandle() {
	n.handles.Retain()
}

// closeHandle releases one Sender or Receiver handle. Once the last one
// goes, handles.Action drains and releases the buffer.
func (n *nexus[T]) closeHandle() {
	n.handles.Release()
}

// drainAndRelease runs once, when the last Sender/Receiver handle releases
// the shared handles RefCount: every cell whose payload is still occupied
// (published but never read, or read but not yet overwritten) has that
// payload dropped exactly once; cells that were never written are released
// without touching their zero-value payload slot.
func (n *nexus[T]) drainAndRelease() {
	for _, c := range n.cells {
		c.drop()
	}
}

// roundUpPow2 rounds n up to the next power of two, with a floor of 2 (the
// channel's minimum valid size).
func roundUpPow2(n int) int {
	if n <= 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}
