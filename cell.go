package nexusq

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-nexus/nexusq/waitstrategy"
)

// cellSentinel is the "never published" value of a cell's current id. Claim
// ids handed out by a Nexus start at 1 (original_source/src/lib.rs seeds
// `claimed` at 1), so 0 is free to use as the sentinel.
const cellSentinel = 0

// cell is one slot in the ring buffer. It carries a payload, a reader
// count, a publication id, and its own wait strategy instance — spec's
// Cell component exactly: a cell may be overwritten only once its reader
// count drops to zero, and a value becomes visible to readers only once
// currentID is published with release ordering.
//
// The payload itself is guarded by a plain mutex rather than made lock-free
// directly: write_and_publish and read are only ever called while the
// protocol already guarantees exclusivity (writer: reader count zero;
// reader: current_id published and a reader claim held), so the mutex here
// is never contended in the steady state — it exists to give T a safe
// memory-visibility story in Go without requiring T to be trivially
// copyable at the atomic level the way a fixed-width payload would allow.
type cell[T any] struct {
	mu       sync.Mutex
	value    T
	occupied bool

	readers   atomic.Int64
	currentID atomic.Uint64

	wait waitstrategy.Waitable
}

func newCell[T any](wait waitstrategy.Waitable) *cell[T] {
	return &cell[T]{wait: wait}
}

// safeToWrite reports whether the cell's reader count is zero.
func (c *cell[T]) safeToWrite() bool {
	return c.readers.Load() == 0
}

func (c *cell[T]) waitForWriteSafe() {
	c.wait.WaitFor(c.safeToWrite)
}

func (c *cell[T]) waitForWriteSafeUntil(deadline time.Time) bool {
	return c.wait.WaitUntil(deadline, c.safeToWrite)
}

func (c *cell[T]) waitForWriteSafeContext(ctx doneContext) error {
	return c.wait.WaitContext(ctx, c.safeToWrite)
}

// writeAndPublish stores value as the new payload and publishes id with
// release ordering (the atomic store itself), then wakes every waiter:
// readers parked on publication, and — once this cell's reader count later
// drops back to zero — the writer parked on write-safety.
func (c *cell[T]) writeAndPublish(value T, id uint64) {
	c.mu.Lock()
	c.value = value
	c.occupied = true
	c.mu.Unlock()

	c.currentID.Store(id)
	c.wait.NotifyAll()
}

// published reports whether this cell currently holds id.
func (c *cell[T]) published(id uint64) bool {
	return c.currentID.Load() == id
}

func (c *cell[T]) waitForPublished(id uint64) {
	c.wait.WaitFor(func() bool { return c.published(id) })
}

func (c *cell[T]) waitForPublishedUntil(id uint64, deadline time.Time) bool {
	return c.wait.WaitUntil(deadline, func() bool { return c.published(id) })
}

func (c *cell[T]) waitForPublishedContext(id uint64, ctx doneContext) error {
	return c.wait.WaitContext(ctx, func() bool { return c.published(id) })
}

// moveTo increments the reader count: a receiver claims this cell as its
// "previous cell".
func (c *cell[T]) moveTo() {
	c.readers.Add(1)
}

// moveFrom decrements the reader count, notifying if it reaches zero so a
// writer parked on this cell wakes.
func (c *cell[T]) moveFrom() {
	v := c.readers.Add(-1)
	if v < 0 {
		invariantViolation("cell reader count went negative")
	}
	if v == 0 {
		c.wait.NotifyAll()
	}
}

// read clones the payload. Callers must already have verified current_id
// matches their cursor and hold a reader claim on this cell — read itself
// does not re-check either condition.
func (c *cell[T]) read() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// drop clears an occupied payload, used only during Nexus teardown: unread
// published cells have their payloads dropped, unwritten cells do not.
func (c *cell[T]) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.occupied {
		var zero T
		c.value = zero
		c.occupied = false
	}
}
