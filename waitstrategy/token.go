package waitstrategy

import (
	"math"
	"sync/atomic"
	"time"
)

// tokenTaken is the sentinel value of Token.value while some caller holds
// it; chosen so the zero value of the wrapped counter is never mistaken for
// "held", since claimed ids for the write-head start at 1.
const tokenTaken = math.MaxUint64

// Token is the write-head realized as a takeable integer: spec's
// ownership-transfer capability (try_take/restore) rather than a lock.
// Exactly one caller holds a non-sentinel value at a time; the holder owns
// the right to advance the head and must Restore a new value to release it.
//
// A channel-backed mutex (the CHMutex pattern in the root package) was
// considered for this role and rejected: the token must carry
// a value (the claimed id) through contention, and a buffered channel
// already is a pure block strategy, which can't host the pluggable
// spin/yield/block Hybrid this type needs. Token is instead a CAS-guarded
// counter driven by any Waitable for its blocking fallback, so the same
// Hybrid/BlockOnly/Backoff strategies back both cells and the write-head.
type Token struct {
	value    atomic.Uint64
	strategy Waitable
}

// NewToken creates a token seeded with initial, backed by strategy for its
// blocking fallback.
func NewToken(initial uint64, strategy Waitable) *Token {
	t := &Token{strategy: strategy}
	t.value.Store(initial)
	return t
}

// TryTake attempts to take the token without blocking.
func (t *Token) TryTake() (uint64, bool) {
	v := t.value.Load()
	if v == tokenTaken {
		return 0, false
	}
	if t.value.CompareAndSwap(v, tokenTaken) {
		return v, true
	}
	return 0, false
}

// Take blocks until the token can be taken.
func (t *Token) Take() uint64 {
	var v uint64
	t.strategy.WaitFor(func() bool {
		taken, ok := t.TryTake()
		v = taken
		return ok
	})
	return v
}

// TakeBefore blocks until the token can be taken or deadline passes. The
// second return value is false on timeout; the first is meaningless then.
func (t *Token) TakeBefore(deadline time.Time) (uint64, bool) {
	var v uint64
	var took bool
	t.strategy.WaitUntil(deadline, func() bool {
		taken, ok := t.TryTake()
		if ok {
			v = taken
			took = true
		}
		return ok
	})
	return v, took
}

// TakeContext blocks until the token can be taken or ctx is done.
func (t *Token) TakeContext(ctx doneContext) (uint64, error) {
	var v uint64
	err := t.strategy.WaitContext(ctx, func() bool {
		taken, ok := t.TryTake()
		if ok {
			v = taken
		}
		return ok
	})
	return v, err
}

// Restore releases the token with a new value and wakes one waiting taker.
func (t *Token) Restore(v uint64) {
	t.value.Store(v)
	t.strategy.NotifyOne()
}
