package waitstrategy

import (
	"runtime"
	"time"
)

// Hybrid is the default wait strategy: spin for a bounded number of
// iterations, then yield to the scheduler for a further bounded number of
// iterations, then park on the underlying event. Spins=0, Yields=0 degrades
// to a pure block strategy, matching the "zeros permitted" requirement.
type Hybrid struct {
	Spins  int
	Yields int
	event  Event
}

// NewHybrid builds a Hybrid strategy with the given spin and yield bounds.
func NewHybrid(spins, yields int) *Hybrid {
	return &Hybrid{Spins: spins, Yields: yields}
}

func (h *Hybrid) WaitFor(check func() bool) {
	if h.spinYield(check) {
		return
	}

	for {
		if check() {
			return
		}
		l := h.event.Listen()
		if check() {
			l.Cancel()
			return
		}
		l.Wait()
	}
}

func (h *Hybrid) WaitUntil(deadline time.Time, check func() bool) bool {
	if h.spinYieldDeadline(deadline, check) {
		return true
	}

	for {
		if check() {
			return true
		}
		if !time.Now().Before(deadline) {
			return check()
		}
		l := h.event.Listen()
		if check() {
			l.Cancel()
			return true
		}
		if !l.WaitDeadline(deadline) {
			l.Cancel()
			return check()
		}
	}
}

func (h *Hybrid) WaitContext(ctx doneContext, check func() bool) error {
	if h.spinYieldContext(ctx, check) {
		return nil
	}

	for {
		if check() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l := h.event.Listen()
		if check() {
			l.Cancel()
			return nil
		}
		select {
		case <-l.C():
		case <-ctx.Done():
			l.Cancel()
			return ctx.Err()
		}
	}
}

func (h *Hybrid) spinYield(check func() bool) bool {
	for i := 0; i < h.Spins; i++ {
		if check() {
			return true
		}
	}
	for i := 0; i < h.Yields; i++ {
		if check() {
			return true
		}
		runtime.Gosched()
	}
	return false
}

func (h *Hybrid) spinYieldDeadline(deadline time.Time, check func() bool) bool {
	for i := 0; i < h.Spins; i++ {
		if check() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
	}
	for i := 0; i < h.Yields; i++ {
		if check() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		runtime.Gosched()
	}
	return false
}

func (h *Hybrid) spinYieldContext(ctx doneContext, check func() bool) bool {
	for i := 0; i < h.Spins; i++ {
		if check() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}
	}
	for i := 0; i < h.Yields; i++ {
		if check() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}
		runtime.Gosched()
	}
	return false
}

func (h *Hybrid) NotifyAll() { h.event.NotifyAll() }
func (h *Hybrid) NotifyOne() { h.event.NotifyOne() }
