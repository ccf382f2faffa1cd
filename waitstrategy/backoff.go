package waitstrategy

import "time"

// Backoff spins with exponentially increasing sleeps before falling back to
// the blocking event primitive. It trades latency for reduced cache-line
// contention under heavy producer pile-up. Spec marks this strategy
// optional; it is kept here because original_source/src/wait_strategy.rs
// ships the same idea as a secondary strategy alongside the default hybrid
// one.
//
// WaitFor and WaitContext park on the event once the snooze grows past
// MaxSnooze. WaitUntil does not park: it keeps snoozing, capped at
// MaxSnooze, until its deadline.
type Backoff struct {
	MinSnooze, MaxSnooze time.Duration
	event                Event
}

// NewBackoff builds a Backoff strategy snoozing between min and max.
func NewBackoff(min, max time.Duration) *Backoff {
	return &Backoff{MinSnooze: min, MaxSnooze: max}
}

func (b *Backoff) snoozeOnce(check func() bool) (done bool, next time.Duration) {
	snooze := b.MinSnooze
	for i := 0; i < 32; i++ {
		if check() {
			return true, 0
		}
		time.Sleep(snooze)
		snooze *= 2
		if snooze > b.MaxSnooze {
			return false, b.MaxSnooze
		}
	}
	return false, snooze
}

func (b *Backoff) WaitFor(check func() bool) {
	if done, _ := b.snoozeOnce(check); done {
		return
	}

	for {
		if check() {
			return
		}
		l := b.event.Listen()
		if check() {
			l.Cancel()
			return
		}
		l.Wait()
	}
}

func (b *Backoff) WaitUntil(deadline time.Time, check func() bool) bool {
	snooze := b.MinSnooze
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		remaining := time.Until(deadline)
		sleepFor := snooze
		if sleepFor > remaining {
			sleepFor = remaining
		}
		time.Sleep(sleepFor)
		snooze *= 2
		if snooze > b.MaxSnooze {
			snooze = b.MaxSnooze
		}
	}
	if check() {
		return true
	}

	for {
		if check() {
			return true
		}
		if !time.Now().Before(deadline) {
			return check()
		}
		l := b.event.Listen()
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

func (b *Backoff) WaitContext(ctx doneContext, check func() bool) error {
	snooze := b.MinSnooze
	for {
		if check() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		timer := time.NewTimer(snooze)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		snooze *= 2
		if snooze > b.MaxSnooze {
			break
		}
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

		l := b.event.Listen()
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

func (b *Backoff) NotifyAll() { b.event.NotifyAll() }
func (b *Backoff) NotifyOne() { b.event.NotifyOne() }
