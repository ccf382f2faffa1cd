package waitstrategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEventNotifyOneIsNoOpWithoutWaiters(t *testing.T) {
	var e Event
	assert.NotPanics(t, func() { e.NotifyOne() })
	assert.NotPanics(t, func() { e.NotifyAll() })
}

func TestEventListenThenNotifyOneWakesExactlyOne(t *testing.T) {
	defer goleak.VerifyNone(t)

	var e Event
	l1 := e.Listen()
	l2 := e.Listen()

	e.NotifyOne()

	select {
	case <-l1.C():
	case <-time.After(time.Second):
		t.Fatal("l1 was never notified")
	}

	select {
	case <-l2.C():
		t.Fatal("l2 should not have been notified yet")
	default:
	}

	l2.Cancel()
}

func TestEventNotifyAllWakesEveryListener(t *testing.T) {
	defer goleak.VerifyNone(t)

	var e Event
	l1 := e.Listen()
	l2 := e.Listen()

	e.NotifyAll()

	for _, l := range []*Listener{l1, l2} {
		select {
		case <-l.C():
		case <-time.After(time.Second):
			t.Fatal("listener was never notified")
		}
	}
}

func TestEventCancelRemovesListener(t *testing.T) {
	var e Event
	l1 := e.Listen()
	l2 := e.Listen()

	l1.Cancel()
	e.NotifyOne()

	select {
	case <-l2.C():
	default:
		t.Fatal("notify should have reached the remaining listener")
	}

	select {
	case <-l1.C():
		t.Fatal("cancelled listener should not have been notified")
	default:
	}
}

func TestEventCancelAfterNotifyPassesItOn(t *testing.T) {
	var e Event
	l1 := e.Listen()
	l2 := e.Listen()

	e.NotifyOne() // wakes l1
	l1.Cancel()   // must not swallow the wakeup: it passes on to l2

	select {
	case <-l2.C():
	default:
		t.Fatal("cancelling the notified l1 should have passed the wakeup on to l2")
	}

	e.NotifyOne()
	select {
	case <-l2.C():
	default:
		t.Fatal("l2 should stay notified")
	}
}

func TestListenerWaitContext(t *testing.T) {
	var e Event
	l := e.Listen()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.WaitContext(ctx)
	require.Error(t, err)
}

func TestListenerWaitDeadline(t *testing.T) {
	var e Event
	l := e.Listen()

	ok := l.WaitDeadline(time.Now().Add(20 * time.Millisecond))
	assert.False(t, ok)

	l2 := e.Listen()
	e.NotifyAll()
	ok = l2.WaitDeadline(time.Now().Add(time.Second))
	assert.True(t, ok)
}
