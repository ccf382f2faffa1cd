package nexusq

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/go-nexus/nexusq/waitstrategy"
)

func newTestCell() *cell[int] {
	return newCell[int](waitstrategy.NewHybrid(4, 4))
}

func TestCellSafeToWrite(t *testing.T) {
	c := newTestCell()
	assert.True(t, c.safeToWrite())

	c.moveTo()
	assert.False(t, c.safeToWrite())

	c.moveFrom()
	assert.True(t, c.safeToWrite())
}

func TestCellPublishAndRead(t *testing.T) {
	c := newTestCell()
	assert.False(t, c.published(1))

	c.writeAndPublish(42, 1)
	assert.True(t, c.published(1))
	assert.False(t, c.published(2))
	assert.Equal(t, 42, c.read())
}

func TestCellWaitForPublishedWakesOnNotify(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestCell()
	done := make(chan struct{})
	go func() {
		c.waitForPublished(7)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	c.writeAndPublish(99, 7)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitForPublished never woke")
	}
}

func TestCellWaitForWriteSafeUntilTimesOut(t *testing.T) {
	c := newTestCell()
	c.moveTo()

	deadline := time.Now().Add(30 * time.Millisecond)
	ok := c.waitForWriteSafeUntil(deadline)
	assert.False(t, ok)
}

func TestCellWaitForWriteSafeContextCancels(t *testing.T) {
	c := newTestCell()
	c.moveTo()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := c.waitForWriteSafeContext(ctx)
	require.Error(t, err)
}

func TestCellMoveFromNegativeInvariant(t *testing.T) {
	c := newTestCell()
	assert.Panics(t, func() {
		c.moveFrom()
	})
}

func TestCellDropClearsOccupiedOnly(t *testing.T) {
	c := newCell[*int](waitstrategy.NewHybrid(4, 4))
	assert.False(t, c.occupied)

	c.drop() // never written: no-op
	assert.False(t, c.occupied)

	v := new(int)
	c.writeAndPublish(v, 1)
	assert.True(t, c.occupied)

	c.drop()
	assert.False(t, c.occupied)
	assert.Nil(t, c.value)
}
