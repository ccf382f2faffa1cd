package nexusq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnceSignaler(t *testing.T) {
	t.Run("triggering provides a signal on the done channel", func(t *testing.T) {
		s := NewOnceSignaler()
		s.Trigger()
		<-s.Done() // <- deadlock if trigger was not effective
	})

	t.Run("triggering multiple times does not panic", func(t *testing.T) {
		s := NewOnceSignaler()
		s.Trigger()
		s.Trigger()
	})

	t.Run("no error if not triggered", func(t *testing.T) {
		s := NewOnceSignaler()
		assert.NoError(t, s.Err())
	})

	t.Run("report Canceled error when triggered", func(t *testing.T) {
		s := NewOnceSignaler()
		s.Trigger()
		assert.Equal(t, Canceled, s.Err())
	})

	t.Run("callback is executed when triggered", func(t *testing.T) {
		s := NewOnceSignaler()
		count := 0
		s.OnSignal(func() { count++ })
		s.Trigger()
		assert.Equal(t, 1, count)
	})

	t.Run("callback is called at most once", func(t *testing.T) {
		s := NewOnceSignaler()
		count := 0
		s.OnSignal(func() { count++ })
		s.Trigger()
		s.Trigger()
		s.Trigger()
		assert.Equal(t, 1, count)
	})

	t.Run("callback registered after trigger runs immediately", func(t *testing.T) {
		s := NewOnceSignaler()
		s.Trigger()
		count := 0
		s.OnSignal(func() { count++ })
		assert.Equal(t, 1, count)
	})
}
