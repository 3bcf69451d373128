package goroutine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestManager(t *testing.T) {
	t.Run("CollectsErrors", func(t *testing.T) {
		m := NewManager(4)
		boom := errors.New("boom")
		var ran atomic.Int32

		assert.True(t, m.Go(context.Background(), func(context.Context) error { ran.Inc(); return nil }))
		assert.True(t, m.Go(context.Background(), func(context.Context) error { ran.Inc(); return boom }))

		assert.ErrorIs(t, m.Wait(), boom)
		assert.Equal(t, int32(2), ran.Load())
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		m := NewManager(1)
		m.Go(context.Background(), func(context.Context) error { panic("boom") })
		assert.NoError(t, m.Wait())
	})

	t.Run("ClosedManagerDropsTasks", func(t *testing.T) {
		m := NewManager(1)
		assert.NoError(t, m.Wait())
		assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))
	})

	t.Run("SaturatedManagerDropsTasks", func(t *testing.T) {
		m := NewManager(1)
		release := make(chan struct{})

		assert.True(t, m.Go(context.Background(), func(context.Context) error { <-release; return nil }))
		assert.False(t, m.Go(context.Background(), func(context.Context) error { return nil }))

		close(release)
		assert.NoError(t, m.Wait())
	})
}
