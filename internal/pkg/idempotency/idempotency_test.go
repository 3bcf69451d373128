package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrackers(t *testing.T) map[string]Idempotency {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Idempotency{
		"redis": New(client),
		"local": NewLocal(),
	}
}

func TestExec(t *testing.T) {
	ctx := context.Background()

	for name, tracker := range newTrackers(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("RunsOnce", func(t *testing.T) {
				calls := 0
				fn := func(context.Context) error { calls++; return nil }

				require.NoError(t, tracker.Exec(ctx, "k1", fn))
				err := tracker.Exec(ctx, "k1", fn)

				assert.ErrorIs(t, err, ErrAlreadyCompleted)
				assert.Equal(t, 1, calls)
			})

			t.Run("FailureReleasesKey", func(t *testing.T) {
				boom := errors.New("boom")
				calls := 0

				err := tracker.Exec(ctx, "k2", func(context.Context) error { calls++; return boom })
				assert.ErrorIs(t, err, boom)

				err = tracker.Exec(ctx, "k2", func(context.Context) error { calls++; return nil })
				assert.NoError(t, err)
				assert.Equal(t, 2, calls)
			})

			t.Run("InProgress", func(t *testing.T) {
				err := tracker.Exec(ctx, "k3", func(ctx context.Context) error {
					return tracker.Exec(ctx, "k3", func(context.Context) error { return nil })
				})
				assert.ErrorIs(t, err, ErrAlreadyInProgress)
			})
		})
	}
}

func TestLocal_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLocal()
	l.now = func() time.Time { return now }

	require.NoError(t, l.Exec(context.Background(), "k", func(context.Context) error { return nil }, WithStateTTL(time.Minute)))

	now = now.Add(2 * time.Minute)
	assert.NoError(t, l.Exec(context.Background(), "k", func(context.Context) error { return nil }))
}

func TestRedis_InvalidState(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set("idempotency:bad", "garbage"))

	_, err := New(client).Acquire(context.Background(), "bad", time.Minute)
	assert.ErrorIs(t, err, ErrInvalidState)
}
