package probe

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/hirelens/internal/health/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis_Check(t *testing.T) {
	t.Run("up with key prefixes", func(t *testing.T) {
		// Arrange
		mr := miniredis.RunT(t)
		require.NoError(t, mr.Set("otp:record:1", "x"))
		require.NoError(t, mr.Set("otp:record:2", "x"))
		_, err := mr.ZAdd("otp:index:a@b.co:123456", 1, "1")
		require.NoError(t, err)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })

		// Act
		got := NewRedis(client, "otp:*").Check(context.Background())

		// Assert
		assert.Equal(t, usecase.StatusUp, got.Status)
		assert.Equal(t, []string{"otp:index", "otp:record"}, got.Collections)
	})

	t.Run("down when unreachable", func(t *testing.T) {
		// Arrange
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { _ = client.Close() })
		mr.Close()

		// Act
		got := NewRedis(client, "").Check(context.Background())

		// Assert
		assert.Equal(t, usecase.StatusDown, got.Status)
		assert.NotEmpty(t, got.Error)
	})
}

func TestKeyPrefixes(t *testing.T) {
	assert.Equal(t, []string{"a:1", "b", "plain"}, keyPrefixes([]string{"a:1:x", "plain", "a:1:y", "b"}))
	assert.Empty(t, keyPrefixes(nil))
}
