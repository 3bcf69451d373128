//go:build integration

package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/shandysiswandi/hirelens/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("otp"),
		postgres.WithUsername("otp"),
		postgres.WithPassword("otp"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	sqlDB := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrations.Up(ctx, sqlDB))

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	return NewDB(pool, sf, instrument.NewNoop())
}

func TestDB_OTPLifecycle(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	// Arrange
	older, err := s.CreateOTP(ctx, entity.OTP{
		Identifier: "user@example.com", Channel: entity.ChannelEmail, Code: "012345",
		ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	newer, err := s.CreateOTP(ctx, entity.OTP{
		Identifier: "user@example.com", Channel: entity.ChannelEmail, Code: "012345",
		ExpiresAt: now.Add(11 * time.Minute), CreatedAt: now.Add(time.Minute), UpdatedAt: now.Add(time.Minute),
	})
	require.NoError(t, err)
	require.NotEqual(t, older, newer)

	t.Run("latest match wins", func(t *testing.T) {
		// Act
		got, err := s.GetLatestOTP(ctx, []string{"User@Example.com", "user@example.com"}, "012345")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, newer, got.ID)
		assert.Equal(t, "012345", got.Code)
		assert.True(t, got.ExpiresAt.Equal(now.Add(11*time.Minute)))
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		// Act
		_, err := s.GetLatestOTP(ctx, []string{"user@example.com"}, "999999")

		// Assert
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("concurrent consume has one winner", func(t *testing.T) {
		// Arrange
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)

		// Act
		for range 8 {
			wg.Go(func() {
				ok, err := s.ConsumeOTP(ctx, newer, time.Now().UTC())
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			})
		}
		wg.Wait()

		// Assert
		assert.Equal(t, 1, wins)
		got, err := s.GetLatestOTP(ctx, []string{"user@example.com"}, "012345")
		require.NoError(t, err)
		assert.True(t, got.Consumed)
	})
}
