//go:build integration

package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newTestDocStore(t *testing.T) (*DocStore, *mongo.Database) {
	t.Helper()
	ctx := context.Background()

	ctr, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	sf, err := uid.NewSnowflake(2)
	require.NoError(t, err)

	db := client.Database("otp_test")
	s := NewDocStore(db, sf, instrument.NewNoop())
	require.NoError(t, s.EnsureIndexes(ctx))

	return s, db
}

func TestDocStore_OTPLifecycle(t *testing.T) {
	s, db := newTestDocStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	// Arrange
	id, err := s.CreateOTP(ctx, entity.OTP{
		Identifier: "+15551234567", Channel: entity.ChannelPhone, Code: "000042",
		ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	t.Run("finds by identifier and code", func(t *testing.T) {
		// Act
		got, err := s.GetLatestOTP(ctx, []string{"+15551234567"}, "000042")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, entity.ChannelPhone, got.Channel)
		assert.True(t, got.ExpiresAt.Equal(now.Add(10*time.Minute)))
	})

	t.Run("consume is single use", func(t *testing.T) {
		// Act
		first, err1 := s.ConsumeOTP(ctx, id, now)
		second, err2 := s.ConsumeOTP(ctx, id, now)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.True(t, first)
		assert.False(t, second)
	})

	t.Run("string expiry written elsewhere is parsed", func(t *testing.T) {
		// Arrange
		_, err := db.Collection(entity.TableName).InsertOne(ctx, bson.D{
			{Key: "_id", Value: int64(7)},
			{Key: "identifier", Value: "legacy@example.com"},
			{Key: "channel", Value: "email"},
			{Key: "code", Value: "777777"},
			{Key: "consumed", Value: false},
			{Key: "expires_at", Value: "garbage"},
			{Key: "created_at", Value: now},
			{Key: "updated_at", Value: now},
		})
		require.NoError(t, err)

		// Act
		got, err := s.GetLatestOTP(ctx, []string{"legacy@example.com"}, "777777")

		// Assert
		require.NoError(t, err)
		assert.True(t, got.IsExpired(now))
	})

	t.Run("missing record is not found", func(t *testing.T) {
		// Act
		_, err := s.GetLatestOTP(ctx, []string{"nobody@example.com"}, "123456")

		// Assert
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}
