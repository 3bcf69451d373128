package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubProbe struct {
	name   string
	result ProbeResult
}

func (p stubProbe) Name() string                      { return p.name }
func (p stubProbe) Check(context.Context) ProbeResult { return p.result }

func newUsecase(t *testing.T, yaml string, probes ...Probe) *Usecase {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	return New(Dependency{
		Probes:     probes,
		Config:     cfg,
		Clock:      fixedClock{t: time.Date(2026, 2, 3, 4, 5, 6, 0, time.FixedZone("WIB", 7*3600))},
		Instrument: instrument.NewNoop(),
	})
}

func TestUsecase_Ping(t *testing.T) {
	// Arrange
	uc := newUsecase(t, "app: {}")

	// Act
	out := uc.Ping(context.Background())

	// Assert
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, time.UTC, out.Time.Location())
	assert.Equal(t, 21, out.Time.Hour())
}

func TestUsecase_Diagnose(t *testing.T) {
	t.Run("primary storage up", func(t *testing.T) {
		// Arrange
		many := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
		uc := newUsecase(t, "database:\n  url: postgres://x\n",
			stubProbe{name: "postgres", result: ProbeResult{Status: StatusUp, Collections: many}},
			stubProbe{name: "redis", result: ProbeResult{Status: StatusDown, Error: "refused"}},
		)

		// Act
		out := uc.Diagnose(context.Background())

		// Assert
		assert.Equal(t, "postgres", out.StorageDriver)
		assert.Equal(t, "Connected", out.ConnectionStatus)
		assert.Equal(t, "✅ Set", out.DatabaseURL)
		assert.Len(t, out.Collections, 10)
		require.Len(t, out.Probes, 2)
		assert.Equal(t, "redis", out.Probes[1].Name)
		assert.Equal(t, StatusDown, out.Probes[1].Status)
	})

	t.Run("primary storage down is reported", func(t *testing.T) {
		// Arrange
		uc := newUsecase(t, "modules:\n  otp:\n    storage: mongo\n",
			stubProbe{name: "mongo", result: ProbeResult{Status: StatusDown, Error: errors.New("server selection timeout").Error()}},
		)

		// Act
		out := uc.Diagnose(context.Background())

		// Assert
		assert.Equal(t, "mongo", out.StorageDriver)
		assert.Equal(t, "Not Connected", out.ConnectionStatus)
		assert.Contains(t, out.Database, "server selection timeout")
		assert.Equal(t, "❌ Not Set", out.DatabaseURL)
		assert.Empty(t, out.Collections)
	})

	t.Run("no probe for primary storage", func(t *testing.T) {
		// Arrange
		uc := newUsecase(t, "modules:\n  otp:\n    storage: redis\n")

		// Act
		out := uc.Diagnose(context.Background())

		// Assert
		assert.Equal(t, "⚠️  Available but not initialized", out.Database)
		assert.NotNil(t, out.Collections)
		assert.Empty(t, out.Probes)
	})
}
