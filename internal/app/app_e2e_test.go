//go:build integration

package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

type successEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

const e2eConfig = `
app:
  banner: "HireLens Backend is running"
  snowflake_node: 1
  server:
    max_goroutine: 8
instrument:
  enabled: false
  log_level: error
database:
  enabled: true
  url: %q
  migrate_on_start: true
redis:
  enabled: true
  url: %q
mongo:
  enabled: false
messaging:
  driver: memory
modules:
  otp:
    storage: %s
    code_ttl_minutes: 10
    debug_code_enabled: true
    delivery:
      mode: async
      max_retries: 1
`

func startApp(t *testing.T, storage string) string {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("hirelens"),
		postgres.WithUsername("hirelens"),
		postgres.WithPassword("hirelens"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, pg)
	require.NoError(t, err)

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rd, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, rd)
	require.NoError(t, err)

	redisURL, err := rd.ConnectionString(ctx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, fmt.Appendf(nil, e2eConfig, dsn, redisURL, storage), 0o600))

	a := New(path)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errChan := a.Serve(l)
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Stop(stopCtx)
		<-errChan
	})

	return "http://" + l.Addr().String()
}

func doJSON(t *testing.T, baseURL, method, path string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		require.NoError(t, json.NewEncoder(buf).Encode(payload))
		body = buf
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func decodeSuccess(t *testing.T, body []byte, out any) successEnvelope {
	t.Helper()

	var env successEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func decodeError(t *testing.T, body []byte) errorEnvelope {
	t.Helper()

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func sendOTP(t *testing.T, baseURL, identifier, via string) string {
	t.Helper()

	status, body := doJSON(t, baseURL, http.MethodPost, "/send-otp", map[string]string{
		"identifier": identifier,
		"via":        via,
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var data struct {
		Status    string `json:"status"`
		DebugCode string `json:"debug_code"`
	}
	decodeSuccess(t, body, &data)
	require.Equal(t, "sent", data.Status)
	require.Len(t, data.DebugCode, 6)

	return data.DebugCode
}

func TestOTPFlow(t *testing.T) {
	for _, storage := range []string{"postgres", "redis"} {
		t.Run(storage, func(t *testing.T) {
			baseURL := startApp(t, storage)

			t.Run("EmailVerifiesOnce", func(t *testing.T) {
				// Arrange
				code := sendOTP(t, baseURL, "  Jane.Doe@Example.com ", "email")
				payload := map[string]string{"identifier": "jane.doe@example.com", "otp": code}

				// Act
				status, body := doJSON(t, baseURL, http.MethodPost, "/verify-otp", payload)
				replayStatus, replayBody := doJSON(t, baseURL, http.MethodPost, "/verify-otp", payload)

				// Assert
				require.Equal(t, http.StatusOK, status, string(body))
				var data struct {
					Status string `json:"status"`
					Token  string `json:"token"`
				}
				decodeSuccess(t, body, &data)
				assert.Equal(t, "verified", data.Status)
				assert.Len(t, data.Token, 64)

				assert.Equal(t, http.StatusBadRequest, replayStatus)
				assert.Equal(t, "CODE_ALREADY_USED", decodeError(t, replayBody).Reason)
			})

			t.Run("PhoneWrongCode", func(t *testing.T) {
				// Arrange
				code := sendOTP(t, baseURL, "+15551234567", "phone")
				wrong := "000000"
				if code == wrong {
					wrong = "111111"
				}

				// Act
				status, body := doJSON(t, baseURL, http.MethodPost, "/verify-otp", map[string]string{
					"identifier": "+15551234567",
					"otp":        wrong,
				})

				// Assert
				assert.Equal(t, http.StatusBadRequest, status)
				assert.Equal(t, "INVALID_CODE", decodeError(t, body).Reason)
			})

			t.Run("InvalidIdentifier", func(t *testing.T) {
				// Act
				status, body := doJSON(t, baseURL, http.MethodPost, "/send-otp", map[string]string{
					"identifier": "not-an-email",
					"via":        "email",
				})

				// Assert
				assert.Equal(t, http.StatusBadRequest, status)
				assert.Equal(t, "INVALID_IDENTIFIER", decodeError(t, body).Reason)
			})

			t.Run("Diagnostics", func(t *testing.T) {
				// Act
				status, body := doJSON(t, baseURL, http.MethodGet, "/test", nil)

				// Assert
				require.Equal(t, http.StatusOK, status, string(body))
				var data struct {
					ConnectionStatus string `json:"connection_status"`
				}
				decodeSuccess(t, body, &data)
				assert.Equal(t, "Connected", data.ConnectionStatus)
			})
		})
	}
}
