package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/shandysiswandi/hirelens/internal/pkg/config"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Message string            `json:"message"`
	Reason  string            `json:"reason"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	var cfg config.Config
	if yaml != "" {
		v, err := config.NewViperFromBytes("yaml", []byte(yaml))
		require.NoError(t, err)
		cfg = v
	}

	return NewRouter(Config{
		Config:     cfg,
		UUID:       uid.NewUUID(),
		Instrument: instrument.NewNoop(),
		Banner:     "HireLens Backend is running",
	})
}

func serve(t *testing.T, r *Router, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestRouter_Banner(t *testing.T) {
	// Arrange
	r := newTestRouter(t, "")

	// Act
	rec, env := serve(t, r, http.MethodGet, "/", "")

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HireLens Backend is running", env.Message)
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, "")
	r.POST("/send-otp", func(*Request) (any, error) { return nil, nil })

	rec, env := serve(t, r, http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", env.Message)

	rec, env = serve(t, r, http.MethodGet, "/send-otp", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", env.Message)
}

func TestRouter_ErrorEncoding(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantReason string
		wantField  string
	}{
		{
			name:       "business",
			err:        goerror.NewBusiness("Verification code has expired", goerror.CodeInvalidFormat, "CODE_EXPIRED"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Verification code has expired",
			wantReason: "CODE_EXPIRED",
		},
		{
			name:       "invalid input fields",
			err:        goerror.NewInvalidInput(nil, "via", "via must be one of [email phone]"),
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Validation error",
			wantField:  "via",
		},
		{
			name:       "server",
			err:        goerror.NewServer(errors.New("connection refused"), "STORAGE_ERROR"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
			wantReason: "STORAGE_ERROR",
		},
		{
			name:       "untyped",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := newTestRouter(t, "")
			r.POST("/fail", func(*Request) (any, error) { return nil, tt.err })

			// Act
			rec, env := serve(t, r, http.MethodPost, "/fail", "")

			// Assert
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
			assert.Equal(t, tt.wantReason, env.Reason)
			if tt.wantField != "" {
				assert.Contains(t, env.Error, tt.wantField)
			}
		})
	}
}

type okResponse struct {
	Status string `json:"status"`
}

func (okResponse) Message() string { return "done" }

func TestRouter_DecodeBodyAndSuccessEnvelope(t *testing.T) {
	r := newTestRouter(t, "")
	r.POST("/echo", func(req *Request) (any, error) {
		var in struct {
			Status string `json:"status"`
		}
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		return okResponse{Status: in.Status}, nil
	})

	rec, env := serve(t, r, http.MethodPost, "/echo", `{"status":"sent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", env.Message)
	assert.JSONEq(t, `{"status":"sent"}`, string(env.Data))

	rec, env = serve(t, r, http.MethodPost, "/echo", `{"status":"sent","extra":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", env.Message)

	rec, _ = serve(t, r, http.MethodPost, "/echo", `{"status":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Maintenance(t *testing.T) {
	// Arrange
	r := newTestRouter(t, `
app:
  maintenance:
    endpoints:
      - /send-otp
`)
	r.POST("/send-otp", func(*Request) (any, error) { return okResponse{Status: "sent"}, nil })
	r.POST("/verify-otp", func(*Request) (any, error) { return okResponse{Status: "verified"}, nil })

	// Act
	blocked, env := serve(t, r, http.MethodPost, "/send-otp", "")
	open, _ := serve(t, r, http.MethodPost, "/verify-otp", "")

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, blocked.Code)
	assert.Equal(t, "service is under maintenance", env.Message)
	assert.Equal(t, http.StatusOK, open.Code)
}

func TestRouter_RecoversPanics(t *testing.T) {
	r := newTestRouter(t, "")
	r.GET("/panic", func(*Request) (any, error) { panic("kaboom") })

	rec, env := serve(t, r, http.MethodGet, "/panic", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", env.Message)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
		wantOK  bool
	}{
		{name: "true client ip", headers: map[string]string{"True-Client-IP": "203.0.113.7"}, remote: "10.0.0.1:5000", want: "203.0.113.7", wantOK: true},
		{name: "first forwarded", headers: map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.2"}, remote: "10.0.0.1:5000", want: "198.51.100.2", wantOK: true},
		{name: "garbage header falls back", headers: map[string]string{"X-Real-IP": "nope"}, remote: "10.0.0.1:5000", want: "10.0.0.1", wantOK: true},
		{name: "nothing usable", remote: "pipe", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			ip, ok := clientIP(req)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, ip.String())
			}
		})
	}
}

func TestNormalizeCID(t *testing.T) {
	assert.Equal(t, "abc", normalizeCID("  abc "))
	assert.Empty(t, normalizeCID("abc\r\nX-Injected: 1"))
	assert.Len(t, normalizeCID(strings.Repeat("a", 300)), maxCIDLength)
}

func TestEnvelopeTags(t *testing.T) {
	for _, typ := range []reflect.Type{reflect.TypeFor[errorResponse](), reflect.TypeFor[successResponse]()} {
		for i := range typ.NumField() {
			f := typ.Field(i)
			tag := f.Tag
			name, _, _ := strings.Cut(tag.Get("json"), ",")
			assert.Equal(t, `json:"`+tag.Get("json")+`"`, string(tag), "%s.%s", typ.Name(), f.Name)
			assert.NotEmpty(t, name)
		}
	}
}
