package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bekosirs/bekoctl/internal/auth"
	"github.com/bekosirs/bekoctl/internal/models"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter_PerClientBurst(t *testing.T) {
	limited := 0
	handler := NewRateLimiter(RateLimitConfig{
		PerMinute: 1,
		Burst:     2,
		OnLimited: func(*http.Request) { limited++ },
	})(okHandler)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/token/", nil)
		req.RemoteAddr = ip + ":5555"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, 1, limited)

	// Another client has its own bucket
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	handler := NewRateLimiter(RateLimitConfig{})(okHandler)
	for i := 0; i < 50; i++ {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/token/", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", getClientIP(req))
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := &rateLimiter{clients: make(map[string]*clientLimiter), limit: 1, burst: 1}
	start := time.Now()

	rl.allow("a", start)
	rl.allow("b", start.Add(11*time.Minute))

	_, hasA := rl.clients["a"]
	assert.False(t, hasA)
	assert.Len(t, rl.clients, 1)
}

func TestRequireBearer(t *testing.T) {
	issuer, err := auth.NewTokenIssuer("secret", time.Minute, time.Hour)
	require.NoError(t, err)
	pair, err := issuer.Issue(&models.User{ID: 5})
	require.NoError(t, err)

	var seenUserID int
	protected := RequireBearer(issuer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name         string
		header       string
		expectStatus int
		expectBody   string
	}{
		{name: "no header", expectStatus: http.StatusUnauthorized, expectBody: MsgCredentialsMissing},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", expectStatus: http.StatusUnauthorized, expectBody: MsgCredentialsMissing},
		{name: "garbage token", header: "Bearer nope", expectStatus: http.StatusUnauthorized, expectBody: MsgTokenInvalid},
		{name: "refresh token", header: "Bearer " + pair.Refresh, expectStatus: http.StatusUnauthorized, expectBody: MsgTokenInvalid},
		{name: "access token", header: "Bearer " + pair.Access, expectStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenUserID = 0
			req := httptest.NewRequest(http.MethodGet, "/api/my-products/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectStatus, rr.Code)
			if tt.expectBody != "" {
				assert.JSONEq(t, `{"detail":"`+tt.expectBody+`"}`, rr.Body.String())
			} else {
				assert.Equal(t, 5, seenUserID)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS(nil)(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/token/", nil)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_AllowedOrigins(t *testing.T) {
	handler := CORS([]string{"http://localhost:3000"})(okHandler)

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{name: "listed origin echoed", origin: "http://localhost:3000", want: "http://localhost:3000"},
		{name: "other origin refused", origin: "http://evil.example", want: ""},
		{name: "no origin", origin: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestLogging_AssignsRequestID(t *testing.T) {
	var seen string
	handler := Logging(slog.New(slog.NewTextHandler(io.Discard, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
		}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	_, err := uuid.Parse(rr.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
	assert.Equal(t, rr.Header().Get(RequestIDHeader), seen)

	upstream := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
	req.Header.Set(RequestIDHeader, upstream)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, upstream, rr.Header().Get(RequestIDHeader))
	assert.Equal(t, upstream, seen)
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	for _, status := range []int{http.StatusOK, http.StatusUnauthorized, http.StatusServiceUnavailable} {
		handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	}

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
}
