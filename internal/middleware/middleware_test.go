package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(0.2, 2)
	h := l.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/actions/newsletter/subscribe", nil)
		r.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "5", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// Another client has its own bucket.
	r := httptest.NewRequest(http.MethodPost, "/actions/newsletter/subscribe", nil)
	r.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPRateLimiter_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	l := NewIPRateLimiter(0.2, 3)
	h := l.Middleware(okHandler())

	passed := 0
	for i := 0; i < 50; i++ {
		r := httptest.NewRequest(http.MethodPost, "/actions/newsletter/subscribe", nil)
		r.RemoteAddr = "198.51.100.7:40000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		if rec.Code == http.StatusOK {
			passed++
		}
	}
	assert.Equal(t, 3, passed)
	assert.Len(t, l.limiters, 1)
}

func TestIPRateLimiter_TrustedProxyForwardsClientIP(t *testing.T) {
	trusted, err := utils.ParseCIDRs([]string{"10.1.0.0/16"})
	require.NoError(t, err)
	l := NewIPRateLimiter(0.2, 1)
	l.TrustedProxies = trusted
	h := l.Middleware(okHandler())

	send := func(client string) int {
		r := httptest.NewRequest(http.MethodPost, "/actions/newsletter/subscribe", nil)
		r.RemoteAddr = "10.1.2.3:443"
		r.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("a")

	l.now = func() time.Time { return now.Add(20 * time.Minute) }
	l.Allow("b")
	l.Cleanup()

	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "b")
}

func TestCSRF_DisabledWithoutKey(t *testing.T) {
	h := CSRF(nil, false)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions/venues/v1/delete", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	r := chi.NewRouter()
	r.Use(CSRF(key, false))
	r.Get("/actions/csrf", CSRFToken)
	r.Post("/actions/venues/{venueId}/delete", okHandler().ServeHTTP)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/actions/venues/v1/delete", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/actions/csrf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	h := RequestLogger(logger.NewLoggerWithWriter(buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/venues", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "GET /api/venues - 418")
}
