package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*Sessions, *signer, *signer) {
	v, sessionKeys, idKeys := newTestVerifier(t)
	d := storagetest.New(t)
	ctx := context.Background()
	require.NoError(t, d.UpsertUser(ctx, models.User{ID: "admin-1", Email: "admin@example.com", CreatedAt: time.Now()}))
	require.NoError(t, d.SetUserRole(ctx, "admin-1", models.RoleAdmin))
	return NewSessions(v, d, testAuthConfig.CookieNames, logger.NewLoggerWithWriter(&bytes.Buffer{})), sessionKeys, idKeys
}

func TestSessions_FromRequest(t *testing.T) {
	s, sessionKeys, idKeys := newTestSessions(t)

	t.Run("session cookie with admin role", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "session", Value: sessionKeys.sign(t, testAuthConfig.SessionIssuer, "admin-1", time.Hour)})

		user, err := s.FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "admin-1", user.UID)
		assert.True(t, user.IsAdmin())
	})

	t.Run("fallback cookie holding an id token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "__session", Value: idKeys.sign(t, testAuthConfig.IDTokenIssuer, "user-7", time.Hour)})

		user, err := s.FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "user-7", user.UID)
		assert.Equal(t, models.RoleUser, user.Role)
	})

	t.Run("bearer id token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+idKeys.sign(t, testAuthConfig.IDTokenIssuer, "user-8", time.Hour))

		user, err := s.FromRequest(r)
		require.NoError(t, err)
		assert.Equal(t, "user-8", user.UID)
	})

	t.Run("bearer session cookie is not accepted", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+sessionKeys.sign(t, testAuthConfig.SessionIssuer, "user-8", time.Hour))

		_, err := s.FromRequest(r)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("no credentials", func(t *testing.T) {
		_, err := s.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("empty cookie is ignored", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "session", Value: ""})
		_, err := s.FromRequest(r)
		assert.ErrorIs(t, err, ErrNoCredentials)
	})
}

func TestRequireSession(t *testing.T) {
	s, sessionKeys, _ := newTestSessions(t)

	var seen *models.SessionUser
	h := s.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/1/qr", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)

	r := httptest.NewRequest(http.MethodGet, "/api/orders/1/qr", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: sessionKeys.sign(t, testAuthConfig.SessionIssuer, "user-1", time.Hour)})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UID)
}
