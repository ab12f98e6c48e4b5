package pages

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/storage/storagetest"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, *storage.DB) {
	t.Helper()
	db := storagetest.New(t)
	h := NewHandler(db, 10*time.Minute, logger.NewLoggerWithWriter(&bytes.Buffer{}))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if uid := r.Header.Get("X-Test-User"); uid != "" {
				user := &models.SessionUser{UID: uid, Role: r.Header.Get("X-Test-Role")}
				r = r.WithContext(auth.WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/account", h.Account)
	r.Get("/admin", h.Admin)
	r.Get("/checkout/{eventId}/{presentationId}", h.Checkout)
	return r, db
}

func get(t *testing.T, r http.Handler, path, uid, role string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if uid != "" {
		req.Header.Set("X-Test-User", uid)
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]interface{})
	return rec, data
}

func TestAccount(t *testing.T) {
	r, db := newRouter(t)
	require.NoError(t, db.UpsertUser(context.Background(), models.User{ID: "u1", Email: "u1@example.com", Role: models.RoleUser, CreatedAt: time.Now()}))

	rec, data := get(t, r, "/account", "u1", models.RoleUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, data["profile"])
	assert.Equal(t, "u1@example.com", data["profile"].(map[string]interface{})["email"])

	rec, data = get(t, r, "/account", "unknown", models.RoleUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, data["profile"])

	rec, _ = get(t, r, "/account", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminDashboard(t *testing.T) {
	r, db := newRouter(t)
	ctx := context.Background()
	storagetest.Seed(t, db, "rock", 2)
	require.NoError(t, db.InsertAdminLog(ctx, models.AdminLog{Action: models.ActionResetSeats, AdminID: "admin-1"}))

	rec, _ := get(t, r, "/admin", "u1", models.RoleUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, data := get(t, r, "/admin", "admin-1", models.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	counts := data["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["events"])
	assert.Equal(t, float64(1), counts["venues"])
	assert.Len(t, data["recentLogs"], 1)
}

func TestCheckoutPage(t *testing.T) {
	r, db := newRouter(t)
	f := storagetest.Seed(t, db, "jazz", 3)

	rec, data := get(t, r, "/checkout/"+f.Event.ID+"/"+f.Presentation.ID, "u1", models.RoleUser)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, data["seats"], 3)
	assert.Equal(t, float64(600), data["holdTtlSeconds"])

	rec, _ = get(t, r, "/checkout/"+f.Event.ID+"/nope", "u1", models.RoleUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, r, "/checkout/nope/"+f.Presentation.ID, "u1", models.RoleUser)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
