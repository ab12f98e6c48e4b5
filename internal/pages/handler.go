// Package pages serves the data behind the signed-in pages.
package pages

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/admin"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

const recentAdminLogs = 20

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	Counts(ctx context.Context) (storage.Counts, error)
	ListAdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	GetPresentation(ctx context.Context, eventID, presentationID string) (*models.Presentation, error)
	ListSeats(ctx context.Context, presentationID string) ([]models.Seat, error)
}

type AccountPage struct {
	User    *models.SessionUser `json:"user"`
	Profile *models.User        `json:"profile,omitempty"`
}

type AdminPage struct {
	User       *models.SessionUser `json:"user"`
	Counts     storage.Counts      `json:"counts"`
	RecentLogs []models.AdminLog   `json:"recentLogs"`
}

type CheckoutPage struct {
	Event        models.Event        `json:"event"`
	Presentation models.Presentation `json:"presentation"`
	Seats        []models.PublicSeat `json:"seats"`
	HoldTTL      int                 `json:"holdTtlSeconds"`
}

// Handler routes must sit behind auth.Sessions.RequireSession.
type Handler struct {
	Store   Store
	HoldTTL time.Duration
	Logger  *logger.Logger
}

func NewHandler(store Store, holdTTL time.Duration, log *logger.Logger) *Handler {
	return &Handler{Store: store, HoldTTL: holdTTL, Logger: log}
}

func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required", auth.ErrNoCredentials)
		return
	}

	page := AccountPage{User: user}
	profile, err := h.Store.GetUser(r.Context(), user.UID)
	switch {
	case err == nil:
		page.Profile = profile
	case !errors.Is(err, storage.ErrNotFound):
		h.fail(w, "Account", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("account", page))
}

// Admin returns the dashboard: catalog counts and the latest audit entries.
func (h *Handler) Admin(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required", auth.ErrNoCredentials)
		return
	}
	if err := admin.Authorize(user); err != nil {
		h.Logger.LogSecurity("admin_forbidden", fmt.Sprintf("dashboard by %s", user.UID))
		utils.WriteError(w, http.StatusForbidden, "admin role required", err)
		return
	}

	counts, err := h.Store.Counts(r.Context())
	if err != nil {
		h.fail(w, "Admin", err)
		return
	}
	logs, err := h.Store.ListAdminLogs(r.Context(), recentAdminLogs)
	if err != nil {
		h.fail(w, "Admin", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("admin dashboard", AdminPage{
		User:       user,
		Counts:     counts,
		RecentLogs: logs,
	}))
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "eventId")
	presentationID := chi.URLParam(r, "presentationId")

	event, err := h.Store.GetEvent(ctx, eventID)
	if err == nil && !event.Published {
		err = fmt.Errorf("event %s: %w", eventID, storage.ErrNotFound)
	}
	if err != nil {
		h.notFoundOr(w, "Checkout", "event not found", err)
		return
	}
	presentation, err := h.Store.GetPresentation(ctx, eventID, presentationID)
	if err != nil {
		h.notFoundOr(w, "Checkout", "presentation not found", err)
		return
	}
	seats, err := h.Store.ListSeats(ctx, presentationID)
	if err != nil {
		h.fail(w, "Checkout", err)
		return
	}

	page := CheckoutPage{
		Event:        *event,
		Presentation: *presentation,
		Seats:        make([]models.PublicSeat, len(seats)),
		HoldTTL:      int(h.HoldTTL / time.Second),
	}
	for i, seat := range seats {
		page.Seats[i] = seat.Public()
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("checkout", page))
}

func (h *Handler) notFoundOr(w http.ResponseWriter, op, message string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(message, ""))
		return
	}
	h.fail(w, op, err)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.Logger.Error("PAGES", fmt.Sprintf("%s failed: %v", op, err))
	utils.WriteError(w, http.StatusInternalServerError, "failed to load page", err)
}
