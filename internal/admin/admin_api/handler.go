package admin_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-storefront/internal/admin"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/ticketclient"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type AdminService interface {
	CancelOrder(ctx context.Context, user *models.SessionUser, req models.CancelOrderRequest) (*models.CancelOrderResult, error)
	ResetSeats(ctx context.Context, user *models.SessionUser, eventID, presentationID string) (int, error)
	DeleteEvent(ctx context.Context, user *models.SessionUser, eventID string) (storage.DeleteResult, error)
	DeleteVenue(ctx context.Context, user *models.SessionUser, venueID string) error
	DeletePresentation(ctx context.Context, user *models.SessionUser, eventID, presentationID string) (int, error)
}

type SessionVerifier interface {
	FromRequest(r *http.Request) (*models.SessionUser, error)
}

type Handler struct {
	Admin    AdminService
	Sessions SessionVerifier
	Logger   *logger.Logger
}

func NewHandler(svc AdminService, sessions SessionVerifier, log *logger.Logger) *Handler {
	return &Handler{Admin: svc, Sessions: sessions, Logger: log}
}

// requireAdmin writes 401 or 403 and returns nil when the caller is not an admin.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request, op string) *models.SessionUser {
	user, err := h.Sessions.FromRequest(r)
	if err != nil {
		if errors.Is(err, auth.ErrNoCredentials) || errors.Is(err, auth.ErrInvalidSession) {
			h.Logger.LogSecurity("admin_unauthenticated", fmt.Sprintf("%s from %s: %v", op, utils.ClientIP(r, nil), err))
			utils.WriteError(w, http.StatusUnauthorized, "authentication required", err)
			return nil
		}
		h.Logger.Error("API", fmt.Sprintf("%s: session lookup failed: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "session lookup failed", err)
		return nil
	}
	if err := admin.Authorize(user); err != nil {
		h.Logger.LogSecurity("admin_forbidden", fmt.Sprintf("%s by %s", op, user.UID))
		utils.WriteError(w, http.StatusForbidden, "admin role required", err)
		return nil
	}
	return user
}

// CancelOrder handles POST /api/admin/orders/cancel. Credentials may come from
// the session cookie or a bearer token.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user := h.requireAdmin(w, r, "CancelOrder")
	if user == nil {
		return
	}

	var req models.CancelOrderRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CancelOrder: orderId=%s by %s", req.OrderID, user.UID))

	result, err := h.Admin.CancelOrder(r.Context(), user, req)
	if err != nil {
		switch {
		case errors.Is(err, admin.ErrInvalidRequest):
			utils.WriteError(w, http.StatusBadRequest, "orderId is required", err)
		case errors.Is(err, admin.ErrForbidden):
			utils.WriteError(w, http.StatusForbidden, "admin role required", err)
		case errors.Is(err, ticketclient.ErrOrderNotFound):
			utils.WriteError(w, http.StatusNotFound, "order not found", err)
		default:
			h.Logger.Error("API", fmt.Sprintf("CancelOrder: ticket service failed for %s: %v", req.OrderID, err))
			utils.WriteError(w, http.StatusBadGateway, "could not cancel order", err)
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order cancelled", result))
}

func (h *Handler) ResetSeats(w http.ResponseWriter, r *http.Request) {
	user := h.requireAdmin(w, r, "ResetSeats")
	if user == nil {
		return
	}
	eventID := chi.URLParam(r, "eventId")
	presentationID := chi.URLParam(r, "presentationId")

	count, err := h.Admin.ResetSeats(r.Context(), user, eventID, presentationID)
	if err != nil {
		h.writeActionError(w, "ResetSeats", "presentation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(
		fmt.Sprintf("%d seats reset", count),
		map[string]int{"count": count},
	))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user := h.requireAdmin(w, r, "DeleteEvent")
	if user == nil {
		return
	}

	result, err := h.Admin.DeleteEvent(r.Context(), user, chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeActionError(w, "DeleteEvent", "event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event deleted", result))
}

func (h *Handler) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	user := h.requireAdmin(w, r, "DeleteVenue")
	if user == nil {
		return
	}

	if err := h.Admin.DeleteVenue(r.Context(), user, chi.URLParam(r, "venueId")); err != nil {
		h.writeActionError(w, "DeleteVenue", "venue", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("venue deleted", nil))
}

func (h *Handler) DeletePresentation(w http.ResponseWriter, r *http.Request) {
	user := h.requireAdmin(w, r, "DeletePresentation")
	if user == nil {
		return
	}
	eventID := chi.URLParam(r, "eventId")
	presentationID := chi.URLParam(r, "presentationId")

	seats, err := h.Admin.DeletePresentation(r.Context(), user, eventID, presentationID)
	if err != nil {
		h.writeActionError(w, "DeletePresentation", "presentation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("presentation deleted", map[string]int{"seats": seats}))
}

func (h *Handler) writeActionError(w http.ResponseWriter, op, target string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, target+" not found", err)
	case errors.Is(err, storage.ErrVenueInUse):
		utils.WriteError(w, http.StatusConflict, "venue still has events", err)
	case errors.Is(err, admin.ErrForbidden):
		utils.WriteError(w, http.StatusForbidden, "admin role required", err)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "action failed", err)
	}
}
