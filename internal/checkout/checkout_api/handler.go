package checkout_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/checkout"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type HoldService interface {
	PlaceHold(ctx context.Context, userID string, req models.HoldRequest) (*models.Hold, error)
	ReleaseHold(ctx context.Context, userID, presentationID, holdID string) ([]string, error)
}

// Handler serves hold endpoints. Routes must sit behind auth.Sessions.RequireSession.
type Handler struct {
	Checkout HoldService
	Logger   *logger.Logger
}

func NewHandler(svc HoldService, log *logger.Logger) *Handler {
	return &Handler{Checkout: svc, Logger: log}
}

func (h *Handler) PlaceHold(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required", auth.ErrNoCredentials)
		return
	}

	var req models.HoldRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	hold, err := h.Checkout.PlaceHold(r.Context(), user.UID, req)
	if err != nil {
		h.writeServiceError(w, "PlaceHold", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("seats held", hold))
}

func (h *Handler) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required", auth.ErrNoCredentials)
		return
	}

	holdID := chi.URLParam(r, "holdId")
	presentationID := r.URL.Query().Get("presentationId")

	seatIDs, err := h.Checkout.ReleaseHold(r.Context(), user.UID, presentationID, holdID)
	if err != nil {
		h.writeServiceError(w, "ReleaseHold", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("hold released", map[string]interface{}{
		"holdId":        holdID,
		"releasedSeats": seatIDs,
	}))
}

func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, checkout.ErrInvalidHold):
		utils.WriteError(w, http.StatusBadRequest, "invalid hold request", err)
	case errors.Is(err, storage.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, storage.ErrSeatUnavailable):
		utils.WriteError(w, http.StatusConflict, "seats are no longer available", err)
	default:
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
		utils.WriteError(w, http.StatusInternalServerError, "checkout failed", err)
	}
}
