package ticket_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/ticketclient"
	"ms-storefront/internal/tickets/qr"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
}

// Handler serves order QR codes. Routes must sit behind auth.Sessions.RequireSession.
type Handler struct {
	Orders      OrderFetcher
	QRGenerator *qr.QRGenerator
	Logger      *logger.Logger
	now         func() time.Time
}

func NewHandler(orders OrderFetcher, generator *qr.QRGenerator, log *logger.Logger) *Handler {
	return &Handler{Orders: orders, QRGenerator: generator, Logger: log, now: time.Now}
}

// OrderQR returns a PNG QR code for an order owned by the caller. Other users'
// orders are reported as not found.
func (h *Handler) OrderQR(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		utils.WriteError(w, http.StatusUnauthorized, "authentication required", auth.ErrNoCredentials)
		return
	}
	if h.QRGenerator == nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("QR codes are not configured", ""))
		return
	}

	orderID := chi.URLParam(r, "orderId")
	order, err := h.Orders.GetOrder(r.Context(), orderID)
	switch {
	case errors.Is(err, ticketclient.ErrOrderNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("order not found", ""))
		return
	case err != nil:
		h.Logger.Error("TICKETS", fmt.Sprintf("Fetch order %s failed: %v", orderID, err))
		utils.WriteError(w, http.StatusBadGateway, "ticket service unavailable", err)
		return
	}

	if order.UserID != user.UID {
		h.Logger.LogSecurity("QR_DENIED", fmt.Sprintf("user %s requested order %s", user.UID, orderID))
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("order not found", ""))
		return
	}

	png, err := h.QRGenerator.GeneratePNG(qr.RefFromOrder(*order, h.now()))
	if err != nil {
		h.Logger.Error("TICKETS", fmt.Sprintf("QR for order %s failed: %v", orderID, err))
		utils.WriteError(w, http.StatusInternalServerError, "failed to generate QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
