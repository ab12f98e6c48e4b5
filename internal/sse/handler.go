package sse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

const keepAliveInterval = 25 * time.Second

type Handler struct {
	Hub    *SeatEventHub
	Logger *logger.Logger
}

func NewHandler(hub *SeatEventHub, log *logger.Logger) *Handler {
	return &Handler{Hub: hub, Logger: log}
}

// StreamSeats handles GET /api/events/{eventId}/presentations/{presentationId}/seats/stream.
func (h *Handler) StreamSeats(w http.ResponseWriter, r *http.Request) {
	presentationID := chi.URLParam(r, "presentationId")
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.Logger.Warn("SSE", fmt.Sprintf("Failed to clear write deadline: %v", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if err := rc.Flush(); err != nil {
		h.Logger.Warn("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "streaming unsupported", err)
		return
	}

	events := h.Hub.Subscribe(r.Context(), presentationID)
	h.Logger.Debug("SSE", fmt.Sprintf("Viewer joined %s (%d watching)", presentationID, h.Hub.ClientCount(presentationID)))

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to encode seat event: %v", err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: seats\ndata: %s\n\n", data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
