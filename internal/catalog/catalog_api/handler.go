package catalog_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type CatalogService interface {
	ListEvents(ctx context.Context, category string) ([]models.Event, error)
	EventDetails(ctx context.Context, eventID string) (*models.EventDetails, error)
	SeatMap(ctx context.Context, eventID, presentationID string) ([]models.PublicSeat, error)
	ListVenues(ctx context.Context) ([]models.Venue, error)
	ListPosts(ctx context.Context, limit int) ([]models.BlogPost, error)
	GetPost(ctx context.Context, slug string) (*models.BlogPost, error)
}

type Handler struct {
	Catalog CatalogService
	Logger  *logger.Logger
}

func NewHandler(svc CatalogService, log *logger.Logger) *Handler {
	return &Handler{Catalog: svc, Logger: log}
}

// Routes mounts the public catalog under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/events", h.ListEvents)
	r.Get("/events/{eventId}", h.GetEvent)
	r.Get("/events/{eventId}/presentations/{presentationId}/seats", h.GetSeats)
	r.Get("/venues", h.ListVenues)
	r.Get("/blog", h.ListPosts)
	r.Get("/blog/{slug}", h.GetPost)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Catalog.ListEvents(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, "ListEvents", "events", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events retrieved", events))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	details, err := h.Catalog.EventDetails(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		h.writeError(w, "GetEvent", "event", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event retrieved", details))
}

func (h *Handler) GetSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.Catalog.SeatMap(r.Context(), chi.URLParam(r, "eventId"), chi.URLParam(r, "presentationId"))
	if err != nil {
		h.writeError(w, "GetSeats", "presentation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("seats retrieved", seats))
}

func (h *Handler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.Catalog.ListVenues(r.Context())
	if err != nil {
		h.writeError(w, "ListVenues", "venues", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("venues retrieved", venues))
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.WriteError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = parsed
	}

	posts, err := h.Catalog.ListPosts(r.Context(), limit)
	if err != nil {
		h.writeError(w, "ListPosts", "posts", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("posts retrieved", posts))
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Catalog.GetPost(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, "GetPost", "post", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("post retrieved", post))
}

func (h *Handler) writeError(w http.ResponseWriter, op, target string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse(target+" not found", ""))
		return
	}
	h.Logger.Error("CATALOG", fmt.Sprintf("%s failed: %v", op, err))
	utils.WriteError(w, http.StatusInternalServerError, "failed to load "+target, err)
}
