package newsletter

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

type Subscriber interface {
	Subscribe(ctx context.Context, req models.SubscribeRequest) (*models.NewsletterSubscriber, error)
}

type Handler struct {
	Newsletter Subscriber
	Logger     *logger.Logger
}

func NewHandler(svc Subscriber, log *logger.Logger) *Handler {
	return &Handler{Newsletter: svc, Logger: log}
}

// Subscribe accepts a JSON body or a form post with an email field.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	req, err := readSubscribeRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid email", err.Error()))
		return
	}

	if _, err := h.Newsletter.Subscribe(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, ErrInvalidEmail):
			utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid email", ""))
		case errors.Is(err, ErrAlreadySubscribed):
			utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("already subscribed", ""))
		default:
			h.Logger.Error("NEWSLETTER", fmt.Sprintf("Subscribe failed: %v", err))
			utils.WriteError(w, http.StatusInternalServerError, "subscription failed", err)
		}
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("subscribed", nil))
}

func readSubscribeRequest(r *http.Request) (models.SubscribeRequest, error) {
	var req models.SubscribeRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := utils.DecodeJSON(r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(nil, r.Body, 64<<10)
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Email = r.PostForm.Get("email")
	req.Source = r.PostForm.Get("source")
	return req, nil
}
