package auth_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"

	"github.com/go-playground/validator/v10"
)

type UserRegistrar interface {
	UpsertUser(ctx context.Context, user models.User) error
}

type CookieSettings struct {
	Names  []string
	MaxAge time.Duration
	Secure bool
}

type Handler struct {
	Sessions  *auth.Sessions
	Users     UserRegistrar
	Cookies   CookieSettings
	Logger    *logger.Logger
	validator *validator.Validate
}

func NewHandler(sessions *auth.Sessions, users UserRegistrar, cookies CookieSettings, log *logger.Logger) *Handler {
	return &Handler{
		Sessions:  sessions,
		Users:     users,
		Cookies:   cookies,
		Logger:    log,
		validator: validator.New(),
	}
}

// Verify reports the signed-in user or {"user": null}. It never fails the
// request for credential problems; only a malformed POST body is rejected.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	creds := auth.Credentials{}
	if r.Method == http.MethodPost {
		var req models.VerifyRequest
		err := utils.DecodeJSON(r, &req)
		if err != nil && !errors.Is(err, utils.ErrEmptyBody) {
			h.Logger.Warn("API", fmt.Sprintf("Verify: malformed body: %v", err))
			utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		creds.Token = req.Token
	}
	if creds.Token == "" {
		creds, _ = auth.ExtractCredentials(r, h.Sessions.CookieNames)
	}

	if creds.Token == "" {
		utils.WriteJSON(w, http.StatusOK, models.VerifyResponse{})
		return
	}

	user, err := h.Sessions.Verify(r.Context(), creds)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidSession) {
			h.Logger.Error("API", fmt.Sprintf("Verify: %v", err))
		}
		utils.WriteJSON(w, http.StatusOK, models.VerifyResponse{})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.VerifyResponse{User: user})
}

// SessionLogin exchanges a verified ID token for the session cookie.
func (h *Handler) SessionLogin(w http.ResponseWriter, r *http.Request) {
	var req models.SessionLoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "idToken is required", err)
		return
	}

	user, err := h.Sessions.Verify(r.Context(), auth.Credentials{Token: req.IDToken})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidSession) {
			utils.WriteError(w, http.StatusUnauthorized, "invalid id token", err)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("SessionLogin: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "login failed", err)
		return
	}

	if h.Users != nil {
		err := h.Users.UpsertUser(r.Context(), models.User{
			ID:          user.UID,
			Email:       user.Email,
			DisplayName: user.Name,
			Role:        models.RoleUser,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			h.Logger.Error("API", fmt.Sprintf("SessionLogin: failed to record user %s: %v", user.UID, err))
		}
	}

	http.SetCookie(w, h.cookie(h.Cookies.Names[0], req.IDToken, int(h.Cookies.MaxAge.Seconds())))
	h.Logger.Info("API", fmt.Sprintf("SessionLogin: session started for %s", user.UID))
	utils.WriteJSON(w, http.StatusOK, models.VerifyResponse{User: user})
}

// Logout expires every session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range h.Cookies.Names {
		http.SetCookie(w, h.cookie(name, "", -1))
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("signed out", nil))
}

func (h *Handler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
