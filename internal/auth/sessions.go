package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/utils"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Sessions turns request credentials into a verified SessionUser with a role.
type Sessions struct {
	Verifier    TokenVerifier
	Users       UserStore
	CookieNames []string
	Logger      *logger.Logger
}

func NewSessions(verifier TokenVerifier, users UserStore, cookieNames []string, log *logger.Logger) *Sessions {
	return &Sessions{
		Verifier:    verifier,
		Users:       users,
		CookieNames: cookieNames,
		Logger:      log,
	}
}

// FromRequest verifies the session cookie or bearer token on r.
func (s *Sessions) FromRequest(r *http.Request) (*models.SessionUser, error) {
	creds, err := ExtractCredentials(r, s.CookieNames)
	if err != nil {
		return nil, err
	}
	return s.Verify(r.Context(), creds)
}

// Verify checks a token and resolves the caller's role. Cookie tokens are
// tried as session cookies first and then as ID tokens.
func (s *Sessions) Verify(ctx context.Context, creds Credentials) (*models.SessionUser, error) {
	if creds.Token == "" {
		return nil, ErrNoCredentials
	}

	var claims *Claims
	var err error
	if creds.FromCookie {
		claims, err = s.Verifier.VerifySessionCookie(ctx, creds.Token)
		if err != nil {
			claims, err = s.Verifier.VerifyIDToken(ctx, creds.Token)
		}
	} else {
		claims, err = s.Verifier.VerifyIDToken(ctx, creds.Token)
	}
	if err != nil {
		if s.Logger != nil {
			s.Logger.LogSecurity("token_rejected", fmt.Sprintf("sub=%q: %v", PeekSubject(creds.Token), err))
		}
		if !errors.Is(err, ErrInvalidSession) {
			err = fmt.Errorf("%w: %v", ErrInvalidSession, err)
		}
		return nil, err
	}

	role, err := s.role(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	return &models.SessionUser{
		UID:           claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
		Role:          role,
	}, nil
}

func (s *Sessions) role(ctx context.Context, uid string) (string, error) {
	if s.Users == nil {
		return models.RoleUser, nil
	}
	user, err := s.Users.GetUser(ctx, uid)
	if errors.Is(err, storage.ErrNotFound) {
		return models.RoleUser, nil
	}
	if err != nil {
		return "", fmt.Errorf("role lookup for %s: %w", uid, err)
	}
	if user.Role == "" {
		return models.RoleUser, nil
	}
	return user.Role, nil
}

type contextKey string

const sessionUserKey contextKey = "session_user"

// RequireSession rejects requests without a valid session with 401 and puts
// the verified user on the request context.
func (s *Sessions) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.FromRequest(r)
		if err != nil {
			if errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrInvalidSession) {
				utils.WriteError(w, http.StatusUnauthorized, "authentication required", err)
				return
			}
			if s.Logger != nil {
				s.Logger.Error("AUTH", fmt.Sprintf("Session lookup failed: %v", err))
			}
			utils.WriteError(w, http.StatusInternalServerError, "session lookup failed", err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func WithUser(ctx context.Context, user *models.SessionUser) context.Context {
	return context.WithValue(ctx, sessionUserKey, user)
}

// UserFromContext returns the user set by RequireSession, or nil.
func UserFromContext(ctx context.Context) *models.SessionUser {
	if u, ok := ctx.Value(sessionUserKey).(*models.SessionUser); ok {
		return u
	}
	return nil
}
