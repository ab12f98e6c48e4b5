package middleware

import (
	"net/http"

	"ms-storefront/internal/utils"

	"github.com/gorilla/csrf"
)

// CSRF protects form actions when authKey is set. Without a key requests
// pass through unchanged.
func CSRF(authKey []byte, secure bool) func(http.Handler) http.Handler {
	if len(authKey) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			utils.WriteError(w, http.StatusForbidden, "invalid CSRF token", csrf.FailureReason(r))
		})),
	)
	if secure {
		return protect
	}
	// Local development runs without TLS; skip the HTTPS referer check.
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

// CSRFToken returns the token for the current request, or "" when CSRF is off.
func CSRFToken(w http.ResponseWriter, r *http.Request) {
	token := csrf.Token(r)
	w.Header().Set("X-CSRF-Token", token)
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("csrf token", map[string]string{"csrfToken": token}))
}
