package auth

import (
	"net/http"
	"net/url"
	"strings"

	"ms-storefront/internal/utils"
)

var (
	// PublicPaths match exactly or as a path prefix.
	PublicPaths = []string{
		"/",
		"/login",
		"/register",
		"/events",
		"/blog",
		"/api/auth",
		"/api/events",
		"/api/venues",
		"/api/blog",
		"/healthz",
		"/metrics",
		"/static",
	}

	ProtectedPrefixes = []string{
		"/admin",
		"/account",
		"/checkout",
		"/api/checkout",
		"/api/orders",
	}
)

// RouteGuard only checks that a session cookie is present, or for API paths a
// bearer token. Pages and API handlers verify them. Unauthenticated page
// requests are sent to loginPath with a redirect parameter; API requests get 401.
func RouteGuard(cookieNames []string, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if IsPublicPath(path) || !IsProtectedPath(path) {
				next.ServeHTTP(w, r)
				return
			}
			if SessionCookie(r, cookieNames) != "" {
				next.ServeHTTP(w, r)
				return
			}

			if strings.HasPrefix(path, "/api/") {
				if _, err := ExtractTokenFromRequest(r); err == nil {
					next.ServeHTTP(w, r)
					return
				}
				utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", ErrNoCredentials.Error()))
				return
			}
			target := loginPath + "?redirect=" + url.QueryEscape(path)
			http.Redirect(w, r, target, http.StatusFound)
		})
	}
}

// IsPublicPath treats "/" as an exact match only.
func IsPublicPath(path string) bool {
	for _, p := range PublicPaths {
		if p == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if matchesPrefix(path, p) {
			return true
		}
	}
	return false
}

func IsProtectedPath(path string) bool {
	for _, p := range ProtectedPrefixes {
		if matchesPrefix(path, p) {
			return true
		}
	}
	return false
}

// matchesPrefix matches whole segments, so /admin matches /admin/x but not /administrator.
func matchesPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
