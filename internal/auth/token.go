package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCredentials  = errors.New("no session credentials")
	ErrInvalidSession = errors.New("invalid session")
)

// Credentials is a raw token and where it came from.
type Credentials struct {
	Token      string
	FromCookie bool
}

// ExtractCredentials looks at the session cookies in order, then at the
// Authorization header.
func ExtractCredentials(r *http.Request, cookieNames []string) (Credentials, error) {
	if token := SessionCookie(r, cookieNames); token != "" {
		return Credentials{Token: token, FromCookie: true}, nil
	}
	token, err := ExtractTokenFromRequest(r)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Token: token}, nil
}

// SessionCookie returns the first non-empty session cookie value.
func SessionCookie(r *http.Request, cookieNames []string) string {
	for _, name := range cookieNames {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// ExtractTokenFromRequest extracts a bearer token from the Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrNoCredentials
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("authorization header format must be 'Bearer {token}': %w", ErrNoCredentials)
	}
	return parts[1], nil
}

// PeekSubject reads the sub claim without checking the signature.
// Only use it for log lines about tokens that failed verification.
func PeekSubject(tokenString string) string {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
