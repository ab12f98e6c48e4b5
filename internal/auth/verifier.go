package auth

import (
	"context"
	"fmt"

	"ms-storefront/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
)

// Claims are the identity fields the storefront reads from a verified token.
type Claims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

type TokenVerifier interface {
	VerifySessionCookie(ctx context.Context, raw string) (*Claims, error)
	VerifyIDToken(ctx context.Context, raw string) (*Claims, error)
}

// OIDCVerifier checks session cookies and ID tokens against the provider's
// published signing keys. Both are JWTs for the same audience but with
// different issuers and keys.
type OIDCVerifier struct {
	session *oidc.IDTokenVerifier
	idToken *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, cfg config.AuthConfig) *OIDCVerifier {
	return NewOIDCVerifierWithKeySets(cfg,
		oidc.NewRemoteKeySet(ctx, cfg.SessionJWKSURL),
		oidc.NewRemoteKeySet(ctx, cfg.IDTokenJWKSURL),
	)
}

func NewOIDCVerifierWithKeySets(cfg config.AuthConfig, sessionKeys, idTokenKeys oidc.KeySet) *OIDCVerifier {
	oidcCfg := &oidc.Config{ClientID: cfg.ProjectID}
	return &OIDCVerifier{
		session: oidc.NewVerifier(cfg.SessionIssuer, sessionKeys, oidcCfg),
		idToken: oidc.NewVerifier(cfg.IDTokenIssuer, idTokenKeys, oidcCfg),
	}
}

func (v *OIDCVerifier) VerifySessionCookie(ctx context.Context, raw string) (*Claims, error) {
	return verify(ctx, v.session, raw)
}

func (v *OIDCVerifier) VerifyIDToken(ctx context.Context, raw string) (*Claims, error) {
	return verify(ctx, v.idToken, raw)
}

func verify(ctx context.Context, verifier *oidc.IDTokenVerifier, raw string) (*Claims, error) {
	token, err := verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	var claims Claims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrInvalidSession, err)
	}
	claims.Subject = token.Subject
	return &claims, nil
}
