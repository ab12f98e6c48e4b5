// Package authtest provides a token verifier for handler tests.
package authtest

import (
	"context"
	"fmt"

	"ms-storefront/internal/auth"
)

// StaticVerifier accepts tokens registered in its maps.
type StaticVerifier struct {
	SessionCookies map[string]auth.Claims
	IDTokens       map[string]auth.Claims
}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{
		SessionCookies: map[string]auth.Claims{},
		IDTokens:       map[string]auth.Claims{},
	}
}

// AddSession registers token as a valid session cookie for uid.
func (v *StaticVerifier) AddSession(token, uid, email string) *StaticVerifier {
	v.SessionCookies[token] = auth.Claims{Subject: uid, Email: email, EmailVerified: true}
	return v
}

// AddIDToken registers token as a valid ID token for uid.
func (v *StaticVerifier) AddIDToken(token, uid, email string) *StaticVerifier {
	v.IDTokens[token] = auth.Claims{Subject: uid, Email: email, EmailVerified: true}
	return v
}

func (v *StaticVerifier) VerifySessionCookie(_ context.Context, raw string) (*auth.Claims, error) {
	if c, ok := v.SessionCookies[raw]; ok {
		return &c, nil
	}
	return nil, fmt.Errorf("%w: unknown session cookie", auth.ErrInvalidSession)
}

func (v *StaticVerifier) VerifyIDToken(_ context.Context, raw string) (*auth.Claims, error) {
	if c, ok := v.IDTokens[raw]; ok {
		return &c, nil
	}
	return nil, fmt.Errorf("%w: unknown id token", auth.ErrInvalidSession)
}
