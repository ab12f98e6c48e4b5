package models

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// M2MConfig holds the client-credentials settings used to call the ticket service.
type M2MConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type VerifyResponse struct {
	User *SessionUser `json:"user"`
}

type SessionLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}
