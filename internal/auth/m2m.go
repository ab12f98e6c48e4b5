package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
)

// M2MTokenSource hands out client-credentials tokens for calls to the ticket
// service, reusing a cached token until shortly before it expires.
type M2MTokenSource struct {
	Config models.M2MConfig
	Client *http.Client
	Cache  *RedisTokenCache
	Logger *logger.Logger
}

func NewM2MTokenSource(cfg models.M2MConfig, client *http.Client, cache *RedisTokenCache, log *logger.Logger) *M2MTokenSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &M2MTokenSource{Config: cfg, Client: client, Cache: cache, Logger: log}
}

func (s *M2MTokenSource) Token(ctx context.Context) (string, error) {
	if s.Cache != nil {
		cached, err := s.Cache.GetToken(ctx)
		if err != nil {
			s.Logger.Warn("AUTH", fmt.Sprintf("Token cache read failed: %v", err))
		} else if cached != nil {
			return cached.Token, nil
		}
	}

	tokenResp, err := GetM2MToken(ctx, s.Config, s.Client)
	if err != nil {
		return "", err
	}

	if s.Cache != nil {
		if err := s.Cache.SetToken(ctx, tokenResp.AccessToken, tokenResp.ExpiresIn); err != nil {
			s.Logger.Warn("AUTH", fmt.Sprintf("Token cache write failed: %v", err))
		}
	}
	return tokenResp.AccessToken, nil
}

// GetM2MToken runs the client-credentials grant against cfg.TokenURL.
func GetM2MToken(ctx context.Context, cfg models.M2MConfig, client *http.Client) (*models.TokenResponse, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("m2m token url is not configured")
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("failed to get token, status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var tokenResp models.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}
	return &tokenResp, nil
}
