package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	M2MTokenKey = "storefront:m2m_token"

	// tokenRefreshMargin drops cached tokens this long before they expire.
	tokenRefreshMargin = time.Minute
)

type CachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t *CachedToken) usableAt(now time.Time) bool {
	return t != nil && t.Token != "" && now.Add(tokenRefreshMargin).Before(t.ExpiresAt)
}

// RedisTokenCache shares one M2M token between storefront instances.
type RedisTokenCache struct {
	Client *redis.Client
	Key    string
	now    func() time.Time
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{Client: client, Key: M2MTokenKey, now: time.Now}
}

// GetToken returns nil without error when nothing usable is cached.
func (c *RedisTokenCache) GetToken(ctx context.Context) (*CachedToken, error) {
	raw, err := c.Client.Get(ctx, c.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.Key, err)
	}

	var cached CachedToken
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Key, err)
	}
	if !cached.usableAt(c.now()) {
		return nil, nil
	}
	return &cached, nil
}

// SetToken stores token until it stops being usable. Tokens that expire
// within the refresh margin are not cached at all.
func (c *RedisTokenCache) SetToken(ctx context.Context, token string, expiresIn int) error {
	lifetime := time.Duration(expiresIn) * time.Second
	ttl := lifetime - tokenRefreshMargin
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(CachedToken{Token: token, ExpiresAt: c.now().Add(lifetime)})
	if err != nil {
		return err
	}
	if err := c.Client.Set(ctx, c.Key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("write %s: %w", c.Key, err)
	}
	return nil
}
