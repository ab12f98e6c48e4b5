package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const HoldKeyPrefix = "seat_hold:"

// unlockScript deletes a hold key only while it still belongs to the hold.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SeatLocks keeps one TTL key per held seat. The key value is the hold id.
type SeatLocks struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSeatLocks(client *redis.Client, ttl time.Duration) *SeatLocks {
	return &SeatLocks{Client: client, TTL: ttl}
}

func HoldKey(presentationID, seatID string) string {
	return HoldKeyPrefix + presentationID + ":" + seatID
}

// ParseHoldKey splits a hold key into presentation and seat ids.
func ParseHoldKey(key string) (presentationID, seatID string, ok bool) {
	if !strings.HasPrefix(key, HoldKeyPrefix) {
		return "", "", false
	}
	parts := strings.SplitN(strings.TrimPrefix(key, HoldKeyPrefix), ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (l *SeatLocks) LockSeat(ctx context.Context, presentationID, seatID, holdID string) (bool, error) {
	return l.Client.SetNX(ctx, HoldKey(presentationID, seatID), holdID, l.TTL).Result()
}

func (l *SeatLocks) UnlockSeat(ctx context.Context, presentationID, seatID, holdID string) error {
	return unlockScript.Run(ctx, l.Client, []string{HoldKey(presentationID, seatID)}, holdID).Err()
}

// LockSeats locks every seat or none. On conflict the seats already locked
// by this call are released and false is returned.
func (l *SeatLocks) LockSeats(ctx context.Context, presentationID string, seatIDs []string, holdID string) (bool, error) {
	locked := make([]string, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		ok, err := l.LockSeat(ctx, presentationID, seatID, holdID)
		if err != nil || !ok {
			if rbErr := l.UnlockSeats(ctx, presentationID, locked, holdID); rbErr != nil && err == nil {
				err = fmt.Errorf("rollback after conflict on %s: %w", seatID, rbErr)
			}
			return false, err
		}
		locked = append(locked, seatID)
	}
	return true, nil
}

func (l *SeatLocks) UnlockSeats(ctx context.Context, presentationID string, seatIDs []string, holdID string) error {
	var firstErr error
	for _, seatID := range seatIDs {
		if err := l.UnlockSeat(ctx, presentationID, seatID, holdID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReleaseSeats drops hold keys whoever owns them.
func (l *SeatLocks) ReleaseSeats(ctx context.Context, presentationID string, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = HoldKey(presentationID, seatID)
	}
	return l.Client.Del(ctx, keys...).Err()
}

// Holder returns the hold id on a seat, or "" when it is free.
func (l *SeatLocks) Holder(ctx context.Context, presentationID, seatID string) (string, error) {
	val, err := l.Client.Get(ctx, HoldKey(presentationID, seatID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
