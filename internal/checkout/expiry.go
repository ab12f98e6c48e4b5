package checkout

import (
	"context"
	"fmt"

	holdlocks "ms-storefront/internal/checkout/redis"
	"ms-storefront/internal/logger"

	"github.com/go-redis/redis/v8"
)

type ExpiredSeatReleaser interface {
	ReleaseExpiredSeat(ctx context.Context, presentationID, seatID string) error
}

// SubscribeHoldExpiry listens for expired hold keys until ctx is done.
// Redis must have notify-keyspace-events including "Ex".
func SubscribeHoldExpiry(ctx context.Context, rdb *redis.Client, releaser ExpiredSeatReleaser, log *logger.Logger) {
	channel := fmt.Sprintf("__keyevent@%d__:expired", rdb.Options().DB)
	pubsub := rdb.PSubscribe(ctx, channel)
	log.Info("REDIS", fmt.Sprintf("Subscribed to %s", channel))

	go func() {
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info("REDIS", "Hold expiry subscriber stopped")
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				HandleExpiredKey(ctx, msg.Payload, releaser, log)
			}
		}
	}()
}

// HandleExpiredKey releases the seat behind an expired hold key. Other keys
// are ignored.
func HandleExpiredKey(ctx context.Context, key string, releaser ExpiredSeatReleaser, log *logger.Logger) {
	presentationID, seatID, ok := holdlocks.ParseHoldKey(key)
	if !ok {
		return
	}
	if err := releaser.ReleaseExpiredSeat(ctx, presentationID, seatID); err != nil {
		log.Error("SEAT_UNLOCK", fmt.Sprintf("Failed to release seat %s of %s: %v", seatID, presentationID, err))
	}
}
