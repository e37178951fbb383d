package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupTTL = 72 * time.Hour

// NotificationDedup records which approved payments have already been
// announced. Key format: webhook:payment:<payment_id>:notified
type NotificationDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNotificationDedup creates a NotificationDedup wrapping the given Redis
// client. A non-positive ttl falls back to defaultDedupTTL.
func NewNotificationDedup(client *redis.Client, ttl time.Duration) *NotificationDedup {
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &NotificationDedup{client: client, ttl: ttl}
}

// Claim atomically marks paymentID as notified. It returns true only for the
// first caller; later deliveries of the same payment get false until the key
// expires.
func (d *NotificationDedup) Claim(ctx context.Context, paymentID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(paymentID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return ok, nil
}

func (d *NotificationDedup) key(paymentID string) string {
	return fmt.Sprintf("webhook:payment:%s:notified", paymentID)
}
