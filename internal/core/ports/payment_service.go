package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// WebhookEvent is a provider callback as received by the webhook endpoint.
type WebhookEvent struct {
	PaymentID  string
	Action     string
	Type       string
	Raw        json.RawMessage
	ReceivedAt time.Time
}

// PaymentService covers order creation and webhook processing.
type PaymentService interface {
	CreateOrder(ctx context.Context, input PaymentOrderInput) (json.RawMessage, error)
	HandleWebhook(ctx context.Context, event WebhookEvent) error
}

// Notifier delivers payment notifications to the subscribers of a room and
// reports how many subscribers received it.
type Notifier interface {
	Publish(room string, n domain.Notification) int
}

// PaymentEventRecord is the audit entry stored for every processed webhook.
type PaymentEventRecord struct {
	PaymentID  string
	Action     string
	Type       string
	Status     domain.PaymentStatus
	Room       string
	Notified   bool
	Payload    json.RawMessage
	ReceivedAt time.Time
}

// PaymentEventRepository persists the webhook audit trail.
type PaymentEventRepository interface {
	Insert(ctx context.Context, rec *PaymentEventRecord) error
}
