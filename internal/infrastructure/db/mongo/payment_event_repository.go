package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/commerce-api/internal/core/ports"
)

const collectionPaymentEvents = "payment_events"

// PaymentEventRepository implements ports.PaymentEventRepository. Each
// processed webhook becomes one document in the payment_events collection.
type PaymentEventRepository struct {
	col *mongo.Collection
}

func NewPaymentEventRepository(db *mongo.Database) *PaymentEventRepository {
	return &PaymentEventRepository{col: db.Collection(collectionPaymentEvents)}
}

// Insert persists a webhook audit record.
func (r *PaymentEventRepository) Insert(ctx context.Context, rec *ports.PaymentEventRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, paymentEventDocument(rec, time.Now().UTC())); err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

// paymentEventDocument builds the stored document. The raw payload is stored
// verbatim as a string.
func paymentEventDocument(rec *ports.PaymentEventRecord, processedAt time.Time) bson.M {
	doc := bson.M{
		"payment_id":   rec.PaymentID,
		"action":       rec.Action,
		"type":         rec.Type,
		"status":       string(rec.Status),
		"room":         rec.Room,
		"notified":     rec.Notified,
		"processed_at": processedAt,
	}
	if !rec.ReceivedAt.IsZero() {
		doc["received_at"] = rec.ReceivedAt.UTC()
	}
	if len(rec.Payload) > 0 {
		doc["payload"] = string(rec.Payload)
	}
	return doc
}
