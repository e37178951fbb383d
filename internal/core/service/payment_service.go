package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/api/metrics"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// NotificationDedup abstracts the idempotency store (Redis). Claim returns
// true only for the first caller claiming a payment id.
type NotificationDedup interface {
	Claim(ctx context.Context, paymentID string) (bool, error)
}

type paymentService struct {
	provider ports.PaymentProvider
	notifier ports.Notifier
	events   ports.PaymentEventRepository
	dedup    NotificationDedup
	log      zerolog.Logger
}

// NewPaymentService returns a PaymentService implementation. events and dedup
// are optional.
func NewPaymentService(
	provider ports.PaymentProvider,
	notifier ports.Notifier,
	events ports.PaymentEventRepository,
	dedup NotificationDedup,
	log zerolog.Logger,
) ports.PaymentService {
	return &paymentService{
		provider: provider,
		notifier: notifier,
		events:   events,
		dedup:    dedup,
		log:      log,
	}
}

// CreateOrder submits the order once. Provider failures are not retried.
func (s *paymentService) CreateOrder(ctx context.Context, in ports.PaymentOrderInput) (json.RawMessage, error) {
	order, err := s.provider.CreateOrder(ctx, in)
	if err != nil {
		metrics.PaymentOrdersTotal.WithLabelValues("error").Inc()
		s.log.Error().Err(err).
			Str("payment_method", in.PaymentMethodID).
			Str("room", in.RoomID).
			Msg("failed to create payment order")
		return nil, domain.Internal("create order", err)
	}

	metrics.PaymentOrdersTotal.WithLabelValues("created").Inc()
	s.log.Info().Str("room", in.RoomID).Float64("amount", in.Amount).Msg("payment order created")
	return order, nil
}

// HandleWebhook re-queries the provider for the payment referenced by the
// callback and, when the authoritative status is approved, notifies the room
// recorded as the payment's external reference.
func (s *paymentService) HandleWebhook(ctx context.Context, ev ports.WebhookEvent) error {
	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.WebhookProcessingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}()

	if ev.PaymentID == "" {
		metrics.WebhookEventsTotal.WithLabelValues("invalid").Inc()
		return domain.ErrMissingPaymentID
	}

	// 1. Payload status is not trusted; ask the provider.
	payment, err := s.provider.GetPayment(ctx, ev.PaymentID)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("lookup_failed").Inc()
		s.log.Error().Err(err).Str("payment_id", ev.PaymentID).Msg("webhook: payment lookup failed")
		return domain.Internal("verify payment", err)
	}

	rec := &ports.PaymentEventRecord{
		PaymentID:  ev.PaymentID,
		Action:     ev.Action,
		Type:       ev.Type,
		Status:     payment.Status,
		Room:       payment.ExternalReference,
		Payload:    ev.Raw,
		ReceivedAt: ev.ReceivedAt,
	}
	defer s.audit(ctx, rec)

	metrics.WebhookEventsTotal.WithLabelValues(string(payment.Status)).Inc()
	outcome = string(payment.Status)

	// 2. Only an approved payment is significant.
	if payment.Status != domain.PaymentApproved {
		s.log.Debug().
			Str("payment_id", ev.PaymentID).
			Str("status", string(payment.Status)).
			Msg("webhook: payment not approved, nothing to notify")
		return nil
	}

	// 3. One notification per payment; duplicate deliveries are skipped.
	if s.dedup != nil {
		first, err := s.dedup.Claim(ctx, ev.PaymentID)
		if err != nil {
			s.log.Warn().Err(err).Str("payment_id", ev.PaymentID).Msg("dedup check failed, notifying anyway")
		} else if !first {
			metrics.WebhookDedupTotal.WithLabelValues("hit").Inc()
			s.log.Debug().Str("payment_id", ev.PaymentID).Msg("duplicate approval skipped")
			return nil
		} else {
			metrics.WebhookDedupTotal.WithLabelValues("miss").Inc()
		}
	}

	delivered := s.notifier.Publish(payment.ExternalReference, domain.Notification{
		Message:         domain.NotificationMessage,
		PaymentID:       ev.PaymentID,
		OriginalPayload: ev.Raw,
		PaymentStatus:   payment.Status,
	})
	rec.Notified = true
	metrics.NotificationsPublishedTotal.Inc()

	s.log.Info().
		Str("payment_id", ev.PaymentID).
		Str("room", payment.ExternalReference).
		Int("subscribers", delivered).
		Msg("payment notification published")

	return nil
}

// audit stores the webhook outcome. Failures are logged only.
func (s *paymentService) audit(ctx context.Context, rec *ports.PaymentEventRecord) {
	if s.events == nil {
		return
	}
	if err := s.events.Insert(ctx, rec); err != nil {
		s.log.Warn().Err(err).Str("payment_id", rec.PaymentID).Msg("failed to insert payment event")
	}
}
