package ports

import (
	"context"
	"encoding/json"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// PayerInput identifies the buyer of an order.
type PayerInput struct {
	Email                string
	FirstName            string
	IdentificationType   string
	IdentificationNumber string
}

// PaymentOrderInput is a validated payment request.
type PaymentOrderInput struct {
	Amount            float64
	PaymentMethodID   string
	PaymentMethodType string
	Installments      int
	Description       string
	CardToken         string
	Payer             PayerInput
	// RoomID is the client-generated room the confirmation is delivered to.
	RoomID string
}

// ProviderPayment is the authoritative payment record held by the provider.
type ProviderPayment struct {
	ID                string
	Status            domain.PaymentStatus
	StatusDetail      string
	ExternalReference string
	Amount            float64
}

// PaymentProvider is the external payment processor.
type PaymentProvider interface {
	// CreateOrder submits a single order and returns the provider's JSON
	// representation untouched.
	CreateOrder(ctx context.Context, input PaymentOrderInput) (json.RawMessage, error)
	GetPayment(ctx context.Context, paymentID string) (*ProviderPayment, error)
}
