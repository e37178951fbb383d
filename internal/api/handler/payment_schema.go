package handler

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/storefront/commerce-api/internal/core/ports"
)

type createPaymentRequest struct {
	TransactionAmount         float64 `json:"transaction_amount"          validate:"required,gt=0"`
	PaymentMethodID           string  `json:"payment_method_id"           validate:"required"`
	PaymentMethodType         string  `json:"payment_method_type"         validate:"required"`
	Installments              int     `json:"installments"                validate:"gte=0"`
	Description               string  `json:"description"`
	PayerEmail                string  `json:"payer_email"                 validate:"required,email"`
	PayerName                 string  `json:"payer_name"                  validate:"required"`
	PayerIdentificationType   string  `json:"payer_identification_type"   validate:"required"`
	PayerIdentificationNumber string  `json:"payer_identification_number" validate:"required"`
	CardToken                 string  `json:"card_token"`
	// RoomID is optional. Without it the order carries no external reference
	// and its approval reaches no websocket room.
	RoomID string `json:"room_id" validate:"omitempty,max=64"`
}

func toPaymentOrderInput(r createPaymentRequest) ports.PaymentOrderInput {
	return ports.PaymentOrderInput{
		Amount:            r.TransactionAmount,
		PaymentMethodID:   r.PaymentMethodID,
		PaymentMethodType: r.PaymentMethodType,
		Installments:      r.Installments,
		Description:       r.Description,
		CardToken:         r.CardToken,
		Payer: ports.PayerInput{
			Email:                r.PayerEmail,
			FirstName:            r.PayerName,
			IdentificationType:   r.PayerIdentificationType,
			IdentificationNumber: r.PayerIdentificationNumber,
		},
		RoomID: r.RoomID,
	}
}

// webhookPayload is the subset of a provider notification the ingress reads.
// Everything else is forwarded untouched as the raw body.
type webhookPayload struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

type receivedResponse struct {
	Received bool `json:"received"`
}

// paymentID returns data.id whether the provider sent it as a string or a number.
func (p webhookPayload) paymentID() string {
	raw := bytes.TrimSpace(p.Data.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
