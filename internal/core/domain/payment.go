package domain

import "encoding/json"

// PaymentStatus is the provider-reported state of a payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// NotificationMessage is the text pushed to clients on a confirmed payment.
const NotificationMessage = "Payment completed successfully!"

// Notification is the record delivered to subscribers of a room when the
// provider confirms a payment.
type Notification struct {
	Message         string          `json:"message"`
	PaymentID       string          `json:"paymentId"`
	OriginalPayload json.RawMessage `json:"payment"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
}
