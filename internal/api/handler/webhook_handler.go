package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/ports"
)

// maxWebhookBody bounds the size of a provider callback.
const maxWebhookBody = 1 << 20

// WebhookDispatcher is the interface the handler uses to enqueue webhooks.
// Enqueue reports false when the event was dropped during shutdown.
type WebhookDispatcher interface {
	Enqueue(event ports.WebhookEvent) bool
}

// SignatureVerifier authenticates a provider callback.
type SignatureVerifier interface {
	Verify(r *http.Request, dataID string) error
}

// WebhookHandler acknowledges provider callbacks and hands them to the
// dispatcher. The response is always 200 {"received": true}; failures are
// only visible in logs so the provider's delivery semantics stay untouched.
type WebhookHandler struct {
	dispatcher WebhookDispatcher
	verifier   SignatureVerifier
	log        zerolog.Logger
}

// NewWebhookHandler creates a WebhookHandler. verifier may be nil, in which
// case callbacks are not authenticated.
func NewWebhookHandler(dispatcher WebhookDispatcher, verifier SignatureVerifier, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, verifier: verifier, log: log}
}

// Receive handles POST /payments/webhook.
//
// @Summary      Payment provider webhook
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  receivedResponse
// @Router       /payments/webhook [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	h.ingest(c)
	return c.JSON(http.StatusOK, receivedResponse{Received: true})
}

func (h *WebhookHandler) ingest(c echo.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook: failed to read body")
		return
	}

	var payload webhookPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			h.log.Warn().Err(err).Msg("webhook: malformed payload")
			return
		}
	}

	id := payload.paymentID()
	if id == "" {
		id = c.QueryParam("data.id")
	}
	if payload.Type == "" {
		payload.Type = c.QueryParam("type")
	}

	if h.verifier != nil {
		if err := h.verifier.Verify(c.Request(), id); err != nil {
			h.log.Warn().Err(err).Str("payment_id", id).Msg("webhook: signature rejected")
			return
		}
	}

	if id == "" {
		h.log.Warn().Str("action", payload.Action).Msg("webhook: payload without payment id")
		return
	}

	h.dispatcher.Enqueue(ports.WebhookEvent{
		PaymentID:  id,
		Action:     payload.Action,
		Type:       payload.Type,
		Raw:        json.RawMessage(body),
		ReceivedAt: time.Now().UTC(),
	})
}
