package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func receive(t *testing.T, h *WebhookHandler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := newEcho()
	rec := httptest.NewRecorder()
	if err := h.Receive(e.NewContext(jsonRequest(http.MethodPost, target, body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"received\":true}\n" {
		t.Fatalf("unexpected body %q", got)
	}
	return rec
}

func TestWebhookHandler_EnqueuesStringID(t *testing.T) {
	d := &stubDispatcher{}
	h := NewWebhookHandler(d, nil, zerolog.Nop())

	receive(t, h, "/payments/webhook", `{"action":"payment.updated","type":"payment","data":{"id":"123"}}`)

	if len(d.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(d.events))
	}
	ev := d.events[0]
	if ev.PaymentID != "123" || ev.Action != "payment.updated" || ev.Type != "payment" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.Raw) == 0 || ev.ReceivedAt.IsZero() {
		t.Fatalf("raw payload and timestamp expected")
	}
}

func TestWebhookHandler_NumericID(t *testing.T) {
	d := &stubDispatcher{}
	h := NewWebhookHandler(d, nil, zerolog.Nop())

	receive(t, h, "/payments/webhook", `{"data":{"id":987654321}}`)

	if len(d.events) != 1 || d.events[0].PaymentID != "987654321" {
		t.Fatalf("unexpected events: %+v", d.events)
	}
}

func TestWebhookHandler_QueryFallback(t *testing.T) {
	d := &stubDispatcher{}
	h := NewWebhookHandler(d, nil, zerolog.Nop())

	receive(t, h, "/payments/webhook?data.id=555&type=payment", ``)

	if len(d.events) != 1 || d.events[0].PaymentID != "555" || d.events[0].Type != "payment" {
		t.Fatalf("unexpected events: %+v", d.events)
	}
}

func TestWebhookHandler_IgnoresPayloadStatus(t *testing.T) {
	d := &stubDispatcher{}
	h := NewWebhookHandler(d, nil, zerolog.Nop())

	// The status in the body is never trusted; the event is enqueued for
	// verification against the provider either way.
	receive(t, h, "/payments/webhook", `{"data":{"id":"1","status":"approved"}}`)
	receive(t, h, "/payments/webhook", `{"data":{"id":"2","status":"rejected"}}`)

	if len(d.events) != 2 {
		t.Fatalf("expected both events enqueued, got %d", len(d.events))
	}
}

func TestWebhookHandler_AlwaysAcknowledges(t *testing.T) {
	cases := map[string]string{
		"malformed":  `{not json`,
		"missing id": `{"action":"payment.created"}`,
		"null id":    `{"data":{"id":null}}`,
		"empty":      ``,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			d := &stubDispatcher{}
			h := NewWebhookHandler(d, nil, zerolog.Nop())
			receive(t, h, "/payments/webhook", body)
			if len(d.events) != 0 {
				t.Fatalf("nothing should be enqueued, got %+v", d.events)
			}
		})
	}
}

func TestWebhookHandler_SignatureRejected(t *testing.T) {
	d := &stubDispatcher{}
	v := &stubVerifier{err: errors.New("bad signature")}
	h := NewWebhookHandler(d, v, zerolog.Nop())

	receive(t, h, "/payments/webhook", `{"data":{"id":"123"}}`)

	if v.dataID != "123" {
		t.Fatalf("verifier got data id %q", v.dataID)
	}
	if len(d.events) != 0 {
		t.Fatalf("rejected webhook must not be enqueued")
	}
}

func TestWebhookHandler_SignatureAccepted(t *testing.T) {
	d := &stubDispatcher{}
	h := NewWebhookHandler(d, &stubVerifier{}, zerolog.Nop())

	receive(t, h, "/payments/webhook", `{"data":{"id":"123"}}`)

	if len(d.events) != 1 {
		t.Fatalf("expected event enqueued")
	}
}
