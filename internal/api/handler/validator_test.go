package handler

import (
	"strings"
	"testing"
)

func TestValidator_UsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&createPaymentRequest{})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"transaction_amount is required", "payer_email is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
	if strings.Contains(err.Error(), "room_id") {
		t.Errorf("room_id is optional, got %q", err.Error())
	}
}

func TestValidator_Email(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&createUserRequest{Name: "A", Email: "not-an-email", Password: "secret1"})
	if err == nil || !strings.Contains(err.Error(), "email must be a valid email") {
		t.Fatalf("expected email error, got %v", err)
	}
}
