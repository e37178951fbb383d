package domain

import (
	"errors"
	"fmt"
)

// Authentication and authorization failures.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrSessionExpired = errors.New("session expired")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("expired token")
)

// Domain validation failures.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidUser       = errors.New("invalid user data")
)

// Payment pipeline failures.
var (
	ErrMissingPaymentID = errors.New("webhook payload without payment id")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrProviderRejected = errors.New("payment provider rejected the request")
)

// InternalError marks an unexpected failure. The cause is kept for logging and
// never rendered to the caller.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// Internal wraps err as an InternalError for op.
func Internal(op string, err error) error {
	return &InternalError{Op: op, Err: err}
}
