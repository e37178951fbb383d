package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

type stubAuthService struct {
	loginFn func(ctx context.Context, email, password string) (string, error)
	meFn    func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

type stubUserService struct {
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	listFn   func(ctx context.Context) ([]*domain.User, error)
	getFn    func(ctx context.Context, id string) (*domain.User, error)
	updateFn func(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubUserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) Update(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

type stubPaymentService struct {
	createFn func(ctx context.Context, in ports.PaymentOrderInput) (json.RawMessage, error)
}

func (s *stubPaymentService) CreateOrder(ctx context.Context, in ports.PaymentOrderInput) (json.RawMessage, error) {
	return s.createFn(ctx, in)
}

func (s *stubPaymentService) HandleWebhook(context.Context, ports.WebhookEvent) error {
	return nil
}

type stubDispatcher struct {
	mu     sync.Mutex
	events []ports.WebhookEvent
}

func (d *stubDispatcher) Enqueue(e ports.WebhookEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return true
}

type stubVerifier struct {
	err    error
	dataID string
}

func (v *stubVerifier) Verify(_ *http.Request, dataID string) error {
	v.dataID = dataID
	return v.err
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func withIdentity(c echo.Context, sub string) {
	c.Set(middleware.IdentityKey, domain.Identity{Subject: sub, Username: "alice"})
}
