package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// User repository stub
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users   map[string]*domain.User // by ID
	nextID  int
	findErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append([]domain.Role(nil), u.Roles...)
	return &clone
}

// seed stores a user whose password is hashed with the minimum bcrypt cost.
func (r *stubUserRepo) seed(name, email, password string, roles ...domain.Role) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	r.nextID++
	u := &domain.User{
		ID:           fmt.Sprintf("user-%d", r.nextID),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
	}
	r.users[u.ID] = u
	return cloneUser(u)
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// ---------------------------------------------------------------------------
// Payment stubs
// ---------------------------------------------------------------------------

type stubProvider struct {
	order     json.RawMessage
	createErr error
	created   []ports.PaymentOrderInput

	payments map[string]*ports.ProviderPayment
	getErr   error
	lookups  []string
}

func (p *stubProvider) CreateOrder(_ context.Context, in ports.PaymentOrderInput) (json.RawMessage, error) {
	p.created = append(p.created, in)
	if p.createErr != nil {
		return nil, p.createErr
	}
	return p.order, nil
}

func (p *stubProvider) GetPayment(_ context.Context, id string) (*ports.ProviderPayment, error) {
	p.lookups = append(p.lookups, id)
	if p.getErr != nil {
		return nil, p.getErr
	}
	pay, ok := p.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", id)
	}
	return pay, nil
}

type published struct {
	room string
	n    domain.Notification
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []published
}

func (n *stubNotifier) Publish(room string, notif domain.Notification) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, published{room: room, n: notif})
	return 1
}

type stubEventRepo struct {
	insertErr error
	inserted  []*ports.PaymentEventRecord
}

func (r *stubEventRepo) Insert(_ context.Context, rec *ports.PaymentEventRecord) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, rec)
	return nil
}

type stubDedup struct {
	claimed map[string]bool
	err     error
}

func (d *stubDedup) Claim(_ context.Context, paymentID string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	if d.claimed == nil {
		d.claimed = make(map[string]bool)
	}
	if d.claimed[paymentID] {
		return false, nil
	}
	d.claimed[paymentID] = true
	return true, nil
}
