package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storefront/commerce-api/internal/core/domain"
)

func adminAndClient() *stubUsers {
	return &stubUsers{users: map[string]*domain.User{
		"admin-1":  {ID: "admin-1", Roles: []domain.Role{domain.RoleAdmin}},
		"client-1": {ID: "client-1", Roles: []domain.Role{domain.RoleClient}},
		"multi-1":  {ID: "multi-1", Roles: []domain.Role{domain.RoleClient, domain.RoleSeller}},
		"norole-1": {ID: "norole-1"},
	}}
}

func bearer(t *testing.T, sub string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, "/users/whatever", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, sub, sub))
	return req
}

func TestAuthorize_NoRolesIsOpen(t *testing.T) {
	users := adminAndClient()
	req := httptest.NewRequest(http.MethodGet, "/", nil) // no credentials at all

	called, _, err := run(t, newGate(users).Authorize(), req)
	if err != nil || !called {
		t.Fatalf("expected open access, got called=%v err=%v", called, err)
	}
	if users.calls != 0 {
		t.Fatalf("open route must not look users up")
	}
}

func TestRequireRoles_EmptyEqualsOpen(t *testing.T) {
	if !RequireRoles().IsOpen() {
		t.Fatalf("RequireRoles() without roles must be Open")
	}
	if RequireRoles(domain.RoleAdmin).IsOpen() || Authenticated().IsOpen() {
		t.Fatalf("role and authenticated policies must not be Open")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	called, _, err := run(t, newGate(nil).Guard(RequireRoles()), req)
	if err != nil || !called {
		t.Fatalf("expected open access, got called=%v err=%v", called, err)
	}
}

func TestAuthorize_AllowsMatchingRole(t *testing.T) {
	called, id, err := run(t, newGate(adminAndClient()).Authorize(domain.RoleAdmin), bearer(t, "admin-1"))
	if err != nil || !called {
		t.Fatalf("expected admin to pass, got called=%v err=%v", called, err)
	}
	if id.Subject != "admin-1" {
		t.Fatalf("identity not attached: %+v", id)
	}
}

func TestAuthorize_RoleIntersection(t *testing.T) {
	tests := []struct {
		sub      string
		required []domain.Role
		allowed  bool
	}{
		{"admin-1", []domain.Role{domain.RoleAdmin}, true},
		{"client-1", []domain.Role{domain.RoleAdmin}, false},
		{"multi-1", []domain.Role{domain.RoleAdmin, domain.RoleSeller}, true},
		{"multi-1", []domain.Role{domain.RoleAdmin}, false},
		{"norole-1", []domain.Role{domain.RoleClient}, false},
	}

	for _, tt := range tests {
		called, _, err := run(t, newGate(adminAndClient()).Authorize(tt.required...), bearer(t, tt.sub))
		if tt.allowed && (err != nil || !called) {
			t.Errorf("%s %v: expected allow, got called=%v err=%v", tt.sub, tt.required, called, err)
		}
		if !tt.allowed && (called || !errors.Is(err, domain.ErrUnauthorized)) {
			t.Errorf("%s %v: expected ErrUnauthorized, got called=%v err=%v", tt.sub, tt.required, called, err)
		}
	}
}

func TestAuthorize_DeletedUser(t *testing.T) {
	called, _, err := run(t, newGate(adminAndClient()).Authorize(domain.RoleAdmin), bearer(t, "gone"))
	if called || !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for deleted user, got called=%v err=%v", called, err)
	}
}

func TestAuthorize_LookupErrorIsUnauthorized(t *testing.T) {
	users := &stubUsers{err: errors.New("mongo down")}
	_, _, err := run(t, newGate(users).Authorize(domain.RoleAdmin), bearer(t, "admin-1"))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthorize_RefetchesUserEveryCall(t *testing.T) {
	users := adminAndClient()
	mw := newGate(users).Authorize(domain.RoleAdmin)

	if _, _, err := run(t, mw, bearer(t, "admin-1")); err != nil {
		t.Fatalf("first call: %v", err)
	}
	users.users["admin-1"].Roles = []domain.Role{domain.RoleClient}
	if _, _, err := run(t, mw, bearer(t, "admin-1")); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("role change must apply on next request, got %v", err)
	}
	if users.calls != 2 {
		t.Fatalf("expected 2 lookups, got %d", users.calls)
	}
}

func TestAuthorize_MissingAndInvalidToken(t *testing.T) {
	mw := newGate(adminAndClient()).Authorize(domain.RoleAdmin)

	_, _, err := run(t, mw, httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("missing: expected ErrUnauthorized, got %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	_, _, err = run(t, mw, req)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("invalid: expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthorize_ExpiredToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expiredToken(t, "admin-1"))

	called, _, err := run(t, newGate(adminAndClient()).Authorize(domain.RoleAdmin), req)
	if called || !errors.Is(err, domain.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got called=%v err=%v", called, err)
	}
}

func TestGuard_Authenticated(t *testing.T) {
	called, _, err := run(t, newGate(nil).Guard(Authenticated()), httptest.NewRequest(http.MethodGet, "/", nil))
	if called || !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got called=%v err=%v", called, err)
	}
}
