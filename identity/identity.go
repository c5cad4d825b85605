// Package identity carries the authenticated caller through the engine.
// Every engine operation takes a Principal explicitly; nothing is read from
// ambient session state.
package identity

import (
	"context"
	"time"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id,omitempty"`
	ActiveTenantID string    `json:"active_tenant_id,omitempty"`
	ExpiresAt      time.Time `json:"expires_at,omitzero"`
}

// Anonymous is the zero Principal.
var Anonymous = Principal{}

// Authenticated reports whether p carries a user and has not expired at now.
func (p Principal) Authenticated(now time.Time) bool {
	if p.UserID == "" {
		return false
	}
	return p.ExpiresAt.IsZero() || now.Before(p.ExpiresAt)
}

// WithActiveTenant returns a copy of p whose active context is tenantID.
func (p Principal) WithActiveTenant(tenantID string) Principal {
	p.ActiveTenantID = tenantID
	return p
}

type ctxKey struct{}

// NewContext returns a context carrying p. Transports use it to hand the
// verified caller to handlers; the engine itself never reads it.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the Principal stored by NewContext.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Provider resolves a bearer credential into a Principal.
type Provider interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}
