package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("identity: missing token")
	ErrInvalidToken   = errors.New("identity: invalid token")
	ErrSessionExpired = errors.New("identity: session expired")
)

// Claims is the session token payload. Subject is the user id.
type Claims struct {
	SessionID    string `json:"sid,omitempty"`
	ActiveTenant string `json:"active_tenant,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider verifies HS256 session tokens.
type JWTProvider struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTProvider creates a provider for tokens signed with secret. An empty
// issuer disables the issuer check.
func NewJWTProvider(secret, issuer string, ttl time.Duration) *JWTProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTProvider{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// WithClock replaces the provider clock. Used by tests.
func (p *JWTProvider) WithClock(now func() time.Time) *JWTProvider {
	p.now = now
	return p
}

// Authenticate implements Provider.
func (p *JWTProvider) Authenticate(_ context.Context, token string) (Principal, error) {
	if token == "" {
		return Anonymous, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Anonymous, ErrSessionExpired
	case err != nil:
		return Anonymous, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case claims.Subject == "":
		return Anonymous, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	pr := Principal{
		UserID:         claims.Subject,
		SessionID:      claims.SessionID,
		ActiveTenantID: claims.ActiveTenant,
	}
	if claims.ExpiresAt != nil {
		pr.ExpiresAt = claims.ExpiresAt.Time
	}
	return pr, nil
}

// Issue signs a session token for p. The CLI and tests use it; production
// tokens come from the auth service.
func (p *JWTProvider) Issue(pr Principal) (string, error) {
	now := p.now()
	claims := Claims{
		SessionID:    pr.SessionID,
		ActiveTenant: pr.ActiveTenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   pr.UserID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}
