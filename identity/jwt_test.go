package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	p := NewJWTProvider("s3cret", "dreambiz", time.Hour).WithClock(func() time.Time { return now })

	token, err := p.Issue(Principal{UserID: "user-1", SessionID: "sess-1", ActiveTenantID: "biz_1"})
	require.NoError(t, err)

	got, err := p.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, "biz_1", got.ActiveTenantID)
	assert.True(t, got.Authenticated(now))
}

func TestJWTExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	p := NewJWTProvider("s3cret", "", time.Minute).WithClock(func() time.Time { return now })

	token, err := p.Issue(Principal{UserID: "user-1"})
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = p.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestJWTRejects(t *testing.T) {
	p := NewJWTProvider("s3cret", "dreambiz", time.Hour)
	other := NewJWTProvider("other", "dreambiz", time.Hour)
	wrongIssuer := NewJWTProvider("s3cret", "someone-else", time.Hour)

	forged, err := other.Issue(Principal{UserID: "user-1"})
	require.NoError(t, err)
	foreign, err := wrongIssuer.Issue(Principal{UserID: "user-1"})
	require.NoError(t, err)
	anonymous, err := p.Issue(Principal{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong key", forged, ErrInvalidToken},
		{"wrong issuer", foreign, ErrInvalidToken},
		{"no subject", anonymous, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Authenticate(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPrincipalAuthenticated(t *testing.T) {
	now := time.Now()
	assert.False(t, Anonymous.Authenticated(now))
	assert.True(t, Principal{UserID: "u"}.Authenticated(now))
	assert.False(t, Principal{UserID: "u", ExpiresAt: now.Add(-time.Second)}.Authenticated(now))
}

func TestContext(t *testing.T) {
	ctx := NewContext(context.Background(), Principal{UserID: "u"})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u", p.UserID)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
