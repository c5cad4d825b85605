package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(30 * time.Second).WithClock(func() time.Time { return now })

	c.Set(&Result{UserID: "u1", PlanName: "Pro", MaxTenants: 5})

	got, ok := c.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Pro", got.PlanName)

	got.PlanName = "mutated"
	again, _ := c.Get("u1")
	assert.Equal(t, "Pro", again.PlanName, "cache must hand out copies")

	now = now.Add(30 * time.Second)
	_, ok = c.Get("u1")
	assert.False(t, ok, "entry should expire at the TTL boundary")
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache(time.Minute)
	c.Set(&Result{UserID: "u1"})
	c.Invalidate("u1")

	_, ok := c.Get("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheDisabled(t *testing.T) {
	c := NewCache(0)
	c.Set(&Result{UserID: "u1"})

	_, ok := c.Get("u1")
	assert.False(t, ok)
}

func TestResultAllows(t *testing.T) {
	limited := &Result{MaxTenants: 2}
	assert.True(t, limited.Allows(1))
	assert.False(t, limited.Allows(2))

	unlimited := &Result{MaxTenants: -1}
	assert.True(t, unlimited.Unlimited())
	assert.True(t, unlimited.Allows(1_000_000))
}
