package plugin

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

type counting struct {
	name    string
	created atomic.Int32
	opened  atomic.Int32
}

func (c *counting) Name() string { return c.name }

func (c *counting) OnTenantCreated(context.Context, *tenant.Tenant) error {
	c.created.Add(1)
	return nil
}

func (c *counting) OnShiftOpened(context.Context, *shift.Shift) error {
	c.opened.Add(1)
	return errors.New("ignored")
}

type sleepy struct{}

func (sleepy) Name() string { return "sleepy" }

func (sleepy) OnShiftClosed(ctx context.Context, _ *shift.Shift) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }

func (panicky) OnTenantCreated(context.Context, *tenant.Tenant) error { panic("boom") }

func TestRegisterAndDispatch(t *testing.T) {
	r := NewRegistry()
	c := &counting{name: "counter"}
	require.NoError(t, r.Register(c))
	require.NoError(t, r.Register(panicky{}))

	err := r.Register(&counting{name: "counter"})
	assert.Error(t, err, "duplicate names are rejected")

	ctx := context.Background()
	r.EmitTenantCreated(ctx, &tenant.Tenant{})
	r.EmitShiftOpened(ctx, &shift.Shift{})

	assert.Equal(t, int32(1), c.created.Load(), "a panicking plugin must not stop dispatch")
	assert.Equal(t, int32(1), c.opened.Load())
	assert.Equal(t, 2, r.Count())
	assert.Same(t, c, r.Get("counter"))
	assert.Nil(t, r.Get("missing"))
}

func TestHookTimeout(t *testing.T) {
	r := NewRegistry().WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(sleepy{}))

	start := time.Now()
	r.EmitShiftClosed(context.Background(), &shift.Shift{})
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestImplementedInterfaces(t *testing.T) {
	got := implementedInterfaces(&counting{name: "c"})
	assert.ElementsMatch(t, []string{"OnTenantCreated", "OnShiftOpened"}, got)
}
