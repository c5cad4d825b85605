package audithook

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

type memRecorder struct {
	events []*AuditEvent
}

func (m *memRecorder) Record(_ context.Context, evt *AuditEvent) error {
	m.events = append(m.events, evt)
	return nil
}

func TestTenantCreatedEvent(t *testing.T) {
	rec := &memRecorder{}
	ext := New(rec)

	biz := &tenant.Tenant{ID: id.NewTenantID(), OwnerID: "user-1", Name: "Tendai Hardware"}
	require.NoError(t, ext.OnTenantCreated(context.Background(), biz))

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, ActionTenantCreated, evt.Action)
	assert.Equal(t, ResourceTenant, evt.Resource)
	assert.Equal(t, biz.ID.String(), evt.ResourceID)
	assert.Equal(t, "user-1", evt.Metadata["owner_id"])
	assert.Equal(t, OutcomeSuccess, evt.Outcome)
}

func TestShiftClosedSeverity(t *testing.T) {
	rec := &memRecorder{}
	ext := New(rec)

	s := &shift.Shift{ID: id.NewShiftID(), TenantID: id.NewTenantID(), Date: types.MustParseDate("2024-03-01"), Status: shift.StatusOpen}
	totals := reconcile.Totals{ExpectedCash: decimal.RequireFromString("350")}
	s.Close(totals, decimal.RequireFromString("340"), "user-1", id.NewCloseRef(), s.Date.Time())

	require.NoError(t, ext.OnShiftClosed(context.Background(), s))
	require.Len(t, rec.events, 1)
	assert.Equal(t, SeverityWarning, rec.events[0].Severity)
	assert.Equal(t, "-10", rec.events[0].Metadata["cash_discrepancy"])
	assert.Equal(t, "350", rec.events[0].Metadata["expected_cash"])
}

func TestSaleRecordedCarriesCurrency(t *testing.T) {
	rec := &memRecorder{}
	ext := New(rec)

	s := &sales.Sale{
		ID:       id.NewSaleID(),
		TenantID: id.NewTenantID(),
		Kind:     sales.KindSale,
		Method:   sales.MethodCash,
		Total:    decimal.RequireFromString("12.5"),
		Currency: "USD",
	}
	require.NoError(t, ext.OnSaleRecorded(context.Background(), s))

	require.Len(t, rec.events, 1)
	assert.Equal(t, "12.5", rec.events[0].Metadata["total"])
	assert.Equal(t, "$12.50", rec.events[0].Metadata["amount"])
}

func TestEnabledAndDisabledActions(t *testing.T) {
	rec := &memRecorder{}
	ext := New(rec, WithDisabledActions(ActionTenantCreated))

	ctx := context.Background()
	biz := &tenant.Tenant{ID: id.NewTenantID()}
	require.NoError(t, ext.OnTenantCreated(ctx, biz))
	require.NoError(t, ext.OnTenantDeleted(ctx, biz))

	require.Len(t, rec.events, 1)
	assert.Equal(t, ActionTenantDeleted, rec.events[0].Action)

	rec.events = nil
	only := New(rec, WithEnabledActions(ActionStoreFailure))
	require.NoError(t, only.OnTenantDeleted(ctx, biz))
	require.NoError(t, only.OnPersistenceFailure(ctx, "create_tenant", errors.New("connection reset")))

	require.Len(t, rec.events, 1)
	assert.Equal(t, "connection reset", rec.events[0].Reason)
	assert.Equal(t, SeverityError, rec.events[0].Severity)
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	ext := New(RecorderFunc(func(context.Context, *AuditEvent) error {
		return errors.New("audit store down")
	}))
	err := ext.OnTenantLimitExceeded(context.Background(), "user-1", "Free", 1)
	assert.NoError(t, err)
}
