package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/storetest"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

func TestShiftModelRoundTrip(t *testing.T) {
	day := types.MustParseDate("2024-03-01")
	at := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	sh := &shift.Shift{
		Entity:      types.NewEntityAt(at),
		ID:          id.NewShiftID(),
		TenantID:    id.NewTenantID(),
		Date:        day,
		Status:      shift.StatusOpen,
		Currency:    "USD",
		OpeningCash: decimal.RequireFromString("100"),
		OpenedAt:    at,
	}
	totals := reconcile.Compute(sh.OpeningCash, []*sales.Sale{
		{Status: sales.StatusPaid, Kind: sales.KindSale, Method: sales.MethodCash, Total: decimal.RequireFromString("250.50")},
	})
	sh.Close(totals, decimal.RequireFromString("340"), "manager", id.NewCloseRef(), at)

	back, err := fromShiftModel(toShiftModel(sh))
	require.NoError(t, err)
	assert.Equal(t, sh.ID, back.ID)
	assert.Equal(t, sh.CloseRef, back.CloseRef)
	assert.Equal(t, day, back.Date)
	require.NotNil(t, back.Totals)
	assert.True(t, back.Totals.ExpectedCash.Equal(decimal.RequireFromString("350.50")))
	assert.True(t, back.CashDiscrepancy.Decimal.Equal(decimal.RequireFromString("-10.50")))
	assert.False(t, back.ActualCash.Decimal.IsZero())
}

func TestDecimal128(t *testing.T) {
	for _, s := range []string{"0", "1500.25", "-10.5", "123456789.0001"} {
		d := decimal.RequireFromString(s)
		back, err := fromDecimal128(toDecimal128(d))
		require.NoError(t, err)
		assert.True(t, d.Equal(back), "%s round-tripped to %s", s, back)
	}
	none, err := fromNullDecimal128(toNullDecimal128(decimal.NullDecimal{}))
	require.NoError(t, err)
	assert.False(t, none.Valid)
}

// TestContract runs against a replica set named by DREAMBIZ_MONGO_URI.
func TestContract(t *testing.T) {
	uri := os.Getenv("DREAMBIZ_MONGO_URI")
	if uri == "" {
		t.Skip("set DREAMBIZ_MONGO_URI to run the mongo contract suite")
	}
	ctx := context.Background()
	n := 0

	storetest.Run(t, func(t *testing.T) store.Store {
		n++
		dbName := fmt.Sprintf("dreambiz_test_%d_%d", time.Now().UnixNano(), n)
		s, err := Open(ctx, uri, dbName)
		require.NoError(t, err)
		require.NoError(t, s.Migrate(ctx))
		t.Cleanup(func() {
			cleanup, err := Open(ctx, uri, dbName)
			if err == nil {
				_ = cleanup.Database().Drop(ctx)
				_ = cleanup.Close()
			}
		})
		return s
	})
}
