package mysql

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/sqlstore"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/storetest"
)

func TestNormalizeDSN(t *testing.T) {
	dsn, err := NormalizeDSN("app:secret@tcp(db:3306)/dreambiz")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, "UTC", cfg.Loc.String())
	assert.Equal(t, "dreambiz", cfg.DBName)
	assert.Equal(t, "'+00:00'", cfg.Params["time_zone"])

	_, err = NormalizeDSN("not a dsn")
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	d := Dialect{}
	assert.True(t, d.IsUniqueViolation(fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, d.IsUniqueViolation(&mysql.MySQLError{Number: 1452}))
	assert.Equal(t, "SELECT ?", d.Rebind("SELECT ?"))
}

// TestContract runs against a live server named by DREAMBIZ_MYSQL_DSN.
func TestContract(t *testing.T) {
	dsn := os.Getenv("DREAMBIZ_MYSQL_DSN")
	if dsn == "" {
		t.Skip("set DREAMBIZ_MYSQL_DSN to run the mysql contract suite")
	}
	ctx := context.Background()

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := Open(ctx, dsn, sqlstore.PoolOptions{MaxOpenConns: 10})
		require.NoError(t, err)
		require.NoError(t, s.Migrate(ctx))
		for _, table := range []string{
			"dreambiz_tenants", "dreambiz_owner_locks", "dreambiz_shifts", "dreambiz_sales",
			"dreambiz_plans", "dreambiz_subscriptions", "dreambiz_trials",
		} {
			_, err := s.DB().ExecContext(ctx, "DELETE FROM "+table)
			require.NoError(t, err)
		}
		return s
	})
}
