// Package postgres is the PostgreSQL backend: a sqlstore dialect on the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/blyssafrica-alt/dreambiz-sub006/store/sqlstore"
)

// DriverName is the database/sql driver registered by pgx.
const DriverName = "pgx"

// Dialect implements sqlstore.Dialect for PostgreSQL.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) Rebind(query string) string { return sqlstore.DollarRebind(query) }

// IsUniqueViolation matches SQLSTATE 23505.
func (Dialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// LockOwner takes a transaction-scoped advisory lock keyed on the owner.
func (Dialect) LockOwner(ctx context.Context, tx *sql.Tx, ownerID string) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ownerID)
	return err
}

func (Dialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

func (Dialect) Time(t time.Time) any {
	return t.UTC().Truncate(time.Microsecond)
}

func (Dialect) Migrations() []sqlstore.Migration { return Migrations }

// New wraps an open pgx database.
func New(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(db, Dialect{})
}

// Open connects to dsn (a postgres:// URL or key=value string).
func Open(ctx context.Context, dsn string, pool sqlstore.PoolOptions) (*sqlstore.Store, error) {
	db, err := sqlstore.OpenDB(ctx, DriverName, dsn, pool)
	if err != nil {
		return nil, fmt.Errorf("dreambiz/postgres: open: %w", err)
	}
	return New(db), nil
}
