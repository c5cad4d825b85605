// Package mysql is the MySQL backend: a sqlstore dialect on
// go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/blyssafrica-alt/dreambiz-sub006/store/sqlstore"
)

// DriverName is the database/sql driver registered by go-sql-driver/mysql.
const DriverName = "mysql"

const erDupEntry = 1062

// Dialect implements sqlstore.Dialect for MySQL 8.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "mysql" }

func (Dialect) Rebind(query string) string { return sqlstore.QuestionRebind(query) }

func (Dialect) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == erDupEntry
	}
	return false
}

// LockOwner upserts the owner's lock row and holds it FOR UPDATE until the
// transaction ends.
func (Dialect) LockOwner(ctx context.Context, tx *sql.Tx, ownerID string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dreambiz_owner_locks (owner_id) VALUES (?) ON DUPLICATE KEY UPDATE owner_id = owner_id`,
		ownerID); err != nil {
		return err
	}
	var locked string
	return tx.QueryRowContext(ctx,
		`SELECT owner_id FROM dreambiz_owner_locks WHERE owner_id = ? FOR UPDATE`, ownerID).Scan(&locked)
}

// TxOptions uses READ COMMITTED so counts taken after the lock see rows
// committed by the previous holder.
func (Dialect) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

func (Dialect) Time(t time.Time) any {
	return t.UTC().Truncate(time.Microsecond)
}

func (Dialect) Migrations() []sqlstore.Migration { return Migrations }

// New wraps an open MySQL database. The DSN must set parseTime=true.
func New(db *sql.DB) *sqlstore.Store {
	return sqlstore.New(db, Dialect{})
}

// Open connects to dsn, forcing parseTime and UTC.
func Open(ctx context.Context, dsn string, pool sqlstore.PoolOptions) (*sqlstore.Store, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("dreambiz/mysql: parse dsn: %w", err)
	}
	db, err := sqlstore.OpenDB(ctx, DriverName, normalized, pool)
	if err != nil {
		return nil, fmt.Errorf("dreambiz/mysql: open: %w", err)
	}
	return New(db), nil
}

// NormalizeDSN sets the connection parameters the store relies on.
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["time_zone"]; !ok {
		cfg.Params["time_zone"] = "'+00:00'"
	}
	return cfg.FormatDSN(), nil
}
