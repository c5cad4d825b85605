// Package sqlite is the embedded SQLite backend, built on the pure-Go
// modernc.org/sqlite driver. Timestamps, decimals and JSON are stored as
// text so values round-trip exactly.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/blyssafrica-alt/dreambiz-sub006/store/sqlstore"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Dialect implements sqlstore.Dialect for SQLite.
type Dialect struct{}

var _ sqlstore.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Rebind(query string) string { return sqlstore.QuestionRebind(query) }

func (Dialect) IsUniqueViolation(err error) bool {
	var sErr *sqlite.Error
	if errors.As(err, &sErr) {
		switch sErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// LockOwner is a no-op: the single connection and BEGIN IMMEDIATE already
// serialize writers.
func (Dialect) LockOwner(context.Context, *sql.Tx, string) error { return nil }

func (Dialect) TxOptions() *sql.TxOptions { return nil }

func (Dialect) Time(t time.Time) any {
	return t.UTC().Format(sqlstore.TextTimeLayout)
}

func (Dialect) Migrations() []sqlstore.Migration { return Migrations }

// New wraps an open SQLite database. Writers are serialized on one
// connection.
func New(db *sql.DB) *sqlstore.Store {
	db.SetMaxOpenConns(1)
	return sqlstore.New(db, Dialect{})
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, path string) (*sqlstore.Store, error) {
	db, err := sqlstore.OpenDB(ctx, DriverName, DSN(path), sqlstore.PoolOptions{MaxOpenConns: 1})
	if err != nil {
		return nil, fmt.Errorf("dreambiz/sqlite: open %s: %w", path, err)
	}
	return New(db), nil
}

// DSN adds the connection pragmas the store relies on to path.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		path = "file:" + path
	}
	return path + sep + "_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}
