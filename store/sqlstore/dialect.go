package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect isolates what differs between SQL backends. Queries in this
// package are written with "?" placeholders and standard SQL; the dialect
// rewrites and extends them.
type Dialect interface {
	// Name is the driver-facing name, used in error messages.
	Name() string
	// Rebind rewrites "?" placeholders into the backend's form.
	Rebind(query string) string
	// IsUniqueViolation reports whether err is a unique or primary key violation.
	IsUniqueViolation(err error) bool
	// LockOwner serializes business profile creation for ownerID inside tx.
	LockOwner(ctx context.Context, tx *sql.Tx, ownerID string) error
	// TxOptions are the options every write transaction is started with.
	TxOptions() *sql.TxOptions
	// Time converts a timestamp into a query argument.
	Time(t time.Time) any
	// Migrations lists the schema in version order.
	Migrations() []Migration
}

// Migration is one versioned schema step.
type Migration struct {
	Version    string
	Name       string
	Statements []string
}

// QuestionRebind leaves "?" placeholders as they are.
func QuestionRebind(query string) string { return query }

// DollarRebind rewrites "?" placeholders to "$1", "$2", ... . Question marks
// inside single-quoted literals are left alone.
func DollarRebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
