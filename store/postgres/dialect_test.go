package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDialect(t *testing.T) {
	d := Dialect{}

	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = '?' AND c = $2", d.Rebind("SELECT * FROM t WHERE a = ? AND b = '?' AND c = ?"))

	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, d.IsUniqueViolation(dup))
	assert.False(t, d.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, d.IsUniqueViolation(errors.New("boom")))

	at := time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.FixedZone("CAT", 7200))
	got, ok := d.Time(at).(time.Time)
	assert.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 123456000, got.Nanosecond())
}

func TestMigrationsOrdered(t *testing.T) {
	for i := 1; i < len(Migrations); i++ {
		assert.Less(t, Migrations[i-1].Version, Migrations[i].Version)
	}
}
