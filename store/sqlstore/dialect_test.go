package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDollarRebind(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"UPDATE t SET s = 'what?' WHERE id = ?", "UPDATE t SET s = 'what?' WHERE id = $1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DollarRebind(tt.in))
	}
}

func TestLimitClause(t *testing.T) {
	assert.Equal(t, "", limitClause(0, 0))
	assert.Equal(t, " LIMIT 10", limitClause(10, 0))
	assert.Equal(t, " LIMIT 10 OFFSET 20", limitClause(10, 20))
	assert.Equal(t, " LIMIT 2147483647 OFFSET 5", limitClause(0, 5))
}
