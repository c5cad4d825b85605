package tenant

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNameKey(t *testing.T) {
	assert.Equal(t, "mama's kitchen", NameKey("  Mama's   Kitchen "))
	assert.Equal(t, NameKey("ACME Hardware"), NameKey("acme hardware"))
}

func TestInputNormalize(t *testing.T) {
	in := Input{Name: "  Shop ", Currency: " usd ", OwnerName: " Tariro "}
	in.Normalize()

	assert.Equal(t, "Shop", in.Name)
	assert.Equal(t, "USD", in.Currency)
	assert.Equal(t, "Tariro", in.OwnerName)
}

func TestPatchApplyTo(t *testing.T) {
	orig := &Tenant{Name: "Old", Currency: "USD", OwnerName: "Rudo", Capital: decimal.NewFromInt(100)}
	in := InputOf(orig)

	name := "New"
	capital := decimal.RequireFromString("250.50")
	p := Patch{Name: &name, Capital: &capital}
	assert.False(t, p.IsEmpty())

	p.ApplyTo(&in)
	assert.Equal(t, "New", in.Name)
	assert.Equal(t, "USD", in.Currency, "unset fields are untouched")
	assert.True(t, in.Capital.Equal(capital))

	assert.True(t, (&Patch{}).IsEmpty())
}
