// Package tenant defines the business profile: the tenant every shift, sale
// and document belongs to.
package tenant

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// Tenant is one business profile owned by a user.
type Tenant struct {
	types.Entity
	ID           id.TenantID     `json:"id"`
	OwnerID      string          `json:"owner_id"`
	Name         string          `json:"name"`
	BusinessType string          `json:"business_type"`
	Stage        string          `json:"stage"`
	Location     string          `json:"location"`
	Capital      decimal.Decimal `json:"capital"`
	Currency     string          `json:"currency"`
	OwnerName    string          `json:"owner_name"`
	Email        string          `json:"email,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Address      string          `json:"address,omitempty"`
	Website      string          `json:"website,omitempty"`
	LogoRef      string          `json:"logo_ref,omitempty"`
}

// NameKey is the normalized form used for per-owner name uniqueness.
func (t *Tenant) NameKey() string {
	return NameKey(t.Name)
}

// NameKey normalizes a business name: trimmed, case-folded, inner runs of
// whitespace collapsed.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Input carries the attributes of a new business profile.
type Input struct {
	Name         string          `json:"name"          validate:"required,max=120"`
	BusinessType string          `json:"business_type" validate:"required,max=60"`
	Stage        string          `json:"stage"         validate:"omitempty,oneof=idea startup growth established"`
	Location     string          `json:"location"      validate:"max=120"`
	Capital      decimal.Decimal `json:"capital"`
	Currency     string          `json:"currency"      validate:"required,len=3,alpha"`
	OwnerName    string          `json:"owner_name"    validate:"required,max=120"`
	Email        string          `json:"email"         validate:"omitempty,email"`
	Phone        string          `json:"phone"         validate:"omitempty,max=32"`
	Address      string          `json:"address"       validate:"max=240"`
	Website      string          `json:"website"       validate:"omitempty,url"`
	LogoRef      string          `json:"logo_ref"      validate:"max=512"`
}

// Normalize trims free-text fields and upper-cases the currency.
func (in *Input) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.BusinessType = strings.TrimSpace(in.BusinessType)
	in.Stage = strings.TrimSpace(in.Stage)
	in.Location = strings.TrimSpace(in.Location)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.OwnerName = strings.TrimSpace(in.OwnerName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.Website = strings.TrimSpace(in.Website)
}

// Apply copies the input onto t.
func (in *Input) Apply(t *Tenant) {
	t.Name = in.Name
	t.BusinessType = in.BusinessType
	t.Stage = in.Stage
	t.Location = in.Location
	t.Capital = in.Capital
	t.Currency = in.Currency
	t.OwnerName = in.OwnerName
	t.Email = in.Email
	t.Phone = in.Phone
	t.Address = in.Address
	t.Website = in.Website
	t.LogoRef = in.LogoRef
}

// InputOf returns the editable attributes of t.
func InputOf(t *Tenant) Input {
	return Input{
		Name:         t.Name,
		BusinessType: t.BusinessType,
		Stage:        t.Stage,
		Location:     t.Location,
		Capital:      t.Capital,
		Currency:     t.Currency,
		OwnerName:    t.OwnerName,
		Email:        t.Email,
		Phone:        t.Phone,
		Address:      t.Address,
		Website:      t.Website,
		LogoRef:      t.LogoRef,
	}
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name         *string          `json:"name,omitempty"`
	BusinessType *string          `json:"business_type,omitempty"`
	Stage        *string          `json:"stage,omitempty"`
	Location     *string          `json:"location,omitempty"`
	Capital      *decimal.Decimal `json:"capital,omitempty"`
	Currency     *string          `json:"currency,omitempty"`
	OwnerName    *string          `json:"owner_name,omitempty"`
	Email        *string          `json:"email,omitempty"`
	Phone        *string          `json:"phone,omitempty"`
	Address      *string          `json:"address,omitempty"`
	Website      *string          `json:"website,omitempty"`
	LogoRef      *string          `json:"logo_ref,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.Name == nil && p.BusinessType == nil && p.Stage == nil &&
		p.Location == nil && p.Capital == nil && p.Currency == nil &&
		p.OwnerName == nil && p.Email == nil && p.Phone == nil &&
		p.Address == nil && p.Website == nil && p.LogoRef == nil
}

// ApplyTo overlays the patch on in.
func (p *Patch) ApplyTo(in *Input) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&in.Name, p.Name)
	set(&in.BusinessType, p.BusinessType)
	set(&in.Stage, p.Stage)
	set(&in.Location, p.Location)
	set(&in.Currency, p.Currency)
	set(&in.OwnerName, p.OwnerName)
	set(&in.Email, p.Email)
	set(&in.Phone, p.Phone)
	set(&in.Address, p.Address)
	set(&in.Website, p.Website)
	set(&in.LogoRef, p.LogoRef)
	if p.Capital != nil {
		in.Capital = *p.Capital
	}
}
