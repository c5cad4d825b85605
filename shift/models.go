// Package shift defines the daily cash shift for a business profile.
//
// A business day has at most one shift row per tenant. The row is created
// open when the day's first paid sale arrives (or when a cashier opens the
// drawer), and becomes closed exactly once, at which point its totals are
// frozen.
package shift

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type Shift struct {
	types.Entity
	ID              id.ShiftID          `json:"id"`
	TenantID        id.TenantID         `json:"tenant_id"`
	Date            types.Date          `json:"date"`
	Status          Status              `json:"status"`
	Currency        string              `json:"currency"`
	OpeningCash     decimal.Decimal     `json:"opening_cash"`
	OpenedBy        string              `json:"opened_by"`
	OpenedAt        time.Time           `json:"opened_at"`
	ClosedBy        string              `json:"closed_by,omitempty"`
	ClosedAt        *time.Time          `json:"closed_at,omitempty"`
	Totals          *reconcile.Totals   `json:"totals,omitempty"`
	ClosingCash     decimal.NullDecimal `json:"closing_cash"`
	ActualCash      decimal.NullDecimal `json:"actual_cash"`
	CashDiscrepancy decimal.NullDecimal `json:"cash_discrepancy"`
	CloseRef        id.CloseRef         `json:"close_ref,omitzero"`
}

// OpeningMoney is the opening float in the shift's currency.
func (s *Shift) OpeningMoney() types.Money { return types.NewMoney(s.OpeningCash, s.Currency) }

func (s *Shift) IsOpen() bool { return s.Status == StatusOpen }

func (s *Shift) IsClosed() bool { return s.Status == StatusClosed }

// CarryForward is the float the next shift opens with: the counted cash if
// it was recorded, otherwise the expected closing cash, otherwise zero.
func (s *Shift) CarryForward() decimal.Decimal {
	if s.ActualCash.Valid {
		return s.ActualCash.Decimal
	}
	if s.ClosingCash.Valid {
		return s.ClosingCash.Decimal
	}
	return decimal.Zero
}

// Close freezes totals on an open shift and computes the discrepancy.
// It does not persist anything.
func (s *Shift) Close(totals reconcile.Totals, actual decimal.Decimal, closedBy string, ref id.CloseRef, at time.Time) {
	closedAt := at.UTC().Truncate(time.Microsecond)

	s.Status = StatusClosed
	s.ClosedBy = closedBy
	s.ClosedAt = &closedAt
	s.Totals = &totals
	s.ClosingCash = decimal.NewNullDecimal(totals.ExpectedCash)
	s.ActualCash = decimal.NewNullDecimal(actual)
	s.CashDiscrepancy = decimal.NewNullDecimal(reconcile.Discrepancy(actual, totals.ExpectedCash))
	s.CloseRef = ref
	s.UpdatedAt = closedAt
}
