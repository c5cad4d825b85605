// Package sales models the paid documents (receipts and invoices) that feed
// shift reconciliation. Documents are produced elsewhere; this package only
// carries what the ledger reads from them.
package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

type Kind string

const (
	KindSale   Kind = "sale"
	KindRefund Kind = "refund"
)

type Status string

const (
	StatusPaid   Status = "paid"
	StatusUnpaid Status = "unpaid"
	StatusVoid   Status = "void"
)

// Method is the payment method of a sale or refund.
type Method string

const (
	MethodCash         Method = "cash"
	MethodCard         Method = "card"
	MethodMobileMoney  Method = "mobile_money"
	MethodBankTransfer Method = "bank_transfer"
	MethodOther        Method = "other"
)

// NormalizeMethod maps unknown or empty methods to MethodOther.
func NormalizeMethod(m Method) Method {
	switch m {
	case MethodCash, MethodCard, MethodMobileMoney, MethodBankTransfer:
		return m
	default:
		return MethodOther
	}
}

// Sale is one paid (or not yet paid) receipt or refund for a business day.
// Total is the amount actually taken, after Discount.
type Sale struct {
	ID        id.SaleID       `json:"id"`
	TenantID  id.TenantID     `json:"tenant_id"`
	Date      types.Date      `json:"date"`
	Number    string          `json:"number"   validate:"max=64"`
	Kind      Kind            `json:"kind"     validate:"required,oneof=sale refund"`
	Status    Status          `json:"status"   validate:"required,oneof=paid unpaid void"`
	Method    Method          `json:"method"   validate:"max=32"`
	Total     decimal.Decimal `json:"total"`
	Discount  decimal.Decimal `json:"discount"`
	Currency  string          `json:"currency" validate:"required,len=3,alpha"`
	CreatedAt time.Time       `json:"created_at"`
}

// Amount returns Total in the sale's currency.
func (s *Sale) Amount() types.Money { return types.NewMoney(s.Total, s.Currency) }

// IsPaid reports whether the record counts towards reconciliation.
func (s *Sale) IsPaid() bool { return s.Status == StatusPaid }

// IsRefund reports whether the record is money paid back to a customer.
func (s *Sale) IsRefund() bool { return s.Kind == KindRefund }

// Feed provides the paid records for one tenant and business day.
type Feed interface {
	PaidSales(ctx context.Context, tenantID id.TenantID, date types.Date) ([]*Sale, error)
}

// FeedFunc adapts a plain function to a Feed.
type FeedFunc func(ctx context.Context, tenantID id.TenantID, date types.Date) ([]*Sale, error)

// PaidSales implements Feed.
func (f FeedFunc) PaidSales(ctx context.Context, tenantID id.TenantID, date types.Date) ([]*Sale, error) {
	return f(ctx, tenantID, date)
}
