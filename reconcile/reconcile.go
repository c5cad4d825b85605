// Package reconcile computes shift totals from paid sale records. Every
// function here is pure: no I/O, no clock, no shared state.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// Totals summarizes one business day.
//
// Gross and the per-method amounts cover sales only. Refunds are tracked
// separately and reduce Net; cash refunds also reduce ExpectedCash.
type Totals struct {
	SalesCount   int             `json:"sales_count"`
	Gross        decimal.Decimal `json:"gross"`
	Cash         decimal.Decimal `json:"cash"`
	Card         decimal.Decimal `json:"card"`
	MobileMoney  decimal.Decimal `json:"mobile_money"`
	BankTransfer decimal.Decimal `json:"bank_transfer"`
	Other        decimal.Decimal `json:"other"`
	Discounts    decimal.Decimal `json:"discounts"`
	RefundCount  int             `json:"refund_count"`
	Refunds      decimal.Decimal `json:"refunds"`
	CashRefunds  decimal.Decimal `json:"cash_refunds"`
	Net          decimal.Decimal `json:"net"`
	OpeningCash  decimal.Decimal `json:"opening_cash"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`

	// Set by ComputeIn only.
	Currency string `json:"currency,omitempty"`
	Excluded int    `json:"excluded,omitempty"`
}

// Compute totals the paid records in any order. Records that are not paid
// are ignored. With no records the result is all zeros except OpeningCash
// and ExpectedCash, which both equal opening.
func Compute(opening decimal.Decimal, records []*sales.Sale) Totals {
	t := Totals{OpeningCash: opening}

	for _, r := range records {
		if r == nil || !r.IsPaid() {
			continue
		}

		amount := r.Total
		method := sales.NormalizeMethod(r.Method)

		if r.IsRefund() {
			t.RefundCount++
			t.Refunds = t.Refunds.Add(amount)
			if method == sales.MethodCash {
				t.CashRefunds = t.CashRefunds.Add(amount)
			}
			continue
		}

		t.SalesCount++
		t.Gross = t.Gross.Add(amount)
		t.Discounts = t.Discounts.Add(r.Discount)

		switch method {
		case sales.MethodCash:
			t.Cash = t.Cash.Add(amount)
		case sales.MethodCard:
			t.Card = t.Card.Add(amount)
		case sales.MethodMobileMoney:
			t.MobileMoney = t.MobileMoney.Add(amount)
		case sales.MethodBankTransfer:
			t.BankTransfer = t.BankTransfer.Add(amount)
		default:
			t.Other = t.Other.Add(amount)
		}
	}

	t.Net = t.Gross.Sub(t.Refunds)
	t.ExpectedCash = ExpectedCash(opening, t.Cash, t.CashRefunds)
	return t
}

// ComputeIn totals only the records in opening's currency. Records in any
// other currency are counted in Excluded and left out of every sum.
func ComputeIn(opening types.Money, records []*sales.Sale) Totals {
	same := make([]*sales.Sale, 0, len(records))
	excluded := 0
	for _, r := range records {
		if r == nil {
			continue
		}
		if !r.Amount().SameCurrency(opening) {
			excluded++
			continue
		}
		same = append(same, r)
	}

	t := Compute(opening.Amount, same)
	t.Currency = opening.Currency
	t.Excluded = excluded
	return t
}

// ExpectedCash is the cash that should be in the drawer at close.
func ExpectedCash(opening, cashSales, cashRefunds decimal.Decimal) decimal.Decimal {
	return opening.Add(cashSales).Sub(cashRefunds)
}

// Discrepancy is counted cash minus expected cash. Negative means the
// drawer is short.
func Discrepancy(actual, expected decimal.Decimal) decimal.Decimal {
	return actual.Sub(expected)
}

// Equal reports whether two totals carry the same counts and amounts.
// Amounts compare numerically, so "1.5" equals "1.50".
func (t Totals) Equal(o Totals) bool {
	return t.SalesCount == o.SalesCount &&
		t.RefundCount == o.RefundCount &&
		t.Gross.Equal(o.Gross) &&
		t.Cash.Equal(o.Cash) &&
		t.Card.Equal(o.Card) &&
		t.MobileMoney.Equal(o.MobileMoney) &&
		t.BankTransfer.Equal(o.BankTransfer) &&
		t.Other.Equal(o.Other) &&
		t.Discounts.Equal(o.Discounts) &&
		t.Refunds.Equal(o.Refunds) &&
		t.CashRefunds.Equal(o.CashRefunds) &&
		t.Net.Equal(o.Net) &&
		t.OpeningCash.Equal(o.OpeningCash) &&
		t.ExpectedCash.Equal(o.ExpectedCash)
}
