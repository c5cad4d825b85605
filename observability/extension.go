// Package observability provides a metrics extension for DreamBiz that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/plugin"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnTenantCreated        = (*MetricsExtension)(nil)
	_ plugin.OnTenantUpdated        = (*MetricsExtension)(nil)
	_ plugin.OnTenantDeleted        = (*MetricsExtension)(nil)
	_ plugin.OnTenantLimitExceeded  = (*MetricsExtension)(nil)
	_ plugin.OnShiftOpened          = (*MetricsExtension)(nil)
	_ plugin.OnShiftClosed          = (*MetricsExtension)(nil)
	_ plugin.OnSaleRecorded         = (*MetricsExtension)(nil)
	_ plugin.OnLateSale             = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated  = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCanceled = (*MetricsExtension)(nil)
	_ plugin.OnTrialStarted         = (*MetricsExtension)(nil)
	_ plugin.OnPersistenceFailure   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a plugin to track business profile and cash-up activity.
type MetricsExtension struct {
	factory MetricFactory

	// Business profile metrics
	TenantCreated       Counter
	TenantUpdated       Counter
	TenantDeleted       Counter
	TenantLimitExceeded Counter

	// Shift metrics
	ShiftOpened         Counter
	ShiftClosed         Counter
	ShiftsWithShortfall Counter
	CashDiscrepancy     Histogram

	// Sale metrics
	SalesRecorded Counter
	SaleAmount    Histogram
	LateSales     Counter

	// Subscription metrics
	SubscriptionCreated  Counter
	SubscriptionCanceled Counter
	TrialStarted         Counter

	// Error metrics
	StoreErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Business profile metrics
		TenantCreated:       factory.Counter("dreambiz.tenant.created"),
		TenantUpdated:       factory.Counter("dreambiz.tenant.updated"),
		TenantDeleted:       factory.Counter("dreambiz.tenant.deleted"),
		TenantLimitExceeded: factory.Counter("dreambiz.tenant.limit_exceeded"),

		// Shift metrics
		ShiftOpened:         factory.Counter("dreambiz.shift.opened"),
		ShiftClosed:         factory.Counter("dreambiz.shift.closed"),
		ShiftsWithShortfall: factory.Counter("dreambiz.shift.shortfall"),
		CashDiscrepancy:     factory.Histogram("dreambiz.shift.cash_discrepancy"),

		// Sale metrics
		SalesRecorded: factory.Counter("dreambiz.sale.recorded"),
		SaleAmount:    factory.Histogram("dreambiz.sale.amount"),
		LateSales:     factory.Counter("dreambiz.sale.late"),

		// Subscription metrics
		SubscriptionCreated:  factory.Counter("dreambiz.subscription.created"),
		SubscriptionCanceled: factory.Counter("dreambiz.subscription.canceled"),
		TrialStarted:         factory.Counter("dreambiz.trial.started"),

		// Error metrics
		StoreErrors: factory.Counter("dreambiz.store.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Business profile hooks
// ──────────────────────────────────────────────────

// OnTenantCreated implements plugin.OnTenantCreated.
func (m *MetricsExtension) OnTenantCreated(_ context.Context, _ *tenant.Tenant) error {
	m.TenantCreated.Inc()
	return nil
}

// OnTenantUpdated implements plugin.OnTenantUpdated.
func (m *MetricsExtension) OnTenantUpdated(_ context.Context, _ *tenant.Tenant) error {
	m.TenantUpdated.Inc()
	return nil
}

// OnTenantDeleted implements plugin.OnTenantDeleted.
func (m *MetricsExtension) OnTenantDeleted(_ context.Context, _ *tenant.Tenant) error {
	m.TenantDeleted.Inc()
	return nil
}

// OnTenantLimitExceeded implements plugin.OnTenantLimitExceeded.
func (m *MetricsExtension) OnTenantLimitExceeded(_ context.Context, _, _ string, _ int64) error {
	m.TenantLimitExceeded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Shift and sale hooks
// ──────────────────────────────────────────────────

// OnShiftOpened implements plugin.OnShiftOpened.
func (m *MetricsExtension) OnShiftOpened(_ context.Context, _ *shift.Shift) error {
	m.ShiftOpened.Inc()
	return nil
}

// OnShiftClosed implements plugin.OnShiftClosed.
func (m *MetricsExtension) OnShiftClosed(_ context.Context, s *shift.Shift) error {
	m.ShiftClosed.Inc()
	if s.CashDiscrepancy.Valid {
		d := s.CashDiscrepancy.Decimal.InexactFloat64()
		m.CashDiscrepancy.Observe(d)
		if d < 0 {
			m.ShiftsWithShortfall.Inc()
		}
	}
	return nil
}

// OnSaleRecorded implements plugin.OnSaleRecorded.
func (m *MetricsExtension) OnSaleRecorded(_ context.Context, s *sales.Sale) error {
	m.SalesRecorded.Inc()
	m.SaleAmount.Observe(s.Total.InexactFloat64())
	return nil
}

// OnLateSale implements plugin.OnLateSale.
func (m *MetricsExtension) OnLateSale(_ context.Context, _ *sales.Sale, _ *shift.Shift) error {
	m.LateSales.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (m *MetricsExtension) OnSubscriptionCanceled(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCanceled.Inc()
	return nil
}

// OnTrialStarted implements plugin.OnTrialStarted.
func (m *MetricsExtension) OnTrialStarted(_ context.Context, _ *subscription.Trial) error {
	m.TrialStarted.Inc()
	return nil
}

// OnPersistenceFailure implements plugin.OnPersistenceFailure.
func (m *MetricsExtension) OnPersistenceFailure(_ context.Context, _ string, _ error) error {
	m.StoreErrors.Inc()
	return nil
}
