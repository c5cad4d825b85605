// Package audithook bridges DreamBiz lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blyssafrica-alt/dreambiz-sub006/plugin"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnTenantCreated        = (*Extension)(nil)
	_ plugin.OnTenantUpdated        = (*Extension)(nil)
	_ plugin.OnTenantDeleted        = (*Extension)(nil)
	_ plugin.OnTenantLimitExceeded  = (*Extension)(nil)
	_ plugin.OnShiftOpened          = (*Extension)(nil)
	_ plugin.OnShiftClosed          = (*Extension)(nil)
	_ plugin.OnSaleRecorded         = (*Extension)(nil)
	_ plugin.OnLateSale             = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated  = (*Extension)(nil)
	_ plugin.OnSubscriptionCanceled = (*Extension)(nil)
	_ plugin.OnTrialStarted         = (*Extension)(nil)
	_ plugin.OnPersistenceFailure   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry in the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges DreamBiz lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Business profile hooks
// ──────────────────────────────────────────────────

// OnTenantCreated implements plugin.OnTenantCreated.
func (e *Extension) OnTenantCreated(ctx context.Context, t *tenant.Tenant) error {
	return e.record(ctx, ActionTenantCreated, SeverityInfo, OutcomeSuccess,
		ResourceTenant, t.ID.String(), CategoryTenant, nil,
		"owner_id", t.OwnerID,
		"name", t.Name,
	)
}

// OnTenantUpdated implements plugin.OnTenantUpdated.
func (e *Extension) OnTenantUpdated(ctx context.Context, t *tenant.Tenant) error {
	return e.record(ctx, ActionTenantUpdated, SeverityInfo, OutcomeSuccess,
		ResourceTenant, t.ID.String(), CategoryTenant, nil,
		"owner_id", t.OwnerID,
	)
}

// OnTenantDeleted implements plugin.OnTenantDeleted.
func (e *Extension) OnTenantDeleted(ctx context.Context, t *tenant.Tenant) error {
	return e.record(ctx, ActionTenantDeleted, SeverityWarning, OutcomeSuccess,
		ResourceTenant, t.ID.String(), CategoryTenant, nil,
		"owner_id", t.OwnerID,
		"name", t.Name,
	)
}

// OnTenantLimitExceeded implements plugin.OnTenantLimitExceeded.
func (e *Extension) OnTenantLimitExceeded(ctx context.Context, userID, planName string, limit int64) error {
	return e.record(ctx, ActionTenantLimitExceeded, SeverityWarning, OutcomeFailure,
		ResourceTenant, "", CategoryAccess, nil,
		"user_id", userID,
		"plan", planName,
		"limit", limit,
	)
}

// ──────────────────────────────────────────────────
// Shift and sale hooks
// ──────────────────────────────────────────────────

// OnShiftOpened implements plugin.OnShiftOpened.
func (e *Extension) OnShiftOpened(ctx context.Context, s *shift.Shift) error {
	return e.record(ctx, ActionShiftOpened, SeverityInfo, OutcomeSuccess,
		ResourceShift, s.ID.String(), CategoryCash, nil,
		"tenant_id", s.TenantID.String(),
		"date", s.Date.String(),
		"opening_cash", s.OpeningCash.String(),
	)
}

// OnShiftClosed implements plugin.OnShiftClosed. A non-zero discrepancy is
// recorded as a warning.
func (e *Extension) OnShiftClosed(ctx context.Context, s *shift.Shift) error {
	severity := SeverityInfo
	discrepancy := "0"
	if s.CashDiscrepancy.Valid {
		discrepancy = s.CashDiscrepancy.Decimal.String()
		if !s.CashDiscrepancy.Decimal.IsZero() {
			severity = SeverityWarning
		}
	}

	kv := []any{
		"tenant_id", s.TenantID.String(),
		"date", s.Date.String(),
		"closed_by", s.ClosedBy,
		"cash_discrepancy", discrepancy,
	}
	if s.Totals != nil {
		kv = append(kv, "expected_cash", s.Totals.ExpectedCash.String())
	}
	return e.record(ctx, ActionShiftClosed, severity, OutcomeSuccess,
		ResourceShift, s.ID.String(), CategoryCash, nil, kv...)
}

// OnSaleRecorded implements plugin.OnSaleRecorded.
func (e *Extension) OnSaleRecorded(ctx context.Context, s *sales.Sale) error {
	return e.record(ctx, ActionSaleRecorded, SeverityInfo, OutcomeSuccess,
		ResourceSale, s.ID.String(), CategoryCash, nil,
		"tenant_id", s.TenantID.String(),
		"kind", string(s.Kind),
		"method", string(s.Method),
		"total", s.Total.String(),
		"amount", s.Amount().String(),
	)
}

// OnLateSale implements plugin.OnLateSale.
func (e *Extension) OnLateSale(ctx context.Context, s *sales.Sale, closed *shift.Shift) error {
	return e.record(ctx, ActionSaleLate, SeverityWarning, OutcomeSuccess,
		ResourceSale, s.ID.String(), CategoryCash, nil,
		"tenant_id", s.TenantID.String(),
		"shift_id", closed.ID.String(),
		"date", closed.Date.String(),
		"total", s.Total.String(),
		"amount", s.Amount().String(),
	)
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"user_id", sub.UserID,
		"plan_id", sub.PlanID.String(),
	)
}

// OnSubscriptionCanceled implements plugin.OnSubscriptionCanceled.
func (e *Extension) OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCanceled, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, nil,
		"user_id", sub.UserID,
	)
}

// OnTrialStarted implements plugin.OnTrialStarted.
func (e *Extension) OnTrialStarted(ctx context.Context, tr *subscription.Trial) error {
	return e.record(ctx, ActionTrialStarted, SeverityInfo, OutcomeSuccess,
		ResourceTrial, tr.ID.String(), CategorySubscription, nil,
		"user_id", tr.UserID,
		"plan_id", tr.PlanID.String(),
		"ends_at", tr.EndsAt,
	)
}

// OnPersistenceFailure implements plugin.OnPersistenceFailure.
func (e *Extension) OnPersistenceFailure(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionStoreFailure, SeverityError, OutcomeFailure,
		ResourceStore, "", CategorySystem, err,
		"op", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
