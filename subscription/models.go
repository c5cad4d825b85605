package subscription

import (
	"time"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusExpired  Status = "expired"
)

// Subscription is a paid plan held by a user for a billing window.
type Subscription struct {
	types.Entity
	ID                 id.SubscriptionID `json:"id"`
	UserID             string            `json:"user_id"`
	PlanID             id.PlanID         `json:"plan_id"`
	Status             Status            `json:"status"`
	CurrentPeriodStart time.Time         `json:"current_period_start"`
	CurrentPeriodEnd   time.Time         `json:"current_period_end"`
	CanceledAt         *time.Time        `json:"canceled_at,omitempty"`
	ProviderRef        string            `json:"provider_ref,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// ActiveAt reports whether the subscription grants its plan at t: it must be
// active and t must fall in [CurrentPeriodStart, CurrentPeriodEnd).
func (s *Subscription) ActiveAt(t time.Time) bool {
	return s.Status == StatusActive &&
		!t.Before(s.CurrentPeriodStart) &&
		t.Before(s.CurrentPeriodEnd)
}

type TrialStatus string

const (
	TrialActive    TrialStatus = "active"
	TrialConverted TrialStatus = "converted"
	TrialExpired   TrialStatus = "expired"
)

// Trial grants a plan for a limited time without payment.
type Trial struct {
	types.Entity
	ID       id.TrialID  `json:"id"`
	UserID   string      `json:"user_id"`
	PlanID   id.PlanID   `json:"plan_id"`
	Status   TrialStatus `json:"status"`
	StartsAt time.Time   `json:"starts_at"`
	EndsAt   time.Time   `json:"ends_at"`
}

// ActiveAt reports whether the trial is active, started, and ends after t.
func (tr *Trial) ActiveAt(t time.Time) bool {
	return tr.Status == TrialActive &&
		!t.Before(tr.StartsAt) &&
		tr.EndsAt.After(t)
}
