package plan

import (
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDraft    Status = "draft"
)

// Unlimited is the feature limit meaning "no cap".
const Unlimited int64 = -1

// Feature keys understood by the engine.
const (
	// FeatureBusinessProfiles caps how many business profiles one user may own.
	FeatureBusinessProfiles = "business_profiles"
)

// FreeSlug is the slug of the plan every user falls back to.
const FreeSlug = "free"

// DefaultMaxTenants applies when a plan does not list FeatureBusinessProfiles.
const DefaultMaxTenants int64 = 1

type Plan struct {
	types.Entity
	ID          id.PlanID         `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description"`
	Status      Status            `json:"status"`
	TrialDays   int               `json:"trial_days"`
	Features    []Feature         `json:"features"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Feature struct {
	ID       id.FeatureID      `json:"id"`
	Key      string            `json:"key"`
	Name     string            `json:"name"`
	Type     FeatureType       `json:"type"`
	Limit    int64             `json:"limit"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type FeatureType string

const (
	FeatureBoolean FeatureType = "boolean"
	FeatureSeat    FeatureType = "seat"
)

// Free returns the built-in Free plan used when no plan with FreeSlug has
// been stored.
func Free() *Plan {
	return &Plan{
		Name:   "Free",
		Slug:   FreeSlug,
		Status: StatusActive,
		Features: []Feature{
			{Key: FeatureBusinessProfiles, Name: "Business profiles", Type: FeatureSeat, Limit: DefaultMaxTenants},
		},
	}
}

func (p *Plan) FindFeature(key string) *Feature {
	for i := range p.Features {
		if p.Features[i].Key == key {
			return &p.Features[i]
		}
	}
	return nil
}

// Limit returns the configured limit for a feature and whether the plan
// lists the feature at all.
func (p *Plan) Limit(featureKey string) (int64, bool) {
	f := p.FindFeature(featureKey)
	if f == nil {
		return 0, false
	}
	return f.Limit, true
}

// MaxTenants is the business profile cap, Unlimited for no cap.
func (p *Plan) MaxTenants() int64 {
	if limit, ok := p.Limit(FeatureBusinessProfiles); ok {
		return limit
	}
	return DefaultMaxTenants
}

func (p *Plan) Allows(featureKey string, currentUsage int64) bool {
	f := p.FindFeature(featureKey)
	if f == nil {
		return false
	}
	if f.Type == FeatureBoolean {
		return f.Limit > 0
	}
	if f.Limit == Unlimited {
		return true
	}
	return currentUsage < f.Limit
}
