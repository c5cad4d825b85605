package subscription

import (
	"context"
	"time"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
)

type Store interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)
	ListSubscriptions(ctx context.Context, userID string, opts ListOpts) ([]*Subscription, error)
	UpdateSubscription(ctx context.Context, s *Subscription) error
	CancelSubscription(ctx context.Context, subID id.SubscriptionID, canceledAt time.Time) error

	CreateTrial(ctx context.Context, t *Trial) error
	ListTrials(ctx context.Context, userID string) ([]*Trial, error)
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
