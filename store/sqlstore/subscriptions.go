package sqlstore

import (
	"context"
	"time"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
)

const subscriptionColumns = `id, user_id, plan_id, status, current_period_start, current_period_end,
    canceled_at, provider_ref, metadata, created_at, updated_at`

const trialColumns = `id, user_id, plan_id, status, starts_at, ends_at, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*subscription.Subscription, error) {
	sub := new(subscription.Subscription)
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status,
		timeCol{&sub.CurrentPeriodStart}, timeCol{&sub.CurrentPeriodEnd},
		nullTimeCol{&sub.CanceledAt}, &sub.ProviderRef, jsonCol{&sub.Metadata},
		timeCol{&sub.CreatedAt}, timeCol{&sub.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func scanTrial(row interface{ Scan(...any) error }) (*subscription.Trial, error) {
	tr := new(subscription.Trial)
	err := row.Scan(
		&tr.ID, &tr.UserID, &tr.PlanID, &tr.Status,
		timeCol{&tr.StartsAt}, timeCol{&tr.EndsAt},
		timeCol{&tr.CreatedAt}, timeCol{&tr.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func metadataArg(md map[string]string) (any, error) {
	if md == nil {
		md = map[string]string{}
	}
	return jsonArg(md)
}

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	metadata, err := metadataArg(sub.Metadata)
	if err != nil {
		return s.wrap("create subscription", err)
	}
	_, err = s.exec(ctx, s.db, `INSERT INTO `+tableSubscriptions+` (`+subscriptionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.PlanID, sub.Status,
		s.dialect.Time(sub.CurrentPeriodStart), s.dialect.Time(sub.CurrentPeriodEnd),
		s.nullTimeArg(sub.CanceledAt), sub.ProviderRef, metadata,
		s.dialect.Time(sub.CreatedAt), s.dialect.Time(sub.UpdatedAt))
	return s.wrap("create subscription", err)
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	sub, err := scanSubscription(s.queryRow(ctx, s.db,
		`SELECT `+subscriptionColumns+` FROM `+tableSubscriptions+` WHERE id = ?`, subID))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrSubscriptionNotFound
		}
		return nil, s.wrap("get subscription", err)
	}
	return sub, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, userID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM ` + tableSubscriptions + ` WHERE user_id = ?`
	args := []any{userID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY current_period_start DESC, id DESC` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.wrap("list subscriptions", err)
	}
	defer rows.Close()

	result := make([]*subscription.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, s.wrap("list subscriptions", err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list subscriptions", err)
	}
	return result, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	metadata, err := metadataArg(sub.Metadata)
	if err != nil {
		return s.wrap("update subscription", err)
	}
	res, err := s.exec(ctx, s.db, `UPDATE `+tableSubscriptions+` SET
    plan_id = ?, status = ?, current_period_start = ?, current_period_end = ?, canceled_at = ?,
    provider_ref = ?, metadata = ?, updated_at = ?
WHERE id = ?`,
		sub.PlanID, sub.Status, s.dialect.Time(sub.CurrentPeriodStart), s.dialect.Time(sub.CurrentPeriodEnd),
		s.nullTimeArg(sub.CanceledAt), sub.ProviderRef, metadata, s.dialect.Time(sub.UpdatedAt),
		sub.ID)
	if err != nil {
		return s.wrap("update subscription", err)
	}
	return s.requireRow(ctx, res, tableSubscriptions, sub.ID, dreambiz.ErrSubscriptionNotFound, "update subscription")
}

func (s *Store) CancelSubscription(ctx context.Context, subID id.SubscriptionID, canceledAt time.Time) error {
	res, err := s.exec(ctx, s.db, `UPDATE `+tableSubscriptions+`
SET status = ?, canceled_at = ?, updated_at = ? WHERE id = ?`,
		subscription.StatusCanceled, s.dialect.Time(canceledAt), s.dialect.Time(canceledAt), subID)
	if err != nil {
		return s.wrap("cancel subscription", err)
	}
	return s.requireRow(ctx, res, tableSubscriptions, subID, dreambiz.ErrSubscriptionNotFound, "cancel subscription")
}

func (s *Store) CreateTrial(ctx context.Context, tr *subscription.Trial) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO `+tableTrials+` (`+trialColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.UserID, tr.PlanID, tr.Status,
		s.dialect.Time(tr.StartsAt), s.dialect.Time(tr.EndsAt),
		s.dialect.Time(tr.CreatedAt), s.dialect.Time(tr.UpdatedAt))
	return s.wrap("create trial", err)
}

func (s *Store) ListTrials(ctx context.Context, userID string) ([]*subscription.Trial, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+trialColumns+` FROM `+tableTrials+` WHERE user_id = ? ORDER BY starts_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, s.wrap("list trials", err)
	}
	defer rows.Close()

	result := make([]*subscription.Trial, 0)
	for rows.Next() {
		tr, err := scanTrial(rows)
		if err != nil {
			return nil, s.wrap("list trials", err)
		}
		result = append(result, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list trials", err)
	}
	return result, nil
}
