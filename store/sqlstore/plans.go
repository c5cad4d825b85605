package sqlstore

import (
	"context"
	"time"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
)

const planColumns = `id, name, slug, description, status, trial_days, features, metadata,
    created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (*plan.Plan, error) {
	p := new(plan.Plan)
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Status, &p.TrialDays,
		jsonCol{&p.Features}, jsonCol{&p.Metadata},
		timeCol{&p.CreatedAt}, timeCol{&p.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func planDocs(p *plan.Plan) (features, metadata any, err error) {
	fs := p.Features
	if fs == nil {
		fs = []plan.Feature{}
	}
	if features, err = jsonArg(fs); err != nil {
		return nil, nil, err
	}
	md := p.Metadata
	if md == nil {
		md = map[string]string{}
	}
	if metadata, err = jsonArg(md); err != nil {
		return nil, nil, err
	}
	return features, metadata, nil
}

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	features, metadata, err := planDocs(p)
	if err != nil {
		return s.wrap("create plan", err)
	}
	_, err = s.exec(ctx, s.db, `INSERT INTO `+tablePlans+` (`+planColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description, p.Status, p.TrialDays, features, metadata,
		s.dialect.Time(p.CreatedAt), s.dialect.Time(p.UpdatedAt))
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return dreambiz.ErrPlanExists
		}
		return s.wrap("create plan", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	p, err := scanPlan(s.queryRow(ctx, s.db,
		`SELECT `+planColumns+` FROM `+tablePlans+` WHERE id = ?`, planID))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrPlanNotFound
		}
		return nil, s.wrap("get plan", err)
	}
	return p, nil
}

func (s *Store) GetPlanBySlug(ctx context.Context, slug string) (*plan.Plan, error) {
	p, err := scanPlan(s.queryRow(ctx, s.db,
		`SELECT `+planColumns+` FROM `+tablePlans+` WHERE slug = ?`, slug))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrPlanNotFound
		}
		return nil, s.wrap("get plan by slug", err)
	}
	return p, nil
}

func (s *Store) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM ` + tablePlans
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY created_at ASC, id ASC` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.wrap("list plans", err)
	}
	defer rows.Close()

	result := make([]*plan.Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, s.wrap("list plans", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list plans", err)
	}
	return result, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p *plan.Plan) error {
	features, metadata, err := planDocs(p)
	if err != nil {
		return s.wrap("update plan", err)
	}
	res, err := s.exec(ctx, s.db, `UPDATE `+tablePlans+` SET
    name = ?, slug = ?, description = ?, status = ?, trial_days = ?, features = ?, metadata = ?,
    updated_at = ?
WHERE id = ?`,
		p.Name, p.Slug, p.Description, p.Status, p.TrialDays, features, metadata,
		s.dialect.Time(p.UpdatedAt), p.ID)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return dreambiz.ErrPlanExists
		}
		return s.wrap("update plan", err)
	}
	return s.requireRow(ctx, res, tablePlans, p.ID, dreambiz.ErrPlanNotFound, "update plan")
}

func (s *Store) ArchivePlan(ctx context.Context, planID id.PlanID) error {
	res, err := s.exec(ctx, s.db,
		`UPDATE `+tablePlans+` SET status = ?, updated_at = ? WHERE id = ?`,
		plan.StatusArchived, s.dialect.Time(time.Now()), planID)
	if err != nil {
		return s.wrap("archive plan", err)
	}
	return s.requireRow(ctx, res, tablePlans, planID, dreambiz.ErrPlanNotFound, "archive plan")
}
