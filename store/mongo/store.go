// Package mongo implements store.Store on the MongoDB Go driver. Business
// profile creation runs in a multi-document transaction, so the server must
// be a replica set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	dbstore "github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// Collection name constants.
const (
	colTenants       = "dreambiz_tenants"
	colOwnerLocks    = "dreambiz_owner_locks"
	colShifts        = "dreambiz_shifts"
	colSales         = "dreambiz_sales"
	colPlans         = "dreambiz_plans"
	colSubscriptions = "dreambiz_subscriptions"
	colTrials        = "dreambiz_trials"
)

// compile-time interface check
var _ dbstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a store on database dbName of an already connected client.
func New(client *mongo.Client, dbName string) *Store {
	return &Store{
		client: client,
		db:     client.Database(dbName),
	}
}

// Open connects to uri and pings the primary.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("dreambiz/mongo: connect: %w", err)
	}
	s := New(client, dbName)
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("dreambiz/mongo: ping: %w", err)
	}
	return s, nil
}

// Database returns the underlying database for direct access.
func (s *Store) Database() *mongo.Database { return s.db }

// Migrate creates indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("dreambiz/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ==================== Tenant Store ====================

// CreateTenant runs the id, name and count checks and the insert in one
// transaction. Every create for an owner also writes the owner's lock
// document, so concurrent creates conflict and the driver retries them.
func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant, maxTenants int64) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: create tenant: %w", err)
	}
	defer sess.EndSession(ctx)

	m := toTenantModel(t)
	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		_, err := s.db.Collection(colOwnerLocks).UpdateOne(ctx,
			bson.M{"_id": t.OwnerID},
			bson.M{"$inc": bson.M{"version": 1}},
			options.UpdateOne().SetUpsert(true))
		if err != nil {
			return nil, err
		}

		tenants := s.db.Collection(colTenants)
		n, err := tenants.CountDocuments(ctx, bson.M{"_id": m.ID})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, dreambiz.ErrTenantExists
		}

		n, err = tenants.CountDocuments(ctx, bson.M{"owner_id": m.OwnerID, "name_key": m.NameKey})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, dreambiz.ErrDuplicateName
		}

		if maxTenants != plan.Unlimited {
			owned, err := tenants.CountDocuments(ctx, bson.M{"owner_id": m.OwnerID})
			if err != nil {
				return nil, err
			}
			if owned >= maxTenants {
				return nil, dreambiz.ErrTenantLimitReached
			}
		}

		if _, err := tenants.InsertOne(ctx, m); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, dreambiz.ErrDuplicateName
			}
			return nil, err
		}
		return nil, nil
	})
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("dreambiz/mongo: create tenant: %w", err)
}

func (s *Store) GetTenant(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	var m tenantModel
	err := s.db.Collection(colTenants).FindOne(ctx, bson.M{"_id": tenantID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dreambiz.ErrTenantNotFound
		}
		return nil, fmt.Errorf("dreambiz/mongo: get tenant: %w", err)
	}
	return fromTenantModel(&m)
}

func (s *Store) ListTenants(ctx context.Context, ownerID string) ([]*tenant.Tenant, error) {
	var models []tenantModel
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if err := findAll(ctx, s.db.Collection(colTenants), bson.M{"owner_id": ownerID}, opts, &models); err != nil {
		return nil, fmt.Errorf("dreambiz/mongo: list tenants: %w", err)
	}

	result := make([]*tenant.Tenant, len(models))
	for i := range models {
		t, err := fromTenantModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

func (s *Store) CountTenants(ctx context.Context, ownerID string) (int64, error) {
	n, err := s.db.Collection(colTenants).CountDocuments(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("dreambiz/mongo: count tenants: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	m := toTenantModel(t)
	res, err := s.db.Collection(colTenants).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dreambiz.ErrDuplicateName
		}
		return fmt.Errorf("dreambiz/mongo: update tenant: %w", err)
	}
	if res.MatchedCount == 0 {
		return dreambiz.ErrTenantNotFound
	}
	return nil
}

func (s *Store) DeleteTenant(ctx context.Context, tenantID id.TenantID) error {
	res, err := s.db.Collection(colTenants).DeleteOne(ctx, bson.M{"_id": tenantID.String()})
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: delete tenant: %w", err)
	}
	if res.DeletedCount == 0 {
		return dreambiz.ErrTenantNotFound
	}

	for _, col := range []string{colSales, colShifts} {
		if _, err := s.db.Collection(col).DeleteMany(ctx, bson.M{"tenant_id": tenantID.String()}); err != nil {
			return fmt.Errorf("dreambiz/mongo: delete tenant %s: %w", col, err)
		}
	}
	return nil
}

// ==================== Shift Store ====================

func (s *Store) InsertShift(ctx context.Context, sh *shift.Shift) error {
	_, err := s.db.Collection(colShifts).InsertOne(ctx, toShiftModel(sh))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dreambiz.ErrShiftExists
		}
		return fmt.Errorf("dreambiz/mongo: insert shift: %w", err)
	}
	return nil
}

func (s *Store) GetShift(ctx context.Context, shiftID id.ShiftID) (*shift.Shift, error) {
	return s.findShift(ctx, "get shift", bson.M{"_id": shiftID.String()})
}

func (s *Store) GetShiftByDate(ctx context.Context, tenantID id.TenantID, date types.Date) (*shift.Shift, error) {
	return s.findShift(ctx, "get shift by date", bson.M{
		"tenant_id":     tenantID.String(),
		"business_date": date.String(),
	})
}

func (s *Store) LatestClosedShift(ctx context.Context, tenantID id.TenantID) (*shift.Shift, error) {
	return s.findShift(ctx, "latest closed shift",
		bson.M{"tenant_id": tenantID.String(), "status": string(shift.StatusClosed)},
		options.FindOne().SetSort(bson.D{{Key: "business_date", Value: -1}, {Key: "closed_at", Value: -1}}))
}

func (s *Store) findShift(ctx context.Context, op string, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (*shift.Shift, error) {
	var m shiftModel
	err := s.db.Collection(colShifts).FindOne(ctx, filter, opts...).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dreambiz.ErrShiftNotFound
		}
		return nil, fmt.Errorf("dreambiz/mongo: %s: %w", op, err)
	}
	return fromShiftModel(&m)
}

func (s *Store) ListShifts(ctx context.Context, tenantID id.TenantID, opts shift.ListOpts) ([]*shift.Shift, error) {
	filter := bson.M{"tenant_id": tenantID.String()}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	dateRange := bson.M{}
	if !opts.From.IsZero() {
		dateRange["$gte"] = opts.From.String()
	}
	if !opts.To.IsZero() {
		dateRange["$lte"] = opts.To.String()
	}
	if len(dateRange) > 0 {
		filter["business_date"] = dateRange
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "business_date", Value: -1}})
	paginate(findOpts, opts.Limit, opts.Offset)

	var models []shiftModel
	if err := findAll(ctx, s.db.Collection(colShifts), filter, findOpts, &models); err != nil {
		return nil, fmt.Errorf("dreambiz/mongo: list shifts: %w", err)
	}

	result := make([]*shift.Shift, len(models))
	for i := range models {
		sh, err := fromShiftModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sh
	}
	return result, nil
}

// CloseShift replaces the document only while it is still open.
func (s *Store) CloseShift(ctx context.Context, sh *shift.Shift) error {
	m := toShiftModel(sh)
	res, err := s.db.Collection(colShifts).ReplaceOne(ctx,
		bson.M{"_id": m.ID, "status": string(shift.StatusOpen)}, m)
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: close shift: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if _, err := s.GetShift(ctx, sh.ID); err != nil {
		return err
	}
	return dreambiz.ErrShiftNotOpen
}

// ==================== Sales Store ====================

func (s *Store) CreateSale(ctx context.Context, sale *sales.Sale) error {
	_, err := s.db.Collection(colSales).InsertOne(ctx, toSaleModel(sale))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dreambiz.ErrSaleExists
		}
		return fmt.Errorf("dreambiz/mongo: create sale: %w", err)
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, saleID id.SaleID) (*sales.Sale, error) {
	var m saleModel
	err := s.db.Collection(colSales).FindOne(ctx, bson.M{"_id": saleID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dreambiz.ErrSaleNotFound
		}
		return nil, fmt.Errorf("dreambiz/mongo: get sale: %w", err)
	}
	return fromSaleModel(&m)
}

func (s *Store) ListSales(ctx context.Context, tenantID id.TenantID, opts sales.ListOpts) ([]*sales.Sale, error) {
	filter := bson.M{"tenant_id": tenantID.String()}
	if !opts.Date.IsZero() {
		filter["business_date"] = opts.Date.String()
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	paginate(findOpts, opts.Limit, opts.Offset)
	return s.listSales(ctx, "list sales", filter, findOpts)
}

func (s *Store) PaidSales(ctx context.Context, tenantID id.TenantID, date types.Date) ([]*sales.Sale, error) {
	filter := bson.M{
		"tenant_id":     tenantID.String(),
		"business_date": date.String(),
		"status":        string(sales.StatusPaid),
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return s.listSales(ctx, "paid sales", filter, findOpts)
}

func (s *Store) listSales(ctx context.Context, op string, filter bson.M, opts *options.FindOptionsBuilder) ([]*sales.Sale, error) {
	var models []saleModel
	if err := findAll(ctx, s.db.Collection(colSales), filter, opts, &models); err != nil {
		return nil, fmt.Errorf("dreambiz/mongo: %s: %w", op, err)
	}
	result := make([]*sales.Sale, len(models))
	for i := range models {
		sale, err := fromSaleModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sale
	}
	return result, nil
}

// ==================== Plan Store ====================

func (s *Store) CreatePlan(ctx context.Context, p *plan.Plan) error {
	_, err := s.db.Collection(colPlans).InsertOne(ctx, toPlanModel(p))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dreambiz.ErrPlanExists
		}
		return fmt.Errorf("dreambiz/mongo: create plan: %w", err)
	}
	return nil
}

func (s *Store) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	return s.findPlan(ctx, "get plan", bson.M{"_id": planID.String()})
}

func (s *Store) GetPlanBySlug(ctx context.Context, slug string) (*plan.Plan, error) {
	return s.findPlan(ctx, "get plan by slug", bson.M{"slug": slug})
}

func (s *Store) findPlan(ctx context.Context, op string, filter bson.M) (*plan.Plan, error) {
	var m planModel
	err := s.db.Collection(colPlans).FindOne(ctx, filter).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dreambiz.ErrPlanNotFound
		}
		return nil, fmt.Errorf("dreambiz/mongo: %s: %w", op, err)
	}
	return fromPlanModel(&m)
}

func (s *Store) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	paginate(findOpts, opts.Limit, opts.Offset)

	var models []planModel
	if err := findAll(ctx, s.db.Collection(colPlans), filter, findOpts, &models); err != nil {
		return nil, fmt.Errorf("dreambiz/mongo: list plans: %w", err)
	}

	result := make([]*plan.Plan, len(models))
	for i := range models {
		p, err := fromPlanModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdatePlan(ctx context.Context, p *plan.Plan) error {
	m := toPlanModel(p)
	res, err := s.db.Collection(colPlans).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dreambiz.ErrPlanExists
		}
		return fmt.Errorf("dreambiz/mongo: update plan: %w", err)
	}
	if res.MatchedCount == 0 {
		return dreambiz.ErrPlanNotFound
	}
	return nil
}

func (s *Store) ArchivePlan(ctx context.Context, planID id.PlanID) error {
	res, err := s.db.Collection(colPlans).UpdateOne(ctx,
		bson.M{"_id": planID.String()},
		bson.M{"$set": bson.M{"status": string(plan.StatusArchived), "updated_at": now()}})
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: archive plan: %w", err)
	}
	if res.MatchedCount == 0 {
		return dreambiz.ErrPlanNotFound
	}
	return nil
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.db.Collection(colSubscriptions).InsertOne(ctx, toSubscriptionModel(sub))
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.db.Collection(colSubscriptions).FindOne(ctx, bson.M{"_id": subID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, dreambiz.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("dreambiz/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) ListSubscriptions(ctx context.Context, userID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	filter := bson.M{"user_id": userID}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "current_period_start", Value: -1}, {Key: "_id", Value: -1}})
	paginate(findOpts, opts.Limit, opts.Offset)

	var models []subscriptionModel
	if err := findAll(ctx, s.db.Collection(colSubscriptions), filter, findOpts, &models); err != nil {
		return nil, fmt.Errorf("dreambiz/mongo: list subscriptions: %w", err)
	}

	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	res, err := s.db.Collection(colSubscriptions).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: update subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return dreambiz.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) CancelSubscription(ctx context.Context, subID id.SubscriptionID, canceledAt time.Time) error {
	at := canceledAt.UTC()
	res, err := s.db.Collection(colSubscriptions).UpdateOne(ctx,
		bson.M{"_id": subID.String()},
		bson.M{"$set": bson.M{
			"status":      string(subscription.StatusCanceled),
			"canceled_at": at,
			"updated_at":  at,
		}})
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: cancel subscription: %w", err)
	}
	if res.MatchedCount == 0 {
		return dreambiz.ErrSubscriptionNotFound
	}
	return nil
}

func (s *Store) CreateTrial(ctx context.Context, t *subscription.Trial) error {
	_, err := s.db.Collection(colTrials).InsertOne(ctx, toTrialModel(t))
	if err != nil {
		return fmt.Errorf("dreambiz/mongo: create trial: %w", err)
	}
	return nil
}

func (s *Store) ListTrials(ctx context.Context, userID string) ([]*subscription.Trial, error) {
	var models []trialModel
	opts := options.Find().SetSort(bson.D{{Key: "starts_at", Value: -1}, {Key: "_id", Value: -1}})
	if err := findAll(ctx, s.db.Collection(colTrials), bson.M{"user_id": userID}, opts, &models); err != nil {
		return nil, fmt.Errorf("dreambiz/mongo: list trials: %w", err)
	}

	result := make([]*subscription.Trial, len(models))
	for i := range models {
		t, err := fromTrialModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func isDomainError(err error) bool {
	return errors.Is(err, dreambiz.ErrTenantExists) ||
		errors.Is(err, dreambiz.ErrDuplicateName) ||
		errors.Is(err, dreambiz.ErrTenantLimitReached)
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts *options.FindOptionsBuilder, out *[]T) error {
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	*out = make([]T, 0)
	return cur.All(ctx, out)
}

func paginate(opts *options.FindOptionsBuilder, limit, offset int) {
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
}

// migrationIndexes returns the index definitions for all collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTenants: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "name_key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colShifts: {
			{
				Keys:    bson.D{{Key: "tenant_id", Value: 1}, {Key: "business_date", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "business_date", Value: -1}}},
		},
		colSales: {
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "business_date", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "tenant_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colPlans: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "current_period_start", Value: -1}}},
		},
		colTrials: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "starts_at", Value: -1}}},
		},
	}
}
