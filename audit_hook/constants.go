package audithook

// Action constants for audit events.
const (
	// Business profile actions
	ActionTenantCreated       = "tenant.created"
	ActionTenantUpdated       = "tenant.updated"
	ActionTenantDeleted       = "tenant.deleted"
	ActionTenantLimitExceeded = "tenant.limit_exceeded"

	// Shift actions
	ActionShiftOpened = "shift.opened"
	ActionShiftClosed = "shift.closed"

	// Sale actions
	ActionSaleRecorded = "sale.recorded"
	ActionSaleLate     = "sale.late"

	// Subscription actions
	ActionSubscriptionCreated  = "subscription.created"
	ActionSubscriptionCanceled = "subscription.canceled"
	ActionTrialStarted         = "trial.started"

	// Store actions
	ActionStoreFailure = "store.failure"
)

// Resource constants for audit events.
const (
	ResourceTenant       = "business_profile"
	ResourceShift        = "shift"
	ResourceSale         = "sale"
	ResourceSubscription = "subscription"
	ResourceTrial        = "trial"
	ResourceStore        = "store"
)

// Category constants for audit events.
const (
	CategoryTenant       = "tenant"
	CategoryCash         = "cash"
	CategorySubscription = "subscription"
	CategoryAccess       = "access"
	CategorySystem       = "system"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
