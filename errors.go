package dreambiz

import (
	"context"
	"errors"
	"fmt"
)

// Kind sentinels. Every error returned by an Engine operation matches
// exactly one of them with errors.Is.
var (
	ErrUnauthenticated = errors.New("dreambiz: unauthenticated")
	ErrForbidden       = errors.New("dreambiz: forbidden")
	ErrLimitExceeded   = errors.New("dreambiz: plan limit exceeded")
	ErrDuplicateName   = errors.New("dreambiz: duplicate name")
	ErrNotFound        = errors.New("dreambiz: not found")
	ErrInvalidState    = errors.New("dreambiz: invalid state")
	ErrInvalidInput    = errors.New("dreambiz: invalid input")
	ErrPersistence     = errors.New("dreambiz: persistence failure")
)

// Store-level sentinels. Stores return these; the engine translates them
// into a kind.
var (
	// Tenant errors
	ErrTenantNotFound     = errors.New("dreambiz: business profile not found")
	ErrTenantExists       = errors.New("dreambiz: business profile id already exists")
	ErrTenantLimitReached = errors.New("dreambiz: business profile limit reached")

	// Shift errors
	ErrShiftNotFound = errors.New("dreambiz: shift not found")
	ErrShiftExists   = errors.New("dreambiz: shift already exists for this day")
	ErrShiftNotOpen  = errors.New("dreambiz: shift is not open")

	// Sale errors
	ErrSaleNotFound = errors.New("dreambiz: sale not found")
	ErrSaleExists   = errors.New("dreambiz: sale already exists")

	// Plan and subscription errors
	ErrPlanNotFound         = errors.New("dreambiz: plan not found")
	ErrPlanExists           = errors.New("dreambiz: plan already exists")
	ErrSubscriptionNotFound = errors.New("dreambiz: subscription not found")

	// Store errors
	ErrStoreClosed = errors.New("dreambiz: store is closed")
	ErrTransient   = errors.New("dreambiz: transient store failure")
)

// Kind classifies an Engine error.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindLimitExceeded   Kind = "limit_exceeded"
	KindDuplicateName   Kind = "duplicate_name"
	KindNotFound        Kind = "not_found"
	KindInvalidState    Kind = "invalid_state"
	KindInvalidInput    Kind = "invalid_input"
	KindPersistence     Kind = "persistence"
)

var kindSentinels = map[Kind]error{
	KindUnauthenticated: ErrUnauthenticated,
	KindForbidden:       ErrForbidden,
	KindLimitExceeded:   ErrLimitExceeded,
	KindDuplicateName:   ErrDuplicateName,
	KindNotFound:        ErrNotFound,
	KindInvalidState:    ErrInvalidState,
	KindInvalidInput:    ErrInvalidInput,
	KindPersistence:     ErrPersistence,
}

// Error is the typed failure every Engine operation returns.
// Message is safe to show to an end user; Err keeps the cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("dreambiz: %s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("dreambiz: %s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinel, so errors.Is(err, ErrNotFound) works on
// any not-found Error regardless of its cause.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// LimitError reports a create that would exceed the plan's profile cap.
type LimitError struct {
	PlanName string
	Limit    int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("dreambiz: plan %q allows at most %d business profile(s)", e.PlanName, e.Limit)
}

func (e *LimitError) Is(target error) bool { return target == ErrLimitExceeded }

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("dreambiz: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

// KindOf returns the kind of err. Errors the engine did not classify are
// reported as KindPersistence.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	switch {
	case IsNotFound(err):
		return KindNotFound
	case errors.Is(err, ErrTenantLimitReached):
		return KindLimitExceeded
	case errors.Is(err, ErrShiftNotOpen):
		return KindInvalidState
	}
	return KindPersistence
}

// LimitOf extracts the plan limit details from a LimitExceeded error.
func LimitOf(err error) (*LimitError, bool) {
	var le *LimitError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTenantNotFound) ||
		errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound)
}

// IsConflict returns true for store uniqueness errors.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrTenantExists) ||
		errors.Is(err, ErrShiftExists) ||
		errors.Is(err, ErrSaleExists) ||
		errors.Is(err, ErrPlanExists)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried. Domain outcomes (not found, conflicts, limits, state) are
// never retried; a canceled caller context is never retried either.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrStoreClosed) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindPersistence
	}
	if IsNotFound(err) || IsConflict(err) ||
		errors.Is(err, ErrTenantLimitReached) ||
		errors.Is(err, ErrShiftNotOpen) ||
		errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrUnauthenticated) {
		return false
	}
	return true
}

// UserMessage maps an error to text suitable for an end user. Raw driver
// errors never leak through.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if le, ok := LimitOf(err); ok {
		return fmt.Sprintf("Your %s plan allows %d business profile(s). Upgrade to add more.", le.PlanName, le.Limit)
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" && e.Kind != KindPersistence {
		return e.Message
	}
	switch KindOf(err) {
	case KindUnauthenticated:
		return "Your session has expired. Please sign in again."
	case KindForbidden:
		return "You do not have access to this business."
	case KindDuplicateName:
		return "A business with this name already exists."
	case KindNotFound:
		return "The requested record was not found."
	case KindInvalidState:
		return "This action is not allowed in the record's current state."
	case KindInvalidInput:
		return "Some of the details are invalid."
	default:
		return "We could not save your changes. Please try again."
	}
}
