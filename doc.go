// Package dreambiz is the point-of-sale shift and ledger reconciliation core
// of a small-business management app, together with the business profile
// registry that decides how many profiles a user may own.
//
// DreamBiz is a library. Import it into a service or CLI and hand it a store:
//
//	import (
//	    dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
//	    "github.com/blyssafrica-alt/dreambiz-sub006/store/postgres"
//	)
//
//	st, err := postgres.Open(ctx, dsn, sqlstore.PoolOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng := dreambiz.New(st, dreambiz.WithLogger(logger))
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Business profiles
//
// Every operation takes the caller's identity.Principal explicitly. Creating
// a profile resolves the owner's plan (active subscription, then active
// trial, then the free plan) and inserts the profile only if the owner is
// still under the plan's business_profiles limit:
//
//	biz, err := eng.CreateTenant(ctx, principal, principal.UserID, tenant.Input{
//	    Name:         "Mama's Kitchen",
//	    BusinessType: "restaurant",
//	    Currency:     "USD",
//	    OwnerName:    "Rudo",
//	})
//	if errors.Is(err, dreambiz.ErrLimitExceeded) {
//	    fmt.Println(dreambiz.UserMessage(err))
//	}
//
// The count and the insert happen atomically in the store, so concurrent
// creates never exceed the limit, and a retried create never produces a
// second profile.
//
// # Shifts
//
// A shift is one business day of one profile. It is created open by
// EnsureOpenShift (or by the day's first paid sale through RecordSale) with
// the float carried over from the previous closed shift, and is closed once
// by CloseShift, which freezes its totals:
//
//	s, _ := eng.EnsureOpenShift(ctx, principal, biz.ID, dreambiz.Date{}, "")
//	closed, _ := eng.CloseShift(ctx, principal, s.ID, "", decimal.RequireFromString("340"))
//	fmt.Println(closed.CashDiscrepancy.Decimal) // actual minus expected cash
//
// Totals are computed by the reconcile package from paid sale records, with
// exact decimal arithmetic.
//
// # Errors
//
// Every failure is an *Error whose Kind matches one of ErrUnauthenticated,
// ErrForbidden, ErrLimitExceeded, ErrDuplicateName, ErrNotFound,
// ErrInvalidState, ErrInvalidInput or ErrPersistence with errors.Is.
// UserMessage turns any of them into text for end users.
package dreambiz
