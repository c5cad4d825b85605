package main

import (
	"context"
	"errors"

	"github.com/go-extras/cobraflags"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

const (
	actualCashFlag = "actual-cash"
	closedByFlag   = "closed-by"
)

func newShiftCloseFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		actualCashFlag: &cobraflags.StringFlag{
			Name:  actualCashFlag,
			Value: "",
			Usage: "Counted cash in the drawer (required)",
		},
		closedByFlag: &cobraflags.StringFlag{
			Name:  closedByFlag,
			Value: "",
			Usage: "Who closed the shift (default: --user)",
		},
	}
}

func newShiftCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Open, inspect and close daily shifts",
	}
	cmd.PersistentFlags().StringVar(&global.shift, "shift", "", "Shift id")

	closeCmd := &cobra.Command{
		Use:   "close",
		Short: "Close a shift with the counted cash",
	}
	flags := newShiftCloseFlags()
	closeCmd.RunE = withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		return shiftCloseCommand(ctx, cmd, a, flags)
	})
	cobraflags.RegisterMap(closeCmd, flags)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "open",
			Short: "Open the shift for --date, or return the existing one",
			RunE:  withApp(shiftOpenCommand),
		},
		closeCmd,
		&cobra.Command{
			Use:   "show",
			Short: "Show a shift; open shifts get freshly computed totals",
			RunE:  withApp(shiftShowCommand),
		},
	)
	return cmd
}

func shiftOpenCommand(ctx context.Context, cmd *cobra.Command, a *app) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	tenantID, err := tenantArg()
	if err != nil {
		return err
	}
	date, err := dateArg()
	if err != nil {
		return err
	}

	s, err := a.engine.EnsureOpenShift(ctx, cliPrincipal(userID), tenantID, date, userID)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), s)
}

func shiftCloseCommand(ctx context.Context, cmd *cobra.Command, a *app, flags map[string]cobraflags.Flag) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	shiftID, err := shiftArg()
	if err != nil {
		return err
	}
	raw := flags[actualCashFlag].GetString()
	if raw == "" {
		return errors.New("--actual-cash is required")
	}
	actual, err := decimal.NewFromString(raw)
	if err != nil {
		return errors.New("--actual-cash must be a number")
	}

	s, err := a.engine.CloseShift(ctx, cliPrincipal(userID), shiftID, flags[closedByFlag].GetString(), actual)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), s)
}

func shiftShowCommand(ctx context.Context, cmd *cobra.Command, a *app) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	shiftID, err := shiftArg()
	if err != nil {
		return err
	}

	p := cliPrincipal(userID)
	s, err := a.engine.GetShift(ctx, p, shiftID)
	if err != nil {
		return err
	}
	if s.IsOpen() {
		totals, err := a.engine.RecomputeTotals(ctx, p, shiftID)
		if err != nil {
			return err
		}
		s.Totals = &totals
	}
	return printJSON(cmd.OutOrStdout(), s)
}

func tenantArg() (id.TenantID, error) {
	if global.tenant == "" {
		return id.Nil, errors.New("--tenant is required")
	}
	tenantID, err := dreambiz.ParseTenantID(global.tenant)
	if err != nil {
		return id.Nil, errors.New("--tenant is not a valid business profile id")
	}
	return tenantID, nil
}

func shiftArg() (id.ShiftID, error) {
	if global.shift == "" {
		return id.Nil, errors.New("--shift is required")
	}
	shiftID, err := dreambiz.ParseShiftID(global.shift)
	if err != nil {
		return id.Nil, errors.New("--shift is not a valid shift id")
	}
	return shiftID, nil
}

func dateArg() (types.Date, error) {
	if global.date == "" {
		return types.Date{}, nil
	}
	return types.ParseDate(global.date)
}
