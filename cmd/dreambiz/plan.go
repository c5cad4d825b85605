package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage subscription plans",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Install the default free, pro and business plans",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			created, err := a.engine.SeedDefaultPlans(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d plan(s) created\n", len(created))
			return printJSON(cmd.OutOrStdout(), created)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plans",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			plans, err := a.engine.ListPlans(ctx, plan.ListOpts{})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plans)
		}),
	})
	return cmd
}

// withApp runs fn with a started app and stops it afterwards.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, cmd, a)
	}
}
