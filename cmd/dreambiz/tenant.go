package main

import (
	"context"
	"errors"

	"github.com/go-extras/cobraflags"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

const (
	nameFlag     = "name"
	typeFlag     = "type"
	ownerFlag    = "owner"
	stageFlag    = "stage"
	locationFlag = "location"
	capitalFlag  = "capital"
)

func newTenantCreateFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Value: "",
			Usage: "Business name (required)",
		},
		typeFlag: &cobraflags.StringFlag{
			Name:  typeFlag,
			Value: "retail",
			Usage: "Business type",
		},
		ownerFlag: &cobraflags.StringFlag{
			Name:  ownerFlag,
			Value: "",
			Usage: "Owner display name (required)",
		},
		stageFlag: &cobraflags.StringFlag{
			Name:  stageFlag,
			Value: "",
			Usage: "Business stage (idea, startup, growth, established)",
		},
		locationFlag: &cobraflags.StringFlag{
			Name:  locationFlag,
			Value: "",
			Usage: "City or area",
		},
		capitalFlag: &cobraflags.StringFlag{
			Name:  capitalFlag,
			Value: "0",
			Usage: "Starting capital",
		},
	}
}

func newTenantCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage business profiles",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a business profile within the owner's plan limit",
	}
	flags := newTenantCreateFlags()
	create.RunE = withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		return tenantCreateCommand(ctx, cmd, a, flags)
	})
	cobraflags.RegisterMap(create, flags)

	list := &cobra.Command{
		Use:   "list",
		Short: "List the owner's business profiles",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
			userID, err := requireUser()
			if err != nil {
				return err
			}
			list, err := a.engine.ListTenants(ctx, cliPrincipal(userID), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		}),
	}

	cmd.AddCommand(create, list)
	return cmd
}

func tenantCreateCommand(ctx context.Context, cmd *cobra.Command, a *app, flags map[string]cobraflags.Flag) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}
	capital, err := decimal.NewFromString(flags[capitalFlag].GetString())
	if err != nil {
		return errors.New("--capital must be a number")
	}
	currency := global.currency
	if currency == "" {
		currency = "USD"
	}

	in := tenant.Input{
		Name:         flags[nameFlag].GetString(),
		BusinessType: flags[typeFlag].GetString(),
		Stage:        flags[stageFlag].GetString(),
		Location:     flags[locationFlag].GetString(),
		Capital:      capital,
		Currency:     currency,
		OwnerName:    flags[ownerFlag].GetString(),
	}
	t, err := a.engine.CreateTenant(ctx, cliPrincipal(userID), userID, in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), t)
}
