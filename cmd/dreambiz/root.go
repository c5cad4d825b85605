package main

import (
	"github.com/spf13/cobra"
)

// globalOptions holds the flags every command shares. Command-specific
// flags are registered through cobraflags on the leaf commands.
type globalOptions struct {
	configFile string
	envFile    string
	user       string
	tenant     string
	shift      string
	date       string
	currency   string
}

var global globalOptions

func newRootCommand() *cobra.Command {
	global = globalOptions{}

	root := &cobra.Command{
		Use:   "dreambiz",
		Short: "Business profiles, daily shifts and cash reconciliation",
		Long: `dreambiz manages business profiles under subscription plan limits and keeps
one shift per business day with an end-of-day cash reconciliation.

Settings come from dreambiz.yaml, a .env file and DREAMBIZ_* environment
variables. For example DREAMBIZ_DATABASE_DRIVER=postgres and
DREAMBIZ_DATABASE_DSN=postgres://... select the Postgres store.

Examples:
  dreambiz serve                                  # Run the HTTP API
  dreambiz migrate                                # Create or upgrade the schema
  dreambiz plan seed                              # Install the free, pro and business plans
  dreambiz tenant create --user u1 --name "Kiosk" --currency USD --owner "Tariro"
  dreambiz sale record --user u1 --tenant biz_... --total 12.50 --method cash
  dreambiz shift close --user u1 --shift shift_... --actual-cash 140`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&global.configFile, "config", "", "Path to a YAML config file (default: ./dreambiz.yaml when present)")
	pf.StringVar(&global.envFile, "env-file", "", "Path to a .env file loaded before the environment is read")
	pf.StringVar(&global.user, "user", "", "Acting user id")
	pf.StringVar(&global.tenant, "tenant", "", "Business profile id")
	pf.StringVar(&global.date, "date", "", "Business day as YYYY-MM-DD (default: today)")
	pf.StringVar(&global.currency, "currency", "", "ISO 4217 currency code")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newPlanCommand())
	root.AddCommand(newTenantCommand())
	root.AddCommand(newShiftCommand())
	root.AddCommand(newSaleCommand())
	root.AddCommand(newTokenCommand())
	return root
}
