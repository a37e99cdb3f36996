// Package cli implements the storefront-checkout command line.
package cli

import (
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.configPath)
}

// NewRootCommand returns the command tree: serve, migrate and methods.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "storefront-checkout",
		Short: "Manual payment verification and digital fulfillment service",
		Long: `storefront-checkout verifies manually paid purchases exactly once and
delivers them: entitlement, receipt and a single-use download token.

Configuration is read from --config (YAML) with STOREFRONT_* environment
overrides on top.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to the YAML configuration file")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newMethodsCommand(opts))
	return root
}
