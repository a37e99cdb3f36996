package cli

import (
	"fmt"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gormstore"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and upsert the configured payment methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			_, log, err := bootstrap.NewLogger(cfg)
			if err != nil {
				return err
			}
			db, store, err := bootstrap.OpenStore(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = gormstore.Close(db) }()

			if err := bootstrap.SeedMethods(cmd.Context(), store.Methods(), cfg.PaymentMethods); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s, %d payment methods upserted\n", cfg.Storage.Driver, len(cfg.PaymentMethods))
			return nil
		},
	}
}
