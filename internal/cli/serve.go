package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the audit worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close(cmd.Context()) }()
			return app.Serve(ctx)
		},
	}
}
