package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/bootstrap"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/gormstore"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/spf13/cobra"
)

// withRegistry opens the store for a single admin command.
func withRegistry(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, admin payment.MethodAdmin) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	db, store, err := bootstrap.OpenStore(cfg, observability.NopLogger())
	if err != nil {
		return err
	}
	defer func() { _ = gormstore.Close(db) }()
	return fn(cmd.Context(), store.Methods())
}

func newMethodsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "Administer the payment method registry",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every payment method, enabled or not",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRegistry(cmd, opts, func(ctx context.Context, admin payment.MethodAdmin) error {
					methods, err := admin.List(ctx)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tKIND\tENABLED\tRECIPIENT\tACCOUNT")
					for _, m := range methods {
						fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", m.ID, m.Kind, m.Enabled, m.RecipientName, m.RecipientAccount)
					}
					return w.Flush()
				})
			},
		},
		newToggleCommand(opts, "enable", true),
		newToggleCommand(opts, "disable", false),
		newSetRecipientCommand(opts),
	)
	return cmd
}

func newToggleCommand(opts *rootOptions, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <method-id>",
		Short: fmt.Sprintf("%s a payment method for new sessions", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, opts, func(ctx context.Context, admin payment.MethodAdmin) error {
				if err := admin.SetEnabled(ctx, args[0], enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: enabled=%t\n", args[0], enabled)
				return nil
			})
		},
	}
}

func newSetRecipientCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-recipient <method-id> <name> <account>",
		Short: "Change where buyers are told to send money",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd, opts, func(ctx context.Context, admin payment.MethodAdmin) error {
				if err := admin.SetRecipient(ctx, args[0], args[1], args[2]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: recipient %s / %s\n", args[0], args[1], args[2])
				return nil
			})
		},
	}
}
