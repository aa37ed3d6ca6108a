package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mahmoodhamdi/hookgate/extension"
	"github.com/mahmoodhamdi/hookgate/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the webhook event table and its indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGate(cmd.Context(), true, func(cfg *config.Config, _ *extension.Extension) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s store migrated\n", cfg.Store.Driver)
				return nil
			})
		},
	}

	return cmd
}
