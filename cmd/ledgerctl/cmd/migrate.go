package cmd

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/cashdesk_backoffice/internal/platform/config"
	"github.com/SscSPs/cashdesk_backoffice/pkg/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or revert database migrations",
	Long:      "up applies every pending migration; down reverts the most recent one.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(database.MigrateUp), string(database.MigrateDown)},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		changed, err := database.Migrate(cfg.DatabaseURL, cfg.MigrationsPath, database.MigrationDirection(args[0]), slog.Default())
		if err != nil {
			return err
		}
		if changed {
			fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: applied\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: nothing to do\n", args[0])
		}
		return nil
	},
}
