// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/SscSPs/cashdesk_backoffice/internal/adapters/database/pgsql"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/SscSPs/cashdesk_backoffice/internal/platform/config"
	"github.com/SscSPs/cashdesk_backoffice/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var (
	actorID string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operations tool for the cash desk back office",
	Long: `ledgerctl runs maintenance tasks against the back-office database.

Example:
  ledgerctl migrate up
  ledgerctl reconcile pool transfer_commission_pool
  ledgerctl reconcile till EUR
  ledgerctl staff add exec-1 --name "A. Ndiaye" --role executor --agency HQ`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
	},
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", "ledgerctl", "user id recorded on every change")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(staffCmd)
}

// operator is the identity used for service calls. The CLI runs with database access,
// so it acts as an administrator.
func operator() domain.Actor {
	return domain.Actor{UserID: actorID, Role: domain.RoleAdmin, Agency: "HQ"}
}

// openRepositories loads the configuration and connects to the database.
func openRepositories(ctx context.Context) (*config.Config, *pgxpool.Pool, *pgsql.Repositories, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, true)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, pool, pgsql.NewRepositories(pool), nil
}
