package cmd

import (
	"fmt"
	"strings"

	"github.com/SscSPs/cashdesk_backoffice/internal/adapters/settings"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/services"
	"github.com/SscSPs/cashdesk_backoffice/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute cached balances from their logs",
}

var reconcilePoolCmd = &cobra.Command{
	Use:   "pool <kind>",
	Short: "Reconcile a commission or surplus pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reconcileAccount(cmd, domain.AccountKind(args[0]), true)
	},
}

var reconcileAccountCmd = &cobra.Command{
	Use:   "account <kind>",
	Short: "Reconcile any ledger account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reconcileAccount(cmd, domain.AccountKind(args[0]), false)
	},
}

var reconcileAllFlag bool

var reconcileTillCmd = &cobra.Command{
	Use:   "till [currency]",
	Short: "Reconcile an exchange till, or every till with --all",
	Args: func(cmd *cobra.Command, args []string) error {
		if reconcileAllFlag {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, pool, repos, err := openRepositories(ctx)
		if err != nil {
			return err
		}
		defer database.ClosePgxPool(pool)

		ledger := services.NewLedgerService(repos.Accounts, repos.TxManager)
		exchange := services.NewExchangeService(repos.Exchange, repos.TxManager, ledger, settings.NewFileProvider(cfg.SettingsFile, cfg.LocalCurrency))

		currencies := []string{strings.ToUpper(strings.Join(args, ""))}
		if reconcileAllFlag {
			tills, err := repos.Exchange.ListTills(ctx)
			if err != nil {
				return err
			}
			currencies = currencies[:0]
			for _, till := range tills {
				currencies = append(currencies, till.Currency)
			}
		}
		for _, currency := range currencies {
			balance, err := exchange.ReconcileTill(ctx, operator(), currency)
			if err != nil {
				return fmt.Errorf("till %s: %w", currency, err)
			}
			printBalance(cmd, "till "+currency, balance)
		}
		return nil
	},
}

func init() {
	reconcileTillCmd.Flags().BoolVar(&reconcileAllFlag, "all", false, "reconcile every till")
	reconcileCmd.AddCommand(reconcilePoolCmd, reconcileAccountCmd, reconcileTillCmd)
}

func reconcileAccount(cmd *cobra.Command, kind domain.AccountKind, poolOnly bool) error {
	ctx := cmd.Context()
	_, pool, repos, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	defer database.ClosePgxPool(pool)

	ledger := services.NewLedgerService(repos.Accounts, repos.TxManager)
	reconcile := ledger.ReconcileAccount
	if poolOnly {
		reconcile = ledger.ReconcilePool
	}
	balance, err := reconcile(ctx, operator(), kind)
	if err != nil {
		return err
	}
	printBalance(cmd, string(kind), balance)
	return nil
}

func printBalance(cmd *cobra.Command, target string, balance decimal.Decimal) {
	fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", target, balance.StringFixed(2))
}
