package services

import (
	portsrepo "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	settings portssvc.SettingsProvider,
	dispatcher *Dispatcher,
) *portssvc.ServiceContainer {
	// The ledger is shared: every other workflow moves money through it
	ledger := NewLedgerService(repos.AccountRepo, repos.TxManager)

	return &portssvc.ServiceContainer{
		Ledger:   ledger,
		Exchange: NewExchangeService(repos.ExchangeRepo, repos.TxManager, ledger, settings),
		Transaction: NewTransactionService(
			repos.TransactionRepo,
			repos.StaffRepo,
			repos.TxManager,
			ledger,
			settings,
			dispatcher,
		),
		Expense: NewExpenseService(repos.ExpenseRepo, repos.TxManager, ledger, dispatcher),
		Settlement: NewSettlementService(
			repos.SettlementRepo,
			repos.TransactionRepo,
			repos.TxManager,
			settings,
			dispatcher,
			WithSettlementTolerance(cfg.SettlementTolerance),
		),
	}
}
