package pgsql

import (
	portsrepo "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories exposes the concrete repositories for setup tasks that go beyond the
// ports, such as creating tills or registering staff.
type Repositories struct {
	TxManager   *TxManager
	Accounts    *PgxAccountRepository
	Exchange    *PgxExchangeRepository
	Transaction *PgxTransactionRepository
	Expenses    *PgxExpenseRepository
	Settlements *PgxSettlementRepository
	Staff       *PgxStaffRepository
}

func NewRepositories(dbPool *pgxpool.Pool) *Repositories {
	return &Repositories{
		TxManager:   NewTxManager(dbPool),
		Accounts:    newPgxAccountRepository(dbPool),
		Exchange:    newPgxExchangeRepository(dbPool),
		Transaction: newPgxTransactionRepository(dbPool),
		Expenses:    newPgxExpenseRepository(dbPool),
		Settlements: newPgxSettlementRepository(dbPool),
		Staff:       newPgxStaffRepository(dbPool),
	}
}

// Provider returns the repositories as the ports consumed by services.
func (r *Repositories) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:       r.TxManager,
		AccountRepo:     r.Accounts,
		ExchangeRepo:    r.Exchange,
		TransactionRepo: r.Transaction,
		ExpenseRepo:     r.Expenses,
		SettlementRepo:  r.Settlements,
		StaffRepo:       r.Staff,
	}
}
