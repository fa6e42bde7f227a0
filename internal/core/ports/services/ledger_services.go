package services

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerEntry is the common input of a balance mutation.
type LedgerEntry struct {
	Kind      domain.AccountKind
	Amount    decimal.Decimal
	Note      string
	Reference string
}

// LedgerReaderSvc defines read operations on the cash account ledger
type LedgerReaderSvc interface {
	// GetAccounts lists every ledger account with its current balance.
	GetAccounts(ctx context.Context, actor domain.Actor) ([]domain.CashAccount, error)

	// GetAccount retrieves one account.
	GetAccount(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (*domain.CashAccount, error)

	// ListMovements runs a range query over the movement log.
	ListMovements(ctx context.Context, actor domain.Actor, filter domain.MovementFilter) ([]domain.CashMovement, error)
}

// LedgerWriterSvc defines balance mutations
type LedgerWriterSvc interface {
	// SetAccountBalance administratively sets a non-pool account balance.
	SetAccountBalance(ctx context.Context, actor domain.Actor, kind domain.AccountKind, newBalance decimal.Decimal, note string) (*domain.CashAccount, error)

	// Debit withdraws from an account, failing with ErrInsufficientFunds on overdraft.
	Debit(ctx context.Context, actor domain.Actor, entry LedgerEntry) (*domain.CashAccount, error)

	// Deposit credits a non-pool account.
	Deposit(ctx context.Context, actor domain.Actor, entry LedgerEntry) (*domain.CashAccount, error)

	// PostCommission credits a pool with a commission movement.
	PostCommission(ctx context.Context, actor domain.Actor, entry LedgerEntry) (*domain.CashAccount, error)

	// ChargeExpense debits an approved expense from the vault or the surplus pool.
	ChargeExpense(ctx context.Context, actor domain.Actor, entry LedgerEntry) (*domain.CashAccount, error)

	// TransferBetweenAccounts moves funds between two non-pool accounts.
	TransferBetweenAccounts(ctx context.Context, actor domain.Actor, from, to domain.AccountKind, amount decimal.Decimal, note string) error
}

// LedgerReconcilerSvc defines reconciliation routines
type LedgerReconcilerSvc interface {
	// ReconcilePool recomputes a pool from its log and persists the result.
	ReconcilePool(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (decimal.Decimal, error)

	// ReconcileAccount recomputes any account from its log and persists the result.
	ReconcileAccount(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (decimal.Decimal, error)
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
	LedgerReconcilerSvc
}
