package repositories

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CashAccountReader defines read operations for ledger accounts
type CashAccountReader interface {
	// FindAccount retrieves one account by kind.
	FindAccount(ctx context.Context, kind domain.AccountKind) (*domain.CashAccount, error)

	// ListAccounts retrieves every ledger account.
	ListAccounts(ctx context.Context) ([]domain.CashAccount, error)

	// ListMovements runs a filtered range query over the movement log.
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.CashMovement, error)
}

// CashAccountWriter defines write operations for ledger accounts
type CashAccountWriter interface {
	// ApplyMovement adds movement.Amount to the account balance and appends the movement,
	// atomically. With requireFunds the update only happens if the resulting balance
	// stays non-negative, otherwise apperrors.ErrInsufficientFunds is returned and
	// nothing is written.
	ApplyMovement(ctx context.Context, movement domain.CashMovement, requireFunds bool) (*domain.CashAccount, error)
}

// CashAccountReconciler supports replaying the movement log.
type CashAccountReconciler interface {
	// LockAccount takes the row lock on an account for the current transaction.
	LockAccount(ctx context.Context, kind domain.AccountKind) (*domain.CashAccount, error)

	// SumMovements returns the signed sum of the account's movements restricted to kinds
	// (all kinds when empty), evaluated in a single statement.
	SumMovements(ctx context.Context, kind domain.AccountKind, kinds []domain.MovementKind) (decimal.Decimal, error)

	// SetCachedBalance overwrites the cached balance with a recomputed value.
	SetCachedBalance(ctx context.Context, kind domain.AccountKind, balance decimal.Decimal, actor string) error
}

// CashAccountRepositoryFacade combines all account-related repository interfaces
type CashAccountRepositoryFacade interface {
	CashAccountReader
	CashAccountWriter
	CashAccountReconciler
}
