package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
)

// TransactionReader defines read operations for workflow transactions
type TransactionReader interface {
	// FindTransactionByID retrieves one transaction.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves transactions matching filter, newest first.
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)

	// SumCompletedByCreator totals, per currency, the completed non-settlement
	// transactions a user created during [from, to).
	SumCompletedByCreator(ctx context.Context, creator string, from, to time.Time) ([]domain.CurrencyTotal, error)
}

// TransactionWriter defines write operations for workflow transactions
type TransactionWriter interface {
	// SaveTransaction persists a new transaction.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// UpdateTransactionState writes the mutable workflow fields of txn, but only if the
	// stored status still equals expected. A lost race returns apperrors.ErrInvalidOperation.
	UpdateTransactionState(ctx context.Context, txn domain.Transaction, expected domain.TransactionStatus) error
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}
