package services

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionInput are the inputs of a new transaction.
type CreateTransactionInput struct {
	Type        domain.TransactionType
	Description string
	Amount      decimal.Decimal
	Currency    string
	Details     domain.TransactionDetails
}

// ExecuteInput are the inputs of a transfer execution.
type ExecuteInput struct {
	ReceiptRef string
	Comment    string
	AsAuditor  bool
}

// TransactionReaderSvc defines read operations on transactions
type TransactionReaderSvc interface {
	GetTransaction(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, actor domain.Actor, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// TransactionWorkflowSvc defines the transaction state machine
type TransactionWorkflowSvc interface {
	// CreateTransaction records a new transaction; receipts start completed.
	CreateTransaction(ctx context.Context, actor domain.Actor, in CreateTransactionInput) (*domain.Transaction, error)

	// UpdateTransactionStatus performs a generic transition; reason is mandatory for rejections.
	UpdateTransactionStatus(ctx context.Context, actor domain.Actor, transactionID string, status domain.TransactionStatus, reason string) (*domain.Transaction, error)

	// ValidateTransferRealAmount decides a transfer from the real amount paid abroad.
	ValidateTransferRealAmount(ctx context.Context, actor domain.Actor, transactionID string, realAmount decimal.Decimal) (*domain.Transaction, error)

	// ExecuteTransaction attaches the payout receipt to a validated transfer.
	ExecuteTransaction(ctx context.Context, actor domain.Actor, transactionID string, in ExecuteInput) (*domain.Transaction, error)

	// CompleteTransaction closes a transaction without funds effect.
	CompleteTransaction(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error)

	// RejectTransaction rejects with a mandatory reason.
	RejectTransaction(ctx context.Context, actor domain.Actor, transactionID string, reason string) (*domain.Transaction, error)

	// RequestDeletion moves the creator's completed transaction to pending_delete.
	RequestDeletion(ctx context.Context, actor domain.Actor, transactionID string, reason string) (*domain.Transaction, error)

	// ValidateDeletion approves a deletion request; the transaction ends rejected.
	ValidateDeletion(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error)
}

// TransactionSvcFacade combines all transaction service interfaces
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWorkflowSvc
}
