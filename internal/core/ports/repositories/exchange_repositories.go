package repositories

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TillChange describes one atomic mutation of a till.
type TillChange struct {
	Currency string
	Delta    decimal.Decimal
	// RequireFunds rejects the change with ErrInsufficientFunds when the balance would go negative.
	RequireFunds bool
	// AcquisitionRate is set only by replenishments.
	AcquisitionRate *decimal.Decimal
	// AdjustmentNote is set only by manual adjustments.
	AdjustmentNote *string
	Actor          string
}

// ExchangeTillReader defines read operations for the exchange desk
type ExchangeTillReader interface {
	// FindTill retrieves the till for a currency.
	FindTill(ctx context.Context, currency string) (*domain.ExchangeTill, error)

	// ListTills retrieves every till.
	ListTills(ctx context.Context) ([]domain.ExchangeTill, error)

	// ListOperations runs a filtered range query over the operation log.
	ListOperations(ctx context.Context, filter domain.OperationFilter) ([]domain.ExchangeOperation, error)
}

// ExchangeTillWriter defines write operations for the exchange desk
type ExchangeTillWriter interface {
	// ApplyTillChange applies a delta to a till in one conditional statement.
	ApplyTillChange(ctx context.Context, change TillChange) (*domain.ExchangeTill, error)

	// SaveOperation appends an operation and its till legs to the log.
	SaveOperation(ctx context.Context, op domain.ExchangeOperation) error
}

// ExchangeTillReconciler supports replaying the operation log.
type ExchangeTillReconciler interface {
	// LockTill takes the row lock on a till for the current transaction.
	LockTill(ctx context.Context, currency string) (*domain.ExchangeTill, error)

	// SumTillLegs returns the signed sum of every logged leg for the currency.
	SumTillLegs(ctx context.Context, currency string) (decimal.Decimal, error)

	// SetTillBalance overwrites the cached till balance.
	SetTillBalance(ctx context.Context, currency string, balance decimal.Decimal, actor string) error
}

// ExchangeRepositoryFacade combines all exchange-desk repository interfaces
type ExchangeRepositoryFacade interface {
	ExchangeTillReader
	ExchangeTillWriter
	ExchangeTillReconciler
}
