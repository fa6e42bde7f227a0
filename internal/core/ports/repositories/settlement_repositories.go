package repositories

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
)

// SettlementRepositoryFacade defines persistence for cash settlements
type SettlementRepositoryFacade interface {
	// SaveSettlement persists a new settlement.
	SaveSettlement(ctx context.Context, settlement domain.CashSettlement) error

	// FindSettlementByID retrieves one settlement.
	FindSettlementByID(ctx context.Context, settlementID string) (*domain.CashSettlement, error)

	// LockSettlement reads a settlement and holds its row lock for the current transaction.
	LockSettlement(ctx context.Context, settlementID string) (*domain.CashSettlement, error)

	// UpdateSettlement writes the mutable fields, but only if the stored status still
	// equals expected.
	UpdateSettlement(ctx context.Context, settlement domain.CashSettlement, expected domain.SettlementStatus) error

	// SaveUnloading appends an unloading row.
	SaveUnloading(ctx context.Context, unloading domain.SettlementUnloading) error

	// ListUnloadings retrieves the unloadings of a settlement.
	ListUnloadings(ctx context.Context, settlementID string) ([]domain.SettlementUnloading, error)
}
