package services

import (
	"context"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SettlementSvcFacade defines the daily cash closeout
type SettlementSvcFacade interface {
	// CreateSettlement aggregates a cashier's completed transactions for a business date.
	CreateSettlement(ctx context.Context, actor domain.Actor, cashierID string, businessDate time.Time) (*domain.CashSettlement, error)

	GetSettlement(ctx context.Context, actor domain.Actor, settlementID string) (*domain.CashSettlement, []domain.SettlementUnloading, error)

	// AddUnloading deducts cash taken out of the drawer from a pending settlement.
	AddUnloading(ctx context.Context, actor domain.Actor, settlementID string, amount decimal.Decimal, note string) (*domain.CashSettlement, error)

	// ValidateSettlement records the received amount; a mismatch needs an exception reason.
	ValidateSettlement(ctx context.Context, actor domain.Actor, settlementID string, received decimal.Decimal, exceptionReason string) (*domain.CashSettlement, error)

	// RejectSettlement rejects with a mandatory reason.
	RejectSettlement(ctx context.Context, actor domain.Actor, settlementID string, reason string) (*domain.CashSettlement, error)
}
