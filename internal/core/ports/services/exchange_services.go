package services

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReplenishmentInput are the inputs of a till replenishment.
type ReplenishmentInput struct {
	FundingCurrency string
	FundingSource   domain.FundingSource
	Amount          decimal.Decimal
	TargetCurrency  string
	PurchaseRate    decimal.Decimal
	TransportFee    decimal.Decimal
	HandlingFee     decimal.Decimal
	NoteExchangeFee decimal.Decimal
}

// SaleInput are the inputs of a foreign currency sale.
type SaleInput struct {
	Currency   string
	SoldAmount decimal.Decimal
	TodayRate  decimal.Decimal // zero means today's configured rate
	Customer   string
}

// CessionInput are the inputs of a cession.
type CessionInput struct {
	Currency    string
	Amount      decimal.Decimal
	Beneficiary string
	Purpose     string
}

// ExchangeReaderSvc defines read operations on the exchange desk
type ExchangeReaderSvc interface {
	GetTills(ctx context.Context, actor domain.Actor) ([]domain.ExchangeTill, error)
	ListOperations(ctx context.Context, actor domain.Actor, filter domain.OperationFilter) ([]domain.ExchangeOperation, error)
}

// ExchangeWriterSvc defines exchange desk operations
type ExchangeWriterSvc interface {
	RecordReplenishment(ctx context.Context, actor domain.Actor, in ReplenishmentInput) (*domain.ExchangeOperation, error)
	RecordSale(ctx context.Context, actor domain.Actor, in SaleInput) (*domain.ExchangeOperation, error)
	RecordCession(ctx context.Context, actor domain.Actor, in CessionInput) (*domain.ExchangeOperation, error)
	AdjustTill(ctx context.Context, actor domain.Actor, currency string, newBalance decimal.Decimal, note string) (*domain.ExchangeOperation, error)
}

// ExchangeSvcFacade combines all exchange desk service interfaces
type ExchangeSvcFacade interface {
	ExchangeReaderSvc
	ExchangeWriterSvc
	// ReconcileTill recomputes a till from its operation legs and persists the result.
	ReconcileTill(ctx context.Context, actor domain.Actor, currency string) (decimal.Decimal, error)
}
