package dto

import (
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerEntryRequest is the body of debit, deposit and commission requests.
type LedgerEntryRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"decimalgt0" swaggertype:"string"`
	Note      string          `json:"note"`
	Reference string          `json:"reference"`
}

// SetBalanceRequest is the body of an administrative balance override.
type SetBalanceRequest struct {
	Balance decimal.Decimal `json:"balance" binding:"decimalgte0" swaggertype:"string"`
	Note    string          `json:"note" binding:"required"`
}

// AccountTransferRequest moves funds between two non-pool accounts.
type AccountTransferRequest struct {
	From   domain.AccountKind `json:"from" binding:"required"`
	To     domain.AccountKind `json:"to" binding:"required"`
	Amount decimal.Decimal    `json:"amount" binding:"decimalgt0" swaggertype:"string"`
	Note   string             `json:"note"`
}

// MovementQuery filters the movement log of one account.
type MovementQuery struct {
	Kind domain.MovementKind `form:"kind"`
	RangeQuery
	PageQuery
}

// ReconcileResponse reports the recomputed balance.
type ReconcileResponse struct {
	Key     string          `json:"key"`
	Balance decimal.Decimal `json:"balance" swaggertype:"string"`
}
