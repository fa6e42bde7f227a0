package dto

import (
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateSettlementRequest closes out a cashier's business day (YYYY-MM-DD).
type CreateSettlementRequest struct {
	CashierID    string `json:"cashierID" binding:"required"`
	BusinessDate string `json:"businessDate" binding:"required,datetime=2006-01-02"`
}

// UnloadingRequest deducts cash taken out of the drawer.
type UnloadingRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimalgt0" swaggertype:"string"`
	Note   string          `json:"note"`
}

// ValidateSettlementRequest records the amount actually received.
type ValidateSettlementRequest struct {
	ReceivedAmount  decimal.Decimal `json:"receivedAmount" binding:"decimalgte0" swaggertype:"string"`
	ExceptionReason string          `json:"exceptionReason"`
}

// SettlementResponse is a settlement with its unloadings.
type SettlementResponse struct {
	Settlement *domain.CashSettlement       `json:"settlement"`
	Unloadings []domain.SettlementUnloading `json:"unloadings"`
}
