package dto

import (
	"encoding/json"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest records a new transaction. Details must match the type.
type CreateTransactionRequest struct {
	Type        domain.TransactionType `json:"type" binding:"required"`
	Description string                 `json:"description"`
	Amount      decimal.Decimal        `json:"amount" binding:"decimalgt0" swaggertype:"string"`
	Currency    string                 `json:"currency" binding:"required"`
	Details     json.RawMessage        `json:"details" binding:"required" swaggertype:"object"`
}

// UpdateStatusRequest is a generic status transition.
type UpdateStatusRequest struct {
	Status domain.TransactionStatus `json:"status" binding:"required"`
	Reason string                   `json:"reason"`
}

// ValidateRealAmountRequest carries the amount actually paid abroad.
type ValidateRealAmountRequest struct {
	RealAmount decimal.Decimal `json:"realAmount" binding:"decimalgt0" swaggertype:"string"`
}

// ExecuteTransactionRequest attaches the payout receipt.
type ExecuteTransactionRequest struct {
	ReceiptRef string `json:"receiptRef" binding:"required"`
	Comment    string `json:"comment"`
	AsAuditor  bool   `json:"asAuditor"`
}

// TransactionQuery filters transaction listings.
type TransactionQuery struct {
	Status    domain.TransactionStatus `form:"status"`
	Type      domain.TransactionType   `form:"type"`
	Agency    string                   `form:"agency"`
	CreatedBy string                   `form:"createdBy"`
	RangeQuery
	PageQuery
}
