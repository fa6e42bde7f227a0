package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is the state of a daily cash closeout.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementValidated SettlementStatus = "validated"
	SettlementRejected  SettlementStatus = "rejected"
	SettlementException SettlementStatus = "exception"
)

// CashSettlement aggregates one cashier's day of transactions.
type CashSettlement struct {
	SettlementID    string           `json:"settlementID"`
	CashierID       string           `json:"cashierID"`
	Agency          string           `json:"agency"`
	BusinessDate    time.Time        `json:"businessDate"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	UnloadingAmount decimal.Decimal  `json:"unloadingAmount"`
	FinalAmount     decimal.Decimal  `json:"finalAmount"`
	ReceivedAmount  *decimal.Decimal `json:"receivedAmount,omitempty"`
	Currency        string           `json:"currency"`
	Status          SettlementStatus `json:"status"`
	ExceptionReason string           `json:"exceptionReason,omitempty"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	ValidatedBy     string           `json:"validatedBy,omitempty"`
	ValidatedAt     *time.Time       `json:"validatedAt,omitempty"`
	AuditFields
}

// SettlementUnloading is one cash deduction taken out of the drawer before closeout.
type SettlementUnloading struct {
	UnloadingID  string          `json:"unloadingID"`
	SettlementID string          `json:"settlementID"`
	Amount       decimal.Decimal `json:"amount"`
	Note         string          `json:"note"`
	Actor        string          `json:"actor"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// CurrencyTotal sums a group of transactions held in one currency.
type CurrencyTotal struct {
	Currency string
	Amount   decimal.Decimal
	Count    int
}

// BusinessDateString formats a settlement date the way it is stored and mirrored.
func BusinessDateString(t time.Time) string {
	return t.Format("2006-01-02")
}
