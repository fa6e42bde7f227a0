package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus is a stage of the expense approval pipeline.
type ExpenseStatus string

const (
	ExpensePending            ExpenseStatus = "pending"
	ExpenseAccountingApproved ExpenseStatus = "accounting_approved"
	ExpenseAccountingRejected ExpenseStatus = "accounting_rejected"
	ExpenseDirectorApproved   ExpenseStatus = "director_approved"
	ExpenseDirectorRejected   ExpenseStatus = "director_rejected"
)

// Expense is a spending request that is paid out of the vault, or out of the
// exchange surplus pool on behalf of a cashier, once both stages approve it.
type Expense struct {
	ExpenseID         string          `json:"expenseID"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Category          string          `json:"category"`
	Status            ExpenseStatus   `json:"status"`
	RequestedBy       string          `json:"requestedBy"`
	Agency            string          `json:"agency"`
	DeductFromSurplus bool            `json:"deductFromSurplus"`
	SurplusCashierID  string          `json:"surplusCashierID,omitempty"`
	ControlApprover   string          `json:"controlApprover,omitempty"`
	ControlAt         *time.Time      `json:"controlAt,omitempty"`
	ExecutiveApprover string          `json:"executiveApprover,omitempty"`
	ExecutiveAt       *time.Time      `json:"executiveAt,omitempty"`
	RejectionReason   string          `json:"rejectionReason,omitempty"`
	AuditFields
}

// DebitAccount is the ledger account charged when the expense is finally approved.
func (e Expense) DebitAccount() AccountKind {
	if e.DeductFromSurplus {
		return AccountExchangeSurplusPool
	}
	return AccountVault
}

// ExpenseFilter narrows an expense listing.
type ExpenseFilter struct {
	Status ExpenseStatus
	Agency string
	Limit  int
	Offset int
}
