package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind identifies one of the fixed cash accounts kept by the ledger.
type AccountKind string

const (
	AccountBankA                  AccountKind = "bank_a"
	AccountBankB                  AccountKind = "bank_b"
	AccountVault                  AccountKind = "vault"
	AccountTransferCommissionPool AccountKind = "transfer_commission_pool"
	AccountReceiptCommissionPool  AccountKind = "receipt_commission_pool"
	AccountExchangeSurplusPool    AccountKind = "exchange_surplus_pool"
)

// AllAccountKinds lists every ledger account in display order.
var AllAccountKinds = []AccountKind{
	AccountBankA,
	AccountBankB,
	AccountVault,
	AccountTransferCommissionPool,
	AccountReceiptCommissionPool,
	AccountExchangeSurplusPool,
}

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	for _, known := range AllAccountKinds {
		if k == known {
			return true
		}
	}
	return false
}

// IsPool reports whether the account balance is defined as the reconciled sum of its log.
// Pool balances can never be set directly.
func (k AccountKind) IsPool() bool {
	switch k {
	case AccountTransferCommissionPool, AccountReceiptCommissionPool, AccountExchangeSurplusPool:
		return true
	}
	return false
}

// CashAccount is one named account of the business together with its cached balance.
type CashAccount struct {
	Kind          AccountKind     `json:"kind"`
	DisplayName   string          `json:"displayName"`
	Balance       decimal.Decimal `json:"balance"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy string          `json:"lastUpdatedBy"`
}

// MovementKind classifies a cash movement.
type MovementKind string

const (
	MovementDeposit    MovementKind = "deposit"
	MovementWithdrawal MovementKind = "withdrawal"
	MovementTransfer   MovementKind = "transfer"
	MovementExpense    MovementKind = "expense"
	MovementCommission MovementKind = "commission"
)

// PoolMovementKinds are the movement kinds that make up a pool balance.
var PoolMovementKinds = []MovementKind{
	MovementCommission,
	MovementDeposit,
	MovementWithdrawal,
	MovementExpense,
}

// CashMovement is an immutable entry of the append-only movement log.
// Amount is signed: credits are positive, debits negative.
type CashMovement struct {
	MovementID  string          `json:"movementID"`
	AccountKind AccountKind     `json:"accountKind"`
	Kind        MovementKind    `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"` // originating transaction, expense or operation
	Actor       string          `json:"actor"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// MovementFilter narrows a range query over the movement log.
type MovementFilter struct {
	AccountKind AccountKind
	Kind        MovementKind
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}
