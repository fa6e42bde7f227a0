package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeTill is the cash balance held by the exchange desk for one currency.
type ExchangeTill struct {
	Currency            string          `json:"currency"`
	Balance             decimal.Decimal `json:"balance"`
	LastAcquisitionRate decimal.Decimal `json:"lastAcquisitionRate"` // only moved by a replenishment
	LastAdjustmentNote  string          `json:"lastAdjustmentNote,omitempty"`
	UpdatedBy           string          `json:"updatedBy"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// OperationKind classifies an exchange desk operation.
type OperationKind string

const (
	OperationReplenish    OperationKind = "replenish"
	OperationSell         OperationKind = "sell"
	OperationCede         OperationKind = "cede"
	OperationManualAdjust OperationKind = "manual_adjust"
)

// FundingSource selects where a replenishment is paid from.
type FundingSource string

const (
	FundingNone  FundingSource = ""
	FundingTill  FundingSource = "till"
	FundingVault FundingSource = "vault"
)

// TillLeg is the signed effect of an operation on one till.
type TillLeg struct {
	Currency string          `json:"currency"`
	Delta    decimal.Decimal `json:"delta"`
}

// ExchangeOperation is an immutable entry of the exchange desk log.
type ExchangeOperation struct {
	OperationID string           `json:"operationID"`
	Kind        OperationKind    `json:"kind"`
	Payload     OperationPayload `json:"payload"`
	Legs        []TillLeg        `json:"legs"`
	Actor       string           `json:"actor"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// OperationPayload captures the inputs and derived values of one operation kind.
type OperationPayload interface {
	OperationKind() OperationKind
}

// ReplenishmentPayload records a purchase of foreign currency to restock a till.
type ReplenishmentPayload struct {
	FundingCurrency  string          `json:"fundingCurrency"`
	FundingSource    FundingSource   `json:"fundingSource"`
	Amount           decimal.Decimal `json:"amount"`
	TargetCurrency   string          `json:"targetCurrency"`
	PurchaseRate     decimal.Decimal `json:"purchaseRate"`
	TransportFee     decimal.Decimal `json:"transportFee"`
	HandlingFee      decimal.Decimal `json:"handlingFee"`
	NoteExchangeFee  decimal.Decimal `json:"noteExchangeFee"`
	AcquiredQuantity decimal.Decimal `json:"acquiredQuantity"`
	NetQuantity      decimal.Decimal `json:"netQuantity"`
	EffectiveRate    decimal.Decimal `json:"effectiveRate"`
}

func (ReplenishmentPayload) OperationKind() OperationKind { return OperationReplenish }

// SalePayload records a sale of foreign currency to a client.
type SalePayload struct {
	Currency   string          `json:"currency"`
	SoldAmount decimal.Decimal `json:"soldAmount"`
	TodayRate  decimal.Decimal `json:"todayRate"`
	CostRate   decimal.Decimal `json:"costRate"`
	Proceeds   decimal.Decimal `json:"proceeds"`
	Commission decimal.Decimal `json:"commission"`
	Customer   string          `json:"customer,omitempty"`
}

func (SalePayload) OperationKind() OperationKind { return OperationSell }

// CessionPayload records an internal transfer of till funds.
type CessionPayload struct {
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Beneficiary string          `json:"beneficiary,omitempty"`
	Purpose     string          `json:"purpose,omitempty"`
}

func (CessionPayload) OperationKind() OperationKind { return OperationCede }

// AdjustmentPayload records an administrative override of a till balance.
type AdjustmentPayload struct {
	Currency        string          `json:"currency"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	Note            string          `json:"note"`
}

func (AdjustmentPayload) OperationKind() OperationKind { return OperationManualAdjust }

// MarshalPayload encodes an operation payload for storage.
func MarshalPayload(p OperationPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("operation payload is nil")
	}
	return json.Marshal(p)
}

// UnmarshalPayload decodes a stored payload into the variant matching kind.
func UnmarshalPayload(kind OperationKind, raw []byte) (OperationPayload, error) {
	switch kind {
	case OperationReplenish:
		var p ReplenishmentPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case OperationSell:
		var p SalePayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case OperationCede:
		var p CessionPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case OperationManualAdjust:
		var p AdjustmentPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	}
	return nil, fmt.Errorf("unknown operation kind %q", kind)
}

// OperationFilter narrows a range query over the exchange operation log.
type OperationFilter struct {
	Kind     OperationKind
	Currency string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
