package domain

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of financial transaction handled by an agency.
type TransactionType string

const (
	TxReception  TransactionType = "reception"
	TxExchange   TransactionType = "exchange"
	TxTransfer   TransactionType = "transfer"
	TxCard       TransactionType = "card"
	TxReceipt    TransactionType = "receipt"
	TxSettlement TransactionType = "settlement"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxReception, TxExchange, TxTransfer, TxCard, TxReceipt, TxSettlement:
		return true
	}
	return false
}

// idPrefix is the business prefix used in transaction identifiers.
func (t TransactionType) idPrefix() string {
	switch t {
	case TxReception:
		return "RCP"
	case TxExchange:
		return "EXC"
	case TxTransfer:
		return "TRF"
	case TxCard:
		return "CRD"
	case TxReceipt:
		return "RCT"
	case TxSettlement:
		return "STL"
	}
	return "TXN"
}

// TransactionStatus is a state of the transaction workflow.
type TransactionStatus string

const (
	StatusPending       TransactionStatus = "pending"
	StatusValidated     TransactionStatus = "validated"
	StatusRejected      TransactionStatus = "rejected"
	StatusExecuted      TransactionStatus = "executed"
	StatusCompleted     TransactionStatus = "completed"
	StatusPendingDelete TransactionStatus = "pending_delete"
	StatusException     TransactionStatus = "exception"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRejected, StatusExecuted, StatusCompleted, StatusPendingDelete, StatusException:
		return true
	}
	return false
}

// Transaction is a financial transaction driven through the approval workflow.
type Transaction struct {
	TransactionID    string             `json:"transactionID"`
	Type             TransactionType    `json:"type"`
	Status           TransactionStatus  `json:"status"`
	Description      string             `json:"description"`
	Amount           decimal.Decimal    `json:"amount"`
	Currency         string             `json:"currency"`
	Agency           string             `json:"agency"`
	Details          TransactionDetails `json:"details"`
	RejectionReason  string             `json:"rejectionReason,omitempty"`
	DeletionReason   string             `json:"deletionReason,omitempty"`
	RealAmount       *decimal.Decimal   `json:"realAmount,omitempty"` // transfer only
	Commission       *decimal.Decimal   `json:"commission,omitempty"` // transfer only
	ValidatedBy      string             `json:"validatedBy,omitempty"`
	ExecutorID       string             `json:"executorID,omitempty"`
	ReceiptRef       string             `json:"receiptRef,omitempty"`
	ExecutionComment string             `json:"executionComment,omitempty"`
	AuditFields
}

// InitialStatus is the status a newly created transaction of type t starts in.
// Receipts need no approval.
func InitialStatus(t TransactionType) TransactionStatus {
	if t == TxReceipt {
		return StatusCompleted
	}
	return StatusPending
}

// NewTransactionID builds a time-derived, human-scannable identifier such as
// TRF-20261017-143205-4821.
func NewTransactionID(t TransactionType, now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate transaction id suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", t.idPrefix(), now.UTC().Format("20060102-150405"), n.Int64()), nil
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	Status    TransactionStatus
	Type      TransactionType
	Agency    string
	CreatedBy string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// TransactionDetails is the type-specific payload of a transaction. Each variant
// belongs to exactly one TransactionType.
type TransactionDetails interface {
	TransactionType() TransactionType
}

// ReceptionDetails describes an incoming transfer paid out to a local beneficiary.
type ReceptionDetails struct {
	Sender      string `json:"sender"`
	Beneficiary string `json:"beneficiary"`
	Origin      string `json:"origin"`
	Reference   string `json:"reference,omitempty"`
}

func (ReceptionDetails) TransactionType() TransactionType { return TxReception }

// ExchangeDetails describes a counter exchange with a client.
type ExchangeDetails struct {
	FromCurrency  string          `json:"fromCurrency"`
	ToCurrency    string          `json:"toCurrency"`
	Rate          decimal.Decimal `json:"rate"`
	CounterAmount decimal.Decimal `json:"counterAmount"`
	Customer      string          `json:"customer,omitempty"`
}

func (ExchangeDetails) TransactionType() TransactionType { return TxExchange }

// TransferDetails describes an outgoing international transfer.
type TransferDetails struct {
	Beneficiary        string `json:"beneficiary"`
	BeneficiaryPhone   string `json:"beneficiaryPhone,omitempty"`
	Destination        string `json:"destination"`
	SettlementCurrency string `json:"settlementCurrency"`
	TransferMethod     string `json:"transferMethod"`
	WithdrawalMode     string `json:"withdrawalMode"`
	DocumentRef        string `json:"documentRef,omitempty"`
}

func (TransferDetails) TransactionType() TransactionType { return TxTransfer }

// CardDetails describes a prepaid card recharge.
type CardDetails struct {
	CardNumberMasked string          `json:"cardNumberMasked"`
	Provider         string          `json:"provider"`
	Customer         string          `json:"customer,omitempty"`
	Fee              decimal.Decimal `json:"fee"`
}

func (CardDetails) TransactionType() TransactionType { return TxCard }

// ReceiptDetails describes a cash receipt. Its fee feeds the receipt commission pool.
type ReceiptDetails struct {
	Payer   string          `json:"payer"`
	Purpose string          `json:"purpose"`
	Fee     decimal.Decimal `json:"fee"`
}

func (ReceiptDetails) TransactionType() TransactionType { return TxReceipt }

// SettlementDetails links a mirrored settlement back to its closeout.
type SettlementDetails struct {
	SettlementID string           `json:"settlementID"`
	CashierID    string           `json:"cashierID"`
	BusinessDate string           `json:"businessDate"`
	Outcome      SettlementStatus `json:"outcome"`
}

func (SettlementDetails) TransactionType() TransactionType { return TxSettlement }

// MarshalDetails encodes a details payload for storage.
func MarshalDetails(d TransactionDetails) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// UnmarshalDetails decodes raw JSON into the variant owned by t.
func UnmarshalDetails(t TransactionType, raw []byte) (TransactionDetails, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var (
		d   TransactionDetails
		err error
	)
	switch t {
	case TxReception:
		var v ReceptionDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TxExchange:
		var v ExchangeDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TxTransfer:
		var v TransferDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TxCard:
		var v CardDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TxReceipt:
		var v ReceiptDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case TxSettlement:
		var v SettlementDetails
		err = json.Unmarshal(raw, &v)
		d = v
	default:
		return nil, fmt.Errorf("unknown transaction type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s details: %w", t, err)
	}
	return d, nil
}

// CheckDetails verifies that d is the variant belonging to t.
func CheckDetails(t TransactionType, d TransactionDetails) error {
	if d == nil {
		return fmt.Errorf("%s details are required", t)
	}
	if d.TransactionType() != t {
		return fmt.Errorf("details of type %s cannot be attached to a %s transaction", d.TransactionType(), t)
	}
	return nil
}
