package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings are the business parameters read fresh for every operation.
type Settings struct {
	LocalCurrency     string
	Rates             map[string]decimal.Decimal // local units per one unit of the foreign currency
	MinimumCommission decimal.Decimal
}

// Rate returns today's rate for currency.
func (s Settings) Rate(currency string) (decimal.Decimal, bool) {
	r, ok := s.Rates[strings.ToUpper(currency)]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	return r, true
}

// ToLocal converts amount in currency to the local currency at today's rate.
func (s Settings) ToLocal(amount decimal.Decimal, currency string) (decimal.Decimal, bool) {
	if strings.EqualFold(currency, s.LocalCurrency) {
		return amount, true
	}
	rate, ok := s.Rate(currency)
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(rate).Round(RatePrecision), true
}

// EventName identifies a workflow notification.
type EventName string

const (
	EventTransactionCreated   EventName = "transaction.created"
	EventTransactionValidated EventName = "transaction.validated"
	EventTransactionRejected  EventName = "transaction.rejected"
	EventTransactionExecuted  EventName = "transaction.executed"
	EventTransactionCompleted EventName = "transaction.completed"
	EventDeletionRequested    EventName = "transaction.deletion_requested"
	EventDeletionApproved     EventName = "transaction.deletion_approved"
	EventExpenseSubmitted     EventName = "expense.submitted"
	EventExpenseStageChanged  EventName = "expense.stage_changed"
	EventSettlementCreated    EventName = "settlement.created"
	EventSettlementClosed     EventName = "settlement.closed"
)

// Event is a best-effort notification addressed to interested roles.
type Event struct {
	Name       EventName      `json:"name"`
	Audience   []Role         `json:"audience"`
	Subject    string         `json:"subject"` // id of the entity the event is about
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
