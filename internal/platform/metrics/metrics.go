// Package metrics holds the Prometheus collectors of the back office.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─── Ledger ────────────────────────────────────────────────────────────────

// LedgerMovements counts movements appended to the log per account and kind.
var LedgerMovements = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "ledger",
	Name:      "movements_total",
	Help:      "Total cash movements appended to the ledger.",
}, []string{"account", "kind"})

// InsufficientFunds counts rejected debits.
var InsufficientFunds = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "ledger",
	Name:      "insufficient_funds_total",
	Help:      "Total debits rejected because the balance was too low.",
}, []string{"account"})

// ReconcileDrift records the absolute difference found by a reconciliation.
var ReconcileDrift = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "cashdesk",
	Subsystem: "ledger",
	Name:      "reconcile_drift",
	Help:      "Absolute difference between cached and recomputed balance at the last reconciliation.",
}, []string{"target"})

// ─── Exchange desk ─────────────────────────────────────────────────────────

// ExchangeOperations counts exchange desk operations per kind and currency.
var ExchangeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "exchange",
	Name:      "operations_total",
	Help:      "Total exchange desk operations.",
}, []string{"kind", "currency"})

// ─── Workflows ─────────────────────────────────────────────────────────────

// TransactionTransitions counts workflow transitions per type and target status.
var TransactionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "workflow",
	Name:      "transaction_transitions_total",
	Help:      "Total transaction state changes.",
}, []string{"type", "status"})

// ExpenseTransitions counts expense stage changes per target status.
var ExpenseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "workflow",
	Name:      "expense_transitions_total",
	Help:      "Total expense stage changes.",
}, []string{"status"})

// SettlementsClosed counts closed settlements per outcome.
var SettlementsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "workflow",
	Name:      "settlements_closed_total",
	Help:      "Total settlements closed, by outcome.",
}, []string{"outcome"})

// ─── Notifications ─────────────────────────────────────────────────────────

// NotificationsSent counts delivered notifications.
var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "notify",
	Name:      "sent_total",
	Help:      "Total notifications delivered.",
}, []string{"event"})

// NotificationFailures counts notifications that could not be delivered.
var NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cashdesk",
	Subsystem: "notify",
	Name:      "failures_total",
	Help:      "Total notifications that failed and were dropped.",
}, []string{"event"})

// Handler exposes the default registry for Gin.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
