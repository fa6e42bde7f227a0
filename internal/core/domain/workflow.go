package domain

import (
	"fmt"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
)

type transactionEdge struct {
	From TransactionStatus
	To   TransactionStatus
}

// transactionRule lists who may take an edge and for which transaction types.
// A nil Types slice means every type.
type transactionRule struct {
	Roles []Role
	Types []TransactionType
}

// TransactionTransitions is the complete transaction state machine.
// pending_delete -> completed is deliberately absent, and a validated transfer only
// completes through execution.
var TransactionTransitions = map[transactionEdge]transactionRule{
	{StatusPending, StatusValidated}: {
		Roles: []Role{RoleAuditor, RoleAdmin},
		Types: []TransactionType{TxTransfer},
	},
	{StatusPending, StatusCompleted}: {
		Roles: []Role{RoleSupervisor, RoleAuditor, RoleAdmin},
		Types: []TransactionType{TxReception, TxExchange, TxCard, TxReceipt},
	},
	{StatusPending, StatusRejected}: {
		Roles: []Role{RoleSupervisor, RoleAuditor, RoleAdmin},
	},
	{StatusValidated, StatusExecuted}: {
		Roles: []Role{RoleExecutor, RoleAuditor, RoleAdmin},
		Types: []TransactionType{TxTransfer},
	},
	{StatusValidated, StatusRejected}: {
		Roles: []Role{RoleAuditor, RoleAdmin},
	},
	{StatusExecuted, StatusCompleted}: {
		Roles: []Role{RoleExecutor, RoleAuditor, RoleAdmin},
	},
	{StatusCompleted, StatusPendingDelete}: {
		Roles: []Role{RoleAgent, RoleCashier, RoleSupervisor, RoleAuditor, RoleExecutor, RoleAccountant, RoleDirector, RoleAdmin},
	},
	{StatusPendingDelete, StatusRejected}: {
		Roles: []Role{RoleSupervisor, RoleAdmin},
	},
}

// CheckTransactionTransition validates a state change centrally. An edge missing from
// the table, or not open to the transaction type, is an invalid operation; a known
// edge taken by the wrong role is forbidden.
func CheckTransactionTransition(t TransactionType, from, to TransactionStatus, role Role) error {
	rule, ok := TransactionTransitions[transactionEdge{from, to}]
	if !ok || !containsType(rule.Types, t) {
		return fmt.Errorf("%w: %s transaction cannot move from %s to %s", apperrors.ErrInvalidOperation, t, from, to)
	}
	if !containsRole(rule.Roles, role) {
		return fmt.Errorf("%w: role %s may not move a %s transaction from %s to %s", apperrors.ErrForbidden, role, t, from, to)
	}
	return nil
}

// IsTerminal reports whether no further transition leaves s.
func (s TransactionStatus) IsTerminal() bool {
	for edge := range TransactionTransitions {
		if edge.From == s {
			return false
		}
	}
	return true
}

type expenseEdge struct {
	From ExpenseStatus
	To   ExpenseStatus
}

// ExpenseTransitions is the two-stage expense approval pipeline.
var ExpenseTransitions = map[expenseEdge][]Role{
	{ExpensePending, ExpenseAccountingApproved}:          {RoleAccountant, RoleAdmin},
	{ExpensePending, ExpenseAccountingRejected}:          {RoleAccountant, RoleAdmin},
	{ExpenseAccountingApproved, ExpenseDirectorApproved}: {RoleDirector, RoleAdmin},
	{ExpenseAccountingApproved, ExpenseDirectorRejected}: {RoleDirector, RoleAdmin},
}

// CheckExpenseTransition validates an expense stage change.
func CheckExpenseTransition(from, to ExpenseStatus, role Role) error {
	roles, ok := ExpenseTransitions[expenseEdge{from, to}]
	if !ok {
		return fmt.Errorf("%w: expense cannot move from %s to %s", apperrors.ErrInvalidOperation, from, to)
	}
	if !containsRole(roles, role) {
		return fmt.Errorf("%w: role %s may not move an expense from %s to %s", apperrors.ErrForbidden, role, from, to)
	}
	return nil
}

func containsRole(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

func containsType(types []TransactionType, t TransactionType) bool {
	if types == nil {
		return true
	}
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
