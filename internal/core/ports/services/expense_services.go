package services

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SubmitExpenseInput are the inputs of an expense request.
type SubmitExpenseInput struct {
	Description       string
	Amount            decimal.Decimal
	Category          string
	DeductFromSurplus bool
	SurplusCashierID  string
}

// ExpenseDecision is the verdict of one approval stage.
type ExpenseDecision struct {
	Approve bool
	Reason  string
}

// ExpenseSvcFacade defines the expense approval pipeline
type ExpenseSvcFacade interface {
	SubmitExpense(ctx context.Context, actor domain.Actor, in SubmitExpenseInput) (*domain.Expense, error)
	GetExpense(ctx context.Context, actor domain.Actor, expenseID string) (*domain.Expense, error)
	ListExpenses(ctx context.Context, actor domain.Actor, filter domain.ExpenseFilter) ([]domain.Expense, error)

	// ApproveExpenseByControl is the financial-control stage.
	ApproveExpenseByControl(ctx context.Context, actor domain.Actor, expenseID string, decision ExpenseDecision) (*domain.Expense, error)

	// ApproveExpenseByExecutive is the executive stage; approval debits the ledger.
	ApproveExpenseByExecutive(ctx context.Context, actor domain.Actor, expenseID string, decision ExpenseDecision) (*domain.Expense, error)
}
