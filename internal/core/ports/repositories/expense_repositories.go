package repositories

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
)

// ExpenseRepositoryFacade defines persistence for expenses
type ExpenseRepositoryFacade interface {
	// SaveExpense persists a new expense.
	SaveExpense(ctx context.Context, expense domain.Expense) error

	// FindExpenseByID retrieves one expense.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpenses retrieves expenses matching filter.
	ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error)

	// UpdateExpenseStage writes the approval fields, but only if the stored status still
	// equals expected.
	UpdateExpenseStage(ctx context.Context, expense domain.Expense, expected domain.ExpenseStatus) error
}
