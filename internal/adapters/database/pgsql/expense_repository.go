package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const expenseColumns = `expense_id, description, amount, category, status, requested_by, agency,
	deduct_from_surplus, surplus_cashier_id, control_approver, control_at, executive_approver, executive_at,
	rejection_reason, created_at, created_by, last_updated_at, last_updated_by`

type PgxExpenseRepository struct {
	BaseRepository
}

// newPgxExpenseRepository creates a new repository for expenses.
func newPgxExpenseRepository(pool *pgxpool.Pool) *PgxExpenseRepository {
	return &PgxExpenseRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExpenseRepositoryFacade = (*PgxExpenseRepository)(nil)

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	err := row.Scan(
		&e.ExpenseID,
		&e.Description,
		&e.Amount,
		&e.Category,
		&e.Status,
		&e.RequestedBy,
		&e.Agency,
		&e.DeductFromSurplus,
		&e.SurplusCashierID,
		&e.ControlApprover,
		&e.ControlAt,
		&e.ExecutiveApprover,
		&e.ExecutiveAt,
		&e.RejectionReason,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`
	_, err := r.db(ctx).Exec(ctx, query,
		expense.ExpenseID,
		expense.Description,
		expense.Amount,
		expense.Category,
		expense.Status,
		expense.RequestedBy,
		expense.Agency,
		expense.DeductFromSurplus,
		expense.SurplusCashierID,
		expense.ControlApprover,
		expense.ControlAt,
		expense.ExecutiveApprover,
		expense.ExecutiveAt,
		expense.RejectionReason,
		expense.CreatedAt,
		expense.CreatedBy,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: expense %s", apperrors.ErrDuplicate, expense.ExpenseID)
		}
		return apperrors.NewAppError(500, "failed to save expense "+expense.ExpenseID, err)
	}
	return nil
}

func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	expense, err := scanExpense(r.db(ctx).QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE expense_id = $1;`, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: expense %s", apperrors.ErrNotFound, expenseID)
		}
		return nil, apperrors.NewAppError(500, "failed to find expense "+expenseID, err)
	}
	return expense, nil
}

func (r *PgxExpenseRepository) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	var fb filterBuilder
	if filter.Status != "" {
		fb.add("status = ?", filter.Status)
	}
	if filter.Agency != "" {
		fb.add("agency = ?", filter.Agency)
	}
	query := `SELECT ` + expenseColumns + ` FROM expenses` + fb.where() +
		` ORDER BY created_at DESC, expense_id` + fb.page(filter.Limit, filter.Offset)

	rows, err := r.db(ctx).Query(ctx, query, fb.args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list expenses", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan expense", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate expenses", err)
	}
	return expenses, nil
}

func (r *PgxExpenseRepository) UpdateExpenseStage(ctx context.Context, expense domain.Expense, expected domain.ExpenseStatus) error {
	query := `
		UPDATE expenses
		SET status = $2, control_approver = $3, control_at = $4, executive_approver = $5, executive_at = $6,
		    rejection_reason = $7, last_updated_at = $8, last_updated_by = $9
		WHERE expense_id = $1 AND status = $10;`
	tag, err := r.db(ctx).Exec(ctx, query,
		expense.ExpenseID,
		expense.Status,
		expense.ControlApprover,
		expense.ControlAt,
		expense.ExecutiveApprover,
		expense.ExecutiveAt,
		expense.RejectionReason,
		expense.LastUpdatedAt,
		expense.LastUpdatedBy,
		expected,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update expense "+expense.ExpenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expense %s is no longer %s", apperrors.ErrInvalidOperation, expense.ExpenseID, expected)
	}
	return nil
}
