package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionColumns = `transaction_id, type, status, description, amount, currency, agency, details,
	rejection_reason, deletion_reason, real_amount, commission, validated_by, executor_id, receipt_ref,
	execution_comment, created_at, created_by, last_updated_at, last_updated_by`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for workflow transactions.
func newPgxTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                      domain.Transaction
		details                []byte
		realAmount, commission decimal.NullDecimal
	)
	err := row.Scan(
		&t.TransactionID,
		&t.Type,
		&t.Status,
		&t.Description,
		&t.Amount,
		&t.Currency,
		&t.Agency,
		&details,
		&t.RejectionReason,
		&t.DeletionReason,
		&realAmount,
		&commission,
		&t.ValidatedBy,
		&t.ExecutorID,
		&t.ReceiptRef,
		&t.ExecutionComment,
		&t.CreatedAt,
		&t.CreatedBy,
		&t.LastUpdatedAt,
		&t.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if t.Details, err = domain.UnmarshalDetails(t.Type, details); err != nil {
		return nil, err
	}
	t.RealAmount = decimalPtr(realAmount)
	t.Commission = decimalPtr(commission)
	return &t, nil
}

func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	details, err := domain.MarshalDetails(txn.Details)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode transaction details", err)
	}
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20);`
	_, err = r.db(ctx).Exec(ctx, query,
		txn.TransactionID,
		txn.Type,
		txn.Status,
		txn.Description,
		txn.Amount,
		txn.Currency,
		txn.Agency,
		details,
		txn.RejectionReason,
		txn.DeletionReason,
		nullDecimal(txn.RealAmount),
		nullDecimal(txn.Commission),
		txn.ValidatedBy,
		txn.ExecutorID,
		txn.ReceiptRef,
		txn.ExecutionComment,
		txn.CreatedAt,
		txn.CreatedBy,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", apperrors.ErrDuplicate, txn.TransactionID)
		}
		return apperrors.NewAppError(500, "failed to save transaction "+txn.TransactionID, err)
	}
	return nil
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	txn, err := scanTransaction(r.db(ctx).QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction "+transactionID, err)
	}
	return txn, nil
}

// UpdateTransactionState is a compare-and-set on the status column.
func (r *PgxTransactionRepository) UpdateTransactionState(ctx context.Context, txn domain.Transaction, expected domain.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $2, rejection_reason = $3, deletion_reason = $4, real_amount = $5, commission = $6,
		    validated_by = $7, executor_id = $8, receipt_ref = $9, execution_comment = $10,
		    last_updated_at = $11, last_updated_by = $12
		WHERE transaction_id = $1 AND status = $13;`
	tag, err := r.db(ctx).Exec(ctx, query,
		txn.TransactionID,
		txn.Status,
		txn.RejectionReason,
		txn.DeletionReason,
		nullDecimal(txn.RealAmount),
		nullDecimal(txn.Commission),
		txn.ValidatedBy,
		txn.ExecutorID,
		txn.ReceiptRef,
		txn.ExecutionComment,
		txn.LastUpdatedAt,
		txn.LastUpdatedBy,
		expected,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update transaction "+txn.TransactionID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current domain.TransactionStatus
	err = r.db(ctx).QueryRow(ctx, `SELECT status FROM transactions WHERE transaction_id = $1;`, txn.TransactionID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, txn.TransactionID)
	}
	if err != nil {
		return apperrors.NewAppError(500, "failed to read status of transaction "+txn.TransactionID, err)
	}
	return fmt.Errorf("%w: transaction %s is %s, expected %s", apperrors.ErrInvalidOperation, txn.TransactionID, current, expected)
}

func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var fb filterBuilder
	if filter.Status != "" {
		fb.add("status = ?", filter.Status)
	}
	if filter.Type != "" {
		fb.add("type = ?", filter.Type)
	}
	if filter.Agency != "" {
		fb.add("agency = ?", filter.Agency)
	}
	if filter.CreatedBy != "" {
		fb.add("created_by = ?", filter.CreatedBy)
	}
	if filter.From != nil {
		fb.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		fb.add("created_at < ?", *filter.To)
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions` + fb.where() +
		` ORDER BY created_at DESC, transaction_id DESC` + fb.page(filter.Limit, filter.Offset)

	rows, err := r.db(ctx).Query(ctx, query, fb.args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list transactions", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction", err)
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate transactions", err)
	}
	return txns, nil
}

func (r *PgxTransactionRepository) SumCompletedByCreator(ctx context.Context, creator string, from, to time.Time) ([]domain.CurrencyTotal, error) {
	query := `
		SELECT currency, SUM(amount), COUNT(*)
		FROM transactions
		WHERE created_by = $1 AND status = $2 AND type <> $3 AND created_at >= $4 AND created_at < $5
		GROUP BY currency
		ORDER BY currency;`
	rows, err := r.db(ctx).Query(ctx, query, creator, domain.StatusCompleted, domain.TxSettlement, from, to)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to total transactions of "+creator, err)
	}
	defer rows.Close()

	totals := []domain.CurrencyTotal{}
	for rows.Next() {
		var t domain.CurrencyTotal
		if err := rows.Scan(&t.Currency, &t.Amount, &t.Count); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan totals of "+creator, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate totals of "+creator, err)
	}
	return totals, nil
}
