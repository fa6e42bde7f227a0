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

const accountColumns = `kind, display_name, balance, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for the cash account ledger.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.CashAccountRepositoryFacade
var _ portsrepo.CashAccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (*domain.CashAccount, error) {
	var acc domain.CashAccount
	if err := row.Scan(&acc.Kind, &acc.DisplayName, &acc.Balance, &acc.LastUpdatedAt, &acc.LastUpdatedBy); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *PgxAccountRepository) FindAccount(ctx context.Context, kind domain.AccountKind) (*domain.CashAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM cash_accounts WHERE kind = $1;`
	acc, err := scanAccount(r.db(ctx).QueryRow(ctx, query, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, kind)
		}
		return nil, apperrors.NewAppError(500, "failed to find account "+string(kind), err)
	}
	return acc, nil
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.CashAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM cash_accounts ORDER BY position;`
	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list accounts", err)
	}
	defer rows.Close()

	accounts := make([]domain.CashAccount, 0, len(domain.AllAccountKinds))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate accounts", err)
	}
	return accounts, nil
}

func (r *PgxAccountRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.CashMovement, error) {
	var fb filterBuilder
	if filter.AccountKind != "" {
		fb.add("account_kind = ?", filter.AccountKind)
	}
	if filter.Kind != "" {
		fb.add("kind = ?", filter.Kind)
	}
	if filter.From != nil {
		fb.add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		fb.add("created_at < ?", *filter.To)
	}
	query := `SELECT movement_id, account_kind, kind, amount, description, reference, actor, created_at
		FROM cash_movements` + fb.where() + ` ORDER BY created_at DESC, movement_id` + fb.page(filter.Limit, filter.Offset)

	rows, err := r.db(ctx).Query(ctx, query, fb.args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list movements", err)
	}
	defer rows.Close()

	movements := []domain.CashMovement{}
	for rows.Next() {
		var m domain.CashMovement
		if err := rows.Scan(&m.MovementID, &m.AccountKind, &m.Kind, &m.Amount, &m.Description, &m.Reference, &m.Actor, &m.CreatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan movement", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate movements", err)
	}
	return movements, nil
}

// ApplyMovement updates the balance with a single conditional statement and appends the
// movement in the same transaction.
func (r *PgxAccountRepository) ApplyMovement(ctx context.Context, movement domain.CashMovement, requireFunds bool) (*domain.CashAccount, error) {
	var account *domain.CashAccount
	err := r.atomically(ctx, func(ctx context.Context) error {
		query := `
			UPDATE cash_accounts
			SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
			WHERE kind = $1 AND (NOT $5::boolean OR balance + $2 >= 0)
			RETURNING ` + accountColumns + `;`
		acc, err := scanAccount(r.db(ctx).QueryRow(ctx, query,
			movement.AccountKind, movement.Amount, movement.CreatedAt, movement.Actor, requireFunds))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.missingOrShort(ctx, movement.AccountKind)
			}
			return apperrors.NewAppError(500, "failed to update balance of "+string(movement.AccountKind), err)
		}

		insert := `
			INSERT INTO cash_movements (movement_id, account_kind, kind, amount, description, reference, actor, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
		if _, err := r.db(ctx).Exec(ctx, insert,
			movement.MovementID,
			movement.AccountKind,
			movement.Kind,
			movement.Amount,
			movement.Description,
			movement.Reference,
			movement.Actor,
			movement.CreatedAt,
		); err != nil {
			return apperrors.NewAppError(500, "failed to append movement "+movement.MovementID, err)
		}
		account = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// missingOrShort tells apart the two reasons a conditional balance update matches no row.
func (r *PgxAccountRepository) missingOrShort(ctx context.Context, kind domain.AccountKind) error {
	var exists bool
	if err := r.db(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cash_accounts WHERE kind = $1);`, kind).Scan(&exists); err != nil {
		return apperrors.NewAppError(500, "failed to check account "+string(kind), err)
	}
	if !exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, kind)
	}
	return apperrors.ErrInsufficientFunds
}

func (r *PgxAccountRepository) LockAccount(ctx context.Context, kind domain.AccountKind) (*domain.CashAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM cash_accounts WHERE kind = $1 FOR UPDATE;`
	acc, err := scanAccount(r.db(ctx).QueryRow(ctx, query, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, kind)
		}
		return nil, apperrors.NewAppError(500, "failed to lock account "+string(kind), err)
	}
	return acc, nil
}

func (r *PgxAccountRepository) SumMovements(ctx context.Context, kind domain.AccountKind, kinds []domain.MovementKind) (decimal.Decimal, error) {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM cash_movements
		WHERE account_kind = $1 AND (cardinality($2::text[]) = 0 OR kind = ANY($2::text[]));`
	var sum decimal.Decimal
	if err := r.db(ctx).QueryRow(ctx, query, kind, names).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum movements of "+string(kind), err)
	}
	return sum, nil
}

func (r *PgxAccountRepository) SetCachedBalance(ctx context.Context, kind domain.AccountKind, balance decimal.Decimal, actor string) error {
	query := `UPDATE cash_accounts SET balance = $2, last_updated_at = $3, last_updated_by = $4 WHERE kind = $1;`
	tag, err := r.db(ctx).Exec(ctx, query, kind, balance, time.Now().UTC(), actor)
	if err != nil {
		return apperrors.NewAppError(500, "failed to set balance of "+string(kind), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, kind)
	}
	return nil
}
