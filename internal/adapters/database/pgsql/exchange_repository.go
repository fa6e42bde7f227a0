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

const tillColumns = `currency, balance, last_acquisition_rate, last_adjustment_note, updated_by, updated_at`

type PgxExchangeRepository struct {
	BaseRepository
}

// newPgxExchangeRepository creates a new repository for the exchange desk.
func newPgxExchangeRepository(pool *pgxpool.Pool) *PgxExchangeRepository {
	return &PgxExchangeRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExchangeRepositoryFacade = (*PgxExchangeRepository)(nil)

func scanTill(row pgx.Row) (*domain.ExchangeTill, error) {
	var t domain.ExchangeTill
	if err := row.Scan(&t.Currency, &t.Balance, &t.LastAcquisitionRate, &t.LastAdjustmentNote, &t.UpdatedBy, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// EnsureTills creates an empty till for each currency that has none yet.
func (r *PgxExchangeRepository) EnsureTills(ctx context.Context, currencies []string, actor string) error {
	query := `
		INSERT INTO exchange_tills (currency, balance, updated_by, updated_at)
		SELECT c, 0, $2, $3 FROM unnest($1::text[]) AS c
		ON CONFLICT (currency) DO NOTHING;`
	if _, err := r.db(ctx).Exec(ctx, query, currencies, actor, time.Now().UTC()); err != nil {
		return apperrors.NewAppError(500, "failed to create tills", err)
	}
	return nil
}

func (r *PgxExchangeRepository) FindTill(ctx context.Context, currency string) (*domain.ExchangeTill, error) {
	till, err := scanTill(r.db(ctx).QueryRow(ctx, `SELECT `+tillColumns+` FROM exchange_tills WHERE currency = $1;`, currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no %s till", apperrors.ErrNotFound, currency)
		}
		return nil, apperrors.NewAppError(500, "failed to find till "+currency, err)
	}
	return till, nil
}

func (r *PgxExchangeRepository) ListTills(ctx context.Context) ([]domain.ExchangeTill, error) {
	rows, err := r.db(ctx).Query(ctx, `SELECT `+tillColumns+` FROM exchange_tills ORDER BY currency;`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list tills", err)
	}
	defer rows.Close()

	tills := []domain.ExchangeTill{}
	for rows.Next() {
		till, err := scanTill(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan till", err)
		}
		tills = append(tills, *till)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate tills", err)
	}
	return tills, nil
}

// ApplyTillChange applies the delta in one statement. A debit that must be covered only
// matches a row whose balance stays non-negative. Tills are never created here.
func (r *PgxExchangeRepository) ApplyTillChange(ctx context.Context, change portsrepo.TillChange) (*domain.ExchangeTill, error) {
	query := `
		UPDATE exchange_tills
		SET balance = balance + $2,
		    last_acquisition_rate = COALESCE($3::numeric, last_acquisition_rate),
		    last_adjustment_note = COALESCE($4::text, last_adjustment_note),
		    updated_by = $5, updated_at = $6
		WHERE currency = $1 AND (NOT $7 OR balance + $2 >= 0)
		RETURNING ` + tillColumns + `;`
	requireFunds := change.RequireFunds && change.Delta.IsNegative()
	row := r.db(ctx).QueryRow(ctx, query,
		change.Currency, change.Delta, change.AcquisitionRate, change.AdjustmentNote, change.Actor, time.Now().UTC(), requireFunds)

	till, err := scanTill(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.missingOrShort(ctx, change.Currency)
		}
		if isCheckViolation(err) {
			return nil, apperrors.ErrInsufficientFunds
		}
		return nil, apperrors.NewAppError(500, "failed to update till "+change.Currency, err)
	}
	return till, nil
}

// missingOrShort tells apart the two reasons a conditional till update matches no row.
func (r *PgxExchangeRepository) missingOrShort(ctx context.Context, currency string) error {
	var exists bool
	if err := r.db(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM exchange_tills WHERE currency = $1);`, currency).Scan(&exists); err != nil {
		return apperrors.NewAppError(500, "failed to check till "+currency, err)
	}
	if !exists {
		return fmt.Errorf("%w: no %s till", apperrors.ErrNotFound, currency)
	}
	return apperrors.ErrInsufficientFunds
}

func (r *PgxExchangeRepository) SaveOperation(ctx context.Context, op domain.ExchangeOperation) error {
	payload, err := domain.MarshalPayload(op.Payload)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode operation payload", err)
	}
	return r.atomically(ctx, func(ctx context.Context) error {
		insert := `
			INSERT INTO exchange_operations (operation_id, kind, payload, actor, created_at)
			VALUES ($1, $2, $3, $4, $5);`
		if _, err := r.db(ctx).Exec(ctx, insert, op.OperationID, op.Kind, payload, op.Actor, op.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: operation %s", apperrors.ErrDuplicate, op.OperationID)
			}
			return apperrors.NewAppError(500, "failed to insert operation "+op.OperationID, err)
		}

		batch := &pgx.Batch{}
		for i, leg := range op.Legs {
			batch.Queue(`INSERT INTO exchange_operation_legs (operation_id, position, currency, delta) VALUES ($1, $2, $3, $4);`,
				op.OperationID, i, leg.Currency, leg.Delta)
		}
		if batch.Len() == 0 {
			return nil
		}
		tx, ok := r.db(ctx).(pgx.Tx)
		if !ok {
			return apperrors.NewAppError(500, "operation legs written outside a transaction", nil)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return apperrors.NewAppError(500, "failed to insert legs of operation "+op.OperationID, err)
		}
		return nil
	})
}

func (r *PgxExchangeRepository) ListOperations(ctx context.Context, filter domain.OperationFilter) ([]domain.ExchangeOperation, error) {
	var fb filterBuilder
	if filter.Kind != "" {
		fb.add("o.kind = ?", filter.Kind)
	}
	if filter.Currency != "" {
		fb.add("EXISTS (SELECT 1 FROM exchange_operation_legs l WHERE l.operation_id = o.operation_id AND l.currency = ?)", filter.Currency)
	}
	if filter.From != nil {
		fb.add("o.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		fb.add("o.created_at < ?", *filter.To)
	}
	query := `SELECT o.operation_id, o.kind, o.payload, o.actor, o.created_at FROM exchange_operations o` +
		fb.where() + ` ORDER BY o.created_at DESC, o.operation_id` + fb.page(filter.Limit, filter.Offset)

	rows, err := r.db(ctx).Query(ctx, query, fb.args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list operations", err)
	}
	defer rows.Close()

	ops := []domain.ExchangeOperation{}
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		var (
			op  domain.ExchangeOperation
			raw []byte
		)
		if err := rows.Scan(&op.OperationID, &op.Kind, &raw, &op.Actor, &op.CreatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan operation", err)
		}
		if op.Payload, err = domain.UnmarshalPayload(op.Kind, raw); err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode payload of operation "+op.OperationID, err)
		}
		index[op.OperationID] = len(ops)
		ids = append(ids, op.OperationID)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate operations", err)
	}
	if len(ids) == 0 {
		return ops, nil
	}

	legRows, err := r.db(ctx).Query(ctx, `
		SELECT operation_id, currency, delta FROM exchange_operation_legs
		WHERE operation_id = ANY($1::uuid[]) ORDER BY operation_id, position;`, ids)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list operation legs", err)
	}
	defer legRows.Close()
	for legRows.Next() {
		var (
			id  string
			leg domain.TillLeg
		)
		if err := legRows.Scan(&id, &leg.Currency, &leg.Delta); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan operation leg", err)
		}
		i := index[id]
		ops[i].Legs = append(ops[i].Legs, leg)
	}
	if err := legRows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate operation legs", err)
	}
	return ops, nil
}

func (r *PgxExchangeRepository) LockTill(ctx context.Context, currency string) (*domain.ExchangeTill, error) {
	till, err := scanTill(r.db(ctx).QueryRow(ctx, `SELECT `+tillColumns+` FROM exchange_tills WHERE currency = $1 FOR UPDATE;`, currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no %s till", apperrors.ErrNotFound, currency)
		}
		return nil, apperrors.NewAppError(500, "failed to lock till "+currency, err)
	}
	return till, nil
}

func (r *PgxExchangeRepository) SumTillLegs(ctx context.Context, currency string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := r.db(ctx).QueryRow(ctx, `SELECT COALESCE(SUM(delta), 0) FROM exchange_operation_legs WHERE currency = $1;`, currency).Scan(&sum); err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum legs of "+currency, err)
	}
	return sum, nil
}

func (r *PgxExchangeRepository) SetTillBalance(ctx context.Context, currency string, balance decimal.Decimal, actor string) error {
	tag, err := r.db(ctx).Exec(ctx, `UPDATE exchange_tills SET balance = $2, updated_by = $3, updated_at = $4 WHERE currency = $1;`,
		currency, balance, actor, time.Now().UTC())
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: %s till cannot be set to %s", apperrors.ErrValidation, currency, balance.String())
		}
		return apperrors.NewAppError(500, "failed to set till "+currency, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no %s till", apperrors.ErrNotFound, currency)
	}
	return nil
}
