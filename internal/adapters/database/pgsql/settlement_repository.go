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
	"github.com/shopspring/decimal"
)

const settlementColumns = `settlement_id, cashier_id, agency, business_date, total_amount, unloading_amount,
	final_amount, received_amount, currency, status, exception_reason, rejection_reason, validated_by,
	validated_at, created_at, created_by, last_updated_at, last_updated_by`

type PgxSettlementRepository struct {
	BaseRepository
}

// newPgxSettlementRepository creates a new repository for cash settlements.
func newPgxSettlementRepository(pool *pgxpool.Pool) *PgxSettlementRepository {
	return &PgxSettlementRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SettlementRepositoryFacade = (*PgxSettlementRepository)(nil)

func scanSettlement(row pgx.Row) (*domain.CashSettlement, error) {
	var (
		s        domain.CashSettlement
		received decimal.NullDecimal
	)
	err := row.Scan(
		&s.SettlementID,
		&s.CashierID,
		&s.Agency,
		&s.BusinessDate,
		&s.TotalAmount,
		&s.UnloadingAmount,
		&s.FinalAmount,
		&received,
		&s.Currency,
		&s.Status,
		&s.ExceptionReason,
		&s.RejectionReason,
		&s.ValidatedBy,
		&s.ValidatedAt,
		&s.CreatedAt,
		&s.CreatedBy,
		&s.LastUpdatedAt,
		&s.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	s.ReceivedAmount = decimalPtr(received)
	return &s, nil
}

func (r *PgxSettlementRepository) SaveSettlement(ctx context.Context, settlement domain.CashSettlement) error {
	query := `
		INSERT INTO cash_settlements (` + settlementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`
	_, err := r.db(ctx).Exec(ctx, query,
		settlement.SettlementID,
		settlement.CashierID,
		settlement.Agency,
		settlement.BusinessDate,
		settlement.TotalAmount,
		settlement.UnloadingAmount,
		settlement.FinalAmount,
		nullDecimal(settlement.ReceivedAmount),
		settlement.Currency,
		settlement.Status,
		settlement.ExceptionReason,
		settlement.RejectionReason,
		settlement.ValidatedBy,
		settlement.ValidatedAt,
		settlement.CreatedAt,
		settlement.CreatedBy,
		settlement.LastUpdatedAt,
		settlement.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: settlement for cashier %s on %s", apperrors.ErrDuplicate,
				settlement.CashierID, domain.BusinessDateString(settlement.BusinessDate))
		}
		return apperrors.NewAppError(500, "failed to save settlement "+settlement.SettlementID, err)
	}
	return nil
}

func (r *PgxSettlementRepository) find(ctx context.Context, settlementID string, forUpdate bool) (*domain.CashSettlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM cash_settlements WHERE settlement_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	settlement, err := scanSettlement(r.db(ctx).QueryRow(ctx, query, settlementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: settlement %s", apperrors.ErrNotFound, settlementID)
		}
		return nil, apperrors.NewAppError(500, "failed to find settlement "+settlementID, err)
	}
	return settlement, nil
}

func (r *PgxSettlementRepository) FindSettlementByID(ctx context.Context, settlementID string) (*domain.CashSettlement, error) {
	return r.find(ctx, settlementID, false)
}

func (r *PgxSettlementRepository) LockSettlement(ctx context.Context, settlementID string) (*domain.CashSettlement, error) {
	return r.find(ctx, settlementID, true)
}

func (r *PgxSettlementRepository) UpdateSettlement(ctx context.Context, settlement domain.CashSettlement, expected domain.SettlementStatus) error {
	query := `
		UPDATE cash_settlements
		SET unloading_amount = $2, final_amount = $3, received_amount = $4, status = $5, exception_reason = $6,
		    rejection_reason = $7, validated_by = $8, validated_at = $9, last_updated_at = $10, last_updated_by = $11
		WHERE settlement_id = $1 AND status = $12;`
	tag, err := r.db(ctx).Exec(ctx, query,
		settlement.SettlementID,
		settlement.UnloadingAmount,
		settlement.FinalAmount,
		nullDecimal(settlement.ReceivedAmount),
		settlement.Status,
		settlement.ExceptionReason,
		settlement.RejectionReason,
		settlement.ValidatedBy,
		settlement.ValidatedAt,
		settlement.LastUpdatedAt,
		settlement.LastUpdatedBy,
		expected,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update settlement "+settlement.SettlementID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: settlement %s is no longer %s", apperrors.ErrInvalidOperation, settlement.SettlementID, expected)
	}
	return nil
}

func (r *PgxSettlementRepository) SaveUnloading(ctx context.Context, unloading domain.SettlementUnloading) error {
	query := `
		INSERT INTO settlement_unloadings (unloading_id, settlement_id, amount, note, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);`
	_, err := r.db(ctx).Exec(ctx, query,
		unloading.UnloadingID,
		unloading.SettlementID,
		unloading.Amount,
		unloading.Note,
		unloading.Actor,
		unloading.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save unloading of settlement "+unloading.SettlementID, err)
	}
	return nil
}

func (r *PgxSettlementRepository) ListUnloadings(ctx context.Context, settlementID string) ([]domain.SettlementUnloading, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT unloading_id, settlement_id, amount, note, actor, created_at
		FROM settlement_unloadings WHERE settlement_id = $1 ORDER BY created_at, unloading_id;`, settlementID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list unloadings", err)
	}
	defer rows.Close()

	unloadings := []domain.SettlementUnloading{}
	for rows.Next() {
		var u domain.SettlementUnloading
		if err := rows.Scan(&u.UnloadingID, &u.SettlementID, &u.Amount, &u.Note, &u.Actor, &u.CreatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan unloading", err)
		}
		unloadings = append(unloadings, u)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to iterate unloadings", err)
	}
	return unloadings, nil
}
