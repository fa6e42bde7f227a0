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

const staffColumns = `s.user_id, s.name, s.role, s.agency, s.is_active, s.created_at, s.created_by, s.last_updated_at, s.last_updated_by`

type PgxStaffRepository struct {
	BaseRepository
}

// newPgxStaffRepository creates a new repository for back-office staff.
func newPgxStaffRepository(pool *pgxpool.Pool) *PgxStaffRepository {
	return &PgxStaffRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.StaffReader = (*PgxStaffRepository)(nil)

func scanStaff(row pgx.Row) (*domain.StaffMember, error) {
	var s domain.StaffMember
	err := row.Scan(&s.UserID, &s.Name, &s.Role, &s.Agency, &s.IsActive, &s.CreatedAt, &s.CreatedBy, &s.LastUpdatedAt, &s.LastUpdatedBy)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveStaff inserts a staff member or updates the existing one.
func (r *PgxStaffRepository) SaveStaff(ctx context.Context, member domain.StaffMember) error {
	query := `
		INSERT INTO staff (user_id, name, role, agency, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, role = EXCLUDED.role, agency = EXCLUDED.agency, is_active = EXCLUDED.is_active,
		    last_updated_at = EXCLUDED.last_updated_at, last_updated_by = EXCLUDED.last_updated_by;`
	_, err := r.db(ctx).Exec(ctx, query,
		member.UserID,
		member.Name,
		member.Role,
		member.Agency,
		member.IsActive,
		member.CreatedAt,
		member.CreatedBy,
		member.LastUpdatedAt,
		member.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save staff member "+member.UserID, err)
	}
	return nil
}

func (r *PgxStaffRepository) FindStaffByID(ctx context.Context, userID string) (*domain.StaffMember, error) {
	member, err := scanStaff(r.db(ctx).QueryRow(ctx, `SELECT `+staffColumns+` FROM staff s WHERE s.user_id = $1;`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: staff member %s", apperrors.ErrNotFound, userID)
		}
		return nil, apperrors.NewAppError(500, "failed to find staff member "+userID, err)
	}
	return member, nil
}

// FindAvailableExecutor picks the active executor with the fewest validated transfers
// waiting on them. Ties go to the lowest user id.
func (r *PgxStaffRepository) FindAvailableExecutor(ctx context.Context) (*domain.StaffMember, error) {
	query := `
		SELECT ` + staffColumns + `
		FROM staff s
		LEFT JOIN transactions t ON t.executor_id = s.user_id AND t.status = $2
		WHERE s.role = $1 AND s.is_active
		GROUP BY s.user_id
		ORDER BY COUNT(t.transaction_id), s.user_id
		LIMIT 1;`
	member, err := scanStaff(r.db(ctx).QueryRow(ctx, query, domain.RoleExecutor, domain.StatusValidated))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: no active executor", apperrors.ErrNotFound)
		}
		return nil, apperrors.NewAppError(500, "failed to find an executor", err)
	}
	return member, nil
}
