package repositories

import (
	"context"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
)

// StaffReader defines read operations for back-office staff
type StaffReader interface {
	// FindStaffByID retrieves a staff member.
	FindStaffByID(ctx context.Context, userID string) (*domain.StaffMember, error)

	// FindAvailableExecutor returns the active executor with the fewest validated,
	// not yet executed transfers. Returns apperrors.ErrNotFound if there is none.
	FindAvailableExecutor(ctx context.Context) (*domain.StaffMember, error)
}
