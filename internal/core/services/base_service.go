package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/SscSPs/cashdesk_backoffice/internal/middleware"
)

// Role groups used by the services when gating operations.
var (
	allRoles = []domain.Role{
		domain.RoleAgent, domain.RoleCashier, domain.RoleSupervisor, domain.RoleAuditor,
		domain.RoleExecutor, domain.RoleAccountant, domain.RoleDirector, domain.RoleAdmin,
	}
	ledgerViewers    = []domain.Role{domain.RoleCashier, domain.RoleSupervisor, domain.RoleAuditor, domain.RoleAccountant, domain.RoleDirector, domain.RoleAdmin}
	ledgerOperators  = []domain.Role{domain.RoleAccountant, domain.RoleDirector, domain.RoleAdmin}
	balanceSetters   = []domain.Role{domain.RoleDirector, domain.RoleAdmin}
	reconcilers      = []domain.Role{domain.RoleAuditor, domain.RoleAccountant, domain.RoleAdmin}
	exchangeViewers  = ledgerViewers
	exchangeOperator = []domain.Role{domain.RoleCashier, domain.RoleSupervisor, domain.RoleAdmin}
	tillAdjusters    = []domain.Role{domain.RoleSupervisor, domain.RoleAdmin}
	txCreators       = []domain.Role{domain.RoleAgent, domain.RoleCashier, domain.RoleSupervisor, domain.RoleAdmin}
	txOversight      = []domain.Role{domain.RoleSupervisor, domain.RoleAuditor, domain.RoleExecutor, domain.RoleAccountant, domain.RoleDirector, domain.RoleAdmin}
	expenseReviewers = []domain.Role{domain.RoleAccountant, domain.RoleDirector, domain.RoleAdmin}
	settlementClerks = []domain.Role{domain.RoleSupervisor, domain.RoleAdmin}
	settlementAudit  = []domain.Role{domain.RoleSupervisor, domain.RoleAuditor, domain.RoleAccountant, domain.RoleDirector, domain.RoleAdmin}
)

// BaseService provides common functionality for all services
type BaseService struct{}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// AuthorizeActor checks that the actor holds one of the roles allowed to perform action.
func (s *BaseService) AuthorizeActor(ctx context.Context, actor domain.Actor, action string, roles ...domain.Role) error {
	if actor.UserID == "" {
		err := fmt.Errorf("%w: %s requires an authenticated actor", apperrors.ErrForbidden, action)
		s.LogError(ctx, err, "Missing actor")
		return err
	}
	if !actor.HasRole(roles...) {
		err := fmt.Errorf("%w: role %s may not %s", apperrors.ErrForbidden, actor.Role, action)
		s.LogError(ctx, err, "Actor not authorized",
			slog.String("user_id", actor.UserID),
			slog.String("role", string(actor.Role)),
			slog.String("action", action))
		return err
	}
	return nil
}

// validationError wraps apperrors.ErrValidation with a message.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}
