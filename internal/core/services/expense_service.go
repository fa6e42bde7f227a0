package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/platform/metrics"
	"github.com/google/uuid"
)

// ExpenseService runs the two-stage expense approval pipeline.
type ExpenseService struct {
	BaseService
	expenseRepo portsrepo.ExpenseRepositoryFacade
	txManager   portsrepo.TransactionManager
	ledger      *LedgerService
	dispatcher  *Dispatcher
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(
	expenseRepo portsrepo.ExpenseRepositoryFacade,
	txManager portsrepo.TransactionManager,
	ledger *LedgerService,
	dispatcher *Dispatcher,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo: expenseRepo,
		txManager:   txManager,
		ledger:      ledger,
		dispatcher:  dispatcher,
	}
}

var _ portssvc.ExpenseSvcFacade = (*ExpenseService)(nil)

func (s *ExpenseService) publish(ctx context.Context, name domain.EventName, expense domain.Expense) {
	audience := []domain.Role{domain.RoleAccountant}
	switch expense.Status {
	case domain.ExpenseAccountingApproved:
		audience = []domain.Role{domain.RoleDirector}
	case domain.ExpenseAccountingRejected, domain.ExpenseDirectorApproved, domain.ExpenseDirectorRejected:
		audience = []domain.Role{domain.RoleAccountant, domain.RoleAgent}
	}
	s.dispatcher.Publish(ctx, domain.Event{
		Name:     name,
		Audience: audience,
		Subject:  expense.ExpenseID,
		Payload: map[string]any{
			"status":      expense.Status,
			"amount":      expense.Amount.String(),
			"category":    expense.Category,
			"requestedBy": expense.RequestedBy,
			"agency":      expense.Agency,
		},
	})
}

func (s *ExpenseService) SubmitExpense(ctx context.Context, actor domain.Actor, in portssvc.SubmitExpenseInput) (*domain.Expense, error) {
	if err := s.AuthorizeActor(ctx, actor, "submit expenses", allRoles...); err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return nil, validationError("description is required")
	}
	if err := checkAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	cashierID := strings.TrimSpace(in.SurplusCashierID)
	if in.DeductFromSurplus && cashierID == "" {
		return nil, validationError("a cashier is required when deducting from the surplus pool")
	}
	if !in.DeductFromSurplus {
		cashierID = ""
	}

	now := time.Now().UTC()
	expense := domain.Expense{
		ExpenseID:         uuid.NewString(),
		Description:       description,
		Amount:            in.Amount,
		Category:          strings.TrimSpace(in.Category),
		Status:            domain.ExpensePending,
		RequestedBy:       actor.UserID,
		Agency:            actor.Agency,
		DeductFromSurplus: in.DeductFromSurplus,
		SurplusCashierID:  cashierID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		s.LogError(ctx, err, "Failed to save expense", slog.String("expense_id", expense.ExpenseID))
		return nil, err
	}

	metrics.ExpenseTransitions.WithLabelValues(string(expense.Status)).Inc()
	s.LogInfo(ctx, "Expense submitted",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("amount", expense.Amount.String()))
	s.publish(ctx, domain.EventExpenseSubmitted, expense)
	return &expense, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, actor domain.Actor, expenseID string) (*domain.Expense, error) {
	if err := s.AuthorizeActor(ctx, actor, "view expenses", allRoles...); err != nil {
		return nil, err
	}
	expense, err := s.load(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(expenseReviewers...) && expense.RequestedBy != actor.UserID {
		return nil, fmt.Errorf("%w: expense %s belongs to another user", apperrors.ErrForbidden, expenseID)
	}
	return expense, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, actor domain.Actor, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	if err := s.AuthorizeActor(ctx, actor, "list expenses", expenseReviewers...); err != nil {
		return nil, err
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	expenses, err := s.expenseRepo.ListExpenses(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list expenses")
		return nil, err
	}
	return expenses, nil
}

func (s *ExpenseService) load(ctx context.Context, expenseID string) (*domain.Expense, error) {
	if strings.TrimSpace(expenseID) == "" {
		return nil, validationError("expense id is required")
	}
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find expense", slog.String("expense_id", expenseID))
		}
		return nil, err
	}
	return expense, nil
}

// ApproveExpenseByControl is the accounting stage.
func (s *ExpenseService) ApproveExpenseByControl(ctx context.Context, actor domain.Actor, expenseID string, decision portssvc.ExpenseDecision) (*domain.Expense, error) {
	to := domain.ExpenseAccountingApproved
	if !decision.Approve {
		to = domain.ExpenseAccountingRejected
	}
	return s.decide(ctx, actor, expenseID, domain.ExpensePending, to, decision.Reason)
}

// ApproveExpenseByExecutive is the director stage. Approval debits the expense from its
// account in the same database transaction as the stage update.
func (s *ExpenseService) ApproveExpenseByExecutive(ctx context.Context, actor domain.Actor, expenseID string, decision portssvc.ExpenseDecision) (*domain.Expense, error) {
	to := domain.ExpenseDirectorApproved
	if !decision.Approve {
		to = domain.ExpenseDirectorRejected
	}
	return s.decide(ctx, actor, expenseID, domain.ExpenseAccountingApproved, to, decision.Reason)
}

func (s *ExpenseService) decide(ctx context.Context, actor domain.Actor, expenseID string, from, to domain.ExpenseStatus, reason string) (*domain.Expense, error) {
	reason = strings.TrimSpace(reason)
	rejecting := to == domain.ExpenseAccountingRejected || to == domain.ExpenseDirectorRejected
	if rejecting && reason == "" {
		return nil, validationError("a rejection reason is required")
	}

	expense, err := s.load(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Status != from {
		return nil, fmt.Errorf("%w: expense %s is %s, expected %s", apperrors.ErrInvalidOperation, expense.ExpenseID, expense.Status, from)
	}
	if err := domain.CheckExpenseTransition(from, to, actor.Role); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated := *expense
	updated.Status = to
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = actor.UserID
	if from == domain.ExpensePending {
		updated.ControlApprover = actor.UserID
		updated.ControlAt = &now
	} else {
		updated.ExecutiveApprover = actor.UserID
		updated.ExecutiveAt = &now
	}
	if rejecting {
		updated.RejectionReason = reason
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.expenseRepo.UpdateExpenseStage(ctx, updated, from); err != nil {
			return err
		}
		if to != domain.ExpenseDirectorApproved {
			return nil
		}
		reference := updated.ExpenseID
		if updated.DeductFromSurplus {
			reference = updated.SurplusCashierID
		}
		_, err := s.ledger.chargeExpense(ctx, actor.UserID, portssvc.LedgerEntry{
			Kind:      updated.DebitAccount(),
			Amount:    updated.Amount,
			Note:      fmt.Sprintf("expense %s: %s", updated.ExpenseID, updated.Description),
			Reference: reference,
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidOperation) && !errors.Is(err, apperrors.ErrInsufficientFunds) {
			s.LogError(ctx, err, "Failed to update expense stage",
				slog.String("expense_id", expenseID),
				slog.String("to", string(to)))
		}
		return nil, err
	}

	metrics.ExpenseTransitions.WithLabelValues(string(to)).Inc()
	s.LogInfo(ctx, "Expense stage changed",
		slog.String("expense_id", updated.ExpenseID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("user_id", actor.UserID))
	s.publish(ctx, domain.EventExpenseStageChanged, updated)
	return &updated, nil
}
