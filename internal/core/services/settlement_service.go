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
	"github.com/shopspring/decimal"
)

// DefaultSettlementTolerance absorbs rounding differences when counting the drawer.
var DefaultSettlementTolerance = decimal.RequireFromString("0.01")

// SettlementService runs the daily cash closeout of cashiers.
type SettlementService struct {
	BaseService
	settlementRepo portsrepo.SettlementRepositoryFacade
	txRepo         portsrepo.TransactionRepositoryFacade
	txManager      portsrepo.TransactionManager
	settings       portssvc.SettingsProvider
	dispatcher     *Dispatcher
	tolerance      decimal.Decimal
}

// SettlementOption configures a SettlementService.
type SettlementOption func(*SettlementService)

// WithSettlementTolerance overrides the accepted difference between received and final amounts.
func WithSettlementTolerance(tolerance decimal.Decimal) SettlementOption {
	return func(s *SettlementService) {
		s.tolerance = tolerance.Abs()
	}
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	settlementRepo portsrepo.SettlementRepositoryFacade,
	txRepo portsrepo.TransactionRepositoryFacade,
	txManager portsrepo.TransactionManager,
	settings portssvc.SettingsProvider,
	dispatcher *Dispatcher,
	options ...SettlementOption,
) *SettlementService {
	svc := &SettlementService{
		settlementRepo: settlementRepo,
		txRepo:         txRepo,
		txManager:      txManager,
		settings:       settings,
		dispatcher:     dispatcher,
		tolerance:      DefaultSettlementTolerance,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.SettlementSvcFacade = (*SettlementService)(nil)

func (s *SettlementService) publish(ctx context.Context, name domain.EventName, settlement domain.CashSettlement) {
	audience := []domain.Role{domain.RoleSupervisor}
	if settlement.Status != domain.SettlementPending {
		audience = []domain.Role{domain.RoleCashier, domain.RoleAccountant}
	}
	s.dispatcher.Publish(ctx, domain.Event{
		Name:     name,
		Audience: audience,
		Subject:  settlement.SettlementID,
		Payload: map[string]any{
			"cashierID":    settlement.CashierID,
			"businessDate": domain.BusinessDateString(settlement.BusinessDate),
			"status":       settlement.Status,
			"finalAmount":  settlement.FinalAmount.String(),
		},
	})
}

// CreateSettlement totals the completed transactions the cashier recorded on the business date.
func (s *SettlementService) CreateSettlement(ctx context.Context, actor domain.Actor, cashierID string, businessDate time.Time) (*domain.CashSettlement, error) {
	cashierID = strings.TrimSpace(cashierID)
	if cashierID == "" {
		return nil, validationError("cashier is required")
	}
	ownCloseout := actor.Role == domain.RoleCashier && actor.UserID == cashierID
	if !ownCloseout {
		if err := s.AuthorizeActor(ctx, actor, "create settlements", settlementClerks...); err != nil {
			return nil, err
		}
	}
	if businessDate.IsZero() {
		return nil, validationError("business date is required")
	}
	day := time.Date(businessDate.Year(), businessDate.Month(), businessDate.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(time.Now().UTC()) {
		return nil, validationError("business date cannot be in the future")
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load settings")
		return nil, fmt.Errorf("load settings: %w", err)
	}

	totals, err := s.txRepo.SumCompletedByCreator(ctx, cashierID, day, day.AddDate(0, 0, 1))
	if err != nil {
		s.LogError(ctx, err, "Failed to total cashier transactions", slog.String("cashier_id", cashierID))
		return nil, err
	}
	// foreign currency totals are brought to the local currency at today's rate
	total := decimal.Zero
	count := 0
	for _, t := range totals {
		local, ok := settings.ToLocal(t.Amount, t.Currency)
		if !ok {
			return nil, validationError("no rate configured for %s to settle %s", t.Currency, t.Amount.String())
		}
		total = total.Add(local)
		count += t.Count
	}

	now := time.Now().UTC()
	settlement := domain.CashSettlement{
		SettlementID:    uuid.NewString(),
		CashierID:       cashierID,
		Agency:          actor.Agency,
		BusinessDate:    day,
		TotalAmount:     total,
		UnloadingAmount: decimal.Zero,
		FinalAmount:     domain.SettlementFinal(total, decimal.Zero),
		Currency:        normalizeCurrency(settings.LocalCurrency),
		Status:          domain.SettlementPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := s.settlementRepo.SaveSettlement(ctx, settlement); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("settlement for %s on %s already exists: %w", cashierID, domain.BusinessDateString(day), err)
		}
		s.LogError(ctx, err, "Failed to save settlement", slog.String("cashier_id", cashierID))
		return nil, err
	}

	s.LogInfo(ctx, "Settlement created",
		slog.String("settlement_id", settlement.SettlementID),
		slog.String("cashier_id", cashierID),
		slog.Int("transactions", count),
		slog.String("total", total.String()))
	s.publish(ctx, domain.EventSettlementCreated, settlement)
	return &settlement, nil
}

func (s *SettlementService) GetSettlement(ctx context.Context, actor domain.Actor, settlementID string) (*domain.CashSettlement, []domain.SettlementUnloading, error) {
	settlement, err := s.load(ctx, settlementID)
	if err != nil {
		return nil, nil, err
	}
	if settlement.CashierID != actor.UserID {
		if err := s.AuthorizeActor(ctx, actor, "view settlements", settlementAudit...); err != nil {
			return nil, nil, err
		}
	}
	unloadings, err := s.settlementRepo.ListUnloadings(ctx, settlementID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list unloadings", slog.String("settlement_id", settlementID))
		return nil, nil, err
	}
	return settlement, unloadings, nil
}

func (s *SettlementService) load(ctx context.Context, settlementID string) (*domain.CashSettlement, error) {
	if strings.TrimSpace(settlementID) == "" {
		return nil, validationError("settlement id is required")
	}
	settlement, err := s.settlementRepo.FindSettlementByID(ctx, settlementID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find settlement", slog.String("settlement_id", settlementID))
		}
		return nil, err
	}
	return settlement, nil
}

func requirePending(settlement *domain.CashSettlement) error {
	if settlement.Status != domain.SettlementPending {
		return fmt.Errorf("%w: settlement %s is already %s", apperrors.ErrInvalidOperation, settlement.SettlementID, settlement.Status)
	}
	return nil
}

// AddUnloading deducts cash taken out of the drawer. Unloadings can never exceed the total.
func (s *SettlementService) AddUnloading(ctx context.Context, actor domain.Actor, settlementID string, amount decimal.Decimal, note string) (*domain.CashSettlement, error) {
	if err := s.AuthorizeActor(ctx, actor, "record unloadings", settlementClerks...); err != nil {
		return nil, err
	}
	if err := checkAmount("unloading amount", amount); err != nil {
		return nil, err
	}

	var result domain.CashSettlement
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		settlement, err := s.settlementRepo.LockSettlement(ctx, settlementID)
		if err != nil {
			return err
		}
		if err := requirePending(settlement); err != nil {
			return err
		}
		unloading := settlement.UnloadingAmount.Add(amount)
		if unloading.GreaterThan(settlement.TotalAmount) {
			return validationError("unloadings of %s would exceed the settlement total of %s", unloading.String(), settlement.TotalAmount.String())
		}

		now := time.Now().UTC()
		if err := s.settlementRepo.SaveUnloading(ctx, domain.SettlementUnloading{
			UnloadingID:  uuid.NewString(),
			SettlementID: settlement.SettlementID,
			Amount:       amount,
			Note:         strings.TrimSpace(note),
			Actor:        actor.UserID,
			CreatedAt:    now,
		}); err != nil {
			return err
		}

		result = *settlement
		result.UnloadingAmount = unloading
		result.FinalAmount = domain.SettlementFinal(result.TotalAmount, unloading)
		result.LastUpdatedAt = now
		result.LastUpdatedBy = actor.UserID
		return s.settlementRepo.UpdateSettlement(ctx, result, domain.SettlementPending)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrInvalidOperation) {
			s.LogError(ctx, err, "Failed to add unloading", slog.String("settlement_id", settlementID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Unloading recorded",
		slog.String("settlement_id", settlementID),
		slog.String("amount", amount.String()),
		slog.String("final", result.FinalAmount.String()))
	return &result, nil
}

// ValidateSettlement compares the counted cash with the final amount. A mismatch beyond
// the tolerance is only accepted, as an exception, when a reason is given.
func (s *SettlementService) ValidateSettlement(ctx context.Context, actor domain.Actor, settlementID string, received decimal.Decimal, exceptionReason string) (*domain.CashSettlement, error) {
	if err := s.AuthorizeActor(ctx, actor, "validate settlements", settlementClerks...); err != nil {
		return nil, err
	}
	if received.IsNegative() {
		return nil, validationError("received amount cannot be negative")
	}
	if err := checkScale("received amount", received); err != nil {
		return nil, err
	}
	exceptionReason = strings.TrimSpace(exceptionReason)

	settlement, err := s.load(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := requirePending(settlement); err != nil {
		return nil, err
	}

	outcome := domain.SettlementValidated
	if !domain.WithinTolerance(received, settlement.FinalAmount, s.tolerance) {
		if exceptionReason == "" {
			return nil, validationError("received %s does not match final amount %s; an exception reason is required",
				received.String(), settlement.FinalAmount.String())
		}
		outcome = domain.SettlementException
	}

	return s.close(ctx, actor, *settlement, outcome, func(c *domain.CashSettlement) {
		c.ReceivedAmount = &received
		if outcome == domain.SettlementException {
			c.ExceptionReason = exceptionReason
		}
	})
}

func (s *SettlementService) RejectSettlement(ctx context.Context, actor domain.Actor, settlementID string, reason string) (*domain.CashSettlement, error) {
	if err := s.AuthorizeActor(ctx, actor, "reject settlements", settlementClerks...); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("a rejection reason is required")
	}
	settlement, err := s.load(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if err := requirePending(settlement); err != nil {
		return nil, err
	}
	return s.close(ctx, actor, *settlement, domain.SettlementRejected, func(c *domain.CashSettlement) {
		c.RejectionReason = reason
	})
}

// close writes the final status and mirrors the settlement into the transaction log
// in the same database transaction.
func (s *SettlementService) close(ctx context.Context, actor domain.Actor, settlement domain.CashSettlement, outcome domain.SettlementStatus, apply func(*domain.CashSettlement)) (*domain.CashSettlement, error) {
	now := time.Now().UTC()
	closed := settlement
	closed.Status = outcome
	closed.ValidatedBy = actor.UserID
	closed.ValidatedAt = &now
	closed.LastUpdatedAt = now
	closed.LastUpdatedBy = actor.UserID
	apply(&closed)

	mirror, err := settlementTransaction(closed, actor, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to build settlement transaction")
		return nil, err
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.settlementRepo.UpdateSettlement(ctx, closed, domain.SettlementPending); err != nil {
			return err
		}
		return s.txRepo.SaveTransaction(ctx, mirror)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidOperation) {
			s.LogError(ctx, err, "Failed to close settlement", slog.String("settlement_id", settlement.SettlementID))
		}
		return nil, err
	}

	metrics.SettlementsClosed.WithLabelValues(string(outcome)).Inc()
	s.LogInfo(ctx, "Settlement closed",
		slog.String("settlement_id", closed.SettlementID),
		slog.String("outcome", string(outcome)),
		slog.String("transaction_id", mirror.TransactionID))
	s.publish(ctx, domain.EventSettlementClosed, closed)
	return &closed, nil
}

// settlementTransaction builds the settlement-typed transaction recorded for reporting.
// Exceptions are mirrored with the exception status so they stand out in listings.
func settlementTransaction(settlement domain.CashSettlement, actor domain.Actor, now time.Time) (domain.Transaction, error) {
	id, err := domain.NewTransactionID(domain.TxSettlement, now)
	if err != nil {
		return domain.Transaction{}, err
	}
	status := domain.StatusCompleted
	amount := settlement.FinalAmount
	switch settlement.Status {
	case domain.SettlementException:
		status = domain.StatusException
		amount = *settlement.ReceivedAmount
	case domain.SettlementValidated:
		amount = *settlement.ReceivedAmount
	}
	txn := domain.Transaction{
		TransactionID: id,
		Type:          domain.TxSettlement,
		Status:        status,
		Description: fmt.Sprintf("cash settlement of %s for %s",
			settlement.CashierID, domain.BusinessDateString(settlement.BusinessDate)),
		Amount:   amount,
		Currency: settlement.Currency,
		Agency:   settlement.Agency,
		Details: domain.SettlementDetails{
			SettlementID: settlement.SettlementID,
			CashierID:    settlement.CashierID,
			BusinessDate: domain.BusinessDateString(settlement.BusinessDate),
			Outcome:      settlement.Status,
		},
		ValidatedBy: actor.UserID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if settlement.Status == domain.SettlementRejected {
		txn.RejectionReason = settlement.RejectionReason
	}
	return txn, nil
}
