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
	"github.com/shopspring/decimal"
)

var (
	transferValidators = []domain.Role{domain.RoleAuditor, domain.RoleAdmin}
	auditorRoles       = []domain.Role{domain.RoleAuditor, domain.RoleAdmin}
	// selfScopedRoles only ever see the transactions they created.
	selfScopedRoles = []domain.Role{domain.RoleAgent, domain.RoleCashier}
)

// TransactionService drives transactions through the approval workflow.
type TransactionService struct {
	BaseService
	txRepo     portsrepo.TransactionRepositoryFacade
	staffRepo  portsrepo.StaffReader
	txManager  portsrepo.TransactionManager
	ledger     *LedgerService
	settings   portssvc.SettingsProvider
	dispatcher *Dispatcher
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(
	txRepo portsrepo.TransactionRepositoryFacade,
	staffRepo portsrepo.StaffReader,
	txManager portsrepo.TransactionManager,
	ledger *LedgerService,
	settings portssvc.SettingsProvider,
	dispatcher *Dispatcher,
) *TransactionService {
	return &TransactionService{
		txRepo:     txRepo,
		staffRepo:  staffRepo,
		txManager:  txManager,
		ledger:     ledger,
		settings:   settings,
		dispatcher: dispatcher,
	}
}

var _ portssvc.TransactionSvcFacade = (*TransactionService)(nil)

// eventForTransition names the notification fired when a transaction reaches to.
func eventForTransition(from, to domain.TransactionStatus) domain.EventName {
	switch to {
	case domain.StatusValidated:
		return domain.EventTransactionValidated
	case domain.StatusExecuted:
		return domain.EventTransactionExecuted
	case domain.StatusCompleted:
		return domain.EventTransactionCompleted
	case domain.StatusPendingDelete:
		return domain.EventDeletionRequested
	case domain.StatusRejected:
		if from == domain.StatusPendingDelete {
			return domain.EventDeletionApproved
		}
		return domain.EventTransactionRejected
	}
	return domain.EventTransactionCreated
}

// audienceFor returns the roles expected to act on, or be told about, a transaction
// in its current status.
func audienceFor(txn domain.Transaction) []domain.Role {
	switch txn.Status {
	case domain.StatusPending:
		if txn.Type == domain.TxTransfer {
			return []domain.Role{domain.RoleAuditor}
		}
		return []domain.Role{domain.RoleSupervisor}
	case domain.StatusValidated:
		return []domain.Role{domain.RoleExecutor}
	case domain.StatusExecuted:
		return []domain.Role{domain.RoleAuditor, domain.RoleAgent}
	case domain.StatusPendingDelete:
		return []domain.Role{domain.RoleSupervisor, domain.RoleAdmin}
	}
	return []domain.Role{domain.RoleAgent, domain.RoleSupervisor}
}

func (s *TransactionService) publish(ctx context.Context, name domain.EventName, txn domain.Transaction) {
	s.dispatcher.Publish(ctx, domain.Event{
		Name:     name,
		Audience: audienceFor(txn),
		Subject:  txn.TransactionID,
		Payload: map[string]any{
			"type":      txn.Type,
			"status":    txn.Status,
			"amount":    txn.Amount.String(),
			"currency":  txn.Currency,
			"agency":    txn.Agency,
			"createdBy": txn.CreatedBy,
			"executor":  txn.ExecutorID,
		},
	})
}

func (s *TransactionService) load(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if strings.TrimSpace(transactionID) == "" {
		return nil, validationError("transaction id is required")
	}
	txn, err := s.txRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transaction", slog.String("transaction_id", transactionID))
		}
		return nil, err
	}
	return txn, nil
}

// advance moves a loaded transaction to a new status. prepare edits the workflow fields
// before the write; within runs in the same database transaction as the conditional update.
func (s *TransactionService) advance(
	ctx context.Context,
	actor domain.Actor,
	txn *domain.Transaction,
	to domain.TransactionStatus,
	prepare func(txn *domain.Transaction) error,
	within func(ctx context.Context, txn *domain.Transaction) error,
) (*domain.Transaction, error) {
	from := txn.Status
	if err := domain.CheckTransactionTransition(txn.Type, from, to, actor.Role); err != nil {
		s.LogDebug(ctx, "Transition refused",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
			slog.String("error", err.Error()))
		return nil, err
	}

	updated := *txn
	updated.Status = to
	updated.LastUpdatedAt = time.Now().UTC()
	updated.LastUpdatedBy = actor.UserID
	if prepare != nil {
		if err := prepare(&updated); err != nil {
			return nil, err
		}
	}

	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.txRepo.UpdateTransactionState(ctx, updated, from); err != nil {
			return err
		}
		if within != nil {
			return within(ctx, &updated)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidOperation) {
			s.LogError(ctx, err, "Failed to advance transaction",
				slog.String("transaction_id", txn.TransactionID),
				slog.String("to", string(to)))
		}
		return nil, err
	}

	metrics.TransactionTransitions.WithLabelValues(string(updated.Type), string(to)).Inc()
	s.LogInfo(ctx, "Transaction advanced",
		slog.String("transaction_id", updated.TransactionID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("user_id", actor.UserID))
	s.publish(ctx, eventForTransition(from, to), updated)
	return &updated, nil
}

// reverseCommission withdraws what the transaction earlier posted to a commission pool.
func (s *TransactionService) reverseCommission(ctx context.Context, actorID string, txn *domain.Transaction, note string) error {
	var (
		pool   domain.AccountKind
		amount decimal.Decimal
	)
	switch txn.Type {
	case domain.TxTransfer:
		if txn.Commission == nil {
			return nil
		}
		pool, amount = domain.AccountTransferCommissionPool, *txn.Commission
	case domain.TxReceipt:
		details, ok := txn.Details.(domain.ReceiptDetails)
		if !ok {
			return nil
		}
		pool, amount = domain.AccountReceiptCommissionPool, details.Fee
	default:
		return nil
	}
	if !amount.IsPositive() {
		return nil
	}
	_, err := s.ledger.post(ctx, actorID, pool, domain.MovementWithdrawal, amount.Neg(), note, txn.TransactionID, false)
	return err
}

func (s *TransactionService) GetTransaction(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error) {
	if err := s.AuthorizeActor(ctx, actor, "view transactions", allRoles...); err != nil {
		return nil, err
	}
	txn, err := s.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if actor.HasRole(selfScopedRoles...) && txn.CreatedBy != actor.UserID {
		return nil, fmt.Errorf("%w: transaction %s belongs to another user", apperrors.ErrForbidden, transactionID)
	}
	return txn, nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, actor domain.Actor, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if err := s.AuthorizeActor(ctx, actor, "view transactions", allRoles...); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("unknown status %q", filter.Status)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, validationError("unknown transaction type %q", filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, validationError("range end is before range start")
	}
	if actor.HasRole(selfScopedRoles...) {
		filter.CreatedBy = actor.UserID
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	txns, err := s.txRepo.ListTransactions(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions")
		return nil, err
	}
	return txns, nil
}

func validateDetails(t domain.TransactionType, details domain.TransactionDetails) error {
	if err := domain.CheckDetails(t, details); err != nil {
		return validationError("%s", err.Error())
	}
	switch d := details.(type) {
	case domain.TransferDetails:
		if strings.TrimSpace(d.Beneficiary) == "" || strings.TrimSpace(d.Destination) == "" {
			return validationError("transfer beneficiary and destination are required")
		}
		if normalizeCurrency(d.SettlementCurrency) == "" {
			return validationError("transfer settlement currency is required")
		}
	case domain.ReceiptDetails:
		if d.Fee.IsNegative() {
			return validationError("receipt fee cannot be negative")
		}
		if err := checkScale("receipt fee", d.Fee); err != nil {
			return err
		}
	case domain.CardDetails:
		if d.Fee.IsNegative() {
			return validationError("card fee cannot be negative")
		}
	case domain.ExchangeDetails:
		if d.Rate.IsNegative() || d.CounterAmount.IsNegative() {
			return validationError("exchange rate and counter amount cannot be negative")
		}
	}
	return nil
}

// CreateTransaction records a transaction in its initial status. A receipt is completed
// at once and its fee is credited to the receipt commission pool in the same write.
func (s *TransactionService) CreateTransaction(ctx context.Context, actor domain.Actor, in portssvc.CreateTransactionInput) (*domain.Transaction, error) {
	if err := s.AuthorizeActor(ctx, actor, "create transactions", txCreators...); err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, validationError("unknown transaction type %q", in.Type)
	}
	if in.Type == domain.TxSettlement {
		return nil, fmt.Errorf("%w: settlement transactions are recorded by the settlement closeout", apperrors.ErrInvalidOperation)
	}
	if err := checkAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	currency := normalizeCurrency(in.Currency)
	if currency == "" {
		return nil, validationError("currency is required")
	}
	if err := validateDetails(in.Type, in.Details); err != nil {
		return nil, err
	}
	if d, ok := in.Details.(domain.TransferDetails); ok {
		d.SettlementCurrency = normalizeCurrency(d.SettlementCurrency)
		in.Details = d
	}

	now := time.Now().UTC()
	id, err := domain.NewTransactionID(in.Type, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate transaction id")
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInternal, err)
	}
	txn := domain.Transaction{
		TransactionID: id,
		Type:          in.Type,
		Status:        domain.InitialStatus(in.Type),
		Description:   strings.TrimSpace(in.Description),
		Amount:        in.Amount,
		Currency:      currency,
		Agency:        actor.Agency,
		Details:       in.Details,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.txRepo.SaveTransaction(ctx, txn); err != nil {
			return err
		}
		if d, ok := txn.Details.(domain.ReceiptDetails); ok && d.Fee.IsPositive() {
			_, err := s.ledger.postCommission(ctx, actor.UserID, portssvc.LedgerEntry{
				Kind:      domain.AccountReceiptCommissionPool,
				Amount:    d.Fee,
				Note:      "receipt fee",
				Reference: txn.TransactionID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to create transaction",
			slog.String("transaction_id", txn.TransactionID),
			slog.String("type", string(txn.Type)))
		return nil, err
	}

	metrics.TransactionTransitions.WithLabelValues(string(txn.Type), string(txn.Status)).Inc()
	s.LogInfo(ctx, "Transaction created",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("type", string(txn.Type)),
		slog.String("status", string(txn.Status)))
	s.publish(ctx, domain.EventTransactionCreated, txn)
	return &txn, nil
}

// UpdateTransactionStatus routes a requested status to the matching workflow operation.
// Validation and execution need their own inputs and cannot be reached from here.
func (s *TransactionService) UpdateTransactionStatus(ctx context.Context, actor domain.Actor, transactionID string, status domain.TransactionStatus, reason string) (*domain.Transaction, error) {
	if !status.Valid() {
		return nil, validationError("unknown status %q", status)
	}
	switch status {
	case domain.StatusCompleted:
		return s.CompleteTransaction(ctx, actor, transactionID)
	case domain.StatusPendingDelete:
		return s.RequestDeletion(ctx, actor, transactionID, reason)
	case domain.StatusRejected:
		txn, err := s.load(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if txn.Status == domain.StatusPendingDelete {
			return s.ValidateDeletion(ctx, actor, transactionID)
		}
		return s.RejectTransaction(ctx, actor, transactionID, reason)
	case domain.StatusValidated:
		return nil, fmt.Errorf("%w: transfers are validated with their real amount", apperrors.ErrInvalidOperation)
	case domain.StatusExecuted:
		return nil, fmt.Errorf("%w: execution requires a receipt reference", apperrors.ErrInvalidOperation)
	}
	return nil, fmt.Errorf("%w: no transition leads to %s", apperrors.ErrInvalidOperation, status)
}

// ValidateTransferRealAmount prices the payout abroad and decides the transfer. An accepted
// transfer posts its commission to the transfer commission pool and is handed to the
// least loaded executor; a refused one is rejected with the shortfall as reason.
func (s *TransactionService) ValidateTransferRealAmount(ctx context.Context, actor domain.Actor, transactionID string, realAmount decimal.Decimal) (*domain.Transaction, error) {
	if err := s.AuthorizeActor(ctx, actor, "validate transfers", transferValidators...); err != nil {
		return nil, err
	}
	if err := checkAmount("real amount", realAmount); err != nil {
		return nil, err
	}
	txn, err := s.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != domain.TxTransfer {
		return nil, fmt.Errorf("%w: only transfers are validated with a real amount", apperrors.ErrInvalidOperation)
	}
	if txn.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: transfer %s is %s, not pending", apperrors.ErrInvalidOperation, txn.TransactionID, txn.Status)
	}
	details, ok := txn.Details.(domain.TransferDetails)
	if !ok {
		return nil, fmt.Errorf("%w: transfer %s has no transfer details", apperrors.ErrInternal, txn.TransactionID)
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load settings")
		return nil, fmt.Errorf("load settings: %w", err)
	}
	fxRate, ok := settings.Rate(details.SettlementCurrency)
	if !ok {
		return nil, validationError("no rate configured for %s", details.SettlementCurrency)
	}

	receivedLocal, ok := settings.ToLocal(txn.Amount, txn.Currency)
	if !ok {
		return nil, validationError("no rate configured for %s", txn.Currency)
	}

	commission := domain.TransferCommission(receivedLocal, realAmount, fxRate)
	accepted := domain.TransferCommissionAccepted(commission, settings.MinimumCommission)

	prepare := func(t *domain.Transaction) error {
		t.RealAmount = &realAmount
		t.Commission = &commission
		t.ValidatedBy = actor.UserID
		return nil
	}

	if !accepted {
		reason := fmt.Sprintf("commission %s %s does not exceed the minimum of %s (real amount %s %s at %s)",
			commission.String(), txn.Currency, settings.MinimumCommission.String(),
			realAmount.String(), details.SettlementCurrency, fxRate.String())
		return s.advance(ctx, actor, txn, domain.StatusRejected, func(t *domain.Transaction) error {
			t.RejectionReason = reason
			return prepare(t)
		}, nil)
	}

	executorID := ""
	executor, err := s.staffRepo.FindAvailableExecutor(ctx)
	switch {
	case err == nil:
		executorID = executor.UserID
	case errors.Is(err, apperrors.ErrNotFound):
		s.LogInfo(ctx, "No executor available, transfer left unassigned", slog.String("transaction_id", txn.TransactionID))
	default:
		s.LogError(ctx, err, "Failed to find an executor")
		return nil, err
	}

	return s.advance(ctx, actor, txn, domain.StatusValidated,
		func(t *domain.Transaction) error {
			t.ExecutorID = executorID
			return prepare(t)
		},
		func(ctx context.Context, t *domain.Transaction) error {
			_, err := s.ledger.postCommission(ctx, actor.UserID, portssvc.LedgerEntry{
				Kind:      domain.AccountTransferCommissionPool,
				Amount:    commission,
				Note:      fmt.Sprintf("transfer commission, real amount %s %s", realAmount.String(), details.SettlementCurrency),
				Reference: t.TransactionID,
			})
			return err
		})
}

// ExecuteTransaction attaches the payout receipt. The assigned executor, any executor
// when none is assigned, or an auditor acting on their behalf may execute.
func (s *TransactionService) ExecuteTransaction(ctx context.Context, actor domain.Actor, transactionID string, in portssvc.ExecuteInput) (*domain.Transaction, error) {
	if in.AsAuditor {
		if err := s.AuthorizeActor(ctx, actor, "execute transfers as auditor", auditorRoles...); err != nil {
			return nil, err
		}
	}
	receiptRef := strings.TrimSpace(in.ReceiptRef)
	if receiptRef == "" {
		return nil, validationError("a receipt reference is required")
	}
	txn, err := s.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type != domain.TxTransfer {
		return nil, fmt.Errorf("%w: only transfers are executed", apperrors.ErrInvalidOperation)
	}
	if txn.Status != domain.StatusValidated {
		return nil, fmt.Errorf("%w: transfer %s is %s, not validated", apperrors.ErrInvalidOperation, txn.TransactionID, txn.Status)
	}
	if !in.AsAuditor && txn.ExecutorID != "" && txn.ExecutorID != actor.UserID {
		return nil, fmt.Errorf("%w: transfer %s is assigned to another executor", apperrors.ErrForbidden, txn.TransactionID)
	}

	return s.advance(ctx, actor, txn, domain.StatusExecuted, func(t *domain.Transaction) error {
		if t.ExecutorID == "" {
			t.ExecutorID = actor.UserID
		}
		t.ReceiptRef = receiptRef
		t.ExecutionComment = strings.TrimSpace(in.Comment)
		return nil
	}, nil)
}

func (s *TransactionService) CompleteTransaction(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error) {
	txn, err := s.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, actor, txn, domain.StatusCompleted, nil, nil)
}

// RejectTransaction rejects a pending or validated transaction. Rejecting a validated
// transfer takes back the commission it posted.
func (s *TransactionService) RejectTransaction(ctx context.Context, actor domain.Actor, transactionID string, reason string) (*domain.Transaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("a rejection reason is required")
	}
	txn, err := s.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status == domain.StatusPendingDelete {
		return nil, fmt.Errorf("%w: deletion requests are settled through deletion approval", apperrors.ErrInvalidOperation)
	}

	var within func(ctx context.Context, t *domain.Transaction) error
	if txn.Status == domain.StatusValidated {
		within = func(ctx context.Context, t *domain.Transaction) error {
			return s.reverseCommission(ctx, actor.UserID, t, "rejected after validation: "+reason)
		}
	}
	return s.advance(ctx, actor, txn, domain.StatusRejected, func(t *domain.Transaction) error {
		t.RejectionReason = reason
		return nil
	}, within)
}

func (s *TransactionService) RequestDeletion(ctx context.Context, actor domain.Actor, transactionID string, reason string) (*domain.Transaction, error) {
	txn, err := s.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Type == domain.TxSettlement {
		return nil, fmt.Errorf("%w: settlement records cannot be deleted", apperrors.ErrInvalidOperation)
	}
	if txn.CreatedBy != actor.UserID && !actor.HasRole(domain.RoleAdmin) {
		return nil, fmt.Errorf("%w: only the creator may request deletion of %s", apperrors.ErrForbidden, txn.TransactionID)
	}
	return s.advance(ctx, actor, txn, domain.StatusPendingDelete, func(t *domain.Transaction) error {
		t.DeletionReason = strings.TrimSpace(reason)
		return nil
	}, nil)
}

// ValidateDeletion approves a deletion request. The transaction is kept and marked
// rejected, and any commission it earned is taken back out of its pool.
func (s *TransactionService) ValidateDeletion(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error) {
	txn, err := s.load(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status != domain.StatusPendingDelete {
		return nil, fmt.Errorf("%w: transaction %s has no pending deletion request", apperrors.ErrInvalidOperation, txn.TransactionID)
	}
	return s.advance(ctx, actor, txn, domain.StatusRejected,
		func(t *domain.Transaction) error {
			t.RejectionReason = "deleted"
			if t.DeletionReason != "" {
				t.RejectionReason = "deleted: " + t.DeletionReason
			}
			return nil
		},
		func(ctx context.Context, t *domain.Transaction) error {
			return s.reverseCommission(ctx, actor.UserID, t, "deleted transaction")
		})
}
