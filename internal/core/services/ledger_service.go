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

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// LedgerService keeps the named cash accounts and their movement log.
// Every balance change goes through post, which writes the balance delta and its
// movement row in one repository call.
type LedgerService struct {
	BaseService
	accountRepo portsrepo.CashAccountRepositoryFacade
	txManager   portsrepo.TransactionManager
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(accountRepo portsrepo.CashAccountRepositoryFacade, txManager portsrepo.TransactionManager) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		txManager:   txManager,
	}
}

var _ portssvc.LedgerSvcFacade = (*LedgerService)(nil)

// post applies a signed amount to an account. It joins the transaction carried by ctx.
func (s *LedgerService) post(ctx context.Context, actorID string, kind domain.AccountKind, movementKind domain.MovementKind, amount decimal.Decimal, note, reference string, requireFunds bool) (*domain.CashAccount, error) {
	movement := domain.CashMovement{
		MovementID:  uuid.NewString(),
		AccountKind: kind,
		Kind:        movementKind,
		Amount:      amount,
		Description: note,
		Reference:   reference,
		Actor:       actorID,
		CreatedAt:   time.Now().UTC(),
	}

	account, err := s.accountRepo.ApplyMovement(ctx, movement, requireFunds)
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			metrics.InsufficientFunds.WithLabelValues(string(kind)).Inc()
			s.LogDebug(ctx, "Movement rejected for insufficient funds",
				slog.String("account", string(kind)),
				slog.String("amount", amount.String()))
			return nil, fmt.Errorf("%s cannot cover %s: %w", kind, amount.Neg().String(), err)
		}
		s.LogError(ctx, err, "Failed to apply movement",
			slog.String("account", string(kind)),
			slog.String("movement_kind", string(movementKind)))
		return nil, err
	}

	metrics.LedgerMovements.WithLabelValues(string(kind), string(movementKind)).Inc()
	return account, nil
}

func checkAccountKind(kind domain.AccountKind) error {
	if !kind.Valid() {
		return validationError("unknown account %q", kind)
	}
	return nil
}

func checkPositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return validationError("%s must be greater than zero", field)
	}
	return nil
}

// amountScale is the number of decimals kept by every money column.
const amountScale = 2

// checkScale refuses money the store would silently round.
func checkScale(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(amountScale)) {
		return validationError("%s cannot have more than %d decimals", field, amountScale)
	}
	return nil
}

// checkAmount validates a strictly positive money amount.
func checkAmount(field string, amount decimal.Decimal) error {
	if err := checkPositive(field, amount); err != nil {
		return err
	}
	return checkScale(field, amount)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *LedgerService) GetAccounts(ctx context.Context, actor domain.Actor) ([]domain.CashAccount, error) {
	if err := s.AuthorizeActor(ctx, actor, "view accounts", ledgerViewers...); err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.ListAccounts(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (*domain.CashAccount, error) {
	if err := s.AuthorizeActor(ctx, actor, "view accounts", ledgerViewers...); err != nil {
		return nil, err
	}
	if err := checkAccountKind(kind); err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindAccount(ctx, kind)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account", slog.String("account", string(kind)))
		}
		return nil, err
	}
	return account, nil
}

func (s *LedgerService) ListMovements(ctx context.Context, actor domain.Actor, filter domain.MovementFilter) ([]domain.CashMovement, error) {
	if err := s.AuthorizeActor(ctx, actor, "view movements", ledgerViewers...); err != nil {
		return nil, err
	}
	if filter.AccountKind != "" {
		if err := checkAccountKind(filter.AccountKind); err != nil {
			return nil, err
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, validationError("range end is before range start")
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	movements, err := s.accountRepo.ListMovements(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list movements")
		return nil, err
	}
	return movements, nil
}

// SetAccountBalance records the difference to the requested balance as a single
// deposit or withdrawal so the log still sums to the balance.
func (s *LedgerService) SetAccountBalance(ctx context.Context, actor domain.Actor, kind domain.AccountKind, newBalance decimal.Decimal, note string) (*domain.CashAccount, error) {
	if err := s.AuthorizeActor(ctx, actor, "set account balances", balanceSetters...); err != nil {
		return nil, err
	}
	if err := checkAccountKind(kind); err != nil {
		return nil, err
	}
	if kind.IsPool() {
		return nil, fmt.Errorf("%w: %s is derived from its movements and cannot be set", apperrors.ErrInvalidOperation, kind)
	}
	if newBalance.IsNegative() {
		return nil, validationError("balance cannot be negative")
	}
	if err := checkScale("balance", newBalance); err != nil {
		return nil, err
	}
	if strings.TrimSpace(note) == "" {
		return nil, validationError("a note is required to set a balance")
	}

	var result *domain.CashAccount
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		current, err := s.accountRepo.LockAccount(ctx, kind)
		if err != nil {
			return err
		}
		delta := newBalance.Sub(current.Balance)
		if delta.IsZero() {
			result = current
			return nil
		}
		movementKind := domain.MovementDeposit
		if delta.IsNegative() {
			movementKind = domain.MovementWithdrawal
		}
		result, err = s.post(ctx, actor.UserID, kind, movementKind, delta, "balance set: "+note, "", false)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Account balance set",
		slog.String("account", string(kind)),
		slog.String("balance", newBalance.String()),
		slog.String("user_id", actor.UserID))
	return result, nil
}

func (s *LedgerService) Debit(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	if err := s.AuthorizeActor(ctx, actor, "debit accounts", ledgerOperators...); err != nil {
		return nil, err
	}
	if err := checkAccountKind(entry.Kind); err != nil {
		return nil, err
	}
	if err := checkAmount("amount", entry.Amount); err != nil {
		return nil, err
	}

	var result *domain.CashAccount
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.post(ctx, actor.UserID, entry.Kind, domain.MovementWithdrawal, entry.Amount.Neg(), entry.Note, entry.Reference, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LedgerService) Deposit(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	if err := s.AuthorizeActor(ctx, actor, "deposit into accounts", ledgerOperators...); err != nil {
		return nil, err
	}
	if err := checkAccountKind(entry.Kind); err != nil {
		return nil, err
	}
	if err := checkAmount("amount", entry.Amount); err != nil {
		return nil, err
	}

	var result *domain.CashAccount
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.post(ctx, actor.UserID, entry.Kind, domain.MovementDeposit, entry.Amount, entry.Note, entry.Reference, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LedgerService) PostCommission(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	if err := s.AuthorizeActor(ctx, actor, "post commissions", ledgerOperators...); err != nil {
		return nil, err
	}
	var result *domain.CashAccount
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.postCommission(ctx, actor.UserID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// postCommission credits a pool inside the caller's transaction.
func (s *LedgerService) postCommission(ctx context.Context, actorID string, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	if err := checkAccountKind(entry.Kind); err != nil {
		return nil, err
	}
	if !entry.Kind.IsPool() {
		return nil, fmt.Errorf("%w: commissions can only be posted to a pool, not %s", apperrors.ErrInvalidOperation, entry.Kind)
	}
	if err := checkAmount("commission", entry.Amount); err != nil {
		return nil, err
	}
	return s.post(ctx, actorID, entry.Kind, domain.MovementCommission, entry.Amount, entry.Note, entry.Reference, false)
}

func (s *LedgerService) ChargeExpense(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	if err := s.AuthorizeActor(ctx, actor, "charge expenses", balanceSetters...); err != nil {
		return nil, err
	}
	var result *domain.CashAccount
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.chargeExpense(ctx, actor.UserID, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// chargeExpense debits an expense inside the caller's transaction.
func (s *LedgerService) chargeExpense(ctx context.Context, actorID string, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	if entry.Kind != domain.AccountVault && entry.Kind != domain.AccountExchangeSurplusPool {
		return nil, fmt.Errorf("%w: expenses are paid from the vault or the exchange surplus pool, not %s", apperrors.ErrInvalidOperation, entry.Kind)
	}
	if err := checkAmount("amount", entry.Amount); err != nil {
		return nil, err
	}
	return s.post(ctx, actorID, entry.Kind, domain.MovementExpense, entry.Amount.Neg(), entry.Note, entry.Reference, true)
}

// TransferBetweenAccounts writes the two legs in account order so that concurrent
// transfers lock the rows in the same sequence.
func (s *LedgerService) TransferBetweenAccounts(ctx context.Context, actor domain.Actor, from, to domain.AccountKind, amount decimal.Decimal, note string) error {
	if err := s.AuthorizeActor(ctx, actor, "transfer between accounts", ledgerOperators...); err != nil {
		return err
	}
	if err := checkAccountKind(from); err != nil {
		return err
	}
	if err := checkAccountKind(to); err != nil {
		return err
	}
	if from == to {
		return validationError("source and destination accounts must differ")
	}
	if from.IsPool() || to.IsPool() {
		return fmt.Errorf("%w: pools only move through commissions and expenses", apperrors.ErrInvalidOperation)
	}
	if err := checkAmount("amount", amount); err != nil {
		return err
	}

	reference := uuid.NewString()
	debit := func(ctx context.Context) error {
		_, err := s.post(ctx, actor.UserID, from, domain.MovementTransfer, amount.Neg(), note, reference, true)
		return err
	}
	credit := func(ctx context.Context) error {
		_, err := s.post(ctx, actor.UserID, to, domain.MovementTransfer, amount, note, reference, false)
		return err
	}
	legs := []func(context.Context) error{debit, credit}
	if to < from {
		legs = []func(context.Context) error{credit, debit}
	}

	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		for _, leg := range legs {
			if err := leg(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.LogInfo(ctx, "Transfer between accounts recorded",
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("amount", amount.String()),
		slog.String("reference", reference))
	return nil
}

func (s *LedgerService) ReconcilePool(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (decimal.Decimal, error) {
	if err := s.AuthorizeActor(ctx, actor, "reconcile pools", reconcilers...); err != nil {
		return decimal.Zero, err
	}
	if err := checkAccountKind(kind); err != nil {
		return decimal.Zero, err
	}
	if !kind.IsPool() {
		return decimal.Zero, fmt.Errorf("%w: %s is not a pool", apperrors.ErrInvalidOperation, kind)
	}
	return s.reconcile(ctx, actor.UserID, kind, domain.PoolMovementKinds)
}

func (s *LedgerService) ReconcileAccount(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (decimal.Decimal, error) {
	if err := s.AuthorizeActor(ctx, actor, "reconcile accounts", reconcilers...); err != nil {
		return decimal.Zero, err
	}
	if err := checkAccountKind(kind); err != nil {
		return decimal.Zero, err
	}
	if kind.IsPool() {
		return s.reconcile(ctx, actor.UserID, kind, domain.PoolMovementKinds)
	}
	return s.reconcile(ctx, actor.UserID, kind, nil)
}

// reconcile recomputes the balance under the account row lock, so no movement can be
// half-written while the sum is taken, and persists the authoritative value.
func (s *LedgerService) reconcile(ctx context.Context, actorID string, kind domain.AccountKind, kinds []domain.MovementKind) (decimal.Decimal, error) {
	var recomputed, cached decimal.Decimal
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.LockAccount(ctx, kind)
		if err != nil {
			return err
		}
		cached = account.Balance
		recomputed, err = s.accountRepo.SumMovements(ctx, kind, kinds)
		if err != nil {
			return err
		}
		if recomputed.Equal(cached) {
			return nil
		}
		return s.accountRepo.SetCachedBalance(ctx, kind, recomputed, actorID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reconcile account", slog.String("account", string(kind)))
		return decimal.Zero, err
	}

	drift := recomputed.Sub(cached).Abs()
	metrics.ReconcileDrift.WithLabelValues(string(kind)).Set(drift.InexactFloat64())
	if !drift.IsZero() {
		s.LogInfo(ctx, "Reconciliation corrected cached balance",
			slog.String("account", string(kind)),
			slog.String("cached", cached.String()),
			slog.String("recomputed", recomputed.String()))
	}
	return recomputed, nil
}
