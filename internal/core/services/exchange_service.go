package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
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

// ExchangeService runs the currency exchange desk.
type ExchangeService struct {
	BaseService
	exchangeRepo portsrepo.ExchangeRepositoryFacade
	txManager    portsrepo.TransactionManager
	ledger       *LedgerService
	settings     portssvc.SettingsProvider
}

// NewExchangeService creates a new ExchangeService.
func NewExchangeService(
	exchangeRepo portsrepo.ExchangeRepositoryFacade,
	txManager portsrepo.TransactionManager,
	ledger *LedgerService,
	settings portssvc.SettingsProvider,
) *ExchangeService {
	return &ExchangeService{
		exchangeRepo: exchangeRepo,
		txManager:    txManager,
		ledger:       ledger,
		settings:     settings,
	}
}

var _ portssvc.ExchangeSvcFacade = (*ExchangeService)(nil)

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *ExchangeService) currentSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to load settings")
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings.LocalCurrency = normalizeCurrency(settings.LocalCurrency)
	return settings, nil
}

// applyTillChanges applies changes in currency order and returns the updated tills by currency.
func (s *ExchangeService) applyTillChanges(ctx context.Context, changes ...portsrepo.TillChange) (map[string]*domain.ExchangeTill, error) {
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Currency < changes[j].Currency })
	tills := make(map[string]*domain.ExchangeTill, len(changes))
	for _, change := range changes {
		till, err := s.exchangeRepo.ApplyTillChange(ctx, change)
		if err != nil {
			if errors.Is(err, apperrors.ErrInsufficientFunds) {
				return nil, fmt.Errorf("%s till cannot cover %s: %w", change.Currency, change.Delta.Neg().String(), err)
			}
			return nil, err
		}
		tills[change.Currency] = till
	}
	return tills, nil
}

func (s *ExchangeService) saveOperation(ctx context.Context, op domain.ExchangeOperation) error {
	if err := s.exchangeRepo.SaveOperation(ctx, op); err != nil {
		s.LogError(ctx, err, "Failed to save exchange operation",
			slog.String("operation_id", op.OperationID),
			slog.String("kind", string(op.Kind)))
		return err
	}
	return nil
}

func newOperation(kind domain.OperationKind, actor domain.Actor) domain.ExchangeOperation {
	return domain.ExchangeOperation{
		OperationID: uuid.NewString(),
		Kind:        kind,
		Actor:       actor.UserID,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *ExchangeService) GetTills(ctx context.Context, actor domain.Actor) ([]domain.ExchangeTill, error) {
	if err := s.AuthorizeActor(ctx, actor, "view tills", exchangeViewers...); err != nil {
		return nil, err
	}
	tills, err := s.exchangeRepo.ListTills(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list tills")
		return nil, err
	}
	return tills, nil
}

func (s *ExchangeService) ListOperations(ctx context.Context, actor domain.Actor, filter domain.OperationFilter) ([]domain.ExchangeOperation, error) {
	if err := s.AuthorizeActor(ctx, actor, "view exchange operations", exchangeViewers...); err != nil {
		return nil, err
	}
	filter.Currency = normalizeCurrency(filter.Currency)
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, validationError("range end is before range start")
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	ops, err := s.exchangeRepo.ListOperations(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list exchange operations")
		return nil, err
	}
	return ops, nil
}

// RecordReplenishment buys target currency with funds taken from a till or the vault.
// The ancillary expenses are amortized into the booked acquisition rate.
func (s *ExchangeService) RecordReplenishment(ctx context.Context, actor domain.Actor, in portssvc.ReplenishmentInput) (*domain.ExchangeOperation, error) {
	if err := s.AuthorizeActor(ctx, actor, "replenish tills", exchangeOperator...); err != nil {
		return nil, err
	}
	settings, err := s.currentSettings(ctx)
	if err != nil {
		return nil, err
	}

	in.FundingCurrency = normalizeCurrency(in.FundingCurrency)
	in.TargetCurrency = normalizeCurrency(in.TargetCurrency)
	if in.TargetCurrency == "" || in.FundingCurrency == "" {
		return nil, validationError("funding and target currencies are required")
	}
	if in.TargetCurrency == settings.LocalCurrency {
		return nil, validationError("replenishment target must be a foreign currency")
	}
	switch in.FundingSource {
	case domain.FundingTill:
		if in.FundingCurrency == in.TargetCurrency {
			return nil, validationError("funding and target currencies must differ")
		}
	case domain.FundingVault:
		if in.FundingCurrency != settings.LocalCurrency {
			return nil, fmt.Errorf("%w: the vault only funds %s replenishments", apperrors.ErrInvalidSelection, settings.LocalCurrency)
		}
	default:
		return nil, fmt.Errorf("%w: no funding source selected for %s", apperrors.ErrInvalidSelection, in.FundingCurrency)
	}
	if err := checkAmount("amount", in.Amount); err != nil {
		return nil, err
	}
	for _, fee := range []decimal.Decimal{in.TransportFee, in.HandlingFee, in.NoteExchangeFee} {
		if err := checkScale("fee", fee); err != nil {
			return nil, err
		}
	}

	acq, err := domain.ComputeAcquisition(in.Amount, in.PurchaseRate, in.TransportFee, in.HandlingFee, in.NoteExchangeFee)
	if err != nil {
		return nil, validationError("%s", err.Error())
	}

	op := newOperation(domain.OperationReplenish, actor)
	op.Payload = domain.ReplenishmentPayload{
		FundingCurrency:  in.FundingCurrency,
		FundingSource:    in.FundingSource,
		Amount:           in.Amount,
		TargetCurrency:   in.TargetCurrency,
		PurchaseRate:     in.PurchaseRate,
		TransportFee:     in.TransportFee,
		HandlingFee:      in.HandlingFee,
		NoteExchangeFee:  in.NoteExchangeFee,
		AcquiredQuantity: acq.Acquired,
		NetQuantity:      acq.Net,
		EffectiveRate:    acq.EffectiveRate,
	}

	effective := acq.EffectiveRate
	target := portsrepo.TillChange{
		Currency:        in.TargetCurrency,
		Delta:           acq.Net,
		AcquisitionRate: &effective,
		Actor:           actor.UserID,
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if in.FundingSource == domain.FundingVault {
			note := fmt.Sprintf("replenishment of %s %s", acq.Net.String(), in.TargetCurrency)
			if _, err := s.ledger.post(ctx, actor.UserID, domain.AccountVault, domain.MovementWithdrawal, in.Amount.Neg(), note, op.OperationID, true); err != nil {
				return err
			}
			op.Legs = []domain.TillLeg{{Currency: in.TargetCurrency, Delta: acq.Net}}
			if _, err := s.applyTillChanges(ctx, target); err != nil {
				return err
			}
		} else {
			funding := portsrepo.TillChange{
				Currency:     in.FundingCurrency,
				Delta:        in.Amount.Neg(),
				RequireFunds: true,
				Actor:        actor.UserID,
			}
			op.Legs = []domain.TillLeg{
				{Currency: in.FundingCurrency, Delta: in.Amount.Neg()},
				{Currency: in.TargetCurrency, Delta: acq.Net},
			}
			if _, err := s.applyTillChanges(ctx, funding, target); err != nil {
				return err
			}
		}
		return s.saveOperation(ctx, op)
	})
	if err != nil {
		return nil, err
	}

	metrics.ExchangeOperations.WithLabelValues(string(op.Kind), in.TargetCurrency).Inc()
	s.LogInfo(ctx, "Till replenished",
		slog.String("operation_id", op.OperationID),
		slog.String("currency", in.TargetCurrency),
		slog.String("net_quantity", acq.Net.String()),
		slog.String("effective_rate", acq.EffectiveRate.String()))
	return &op, nil
}

// RecordSale sells foreign currency against the local till and books the margin over
// the last acquisition rate into the exchange surplus pool.
func (s *ExchangeService) RecordSale(ctx context.Context, actor domain.Actor, in portssvc.SaleInput) (*domain.ExchangeOperation, error) {
	if err := s.AuthorizeActor(ctx, actor, "sell currency", exchangeOperator...); err != nil {
		return nil, err
	}
	settings, err := s.currentSettings(ctx)
	if err != nil {
		return nil, err
	}

	currency := normalizeCurrency(in.Currency)
	if currency == "" || currency == settings.LocalCurrency {
		return nil, validationError("a foreign currency is required")
	}
	if err := checkAmount("sold amount", in.SoldAmount); err != nil {
		return nil, err
	}
	todayRate := in.TodayRate
	if todayRate.IsZero() {
		rate, ok := settings.Rate(currency)
		if !ok {
			return nil, validationError("no rate configured for %s", currency)
		}
		todayRate = rate
	}
	if err := checkPositive("rate", todayRate); err != nil {
		return nil, err
	}

	proceeds := in.SoldAmount.Mul(todayRate).Round(domain.RatePrecision)
	op := newOperation(domain.OperationSell, actor)
	op.Legs = []domain.TillLeg{
		{Currency: currency, Delta: in.SoldAmount.Neg()},
		{Currency: settings.LocalCurrency, Delta: proceeds},
	}

	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		tills, err := s.applyTillChanges(ctx,
			portsrepo.TillChange{Currency: currency, Delta: in.SoldAmount.Neg(), RequireFunds: true, Actor: actor.UserID},
			portsrepo.TillChange{Currency: settings.LocalCurrency, Delta: proceeds, Actor: actor.UserID},
		)
		if err != nil {
			return err
		}

		costRate := domain.SaleCostBasis(tills[currency].LastAcquisitionRate, todayRate)
		commission := domain.SaleCommission(in.SoldAmount, todayRate, costRate)
		op.Payload = domain.SalePayload{
			Currency:   currency,
			SoldAmount: in.SoldAmount,
			TodayRate:  todayRate,
			CostRate:   costRate,
			Proceeds:   proceeds,
			Commission: commission,
			Customer:   in.Customer,
		}

		if commission.IsPositive() {
			entry := portssvc.LedgerEntry{
				Kind:      domain.AccountExchangeSurplusPool,
				Amount:    commission,
				Note:      fmt.Sprintf("sale of %s %s", in.SoldAmount.String(), currency),
				Reference: op.OperationID,
			}
			if _, err := s.ledger.postCommission(ctx, actor.UserID, entry); err != nil {
				return err
			}
		}
		return s.saveOperation(ctx, op)
	})
	if err != nil {
		return nil, err
	}

	metrics.ExchangeOperations.WithLabelValues(string(op.Kind), currency).Inc()
	s.LogInfo(ctx, "Currency sold",
		slog.String("operation_id", op.OperationID),
		slog.String("currency", currency),
		slog.String("sold", in.SoldAmount.String()),
		slog.String("commission", op.Payload.(domain.SalePayload).Commission.String()))
	return &op, nil
}

func (s *ExchangeService) RecordCession(ctx context.Context, actor domain.Actor, in portssvc.CessionInput) (*domain.ExchangeOperation, error) {
	if err := s.AuthorizeActor(ctx, actor, "cede till funds", exchangeOperator...); err != nil {
		return nil, err
	}
	currency := normalizeCurrency(in.Currency)
	if currency == "" {
		return nil, validationError("currency is required")
	}
	if err := checkAmount("amount", in.Amount); err != nil {
		return nil, err
	}

	op := newOperation(domain.OperationCede, actor)
	op.Payload = domain.CessionPayload{
		Currency:    currency,
		Amount:      in.Amount,
		Beneficiary: in.Beneficiary,
		Purpose:     in.Purpose,
	}
	op.Legs = []domain.TillLeg{{Currency: currency, Delta: in.Amount.Neg()}}

	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		change := portsrepo.TillChange{Currency: currency, Delta: in.Amount.Neg(), RequireFunds: true, Actor: actor.UserID}
		if _, err := s.applyTillChanges(ctx, change); err != nil {
			return err
		}
		return s.saveOperation(ctx, op)
	})
	if err != nil {
		return nil, err
	}

	metrics.ExchangeOperations.WithLabelValues(string(op.Kind), currency).Inc()
	s.LogInfo(ctx, "Till funds ceded",
		slog.String("operation_id", op.OperationID),
		slog.String("currency", currency),
		slog.String("amount", in.Amount.String()))
	return &op, nil
}

// AdjustTill overrides a till balance. It skips the funds check and leaves the
// acquisition rate alone.
func (s *ExchangeService) AdjustTill(ctx context.Context, actor domain.Actor, currency string, newBalance decimal.Decimal, note string) (*domain.ExchangeOperation, error) {
	if err := s.AuthorizeActor(ctx, actor, "adjust tills", tillAdjusters...); err != nil {
		return nil, err
	}
	currency = normalizeCurrency(currency)
	if currency == "" {
		return nil, validationError("currency is required")
	}
	if newBalance.IsNegative() {
		return nil, validationError("balance cannot be negative")
	}
	if err := checkScale("balance", newBalance); err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, validationError("a note is required to adjust a till")
	}

	op := newOperation(domain.OperationManualAdjust, actor)
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		till, err := s.exchangeRepo.LockTill(ctx, currency)
		if err != nil {
			return err
		}
		delta := newBalance.Sub(till.Balance)
		op.Payload = domain.AdjustmentPayload{
			Currency:        currency,
			PreviousBalance: till.Balance,
			NewBalance:      newBalance,
			Note:            note,
		}
		op.Legs = []domain.TillLeg{{Currency: currency, Delta: delta}}
		if _, err := s.applyTillChanges(ctx, portsrepo.TillChange{Currency: currency, Delta: delta, AdjustmentNote: &note, Actor: actor.UserID}); err != nil {
			return err
		}
		return s.saveOperation(ctx, op)
	})
	if err != nil {
		return nil, err
	}

	metrics.ExchangeOperations.WithLabelValues(string(op.Kind), currency).Inc()
	s.LogInfo(ctx, "Till adjusted",
		slog.String("operation_id", op.OperationID),
		slog.String("currency", currency),
		slog.String("balance", newBalance.String()),
		slog.String("user_id", actor.UserID))
	return &op, nil
}

func (s *ExchangeService) ReconcileTill(ctx context.Context, actor domain.Actor, currency string) (decimal.Decimal, error) {
	if err := s.AuthorizeActor(ctx, actor, "reconcile tills", reconcilers...); err != nil {
		return decimal.Zero, err
	}
	currency = normalizeCurrency(currency)
	if currency == "" {
		return decimal.Zero, validationError("currency is required")
	}

	var recomputed, cached decimal.Decimal
	err := s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		till, err := s.exchangeRepo.LockTill(ctx, currency)
		if err != nil {
			return err
		}
		cached = till.Balance
		recomputed, err = s.exchangeRepo.SumTillLegs(ctx, currency)
		if err != nil {
			return err
		}
		if recomputed.Equal(cached) {
			return nil
		}
		return s.exchangeRepo.SetTillBalance(ctx, currency, recomputed, actor.UserID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reconcile till", slog.String("currency", currency))
		return decimal.Zero, err
	}

	drift := recomputed.Sub(cached).Abs()
	metrics.ReconcileDrift.WithLabelValues("till_" + currency).Set(drift.InexactFloat64())
	if !drift.IsZero() {
		s.LogInfo(ctx, "Reconciliation corrected till balance",
			slog.String("currency", currency),
			slog.String("cached", cached.String()),
			slog.String("recomputed", recomputed.String()))
	}
	return recomputed, nil
}
