package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type SettlementServiceTestSuite struct {
	suite.Suite
	settlementRepo *MockSettlementRepository
	txRepo         *MockTransactionRepository
	notifier       *MockNotifier
	service        *services.SettlementService
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.settlementRepo = new(MockSettlementRepository)
	suite.txRepo = new(MockTransactionRepository)
	suite.notifier = new(MockNotifier)
	suite.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	dispatcher := services.NewDispatcher(suite.notifier, services.WithSynchronousDelivery())
	settings := staticSettings{settings: domain.Settings{
		LocalCurrency: "xof",
		Rates:         map[string]decimal.Decimal{"EUR": dec("650")},
	}}
	suite.service = services.NewSettlementService(suite.settlementRepo, suite.txRepo, &passthroughTx{}, settings, dispatcher)
}

func pendingSettlement(total, unloading string) *domain.CashSettlement {
	t, u := dec(total), dec(unloading)
	return &domain.CashSettlement{
		SettlementID:    "stl-1",
		CashierID:       cashierActor.UserID,
		Agency:          "DKR",
		BusinessDate:    time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
		TotalAmount:     t,
		UnloadingAmount: u,
		FinalAmount:     t.Sub(u),
		Currency:        "XOF",
		Status:          domain.SettlementPending,
	}
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_TotalsTheBusinessDay() {
	ctx := context.Background()
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	suite.txRepo.On("SumCompletedByCreator", ctx, cashierActor.UserID, day, day.AddDate(0, 0, 1)).
		Return([]domain.CurrencyTotal{{Currency: "XOF", Amount: dec("500000"), Count: 12}}, nil).Once()
	suite.settlementRepo.On("SaveSettlement", ctx, mock.MatchedBy(func(s domain.CashSettlement) bool {
		return s.Status == domain.SettlementPending && s.TotalAmount.Equal(dec("500000")) &&
			s.FinalAmount.Equal(dec("500000")) && s.Currency == "XOF" && s.BusinessDate.Equal(day)
	})).Return(nil).Once()

	settlement, err := suite.service.CreateSettlement(ctx, supervisorActor, cashierActor.UserID, day.Add(15*time.Hour))

	suite.Require().NoError(err)
	suite.True(settlement.UnloadingAmount.IsZero())
	suite.txRepo.AssertExpectations(suite.T())
	suite.settlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_ConvertsForeignTotals() {
	ctx := context.Background()
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	suite.txRepo.On("SumCompletedByCreator", ctx, cashierActor.UserID, day, day.AddDate(0, 0, 1)).
		Return([]domain.CurrencyTotal{
			{Currency: "EUR", Amount: dec("100"), Count: 1},
			{Currency: "XOF", Amount: dec("30000"), Count: 2},
		}, nil).Once()
	// 100 EUR at 650 plus 30000 XOF
	suite.settlementRepo.On("SaveSettlement", ctx, mock.MatchedBy(func(s domain.CashSettlement) bool {
		return s.TotalAmount.Equal(dec("95000")) && s.FinalAmount.Equal(dec("95000")) && s.Currency == "XOF"
	})).Return(nil).Once()

	settlement, err := suite.service.CreateSettlement(ctx, supervisorActor, cashierActor.UserID, day)

	suite.Require().NoError(err)
	suite.True(settlement.TotalAmount.Equal(dec("95000")), "total %s", settlement.TotalAmount)
	suite.settlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_ForeignTotalWithoutRate() {
	ctx := context.Background()
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	suite.txRepo.On("SumCompletedByCreator", ctx, cashierActor.UserID, day, day.AddDate(0, 0, 1)).
		Return([]domain.CurrencyTotal{
			{Currency: "GBP", Amount: dec("10"), Count: 1},
			{Currency: "XOF", Amount: dec("30000"), Count: 2},
		}, nil).Once()

	_, err := suite.service.CreateSettlement(ctx, supervisorActor, cashierActor.UserID, day)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.settlementRepo.AssertNotCalled(suite.T(), "SaveSettlement", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_CashierOnlyForThemselves() {
	ctx := context.Background()
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	_, err := suite.service.CreateSettlement(ctx, cashierActor, "cashier-2", day)
	suite.ErrorIs(err, apperrors.ErrForbidden)

	suite.txRepo.On("SumCompletedByCreator", ctx, cashierActor.UserID, day, day.AddDate(0, 0, 1)).Return([]domain.CurrencyTotal{}, nil).Once()
	suite.settlementRepo.On("SaveSettlement", ctx, mock.Anything).Return(nil).Once()
	_, err = suite.service.CreateSettlement(ctx, cashierActor, cashierActor.UserID, day)
	suite.NoError(err)
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_Duplicate() {
	ctx := context.Background()
	suite.txRepo.On("SumCompletedByCreator", ctx, mock.Anything, mock.Anything, mock.Anything).Return([]domain.CurrencyTotal{{Currency: "XOF", Amount: dec("1000"), Count: 1}}, nil).Once()
	suite.settlementRepo.On("SaveSettlement", ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateSettlement(ctx, supervisorActor, cashierActor.UserID, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *SettlementServiceTestSuite) TestCreateSettlement_FutureDate() {
	_, err := suite.service.CreateSettlement(context.Background(), supervisorActor, cashierActor.UserID, time.Now().AddDate(0, 0, 3))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestAddUnloading_ReducesFinal() {
	ctx := context.Background()
	suite.settlementRepo.On("LockSettlement", ctx, "stl-1").Return(pendingSettlement("500000", "0"), nil).Once()
	suite.settlementRepo.On("SaveUnloading", ctx, mock.MatchedBy(func(u domain.SettlementUnloading) bool {
		return u.Amount.Equal(dec("50000")) && u.SettlementID == "stl-1"
	})).Return(nil).Once()
	suite.settlementRepo.On("UpdateSettlement", ctx, mock.MatchedBy(func(s domain.CashSettlement) bool {
		return s.UnloadingAmount.Equal(dec("50000")) && s.FinalAmount.Equal(dec("450000"))
	}), domain.SettlementPending).Return(nil).Once()

	settlement, err := suite.service.AddUnloading(ctx, supervisorActor, "stl-1", dec("50000"), "bank deposit")

	suite.Require().NoError(err)
	suite.True(settlement.FinalAmount.Equal(dec("450000")))
	suite.settlementRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestAddUnloading_CannotExceedTotal() {
	ctx := context.Background()
	suite.settlementRepo.On("LockSettlement", ctx, "stl-1").Return(pendingSettlement("500000", "480000"), nil).Once()

	_, err := suite.service.AddUnloading(ctx, supervisorActor, "stl-1", dec("30000"), "")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.settlementRepo.AssertNotCalled(suite.T(), "SaveUnloading", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestAddUnloading_ClosedSettlement() {
	ctx := context.Background()
	closed := pendingSettlement("500000", "0")
	closed.Status = domain.SettlementValidated
	suite.settlementRepo.On("LockSettlement", ctx, "stl-1").Return(closed, nil).Once()

	_, err := suite.service.AddUnloading(ctx, supervisorActor, "stl-1", dec("1"), "")

	suite.ErrorIs(err, apperrors.ErrInvalidOperation)
}

func (suite *SettlementServiceTestSuite) TestValidateSettlement_ExactAmount() {
	ctx := context.Background()
	suite.settlementRepo.On("FindSettlementByID", ctx, "stl-1").Return(pendingSettlement("500000", "50000"), nil).Once()
	suite.settlementRepo.On("UpdateSettlement", ctx, mock.MatchedBy(func(s domain.CashSettlement) bool {
		return s.Status == domain.SettlementValidated && s.ReceivedAmount.Equal(dec("450000")) && s.ValidatedBy == supervisorActor.UserID
	}), domain.SettlementPending).Return(nil).Once()
	suite.txRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		details, ok := t.Details.(domain.SettlementDetails)
		return ok && t.Type == domain.TxSettlement && t.Status == domain.StatusCompleted &&
			t.Amount.Equal(dec("450000")) && details.SettlementID == "stl-1" && details.BusinessDate == "2026-10-16"
	})).Return(nil).Once()

	settlement, err := suite.service.ValidateSettlement(ctx, supervisorActor, "stl-1", dec("450000"), "")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementValidated, settlement.Status)
	suite.txRepo.AssertExpectations(suite.T())
	suite.notifier.AssertCalled(suite.T(), "Notify", mock.Anything, eventNamed(domain.EventSettlementClosed))
}

func (suite *SettlementServiceTestSuite) TestValidateSettlement_WithinTolerance() {
	ctx := context.Background()
	suite.settlementRepo.On("FindSettlementByID", ctx, "stl-1").Return(pendingSettlement("500000", "50000"), nil).Once()
	suite.settlementRepo.On("UpdateSettlement", ctx, mock.Anything, domain.SettlementPending).Return(nil).Once()
	suite.txRepo.On("SaveTransaction", ctx, mock.Anything).Return(nil).Once()

	settlement, err := suite.service.ValidateSettlement(ctx, supervisorActor, "stl-1", dec("449999.99"), "")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementValidated, settlement.Status)
}

func (suite *SettlementServiceTestSuite) TestValidateSettlement_MismatchNeedsReason() {
	ctx := context.Background()
	suite.settlementRepo.On("FindSettlementByID", ctx, "stl-1").Return(pendingSettlement("500000", "50000"), nil)

	_, err := suite.service.ValidateSettlement(ctx, supervisorActor, "stl-1", dec("440000"), "")
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.settlementRepo.AssertNotCalled(suite.T(), "UpdateSettlement", mock.Anything, mock.Anything, mock.Anything)

	suite.settlementRepo.On("UpdateSettlement", ctx, mock.MatchedBy(func(s domain.CashSettlement) bool {
		return s.Status == domain.SettlementException && s.ExceptionReason == "counted short"
	}), domain.SettlementPending).Return(nil).Once()
	suite.txRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusException && t.Amount.Equal(dec("440000"))
	})).Return(nil).Once()

	settlement, err := suite.service.ValidateSettlement(ctx, supervisorActor, "stl-1", dec("440000"), "counted short")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementException, settlement.Status)
	suite.txRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestValidateSettlement_CustomTolerance() {
	ctx := context.Background()
	svc := services.NewSettlementService(suite.settlementRepo, suite.txRepo, &passthroughTx{},
		staticSettings{settings: domain.Settings{LocalCurrency: "XOF"}},
		services.NewDispatcher(suite.notifier, services.WithSynchronousDelivery()),
		services.WithSettlementTolerance(dec("100")))
	suite.settlementRepo.On("FindSettlementByID", ctx, "stl-1").Return(pendingSettlement("500000", "0"), nil).Once()
	suite.settlementRepo.On("UpdateSettlement", ctx, mock.Anything, domain.SettlementPending).Return(nil).Once()
	suite.txRepo.On("SaveTransaction", ctx, mock.Anything).Return(nil).Once()

	settlement, err := svc.ValidateSettlement(ctx, supervisorActor, "stl-1", dec("499950"), "")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementValidated, settlement.Status)
}

func (suite *SettlementServiceTestSuite) TestRejectSettlement() {
	ctx := context.Background()
	_, err := suite.service.RejectSettlement(ctx, supervisorActor, "stl-1", "")
	suite.ErrorIs(err, apperrors.ErrValidation)

	suite.settlementRepo.On("FindSettlementByID", ctx, "stl-1").Return(pendingSettlement("500000", "0"), nil).Once()
	suite.settlementRepo.On("UpdateSettlement", ctx, mock.MatchedBy(func(s domain.CashSettlement) bool {
		return s.Status == domain.SettlementRejected && s.RejectionReason == "recount"
	}), domain.SettlementPending).Return(nil).Once()
	suite.txRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusCompleted && t.RejectionReason == "recount" && t.Amount.Equal(dec("500000"))
	})).Return(nil).Once()

	settlement, err := suite.service.RejectSettlement(ctx, supervisorActor, "stl-1", "recount")

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementRejected, settlement.Status)
}

func (suite *SettlementServiceTestSuite) TestValidateSettlement_AlreadyClosed() {
	ctx := context.Background()
	closed := pendingSettlement("500000", "0")
	closed.Status = domain.SettlementRejected
	suite.settlementRepo.On("FindSettlementByID", ctx, "stl-1").Return(closed, nil).Once()

	_, err := suite.service.ValidateSettlement(ctx, supervisorActor, "stl-1", dec("500000"), "")

	suite.ErrorIs(err, apperrors.ErrInvalidOperation)
}

func (suite *SettlementServiceTestSuite) TestValidateSettlement_CashierCannotCloseOwn() {
	_, err := suite.service.ValidateSettlement(context.Background(), cashierActor, "stl-1", dec("1"), "")
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *SettlementServiceTestSuite) TestGetSettlement_OwnerOrAudit() {
	ctx := context.Background()
	suite.settlementRepo.On("FindSettlementByID", ctx, "stl-1").Return(pendingSettlement("500000", "0"), nil)
	suite.settlementRepo.On("ListUnloadings", ctx, "stl-1").Return([]domain.SettlementUnloading{}, nil)

	_, _, err := suite.service.GetSettlement(ctx, cashierActor, "stl-1")
	suite.NoError(err)
	_, _, err = suite.service.GetSettlement(ctx, agentActor, "stl-1")
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
