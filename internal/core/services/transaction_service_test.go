package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

var (
	executorActor   = domain.Actor{UserID: "exec-1", Role: domain.RoleExecutor, Agency: "HQ"}
	supervisorActor = domain.Actor{UserID: "sup-1", Role: domain.RoleSupervisor, Agency: "DKR"}
)

type TransactionServiceTestSuite struct {
	suite.Suite
	txRepo      *MockTransactionRepository
	staffRepo   *MockStaffRepository
	accountRepo *MockAccountRepository
	notifier    *MockNotifier
	settings    *staticSettings
	service     *services.TransactionService
}

func (suite *TransactionServiceTestSuite) SetupTest() {
	suite.txRepo = new(MockTransactionRepository)
	suite.staffRepo = new(MockStaffRepository)
	suite.accountRepo = new(MockAccountRepository)
	suite.notifier = new(MockNotifier)
	suite.settings = &staticSettings{settings: domain.Settings{
		LocalCurrency:     "XOF",
		Rates:             map[string]decimal.Decimal{"EUR": dec("640")},
		MinimumCommission: decimal.Zero,
	}}
	tx := &passthroughTx{}
	ledger := services.NewLedgerService(suite.accountRepo, tx)
	dispatcher := services.NewDispatcher(suite.notifier, services.WithSynchronousDelivery())
	suite.service = services.NewTransactionService(suite.txRepo, suite.staffRepo, tx, ledger, suite.settings, dispatcher)
}

func (suite *TransactionServiceTestSuite) setRate(rate string) {
	suite.settings.settings.Rates["EUR"] = dec(rate)
}

func pendingTransfer() *domain.Transaction {
	return &domain.Transaction{
		TransactionID: "TRF-20261017-101500-0042",
		Type:          domain.TxTransfer,
		Status:        domain.StatusPending,
		Amount:        dec("65000"),
		Currency:      "XOF",
		Agency:        "DKR",
		Details: domain.TransferDetails{
			Beneficiary:        "A. Diallo",
			Destination:        "FR",
			SettlementCurrency: "EUR",
			TransferMethod:     "bank",
			WithdrawalMode:     "cash",
		},
		AuditFields: domain.AuditFields{CreatedBy: agentActor.UserID},
	}
}

func withStatus(txn *domain.Transaction, status domain.TransactionStatus) *domain.Transaction {
	txn.Status = status
	return txn
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_TransferStartsPending() {
	ctx := context.Background()
	suite.txRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Type == domain.TxTransfer && t.Status == domain.StatusPending && t.CreatedBy == agentActor.UserID && t.Agency == "DKR"
	})).Return(nil).Once()
	suite.notifier.On("Notify", mock.Anything, eventNamed(domain.EventTransactionCreated)).Return(nil).Once()

	txn, err := suite.service.CreateTransaction(ctx, agentActor, portssvc.CreateTransactionInput{
		Type:     domain.TxTransfer,
		Amount:   dec("65000"),
		Currency: "xof",
		Details:  pendingTransfer().Details,
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, txn.Status)
	suite.Equal("XOF", txn.Currency)
	suite.Regexp(`^TRF-\d{8}-\d{6}-\d{4}$`, txn.TransactionID)
	suite.txRepo.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_ReceiptCompletesAndPostsFee() {
	ctx := context.Background()
	suite.txRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Type == domain.TxReceipt && t.Status == domain.StatusCompleted
	})).Return(nil).Once()
	suite.accountRepo.On("ApplyMovement", ctx, movementMatching(domain.AccountReceiptCommissionPool, domain.MovementCommission, "500"), false).
		Return(&domain.CashAccount{Kind: domain.AccountReceiptCommissionPool}, nil).Once()
	suite.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	txn, err := suite.service.CreateTransaction(ctx, agentActor, portssvc.CreateTransactionInput{
		Type:     domain.TxReceipt,
		Amount:   dec("20000"),
		Currency: "XOF",
		Details:  domain.ReceiptDetails{Payer: "client", Purpose: "bill", Fee: dec("500")},
	})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, txn.Status)
	suite.accountRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_RejectsMismatchedDetails() {
	_, err := suite.service.CreateTransaction(context.Background(), agentActor, portssvc.CreateTransactionInput{
		Type:     domain.TxTransfer,
		Amount:   dec("100"),
		Currency: "XOF",
		Details:  domain.CardDetails{Provider: "visa"},
	})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.txRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_SettlementTypeIsReserved() {
	_, err := suite.service.CreateTransaction(context.Background(), agentActor, portssvc.CreateTransactionInput{
		Type: domain.TxSettlement, Amount: dec("1"), Currency: "XOF", Details: domain.SettlementDetails{},
	})
	suite.ErrorIs(err, apperrors.ErrInvalidOperation)
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_CommissionAtFloorIsRejected() {
	ctx := context.Background()
	suite.setRate("650")
	suite.txRepo.On("FindTransactionByID", ctx, "TRF-20261017-101500-0042").Return(pendingTransfer(), nil).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusRejected && t.Commission != nil && t.Commission.IsZero() && t.RejectionReason != ""
	}), domain.StatusPending).Return(nil).Once()
	suite.notifier.On("Notify", mock.Anything, eventNamed(domain.EventTransactionRejected)).Return(nil).Once()

	txn, err := suite.service.ValidateTransferRealAmount(ctx, auditorActor, "TRF-20261017-101500-0042", dec("100"))

	suite.Require().NoError(err)
	suite.Equal(domain.StatusRejected, txn.Status)
	suite.Contains(txn.RejectionReason, "does not exceed the minimum")
	suite.accountRepo.AssertNotCalled(suite.T(), "ApplyMovement", mock.Anything, mock.Anything, mock.Anything)
	suite.staffRepo.AssertNotCalled(suite.T(), "FindAvailableExecutor", mock.Anything)
	suite.txRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_PositiveCommissionValidatesAndPosts() {
	ctx := context.Background()
	suite.txRepo.On("FindTransactionByID", ctx, "TRF-20261017-101500-0042").Return(pendingTransfer(), nil).Once()
	suite.staffRepo.On("FindAvailableExecutor", ctx).Return(&domain.StaffMember{UserID: executorActor.UserID, Role: domain.RoleExecutor, IsActive: true}, nil).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusValidated && t.ExecutorID == executorActor.UserID && t.ValidatedBy == auditorActor.UserID
	}), domain.StatusPending).Return(nil).Once()
	suite.accountRepo.On("ApplyMovement", ctx, mock.MatchedBy(func(m domain.CashMovement) bool {
		return m.AccountKind == domain.AccountTransferCommissionPool && m.Kind == domain.MovementCommission &&
			m.Amount.Equal(dec("1000")) && m.Reference == "TRF-20261017-101500-0042"
	}), false).Return(&domain.CashAccount{Kind: domain.AccountTransferCommissionPool}, nil).Once()
	suite.notifier.On("Notify", mock.Anything, eventNamed(domain.EventTransactionValidated)).Return(nil).Once()

	txn, err := suite.service.ValidateTransferRealAmount(ctx, auditorActor, "TRF-20261017-101500-0042", dec("100"))

	suite.Require().NoError(err)
	suite.Equal(domain.StatusValidated, txn.Status)
	suite.True(txn.Commission.Equal(dec("1000")))
	suite.True(txn.RealAmount.Equal(dec("100")))
	suite.accountRepo.AssertExpectations(suite.T())
	suite.txRepo.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_NoExecutorLeavesUnassigned() {
	ctx := context.Background()
	suite.txRepo.On("FindTransactionByID", ctx, mock.Anything).Return(pendingTransfer(), nil).Once()
	suite.staffRepo.On("FindAvailableExecutor", ctx).Return(nil, apperrors.ErrNotFound).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusValidated && t.ExecutorID == ""
	}), domain.StatusPending).Return(nil).Once()
	suite.accountRepo.On("ApplyMovement", ctx, mock.Anything, false).Return(&domain.CashAccount{}, nil).Once()
	suite.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	txn, err := suite.service.ValidateTransferRealAmount(ctx, auditorActor, "TRF-20261017-101500-0042", dec("100"))

	suite.Require().NoError(err)
	suite.Empty(txn.ExecutorID)
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_NotificationFailureIsSwallowed() {
	ctx := context.Background()
	suite.txRepo.On("FindTransactionByID", ctx, mock.Anything).Return(pendingTransfer(), nil).Once()
	suite.staffRepo.On("FindAvailableExecutor", ctx).Return(nil, apperrors.ErrNotFound).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.Anything, domain.StatusPending).Return(nil).Once()
	suite.accountRepo.On("ApplyMovement", ctx, mock.Anything, false).Return(&domain.CashAccount{}, nil).Once()
	suite.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	txn, err := suite.service.ValidateTransferRealAmount(ctx, auditorActor, "TRF-20261017-101500-0042", dec("100"))

	suite.Require().NoError(err)
	suite.Equal(domain.StatusValidated, txn.Status)
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_OnlyAuditors() {
	_, err := suite.service.ValidateTransferRealAmount(context.Background(), supervisorActor, "TRF-1", dec("100"))
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_LostRace() {
	ctx := context.Background()
	suite.txRepo.On("FindTransactionByID", ctx, mock.Anything).Return(pendingTransfer(), nil).Once()
	suite.staffRepo.On("FindAvailableExecutor", ctx).Return(nil, apperrors.ErrNotFound).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.Anything, domain.StatusPending).Return(apperrors.ErrInvalidOperation).Once()

	_, err := suite.service.ValidateTransferRealAmount(ctx, auditorActor, "TRF-20261017-101500-0042", dec("100"))

	suite.ErrorIs(err, apperrors.ErrInvalidOperation)
	suite.accountRepo.AssertNotCalled(suite.T(), "ApplyMovement", mock.Anything, mock.Anything, mock.Anything)
	suite.notifier.AssertNotCalled(suite.T(), "Notify", mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_ForeignReceivedAmountIsConverted() {
	ctx := context.Background()
	received := pendingTransfer()
	received.Amount = dec("110")
	received.Currency = "EUR"
	suite.txRepo.On("FindTransactionByID", ctx, received.TransactionID).Return(received, nil).Once()
	suite.staffRepo.On("FindAvailableExecutor", ctx).Return(nil, apperrors.ErrNotFound).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusValidated && t.Commission != nil && t.Commission.Equal(dec("6400"))
	}), domain.StatusPending).Return(nil).Once()
	// 110 EUR received is 70400 XOF; paying out 100 EUR costs 64000 XOF.
	suite.accountRepo.On("ApplyMovement", ctx, movementMatching(domain.AccountTransferCommissionPool, domain.MovementCommission, "6400"), false).
		Return(&domain.CashAccount{Kind: domain.AccountTransferCommissionPool}, nil).Once()
	suite.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	txn, err := suite.service.ValidateTransferRealAmount(ctx, auditorActor, received.TransactionID, dec("100"))

	suite.Require().NoError(err)
	suite.Equal(domain.StatusValidated, txn.Status)
	suite.True(txn.Commission.Equal(dec("6400")), "commission %s", txn.Commission)
	suite.accountRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestValidateTransfer_ReceivedCurrencyWithoutRate() {
	ctx := context.Background()
	received := pendingTransfer()
	received.Amount = dec("100")
	received.Currency = "GBP"
	suite.txRepo.On("FindTransactionByID", ctx, received.TransactionID).Return(received, nil).Once()

	_, err := suite.service.ValidateTransferRealAmount(ctx, auditorActor, received.TransactionID, dec("0.1"))

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.txRepo.AssertNotCalled(suite.T(), "UpdateTransactionState", mock.Anything, mock.Anything, mock.Anything)
	suite.accountRepo.AssertNotCalled(suite.T(), "ApplyMovement", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestCompleteTransaction_ValidatedTransferMustBeExecuted() {
	ctx := context.Background()
	txn := withStatus(pendingTransfer(), domain.StatusValidated)
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.CompleteTransaction(ctx, auditorActor, txn.TransactionID)

	suite.ErrorIs(err, apperrors.ErrInvalidOperation)
	suite.txRepo.AssertNotCalled(suite.T(), "UpdateTransactionState", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestExecuteTransaction_AssignedToAnotherExecutor() {
	ctx := context.Background()
	txn := withStatus(pendingTransfer(), domain.StatusValidated)
	txn.ExecutorID = "exec-2"
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.ExecuteTransaction(ctx, executorActor, txn.TransactionID, portssvc.ExecuteInput{ReceiptRef: "WU-1"})

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *TransactionServiceTestSuite) TestExecuteTransaction_AuditorActsForExecutor() {
	ctx := context.Background()
	txn := withStatus(pendingTransfer(), domain.StatusValidated)
	txn.ExecutorID = "exec-2"
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusExecuted && t.ExecutorID == "exec-2" && t.ReceiptRef == "WU-1"
	}), domain.StatusValidated).Return(nil).Once()
	suite.notifier.On("Notify", mock.Anything, eventNamed(domain.EventTransactionExecuted)).Return(nil).Once()

	updated, err := suite.service.ExecuteTransaction(ctx, auditorActor, txn.TransactionID, portssvc.ExecuteInput{ReceiptRef: "WU-1", AsAuditor: true})

	suite.Require().NoError(err)
	suite.Equal(domain.StatusExecuted, updated.Status)
	suite.txRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestExecuteTransaction_UnassignedIsClaimed() {
	ctx := context.Background()
	txn := withStatus(pendingTransfer(), domain.StatusValidated)
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.ExecutorID == executorActor.UserID
	}), domain.StatusValidated).Return(nil).Once()
	suite.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	updated, err := suite.service.ExecuteTransaction(ctx, executorActor, txn.TransactionID, portssvc.ExecuteInput{ReceiptRef: "MG-77", Comment: "paid"})

	suite.Require().NoError(err)
	suite.Equal(executorActor.UserID, updated.ExecutorID)
	suite.Equal("paid", updated.ExecutionComment)
}

func (suite *TransactionServiceTestSuite) TestExecuteTransaction_RequiresReceipt() {
	_, err := suite.service.ExecuteTransaction(context.Background(), executorActor, "TRF-1", portssvc.ExecuteInput{})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TransactionServiceTestSuite) TestCompleteTransaction_PendingDeleteCannotComplete() {
	ctx := context.Background()
	txn := withStatus(pendingTransfer(), domain.StatusPendingDelete)
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil)

	for _, actor := range []domain.Actor{adminActor, auditorActor, executorActor, supervisorActor} {
		_, err := suite.service.CompleteTransaction(ctx, actor, txn.TransactionID)
		suite.ErrorIs(err, apperrors.ErrInvalidOperation, string(actor.Role))
	}
	suite.txRepo.AssertNotCalled(suite.T(), "UpdateTransactionState", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestCompleteTransaction_ReceptionFromPending() {
	ctx := context.Background()
	txn := &domain.Transaction{
		TransactionID: "RCP-1", Type: domain.TxReception, Status: domain.StatusPending,
		Amount: dec("1000"), Currency: "XOF", Details: domain.ReceptionDetails{Sender: "x", Beneficiary: "y"},
	}
	suite.txRepo.On("FindTransactionByID", ctx, "RCP-1").Return(txn, nil).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusCompleted
	}), domain.StatusPending).Return(nil).Once()
	suite.notifier.On("Notify", mock.Anything, eventNamed(domain.EventTransactionCompleted)).Return(nil).Once()

	updated, err := suite.service.CompleteTransaction(ctx, supervisorActor, "RCP-1")

	suite.Require().NoError(err)
	suite.Equal(domain.StatusCompleted, updated.Status)
}

func (suite *TransactionServiceTestSuite) TestRejectTransaction_RequiresReason() {
	_, err := suite.service.RejectTransaction(context.Background(), auditorActor, "TRF-1", " ")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TransactionServiceTestSuite) TestRejectTransaction_ValidatedTransferReversesCommission() {
	ctx := context.Background()
	commission := dec("1000")
	txn := withStatus(pendingTransfer(), domain.StatusValidated)
	txn.Commission = &commission
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusRejected && t.RejectionReason == "beneficiary unreachable"
	}), domain.StatusValidated).Return(nil).Once()
	suite.accountRepo.On("ApplyMovement", ctx, movementMatching(domain.AccountTransferCommissionPool, domain.MovementWithdrawal, "-1000"), false).
		Return(&domain.CashAccount{}, nil).Once()
	suite.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	_, err := suite.service.RejectTransaction(ctx, auditorActor, txn.TransactionID, "beneficiary unreachable")

	suite.Require().NoError(err)
	suite.accountRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestRequestDeletion_OnlyCreator() {
	ctx := context.Background()
	txn := withStatus(pendingTransfer(), domain.StatusCompleted)
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.RequestDeletion(ctx, domain.Actor{UserID: "agent-2", Role: domain.RoleAgent}, txn.TransactionID, "typo")

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *TransactionServiceTestSuite) TestDeletionFlow_EndsRejected() {
	ctx := context.Background()
	txn := &domain.Transaction{
		TransactionID: "CRD-1", Type: domain.TxCard, Status: domain.StatusCompleted,
		Amount: dec("5000"), Currency: "XOF", Details: domain.CardDetails{Provider: "visa"},
		AuditFields: domain.AuditFields{CreatedBy: agentActor.UserID},
	}
	suite.txRepo.On("FindTransactionByID", ctx, "CRD-1").Return(txn, nil).Once()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusPendingDelete && t.DeletionReason == "duplicate"
	}), domain.StatusCompleted).Return(nil).Once()
	suite.notifier.On("Notify", mock.Anything, eventNamed(domain.EventDeletionRequested)).Return(nil).Once()

	requested, err := suite.service.RequestDeletion(ctx, agentActor, "CRD-1", "duplicate")
	suite.Require().NoError(err)

	suite.txRepo.On("FindTransactionByID", ctx, "CRD-1").Return(requested, nil).Twice()
	suite.txRepo.On("UpdateTransactionState", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Status == domain.StatusRejected && t.RejectionReason == "deleted: duplicate"
	}), domain.StatusPendingDelete).Return(nil).Once()
	suite.notifier.On("Notify", mock.Anything, eventNamed(domain.EventDeletionApproved)).Return(nil).Once()

	deleted, err := suite.service.UpdateTransactionStatus(ctx, supervisorActor, "CRD-1", domain.StatusRejected, "")

	suite.Require().NoError(err)
	suite.Equal(domain.StatusRejected, deleted.Status)
	suite.txRepo.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestUpdateTransactionStatus_ValidatedNeedsRealAmount() {
	_, err := suite.service.UpdateTransactionStatus(context.Background(), auditorActor, "TRF-1", domain.StatusValidated, "")
	suite.ErrorIs(err, apperrors.ErrInvalidOperation)
}

func (suite *TransactionServiceTestSuite) TestGetTransaction_AgentsSeeOnlyTheirOwn() {
	ctx := context.Background()
	txn := pendingTransfer()
	txn.CreatedBy = "agent-9"
	suite.txRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.GetTransaction(ctx, agentActor, txn.TransactionID)

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *TransactionServiceTestSuite) TestListTransactions_ScopesAgentsToCreator() {
	ctx := context.Background()
	suite.txRepo.On("ListTransactions", ctx, mock.MatchedBy(func(f domain.TransactionFilter) bool {
		return f.CreatedBy == agentActor.UserID && f.Limit == 100
	})).Return([]domain.Transaction{}, nil).Once()

	_, err := suite.service.ListTransactions(ctx, agentActor, domain.TransactionFilter{CreatedBy: "someone-else"})

	suite.Require().NoError(err)
	suite.txRepo.AssertExpectations(suite.T())
}

func TestTransactionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
