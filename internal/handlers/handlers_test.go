package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/apperrors"
	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/SscSPs/cashdesk_backoffice/internal/dto"
	"github.com/SscSPs/cashdesk_backoffice/internal/handlers"
	"github.com/SscSPs/cashdesk_backoffice/internal/middleware"
	"github.com/SscSPs/cashdesk_backoffice/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HandlersTestSuite struct {
	suite.Suite
	router      *gin.Engine
	jwtSecret   string
	ledger      *MockLedgerService
	exchange    *MockExchangeService
	transaction *MockTransactionService
	expense     *MockExpenseService
	settlement  *MockSettlementService
}

var (
	cashierActor = domain.Actor{UserID: "cashier-1", Role: domain.RoleCashier, Agency: "DKR"}
	adminActor   = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin, Agency: "HQ"}
)

func (suite *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.ledger = new(MockLedgerService)
	suite.exchange = new(MockExchangeService)
	suite.transaction = new(MockTransactionService)
	suite.expense = new(MockExpenseService)
	suite.settlement = new(MockSettlementService)

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	cfg := &config.Config{JWTSecret: suite.jwtSecret, IsProduction: true}
	err := handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{
		Ledger:      suite.ledger,
		Exchange:    suite.exchange,
		Transaction: suite.transaction,
		Expense:     suite.expense,
		Settlement:  suite.settlement,
	})
	suite.Require().NoError(err)
}

func (suite *HandlersTestSuite) TearDownTest() {
	suite.ledger.AssertExpectations(suite.T())
	suite.exchange.AssertExpectations(suite.T())
	suite.transaction.AssertExpectations(suite.T())
	suite.expense.AssertExpectations(suite.T())
	suite.settlement.AssertExpectations(suite.T())
}

// generateTestToken creates a signed JWT carrying the actor's identity.
func (suite *HandlersTestSuite) generateTestToken(actor domain.Actor) string {
	claims := middleware.ActorClaims{
		Role:   string(actor.Role),
		Agency: actor.Agency,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "backoffice-test",
			Subject:   actor.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlersTestSuite) do(actor *domain.Actor, method, url string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(*actor))
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func decimalEq(want string) func(decimal.Decimal) bool {
	return func(got decimal.Decimal) bool { return got.Equal(decimal.RequireFromString(want)) }
}

func (suite *HandlersTestSuite) errorBody(w *httptest.ResponseRecorder) string {
	var body dto.ErrorResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

// --- Auth and infrastructure ---

func (suite *HandlersTestSuite) TestHealthAndMetricsArePublic() {
	suite.Equal(http.StatusOK, suite.do(nil, http.MethodGet, "/health", nil).Code)
	suite.Equal(http.StatusOK, suite.do(nil, http.MethodGet, "/metrics", nil).Code)
}

func (suite *HandlersTestSuite) TestMissingTokenIsUnauthorized() {
	w := suite.do(nil, http.MethodGet, "/api/v1/accounts", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestUnknownRoleIsUnauthorized() {
	w := suite.do(&domain.Actor{UserID: "u-1", Role: "janitor"}, http.MethodGet, "/api/v1/accounts", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlersTestSuite) TestTokenSignedWithAnotherKeyIsUnauthorized() {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.ActorClaims{
		Role:             string(domain.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"},
	}).SignedString([]byte("another-key"))
	suite.Require().NoError(err)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

// --- Ledger ---

func (suite *HandlersTestSuite) TestListAccounts_PassesActorFromToken() {
	accounts := []domain.CashAccount{{Kind: domain.AccountVault, Balance: decimal.NewFromInt(1000)}}
	suite.ledger.On("GetAccounts", mock.Anything, adminActor).Return(accounts, nil).Once()

	w := suite.do(&adminActor, http.MethodGet, "/api/v1/accounts", nil)

	suite.Equal(http.StatusOK, w.Code)
	var got []domain.CashAccount
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Require().Len(got, 1)
	suite.Equal(domain.AccountVault, got[0].Kind)
}

func (suite *HandlersTestSuite) TestDebit_RejectsNonPositiveAmount() {
	for _, amount := range []string{"0", "-5", "abc"} {
		w := suite.do(&adminActor, http.MethodPost, "/api/v1/accounts/vault/debit", map[string]any{"amount": amount, "note": "x"})
		suite.Equal(http.StatusBadRequest, w.Code, "amount %s", amount)
	}
	suite.ledger.AssertNotCalled(suite.T(), "Debit", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlersTestSuite) TestDebit_InsufficientFundsIs422() {
	suite.ledger.On("Debit", mock.Anything, adminActor, mock.MatchedBy(func(e portssvc.LedgerEntry) bool {
		return e.Kind == domain.AccountVault && decimalEq("2500.50")(e.Amount) && e.Note == "petty cash"
	})).Return(nil, fmt.Errorf("%w: vault", apperrors.ErrInsufficientFunds)).Once()

	w := suite.do(&adminActor, http.MethodPost, "/api/v1/accounts/vault/debit", map[string]any{"amount": "2500.50", "note": "petty cash"})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(suite.errorBody(w), "insufficient funds")
}

func (suite *HandlersTestSuite) TestSetBalance_PoolIsConflict() {
	suite.ledger.On("SetAccountBalance", mock.Anything, adminActor, domain.AccountExchangeSurplusPool, mock.MatchedBy(decimalEq("10")), "fix").
		Return(nil, fmt.Errorf("%w: pool", apperrors.ErrInvalidOperation)).Once()

	w := suite.do(&adminActor, http.MethodPut, "/api/v1/accounts/exchange_surplus_pool/balance", map[string]any{"balance": "10", "note": "fix"})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestTransfer_NoContent() {
	suite.ledger.On("TransferBetweenAccounts", mock.Anything, adminActor, domain.AccountBankA, domain.AccountVault, mock.MatchedBy(decimalEq("300")), "restock").
		Return(nil).Once()

	w := suite.do(&adminActor, http.MethodPost, "/api/v1/accounts/transfer", map[string]any{
		"from": "bank_a", "to": "vault", "amount": 300, "note": "restock",
	})
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlersTestSuite) TestReconcile_RoutesPoolsAndAccounts() {
	suite.ledger.On("ReconcilePool", mock.Anything, adminActor, domain.AccountTransferCommissionPool).Return(decimal.NewFromInt(1000), nil).Once()
	suite.ledger.On("ReconcileAccount", mock.Anything, adminActor, domain.AccountVault).Return(decimal.NewFromInt(250), nil).Once()

	w := suite.do(&adminActor, http.MethodPost, "/api/v1/accounts/transfer_commission_pool/reconcile", nil)
	suite.Equal(http.StatusOK, w.Code)
	var res dto.ReconcileResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.True(res.Balance.Equal(decimal.NewFromInt(1000)))

	w = suite.do(&adminActor, http.MethodPost, "/api/v1/accounts/vault/reconcile", nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestListMovements_Pages() {
	page := []domain.CashMovement{{MovementID: "m-1"}, {MovementID: "m-2"}}
	suite.ledger.On("ListMovements", mock.Anything, adminActor, mock.MatchedBy(func(f domain.MovementFilter) bool {
		return f.AccountKind == domain.AccountVault && f.Limit == 2 && f.Offset == 0
	})).Return(page, nil).Once()

	w := suite.do(&adminActor, http.MethodGet, "/api/v1/accounts/vault/movements?limit=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var first dto.ListResponse[domain.CashMovement]
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &first))
	suite.Len(first.Items, 2)
	suite.Require().NotEmpty(first.NextToken)

	suite.ledger.On("ListMovements", mock.Anything, adminActor, mock.MatchedBy(func(f domain.MovementFilter) bool {
		return f.Limit == 2 && f.Offset == 2
	})).Return([]domain.CashMovement{{MovementID: "m-3"}}, nil).Once()

	w = suite.do(&adminActor, http.MethodGet, "/api/v1/accounts/vault/movements?limit=2&pageToken="+first.NextToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var second dto.ListResponse[domain.CashMovement]
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &second))
	suite.Len(second.Items, 1)
	suite.Empty(second.NextToken)
}

func (suite *HandlersTestSuite) TestListMovements_BadPageToken() {
	w := suite.do(&adminActor, http.MethodGet, "/api/v1/accounts/vault/movements?pageToken=%21%21", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// --- Exchange ---

func (suite *HandlersTestSuite) TestSale_DefaultsRateAndHidesInternalErrors() {
	suite.exchange.On("RecordSale", mock.Anything, cashierActor, mock.MatchedBy(func(in portssvc.SaleInput) bool {
		return in.Currency == "EUR" && decimalEq("100")(in.SoldAmount) && in.TodayRate.IsZero()
	})).Return(nil, apperrors.NewAppError(500, "failed to save operation", fmt.Errorf("connection reset"))).Once()

	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/exchange/sales", map[string]any{"currency": "EUR", "soldAmount": "100"})

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to record sale", suite.errorBody(w))
}

func (suite *HandlersTestSuite) TestReplenishment_NoFundingSourceIs400() {
	suite.exchange.On("RecordReplenishment", mock.Anything, cashierActor, mock.AnythingOfType("services.ReplenishmentInput")).
		Return(nil, fmt.Errorf("%w: choose till or vault", apperrors.ErrInvalidSelection)).Once()

	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/exchange/replenishments", map[string]any{
		"fundingCurrency": "XOF", "amount": "100000", "targetCurrency": "EUR", "purchaseRate": "580",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestAdjustTill_UppercasesCurrency() {
	op := &domain.ExchangeOperation{OperationID: "op-1", Kind: domain.OperationManualAdjust}
	suite.exchange.On("AdjustTill", mock.Anything, adminActor, "USD", mock.MatchedBy(decimalEq("40")), "count").Return(op, nil).Once()

	w := suite.do(&adminActor, http.MethodPost, "/api/v1/exchange/tills/usd/adjust", map[string]any{"balance": "40", "note": "count"})
	suite.Equal(http.StatusCreated, w.Code)
}

// --- Transactions ---

func (suite *HandlersTestSuite) TestCreateTransaction_DecodesTypedDetails() {
	created := &domain.Transaction{TransactionID: "TRF-20261017-101500-0042", Status: domain.StatusPending}
	suite.transaction.On("CreateTransaction", mock.Anything, cashierActor, mock.MatchedBy(func(in portssvc.CreateTransactionInput) bool {
		details, ok := in.Details.(domain.TransferDetails)
		return ok && in.Type == domain.TxTransfer && in.Currency == "XOF" &&
			decimalEq("65000")(in.Amount) && details.SettlementCurrency == "EUR"
	})).Return(created, nil).Once()

	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/transactions", map[string]any{
		"type":     "transfer",
		"amount":   "65000",
		"currency": "xof",
		"details": map[string]any{
			"beneficiary":        "A. Diallo",
			"destination":        "FR",
			"settlementCurrency": "EUR",
			"transferMethod":     "wire",
			"withdrawalMode":     "cash",
		},
	})

	suite.Equal(http.StatusCreated, w.Code)
	var got domain.Transaction
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &got))
	suite.Equal(created.TransactionID, got.TransactionID)
}

func (suite *HandlersTestSuite) TestCreateTransaction_UnknownTypeIs400() {
	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/transactions", map[string]any{
		"type": "barter", "amount": "1", "currency": "XOF", "details": map[string]any{},
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(suite.errorBody(w), "Invalid details")
}

func (suite *HandlersTestSuite) TestUpdateStatus_InvalidTransitionIsConflict() {
	suite.transaction.On("UpdateTransactionStatus", mock.Anything, adminActor, "CRD-1", domain.StatusCompleted, "").
		Return(nil, fmt.Errorf("%w: pending_delete -> completed", apperrors.ErrInvalidOperation)).Once()

	w := suite.do(&adminActor, http.MethodPatch, "/api/v1/transactions/CRD-1/status", map[string]any{"status": "completed"})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestValidateRealAmount() {
	auditor := domain.Actor{UserID: "aud-1", Role: domain.RoleAuditor, Agency: "HQ"}
	validated := &domain.Transaction{TransactionID: "TRF-1", Status: domain.StatusValidated}
	suite.transaction.On("ValidateTransferRealAmount", mock.Anything, auditor, "TRF-1", mock.MatchedBy(decimalEq("100"))).Return(validated, nil).Once()

	w := suite.do(&auditor, http.MethodPost, "/api/v1/transactions/TRF-1/validate-real-amount", map[string]any{"realAmount": "100"})
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestExecute_ForbiddenForOtherExecutor() {
	executor := domain.Actor{UserID: "exec-2", Role: domain.RoleExecutor, Agency: "HQ"}
	suite.transaction.On("ExecuteTransaction", mock.Anything, executor, "TRF-1", portssvc.ExecuteInput{ReceiptRef: "RC-9"}).
		Return(nil, fmt.Errorf("%w: assigned to exec-1", apperrors.ErrForbidden)).Once()

	w := suite.do(&executor, http.MethodPost, "/api/v1/transactions/TRF-1/execute", map[string]any{"receiptRef": "RC-9"})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestRequestDeletion_RequiresReason() {
	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/transactions/CRD-1/deletion-request", map[string]any{})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestGetTransaction_NotFound() {
	suite.transaction.On("GetTransaction", mock.Anything, cashierActor, "RCP-404").
		Return(nil, fmt.Errorf("%w: transaction RCP-404", apperrors.ErrNotFound)).Once()

	w := suite.do(&cashierActor, http.MethodGet, "/api/v1/transactions/RCP-404", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// --- Expenses ---

func (suite *HandlersTestSuite) TestExecutiveDecision_Forbidden() {
	suite.expense.On("ApproveExpenseByExecutive", mock.Anything, cashierActor, "exp-1", portssvc.ExpenseDecision{Approve: true}).
		Return(nil, fmt.Errorf("%w: director only", apperrors.ErrForbidden)).Once()

	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/expenses/exp-1/executive", map[string]any{"approve": true})
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestSubmitExpense() {
	expense := &domain.Expense{ExpenseID: "exp-1", Status: domain.ExpensePending}
	suite.expense.On("SubmitExpense", mock.Anything, cashierActor, mock.MatchedBy(func(in portssvc.SubmitExpenseInput) bool {
		return in.Description == "fuel" && decimalEq("25000")(in.Amount)
	})).Return(expense, nil).Once()

	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/expenses", map[string]any{"description": "fuel", "amount": "25000"})
	suite.Equal(http.StatusCreated, w.Code)
}

// --- Settlements ---

func (suite *HandlersTestSuite) TestCreateSettlement_ParsesBusinessDate() {
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	suite.settlement.On("CreateSettlement", mock.Anything, cashierActor, "cashier-1", day).
		Return(&domain.CashSettlement{SettlementID: "stl-1", CashierID: "cashier-1"}, nil).Once()

	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/settlements", map[string]any{"cashierID": "cashier-1", "businessDate": "2026-10-16"})
	suite.Equal(http.StatusCreated, w.Code)

	w = suite.do(&cashierActor, http.MethodPost, "/api/v1/settlements", map[string]any{"cashierID": "cashier-1", "businessDate": "16/10/2026"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreateSettlement_DuplicateIsConflict() {
	suite.settlement.On("CreateSettlement", mock.Anything, cashierActor, "cashier-1", mock.AnythingOfType("time.Time")).
		Return(nil, fmt.Errorf("%w: already settled", apperrors.ErrDuplicate)).Once()

	w := suite.do(&cashierActor, http.MethodPost, "/api/v1/settlements", map[string]any{"cashierID": "cashier-1", "businessDate": "2026-10-16"})
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestGetSettlement_IncludesUnloadings() {
	settlement := &domain.CashSettlement{SettlementID: "stl-1"}
	unloadings := []domain.SettlementUnloading{{UnloadingID: "u-1", Amount: decimal.NewFromInt(50000)}}
	suite.settlement.On("GetSettlement", mock.Anything, adminActor, "stl-1").Return(settlement, unloadings, nil).Once()

	w := suite.do(&adminActor, http.MethodGet, "/api/v1/settlements/stl-1", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var res dto.SettlementResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("stl-1", res.Settlement.SettlementID)
	suite.Len(res.Unloadings, 1)
}

func (suite *HandlersTestSuite) TestValidateSettlement_AcceptsZeroReceived() {
	supervisor := domain.Actor{UserID: "sup-1", Role: domain.RoleSupervisor, Agency: "DKR"}
	suite.settlement.On("ValidateSettlement", mock.Anything, supervisor, "stl-1", mock.MatchedBy(decimalEq("0")), "drawer empty").
		Return(&domain.CashSettlement{SettlementID: "stl-1", Status: domain.SettlementException}, nil).Once()

	w := suite.do(&supervisor, http.MethodPost, "/api/v1/settlements/stl-1/validate", map[string]any{"receivedAmount": "0", "exceptionReason": "drawer empty"})
	suite.Equal(http.StatusOK, w.Code)
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
