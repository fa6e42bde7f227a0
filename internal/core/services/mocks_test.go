package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portsrepo "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// passthroughTx runs the unit of work inline and counts the transactions opened.
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// staticSettings returns fixed settings.
type staticSettings struct {
	settings domain.Settings
	err      error
}

func (s staticSettings) Current(ctx context.Context) (domain.Settings, error) {
	return s.settings, s.err
}

// MockNotifier is a mock type for the Notifier interface
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func eventNamed(name domain.EventName) interface{} {
	return mock.MatchedBy(func(e domain.Event) bool { return e.Name == name })
}

// --- Account repository ---

// MockAccountRepository is a mock type for the CashAccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccount(ctx context.Context, kind domain.AccountKind) (*domain.CashAccount, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashAccount), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context) ([]domain.CashAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashAccount), args.Error(1)
}

func (m *MockAccountRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.CashMovement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashMovement), args.Error(1)
}

func (m *MockAccountRepository) ApplyMovement(ctx context.Context, movement domain.CashMovement, requireFunds bool) (*domain.CashAccount, error) {
	args := m.Called(ctx, movement, requireFunds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashAccount), args.Error(1)
}

func (m *MockAccountRepository) LockAccount(ctx context.Context, kind domain.AccountKind) (*domain.CashAccount, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashAccount), args.Error(1)
}

func (m *MockAccountRepository) SumMovements(ctx context.Context, kind domain.AccountKind, kinds []domain.MovementKind) (decimal.Decimal, error) {
	args := m.Called(ctx, kind, kinds)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) SetCachedBalance(ctx context.Context, kind domain.AccountKind, balance decimal.Decimal, actor string) error {
	args := m.Called(ctx, kind, balance, actor)
	return args.Error(0)
}

// movementMatching matches a movement by account, kind and signed amount.
func movementMatching(kind domain.AccountKind, movementKind domain.MovementKind, amount string) interface{} {
	want := decimal.RequireFromString(amount)
	return mock.MatchedBy(func(m domain.CashMovement) bool {
		return m.AccountKind == kind && m.Kind == movementKind && m.Amount.Equal(want)
	})
}

// --- Exchange repository ---

// MockExchangeRepository is a mock type for the ExchangeRepositoryFacade interface
type MockExchangeRepository struct {
	mock.Mock
}

func (m *MockExchangeRepository) FindTill(ctx context.Context, currency string) (*domain.ExchangeTill, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeTill), args.Error(1)
}

func (m *MockExchangeRepository) ListTills(ctx context.Context) ([]domain.ExchangeTill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeTill), args.Error(1)
}

func (m *MockExchangeRepository) ListOperations(ctx context.Context, filter domain.OperationFilter) ([]domain.ExchangeOperation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeOperation), args.Error(1)
}

func (m *MockExchangeRepository) ApplyTillChange(ctx context.Context, change portsrepo.TillChange) (*domain.ExchangeTill, error) {
	args := m.Called(ctx, change)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeTill), args.Error(1)
}

func (m *MockExchangeRepository) SaveOperation(ctx context.Context, op domain.ExchangeOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockExchangeRepository) LockTill(ctx context.Context, currency string) (*domain.ExchangeTill, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeTill), args.Error(1)
}

func (m *MockExchangeRepository) SumTillLegs(ctx context.Context, currency string) (decimal.Decimal, error) {
	args := m.Called(ctx, currency)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockExchangeRepository) SetTillBalance(ctx context.Context, currency string, balance decimal.Decimal, actor string) error {
	args := m.Called(ctx, currency, balance, actor)
	return args.Error(0)
}

// tillChange matches a till change by currency and delta.
func tillChange(currency, delta string) interface{} {
	want := decimal.RequireFromString(delta)
	return mock.MatchedBy(func(c portsrepo.TillChange) bool {
		return c.Currency == currency && c.Delta.Equal(want)
	})
}

// --- Transaction repository ---

// MockTransactionRepository is a mock type for the TransactionRepositoryFacade interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SumCompletedByCreator(ctx context.Context, creator string, from, to time.Time) ([]domain.CurrencyTotal, error) {
	args := m.Called(ctx, creator, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CurrencyTotal), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransactionState(ctx context.Context, txn domain.Transaction, expected domain.TransactionStatus) error {
	args := m.Called(ctx, txn, expected)
	return args.Error(0)
}

// --- Staff repository ---

// MockStaffRepository is a mock type for the StaffReader interface
type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) FindStaffByID(ctx context.Context, userID string) (*domain.StaffMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffMember), args.Error(1)
}

func (m *MockStaffRepository) FindAvailableExecutor(ctx context.Context) (*domain.StaffMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffMember), args.Error(1)
}

// --- Expense repository ---

// MockExpenseRepository is a mock type for the ExpenseRepositoryFacade interface
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) ListExpenses(ctx context.Context, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) UpdateExpenseStage(ctx context.Context, expense domain.Expense, expected domain.ExpenseStatus) error {
	args := m.Called(ctx, expense, expected)
	return args.Error(0)
}

// --- Settlement repository ---

// MockSettlementRepository is a mock type for the SettlementRepositoryFacade interface
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) SaveSettlement(ctx context.Context, settlement domain.CashSettlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) FindSettlementByID(ctx context.Context, settlementID string) (*domain.CashSettlement, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSettlement), args.Error(1)
}

func (m *MockSettlementRepository) LockSettlement(ctx context.Context, settlementID string) (*domain.CashSettlement, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSettlement), args.Error(1)
}

func (m *MockSettlementRepository) UpdateSettlement(ctx context.Context, settlement domain.CashSettlement, expected domain.SettlementStatus) error {
	args := m.Called(ctx, settlement, expected)
	return args.Error(0)
}

func (m *MockSettlementRepository) SaveUnloading(ctx context.Context, unloading domain.SettlementUnloading) error {
	args := m.Called(ctx, unloading)
	return args.Error(0)
}

func (m *MockSettlementRepository) ListUnloadings(ctx context.Context, settlementID string) ([]domain.SettlementUnloading, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SettlementUnloading), args.Error(1)
}

// Compile-time checks.
var (
	_ portsrepo.CashAccountRepositoryFacade = (*MockAccountRepository)(nil)
	_ portsrepo.ExchangeRepositoryFacade    = (*MockExchangeRepository)(nil)
	_ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)
	_ portsrepo.StaffReader                 = (*MockStaffRepository)(nil)
	_ portsrepo.ExpenseRepositoryFacade     = (*MockExpenseRepository)(nil)
	_ portsrepo.SettlementRepositoryFacade  = (*MockSettlementRepository)(nil)
	_ portsrepo.TransactionManager          = (*passthroughTx)(nil)
)
