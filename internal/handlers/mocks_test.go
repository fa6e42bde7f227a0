package handlers_test

import (
	"context"
	"time"

	"github.com/SscSPs/cashdesk_backoffice/internal/core/domain"
	portssvc "github.com/SscSPs/cashdesk_backoffice/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) account(args mock.Arguments) (*domain.CashAccount, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashAccount), args.Error(1)
}

func (m *MockLedgerService) GetAccounts(ctx context.Context, actor domain.Actor) ([]domain.CashAccount, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashAccount), args.Error(1)
}
func (m *MockLedgerService) GetAccount(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (*domain.CashAccount, error) {
	return m.account(m.Called(ctx, actor, kind))
}
func (m *MockLedgerService) ListMovements(ctx context.Context, actor domain.Actor, filter domain.MovementFilter) ([]domain.CashMovement, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CashMovement), args.Error(1)
}
func (m *MockLedgerService) SetAccountBalance(ctx context.Context, actor domain.Actor, kind domain.AccountKind, newBalance decimal.Decimal, note string) (*domain.CashAccount, error) {
	return m.account(m.Called(ctx, actor, kind, newBalance, note))
}
func (m *MockLedgerService) Debit(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	return m.account(m.Called(ctx, actor, entry))
}
func (m *MockLedgerService) Deposit(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	return m.account(m.Called(ctx, actor, entry))
}
func (m *MockLedgerService) PostCommission(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	return m.account(m.Called(ctx, actor, entry))
}
func (m *MockLedgerService) ChargeExpense(ctx context.Context, actor domain.Actor, entry portssvc.LedgerEntry) (*domain.CashAccount, error) {
	return m.account(m.Called(ctx, actor, entry))
}
func (m *MockLedgerService) TransferBetweenAccounts(ctx context.Context, actor domain.Actor, from, to domain.AccountKind, amount decimal.Decimal, note string) error {
	return m.Called(ctx, actor, from, to, amount, note).Error(0)
}
func (m *MockLedgerService) ReconcilePool(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (decimal.Decimal, error) {
	args := m.Called(ctx, actor, kind)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockLedgerService) ReconcileAccount(ctx context.Context, actor domain.Actor, kind domain.AccountKind) (decimal.Decimal, error) {
	args := m.Called(ctx, actor, kind)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock ExchangeService ---
type MockExchangeService struct {
	mock.Mock
}

func (m *MockExchangeService) operation(args mock.Arguments) (*domain.ExchangeOperation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeOperation), args.Error(1)
}

func (m *MockExchangeService) GetTills(ctx context.Context, actor domain.Actor) ([]domain.ExchangeTill, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeTill), args.Error(1)
}
func (m *MockExchangeService) ListOperations(ctx context.Context, actor domain.Actor, filter domain.OperationFilter) ([]domain.ExchangeOperation, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeOperation), args.Error(1)
}
func (m *MockExchangeService) RecordReplenishment(ctx context.Context, actor domain.Actor, in portssvc.ReplenishmentInput) (*domain.ExchangeOperation, error) {
	return m.operation(m.Called(ctx, actor, in))
}
func (m *MockExchangeService) RecordSale(ctx context.Context, actor domain.Actor, in portssvc.SaleInput) (*domain.ExchangeOperation, error) {
	return m.operation(m.Called(ctx, actor, in))
}
func (m *MockExchangeService) RecordCession(ctx context.Context, actor domain.Actor, in portssvc.CessionInput) (*domain.ExchangeOperation, error) {
	return m.operation(m.Called(ctx, actor, in))
}
func (m *MockExchangeService) AdjustTill(ctx context.Context, actor domain.Actor, currency string, newBalance decimal.Decimal, note string) (*domain.ExchangeOperation, error) {
	return m.operation(m.Called(ctx, actor, currency, newBalance, note))
}
func (m *MockExchangeService) ReconcileTill(ctx context.Context, actor domain.Actor, currency string) (decimal.Decimal, error) {
	args := m.Called(ctx, actor, currency)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

var _ portssvc.ExchangeSvcFacade = (*MockExchangeService)(nil)

// --- Mock TransactionService ---
type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) txn(args mock.Arguments) (*domain.Transaction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionService) GetTransaction(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID))
}
func (m *MockTransactionService) ListTransactions(ctx context.Context, actor domain.Actor, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionService) CreateTransaction(ctx context.Context, actor domain.Actor, in portssvc.CreateTransactionInput) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, in))
}
func (m *MockTransactionService) UpdateTransactionStatus(ctx context.Context, actor domain.Actor, transactionID string, status domain.TransactionStatus, reason string) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID, status, reason))
}
func (m *MockTransactionService) ValidateTransferRealAmount(ctx context.Context, actor domain.Actor, transactionID string, realAmount decimal.Decimal) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID, realAmount))
}
func (m *MockTransactionService) ExecuteTransaction(ctx context.Context, actor domain.Actor, transactionID string, in portssvc.ExecuteInput) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID, in))
}
func (m *MockTransactionService) CompleteTransaction(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID))
}
func (m *MockTransactionService) RejectTransaction(ctx context.Context, actor domain.Actor, transactionID string, reason string) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID, reason))
}
func (m *MockTransactionService) RequestDeletion(ctx context.Context, actor domain.Actor, transactionID string, reason string) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID, reason))
}
func (m *MockTransactionService) ValidateDeletion(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Transaction, error) {
	return m.txn(m.Called(ctx, actor, transactionID))
}

var _ portssvc.TransactionSvcFacade = (*MockTransactionService)(nil)

// --- Mock ExpenseService ---
type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) expense(args mock.Arguments) (*domain.Expense, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) SubmitExpense(ctx context.Context, actor domain.Actor, in portssvc.SubmitExpenseInput) (*domain.Expense, error) {
	return m.expense(m.Called(ctx, actor, in))
}
func (m *MockExpenseService) GetExpense(ctx context.Context, actor domain.Actor, expenseID string) (*domain.Expense, error) {
	return m.expense(m.Called(ctx, actor, expenseID))
}
func (m *MockExpenseService) ListExpenses(ctx context.Context, actor domain.Actor, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}
func (m *MockExpenseService) ApproveExpenseByControl(ctx context.Context, actor domain.Actor, expenseID string, decision portssvc.ExpenseDecision) (*domain.Expense, error) {
	return m.expense(m.Called(ctx, actor, expenseID, decision))
}
func (m *MockExpenseService) ApproveExpenseByExecutive(ctx context.Context, actor domain.Actor, expenseID string, decision portssvc.ExpenseDecision) (*domain.Expense, error) {
	return m.expense(m.Called(ctx, actor, expenseID, decision))
}

var _ portssvc.ExpenseSvcFacade = (*MockExpenseService)(nil)

// --- Mock SettlementService ---
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) settlement(args mock.Arguments) (*domain.CashSettlement, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashSettlement), args.Error(1)
}

func (m *MockSettlementService) CreateSettlement(ctx context.Context, actor domain.Actor, cashierID string, businessDate time.Time) (*domain.CashSettlement, error) {
	return m.settlement(m.Called(ctx, actor, cashierID, businessDate))
}
func (m *MockSettlementService) GetSettlement(ctx context.Context, actor domain.Actor, settlementID string) (*domain.CashSettlement, []domain.SettlementUnloading, error) {
	args := m.Called(ctx, actor, settlementID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.CashSettlement), args.Get(1).([]domain.SettlementUnloading), args.Error(2)
}
func (m *MockSettlementService) AddUnloading(ctx context.Context, actor domain.Actor, settlementID string, amount decimal.Decimal, note string) (*domain.CashSettlement, error) {
	return m.settlement(m.Called(ctx, actor, settlementID, amount, note))
}
func (m *MockSettlementService) ValidateSettlement(ctx context.Context, actor domain.Actor, settlementID string, received decimal.Decimal, exceptionReason string) (*domain.CashSettlement, error) {
	return m.settlement(m.Called(ctx, actor, settlementID, received, exceptionReason))
}
func (m *MockSettlementService) RejectSettlement(ctx context.Context, actor domain.Actor, settlementID string, reason string) (*domain.CashSettlement, error) {
	return m.settlement(m.Called(ctx, actor, settlementID, reason))
}

var _ portssvc.SettlementSvcFacade = (*MockSettlementService)(nil)
