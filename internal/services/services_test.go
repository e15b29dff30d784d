package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testUser int64 = 1

type ServicesSuite struct {
	suite.Suite
	store *storage.SQLiteStore
	ctx   context.Context
}

func (s *ServicesSuite) SetupTest() {
	store, err := storage.NewSQLiteStore(filepath.Join(s.T().TempDir(), "budget.db"))
	require.NoError(s.T(), err, "failed to create test store")
	s.store = store
	s.ctx = context.Background()
}

func (s *ServicesSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *ServicesSuite) newChecking(cents int64) core.Account {
	a := core.Account{
		UserID:  testUser,
		Name:    "Checking",
		Type:    core.Checking,
		Balance: core.Money{Cents: cents},
	}
	require.NoError(s.T(), s.store.CreateAccount(s.ctx, &a))
	return a
}

func (s *ServicesSuite) TestCreateTransactionValidation() {
	svc := NewLedgerService(s.store, nil)
	acct := s.newChecking(10000)

	_, err := svc.CreateTransaction(s.ctx, core.Transaction{
		UserID: testUser, AccountID: acct.ID,
		Description: "", Amount: core.Money{Cents: 100},
		Category: "Food", Type: core.Expense,
	})
	assert.ErrorIs(s.T(), err, core.ErrEmptyDescription)

	_, err = svc.CreateTransaction(s.ctx, core.Transaction{
		UserID: testUser, AccountID: acct.ID,
		Description: "Coffee", Amount: core.Money{Cents: 0},
		Category: "Food", Type: core.Expense,
	})
	assert.ErrorIs(s.T(), err, core.ErrInvalidAmount)

	_, err = svc.CreateTransaction(s.ctx, core.Transaction{
		UserID: testUser, AccountID: acct.ID,
		Description: "Coffee", Amount: core.Money{Cents: 350},
		Category: "Food", Type: "transfer",
	})
	assert.ErrorIs(s.T(), err, core.ErrInvalidTransactionType)
}

func (s *ServicesSuite) TestCreateTransactionDefaultsCategory() {
	svc := NewLedgerService(s.store, nil)
	acct := s.newChecking(10000)

	tx, err := svc.CreateTransaction(s.ctx, core.Transaction{
		UserID: testUser, AccountID: acct.ID,
		Description: "Coffee", Amount: core.Money{Cents: 350},
		Type: core.Expense,
	})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), core.Uncategorized, tx.Category)
}

func (s *ServicesSuite) TestBillTogglePaidMessages() {
	billSvc := NewBillService(s.store)
	billSvc.now = func() time.Time {
		return time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	}

	acct := s.newChecking(50000)
	bill, err := billSvc.CreateBill(s.ctx, core.Bill{
		UserID: testUser, AccountID: acct.ID,
		Name: "Rent", Amount: core.Money{Cents: 30000},
		Category: "Housing", DayOfMonth: 1, Active: true,
	})
	require.NoError(s.T(), err)

	res, err := billSvc.TogglePaid(s.ctx, testUser, bill.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), res.Paid)
	assert.Equal(s.T(), "Bill 'Rent' marked as paid for March 2024", res.Message)

	res, err = billSvc.TogglePaid(s.ctx, testUser, bill.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), res.Paid)
	assert.Equal(s.T(), "Bill 'Rent' marked as unpaid for March 2024", res.Message)

	// Toggling off must have restored the balance.
	a, err := s.store.GetAccount(s.ctx, testUser, acct.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(50000), a.Balance.Cents)
}

func (s *ServicesSuite) TestBillListStatuses() {
	billSvc := NewBillService(s.store)
	billSvc.now = func() time.Time {
		return time.Date(2024, time.February, 15, 9, 0, 0, 0, time.UTC)
	}

	acct := s.newChecking(100000)
	overdue, err := billSvc.CreateBill(s.ctx, core.Bill{
		UserID: testUser, AccountID: acct.ID,
		Name: "Water", Amount: core.Money{Cents: 4000},
		Category: "Utilities", DayOfMonth: 3, Active: true,
	})
	require.NoError(s.T(), err)
	clipped, err := billSvc.CreateBill(s.ctx, core.Bill{
		UserID: testUser, AccountID: acct.ID,
		Name: "Card", Amount: core.Money{Cents: 20000},
		Category: "Debt", DayOfMonth: 31, Active: true,
	})
	require.NoError(s.T(), err)

	statuses, err := billSvc.ListBills(s.ctx, testUser)
	require.NoError(s.T(), err)
	require.Len(s.T(), statuses, 2)

	byID := map[int64]int{}
	for i, st := range statuses {
		byID[st.Bill.ID] = i
	}

	st := statuses[byID[overdue.ID]]
	assert.True(s.T(), st.Overdue)
	assert.False(s.T(), st.DueSoon)

	// Day 31 clips to Feb 29 in 2024.
	st = statuses[byID[clipped.ID]]
	assert.Equal(s.T(), time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), st.DueDate)
	assert.False(s.T(), st.Overdue)
}

func (s *ServicesSuite) TestBillResetAll() {
	billSvc := NewBillService(s.store)
	billSvc.now = func() time.Time {
		return time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	}

	acct := s.newChecking(50000)
	bill, err := billSvc.CreateBill(s.ctx, core.Bill{
		UserID: testUser, AccountID: acct.ID,
		Name: "Gym", Amount: core.Money{Cents: 3000},
		Category: "Health", DayOfMonth: 5, Active: true,
	})
	require.NoError(s.T(), err)

	_, err = billSvc.TogglePaid(s.ctx, testUser, bill.ID)
	require.NoError(s.T(), err)

	n, err := billSvc.ResetAll(s.ctx, testUser)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	// Payment transaction survives the reset.
	txs, err := s.store.ListTransactions(s.ctx, testUser)
	require.NoError(s.T(), err)
	require.Len(s.T(), txs, 1)
	assert.Equal(s.T(), "Bill Payment: Gym", txs[0].Description)

	n, err = billSvc.ResetAll(s.ctx, testUser)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)
}

func (s *ServicesSuite) TestCategoryListAndRename() {
	catSvc := NewCategoryService(s.store)
	acct := s.newChecking(0)

	for _, c := range []string{"Food", "Food", "Travel"} {
		tx := core.Transaction{
			UserID: testUser, AccountID: acct.ID,
			Description: "x", Amount: core.Money{Cents: 100},
			Category: c, Type: core.Expense,
		}
		require.NoError(s.T(), s.store.CreateTransaction(s.ctx, &tx))
	}

	usages, err := catSvc.List(s.ctx, testUser)
	require.NoError(s.T(), err)
	require.Len(s.T(), usages, 2)
	assert.Equal(s.T(), "Food", usages[0].Name)
	assert.Equal(s.T(), 2, usages[0].TransactionCount)

	// Same-name rename is a no-op.
	n, err := catSvc.Rename(s.ctx, testUser, "Food", "Food")
	require.NoError(s.T(), err)
	assert.Zero(s.T(), n)

	n, err = catSvc.Rename(s.ctx, testUser, "Food", "Groceries")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), n)

	catSvc.RequireUniqueRename = true
	_, err = catSvc.Rename(s.ctx, testUser, "Travel", "Groceries")
	assert.ErrorIs(s.T(), err, core.ErrConflict)
}

func (s *ServicesSuite) TestCategoryDeleteOrMerge() {
	catSvc := NewCategoryService(s.store)
	acct := s.newChecking(0)

	tx := core.Transaction{
		UserID: testUser, AccountID: acct.ID,
		Description: "x", Amount: core.Money{Cents: 100},
		Category: "Misc", Type: core.Expense,
	}
	require.NoError(s.T(), s.store.CreateTransaction(s.ctx, &tx))

	n, err := catSvc.DeleteOrMerge(s.ctx, testUser, "Misc", "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), n)

	moved, err := s.store.ListTransactionsByCategory(s.ctx, testUser, core.Uncategorized)
	require.NoError(s.T(), err)
	assert.Len(s.T(), moved, 1)
}

func (s *ServicesSuite) TestGoalAddWithdraw() {
	goalSvc := NewGoalService(s.store)

	goal, err := goalSvc.CreateGoal(s.ctx, core.SavingsGoal{
		UserID: testUser, Name: "Emergency fund",
		TargetAmount:  core.Money{Cents: 100000},
		CurrentAmount: core.Money{Cents: 0},
		Active:        true,
	})
	require.NoError(s.T(), err)

	g, err := goalSvc.AddFunds(s.ctx, testUser, goal.ID, core.Money{Cents: 40000})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(40000), g.CurrentAmount.Cents)
	assert.InDelta(s.T(), 40.0, g.PercentComplete(), 0.001)
	assert.Equal(s.T(), int64(60000), g.Remaining().Cents)

	_, err = goalSvc.AddFunds(s.ctx, testUser, goal.ID, core.Money{Cents: -5})
	assert.ErrorIs(s.T(), err, core.ErrInvalidAmount)

	_, err = goalSvc.WithdrawFunds(s.ctx, testUser, goal.ID, core.Money{Cents: 50000})
	assert.ErrorIs(s.T(), err, core.ErrInsufficientFunds)

	g, err = goalSvc.WithdrawFunds(s.ctx, testUser, goal.ID, core.Money{Cents: 40000})
	require.NoError(s.T(), err)
	assert.Zero(s.T(), g.CurrentAmount.Cents)
}

func (s *ServicesSuite) TestLedgerServiceCloseNilAMQP() {
	svc := NewLedgerService(s.store, nil)
	assert.NoError(s.T(), svc.Close())
	s.store = nil // already closed through the service
}

func TestServicesSuite(t *testing.T) {
	suite.Run(t, new(ServicesSuite))
}
