// Package storage persists the budgeting ledger. Two implementations are
// provided: SQLiteStore (database/sql + modernc.org/sqlite) and
// PostgresStore (pgx). Every operation that moves an account balance runs
// as one local database transaction using relative balance updates, so
// concurrent edits against the same account serialize instead of losing
// updates.
package storage

import (
	"context"
	"time"

	"budget/internal/core"
)

// Store is the persistence boundary consumed by the service layer. All
// reads and mutations are scoped to a single owning user; the caller is
// responsible for having authenticated that user.
type Store interface {
	// Accounts.
	CreateAccount(ctx context.Context, a *core.Account) error
	GetAccount(ctx context.Context, userID, id int64) (core.Account, error)
	ListAccounts(ctx context.Context, userID int64) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, userID, id int64) error

	// Transactions. Create applies the posting delta to the referenced
	// account, Update reverses the old posting and applies the new one
	// (the account may differ), Delete reverses it. Each is atomic.
	CreateTransaction(ctx context.Context, t *core.Transaction) error
	GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	ListTransactionsByCategory(ctx context.Context, userID int64, category string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id int64) error

	// Bills and per-period paid state.
	CreateBill(ctx context.Context, b *core.Bill) error
	GetBill(ctx context.Context, userID, id int64) (core.Bill, error)
	ListBills(ctx context.Context, userID int64) ([]core.Bill, error)
	ListBillsByCategory(ctx context.Context, userID int64, category string) ([]core.Bill, error)
	UpdateBill(ctx context.Context, b core.Bill) error
	DeleteBill(ctx context.Context, userID, id int64) error

	// PaidBillIDs returns the set of the user's bills that have a
	// payment row for the period.
	PaidBillIDs(ctx context.Context, userID int64, period core.Period) (map[int64]bool, error)
	// MarkBillPaid records a payment for the period: it creates the
	// implicit expense transaction, posts it against the bill's
	// account and inserts the payment row, all in one transaction.
	// Returns core.ErrConflict when the period is already paid.
	MarkBillPaid(ctx context.Context, userID, billID int64, period core.Period, paidAt time.Time) (core.Transaction, error)
	// MarkBillUnpaid removes the period's payment row, deletes its
	// transaction and reverses the posting. Returns core.ErrNotFound
	// when the period was not paid.
	MarkBillUnpaid(ctx context.Context, userID, billID int64, period core.Period) error
	// ResetBillPayments clears paid state for all of the user's bills
	// in the period. Payment transactions are kept as history; only
	// the paid flag goes away. Idempotent.
	ResetBillPayments(ctx context.Context, userID int64, period core.Period) (int64, error)
	// BillOwnerIDs lists the distinct users that own active bills,
	// feeding the periodic reminder scan.
	BillOwnerIDs(ctx context.Context) ([]int64, error)

	// ReassignCategory moves every transaction and bill of the user
	// from one category label to another, atomically. Returns the
	// number of rows touched. With requireUnused set the reassign
	// fails with core.ErrConflict when the target category already
	// has rows; the check runs inside the same transaction.
	ReassignCategory(ctx context.Context, userID int64, from, to string, requireUnused bool) (int64, error)

	// Savings goals.
	CreateGoal(ctx context.Context, g *core.SavingsGoal) error
	GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error)
	ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error)
	UpdateGoal(ctx context.Context, g core.SavingsGoal) error
	DeleteGoal(ctx context.Context, userID, id int64) error
	// AdjustGoalAmount adds delta cents to the goal's current amount.
	// A negative delta that would drive the amount below zero fails
	// with core.ErrInsufficientFunds and changes nothing.
	AdjustGoalAmount(ctx context.Context, userID, id, delta int64) (core.SavingsGoal, error)

	// Export pipeline bookkeeping, consumed by the export worker.
	PendingExportTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkTransactionExported(ctx context.Context, id int64) error
	MarkTransactionExportError(ctx context.Context, id int64) error

	Close() error
}

// Export statuses tracked on each transaction row.
const (
	ExportPending = "pending"
	ExportSynced  = "synced"
	ExportError   = "error"
)
