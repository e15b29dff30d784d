package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// withTx runs fn inside a database transaction, rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// postDelta applies (or reverses) a transaction's posting against the
// owning account inside tx. The update is relative, so concurrent postings
// against the same account cannot lose each other's delta.
func postDelta(ctx context.Context, tx *sql.Tx, userID, accountID int64, txType core.TransactionType, amount core.Money, reverse bool) error {
	var acctType core.AccountType
	err := tx.QueryRowContext(ctx,
		`SELECT account_type FROM accounts WHERE id = ? AND user_id = ?`,
		accountID, userID,
	).Scan(&acctType)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %d: %w", accountID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load account type: %w", err)
	}

	delta := ledger.PostingDelta(acctType, txType, amount)
	if reverse {
		delta = -delta
	}

	column := "balance_cents"
	if acctType == core.Credit {
		column = "current_balance_cents"
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET `+column+` = `+column+` + ? WHERE id = ?`,
		delta, accountID,
	)
	if err != nil {
		return fmt.Errorf("apply posting delta: %w", err)
	}
	return nil
}

// Accounts

func (s *SQLiteStore) CreateAccount(ctx context.Context, a *core.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, account_type, balance_cents, current_balance_cents, credit_limit_cents, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.Name, a.Type, a.Balance.Cents, a.CurrentBalance.Cents, a.CreditLimit.Cents, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("account insert id: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"id", a.ID,
		log.FieldUserID, a.UserID,
		"account_type", a.Type)
	return nil
}

const accountColumns = `id, user_id, name, account_type, balance_cents, current_balance_cents, credit_limit_cents, created_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var a core.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type,
		&a.Balance.Cents, &a.CurrentBalance.Cents, &a.CreditLimit.Cents, &a.CreatedAt)
	return a, err
}

func (s *SQLiteStore) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *SQLiteStore) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLiteStore) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, account_type = ?, balance_cents = ?, current_balance_cents = ?, credit_limit_cents = ?
		 WHERE id = ? AND user_id = ?`,
		a.Name, a.Type, a.Balance.Cents, a.CurrentBalance.Cents, a.CreditLimit.Cents, a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, a.ID)
}

func (s *SQLiteStore) DeleteAccount(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("id %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// Transactions

const transactionColumns = `id, user_id, account_id, description, amount_cents, category, tx_type, tx_date`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.AccountID, &t.Description,
		&t.Amount.Cents, &t.Category, &t.Type, &t.Date)
	return t, err
}

func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := postDelta(ctx, tx, t.UserID, t.AccountID, t.Type, t.Amount, false); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, account_id, description, amount_cents, category, tx_type, tx_date, export_status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.UserID, t.AccountID, t.Description, t.Amount.Cents, t.Category, t.Type, t.Date, ExportPending,
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		t.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction posted",
		"id", t.ID,
		log.FieldAccountID, t.AccountID,
		"tx_type", t.Type,
		log.FieldCategory, t.Category,
		log.FieldAmountCents, t.Amount.Cents)
	return nil
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY tx_date DESC, id DESC`, userID)
}

func (s *SQLiteStore) ListTransactionsByCategory(ctx context.Context, userID int64, category string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND category = ? ORDER BY tx_date DESC, id DESC`,
		userID, category)
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		old, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, t.ID, t.UserID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		// Two-step edit: reverse the old posting against the old
		// account, then post fresh against the (possibly different)
		// new account. Never a direct overwrite of the balance.
		if err := postDelta(ctx, tx, t.UserID, old.AccountID, old.Type, old.Amount, true); err != nil {
			return err
		}
		if err := postDelta(ctx, tx, t.UserID, t.AccountID, t.Type, t.Amount, false); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET account_id = ?, description = ?, amount_cents = ?, category = ?, tx_type = ?, tx_date = ?, export_status = ?
			 WHERE id = ? AND user_id = ?`,
			t.AccountID, t.Description, t.Amount.Cents, t.Category, t.Type, t.Date, ExportPending, t.ID, t.UserID,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		old, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`, id, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		if err := postDelta(ctx, tx, userID, old.AccountID, old.Type, old.Amount, true); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
}

// Bills

const billColumns = `id, user_id, account_id, name, amount_cents, category, day_of_month, is_active, created_at`

func scanBill(row interface{ Scan(...any) error }) (core.Bill, error) {
	var b core.Bill
	err := row.Scan(&b.ID, &b.UserID, &b.AccountID, &b.Name,
		&b.Amount.Cents, &b.Category, &b.DayOfMonth, &b.Active, &b.CreatedAt)
	return b, err
}

func (s *SQLiteStore) CreateBill(ctx context.Context, b *core.Bill) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (user_id, account_id, name, amount_cents, category, day_of_month, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID, b.AccountID, b.Name, b.Amount.Cents, b.Category, b.DayOfMonth, b.Active, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("bill insert id: %w", err)
	}

	slog.InfoContext(ctx, "Bill created",
		"id", b.ID,
		"name", b.Name,
		"day_of_month", b.DayOfMonth)
	return nil
}

func (s *SQLiteStore) GetBill(ctx context.Context, userID, id int64) (core.Bill, error) {
	b, err := scanBill(s.db.QueryRowContext(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("bill %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

func (s *SQLiteStore) queryBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = ? ORDER BY day_of_month, id`, userID)
}

func (s *SQLiteStore) ListBillsByCategory(ctx context.Context, userID int64, category string) ([]core.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = ? AND category = ? ORDER BY day_of_month, id`,
		userID, category)
}

func (s *SQLiteStore) UpdateBill(ctx context.Context, b core.Bill) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bills SET account_id = ?, name = ?, amount_cents = ?, category = ?, day_of_month = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`,
		b.AccountID, b.Name, b.Amount.Cents, b.Category, b.DayOfMonth, b.Active, b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	return requireRow(res, b.ID)
}

func (s *SQLiteStore) DeleteBill(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bills WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	return requireRow(res, id)
}

func (s *SQLiteStore) PaidBillIDs(ctx context.Context, userID int64, period core.Period) (map[int64]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.bill_id FROM bill_payments p
		 JOIN bills b ON b.id = p.bill_id
		 WHERE b.user_id = ? AND p.year = ? AND p.month = ?`,
		userID, period.Year, int(period.Month),
	)
	if err != nil {
		return nil, fmt.Errorf("query bill payments: %w", err)
	}
	defer rows.Close()

	paid := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bill payment: %w", err)
		}
		paid[id] = true
	}
	return paid, rows.Err()
}

func (s *SQLiteStore) MarkBillPaid(ctx context.Context, userID, billID int64, period core.Period, paidAt time.Time) (core.Transaction, error) {
	var created core.Transaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		bill, err := scanBill(tx.QueryRowContext(ctx,
			`SELECT `+billColumns+` FROM bills WHERE id = ? AND user_id = ?`, billID, userID))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("bill %d: %w", billID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load bill: %w", err)
		}

		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bill_payments WHERE bill_id = ? AND year = ? AND month = ?`,
			billID, period.Year, int(period.Month),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check bill payment: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("bill %d already paid for %s: %w", billID, period, core.ErrConflict)
		}

		// The implicit expense posted when a bill is paid.
		payment := core.Transaction{
			UserID:      userID,
			AccountID:   bill.AccountID,
			Description: "Bill Payment: " + bill.Name,
			Amount:      bill.Amount,
			Category:    bill.Category,
			Type:        core.Expense,
			Date:        paidAt,
		}
		if err := postDelta(ctx, tx, userID, bill.AccountID, payment.Type, payment.Amount, false); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (user_id, account_id, description, amount_cents, category, tx_type, tx_date, export_status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			payment.UserID, payment.AccountID, payment.Description, payment.Amount.Cents,
			payment.Category, payment.Type, payment.Date, ExportPending,
		)
		if err != nil {
			return fmt.Errorf("insert payment transaction: %w", err)
		}
		payment.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("payment insert id: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO bill_payments (bill_id, year, month, transaction_id, paid_at) VALUES (?, ?, ?, ?, ?)`,
			billID, period.Year, int(period.Month), payment.ID, paidAt,
		)
		if err != nil {
			return fmt.Errorf("insert bill payment: %w", err)
		}

		created = payment
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Bill marked paid",
		log.FieldBillID, billID,
		log.FieldPeriod, period.String(),
		log.FieldTransactionID, created.ID)
	return created, nil
}

func (s *SQLiteStore) MarkBillUnpaid(ctx context.Context, userID, billID int64, period core.Period) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var transactionID int64
		err := tx.QueryRowContext(ctx,
			`SELECT p.transaction_id FROM bill_payments p
			 JOIN bills b ON b.id = p.bill_id
			 WHERE p.bill_id = ? AND b.user_id = ? AND p.year = ? AND p.month = ?`,
			billID, userID, period.Year, int(period.Month),
		).Scan(&transactionID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("bill %d payment for %s: %w", billID, period, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load bill payment: %w", err)
		}

		payment, err := scanTransaction(tx.QueryRowContext(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, transactionID))
		if err != nil {
			return fmt.Errorf("load payment transaction: %w", err)
		}

		if err := postDelta(ctx, tx, userID, payment.AccountID, payment.Type, payment.Amount, true); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, transactionID); err != nil {
			return fmt.Errorf("delete payment transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM bill_payments WHERE bill_id = ? AND year = ? AND month = ?`,
			billID, period.Year, int(period.Month)); err != nil {
			return fmt.Errorf("delete bill payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Bill marked unpaid",
		log.FieldBillID, billID,
		log.FieldPeriod, period.String())
	return nil
}

func (s *SQLiteStore) ResetBillPayments(ctx context.Context, userID int64, period core.Period) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bill_payments WHERE year = ? AND month = ?
		 AND bill_id IN (SELECT id FROM bills WHERE user_id = ?)`,
		period.Year, int(period.Month), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("reset bill payments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	slog.InfoContext(ctx, "Bill payments reset",
		log.FieldUserID, userID,
		log.FieldPeriod, period.String(),
		"cleared", n)
	return n, nil
}

func (s *SQLiteStore) BillOwnerIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM bills WHERE is_active = 1 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query bill owners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bill owner: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Categories

func (s *SQLiteStore) ReassignCategory(ctx context.Context, userID int64, from, to string, requireUnused bool) (int64, error) {
	var total int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if requireUnused {
			var n int64
			err := tx.QueryRowContext(ctx,
				`SELECT (SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category = ?)
				      + (SELECT COUNT(*) FROM bills WHERE user_id = ? AND category = ?)`,
				userID, to, userID, to).Scan(&n)
			if err != nil {
				return fmt.Errorf("check target category: %w", err)
			}
			if n > 0 {
				return fmt.Errorf("category %q already in use: %w", to, core.ErrConflict)
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET category = ? WHERE user_id = ? AND category = ?`, to, userID, from)
		if err != nil {
			return fmt.Errorf("reassign transaction categories: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		total += n

		res, err = tx.ExecContext(ctx,
			`UPDATE bills SET category = ? WHERE user_id = ? AND category = ?`, to, userID, from)
		if err != nil {
			return fmt.Errorf("reassign bill categories: %w", err)
		}
		n, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		total += n
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Category reassigned",
		log.FieldUserID, userID,
		"from", from,
		"to", to,
		"rows", total)
	return total, nil
}

// Savings goals

const goalColumns = `id, user_id, name, target_amount_cents, current_amount_cents, is_active, created_at`

func scanGoal(row interface{ Scan(...any) error }) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	err := row.Scan(&g.ID, &g.UserID, &g.Name,
		&g.TargetAmount.Cents, &g.CurrentAmount.Cents, &g.Active, &g.CreatedAt)
	return g, err
}

func (s *SQLiteStore) CreateGoal(ctx context.Context, g *core.SavingsGoal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_goals (user_id, name, target_amount_cents, current_amount_cents, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Active, g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create savings goal: %w", err)
	}
	g.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("goal insert id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, fmt.Errorf("savings goal %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ? AND is_active = 1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (s *SQLiteStore) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE savings_goals SET name = ?, target_amount_cents = ?, current_amount_cents = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Active, g.ID, g.UserID,
	)
	if err != nil {
		return fmt.Errorf("update savings goal: %w", err)
	}
	return requireRow(res, g.ID)
}

func (s *SQLiteStore) DeleteGoal(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return requireRow(res, id)
}

func (s *SQLiteStore) AdjustGoalAmount(ctx context.Context, userID, id, delta int64) (core.SavingsGoal, error) {
	var out core.SavingsGoal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// The balance guard lives in the UPDATE itself so a concurrent
		// withdrawal cannot slip past the check.
		res, err := tx.ExecContext(ctx,
			`UPDATE savings_goals SET current_amount_cents = current_amount_cents + ?
			 WHERE id = ? AND user_id = ? AND current_amount_cents + ? >= 0`,
			delta, id, userID, delta,
		)
		if err != nil {
			return fmt.Errorf("adjust goal amount: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			// Distinguish a missing goal from an overdraw.
			var exists int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check savings goal: %w", err)
			}
			if exists == 0 {
				return fmt.Errorf("savings goal %d: %w", id, core.ErrNotFound)
			}
			return fmt.Errorf("withdraw %d cents: %w", -delta, core.ErrInsufficientFunds)
		}

		out, err = scanGoal(tx.QueryRowContext(ctx,
			`SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, id))
		if err != nil {
			return fmt.Errorf("reload savings goal: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.SavingsGoal{}, err
	}
	return out, nil
}

// Export pipeline bookkeeping

func (s *SQLiteStore) PendingExportTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE export_status = ? ORDER BY id LIMIT ?`,
		ExportPending, limit)
}

func (s *SQLiteStore) MarkTransactionExported(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = ?, exported_at = ? WHERE id = ?`,
		ExportSynced, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark transaction exported: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkTransactionExportError(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET export_status = ? WHERE id = ?`,
		ExportError, id)
	if err != nil {
		return fmt.Errorf("mark transaction export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}
