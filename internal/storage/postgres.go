package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budget/internal/core"
	"budget/internal/ledger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool. The schema is
// applied on open; statements are idempotent so repeated startups are safe.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    name TEXT NOT NULL,
    account_type TEXT NOT NULL,
    balance_cents BIGINT NOT NULL DEFAULT 0,
    current_balance_cents BIGINT NOT NULL DEFAULT 0,
    credit_limit_cents BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id);

CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    account_id BIGINT NOT NULL REFERENCES accounts(id),
    description TEXT NOT NULL,
    amount_cents BIGINT NOT NULL,
    category TEXT NOT NULL,
    tx_type TEXT NOT NULL,
    tx_date TIMESTAMPTZ NOT NULL,
    export_status TEXT NOT NULL DEFAULT 'pending',
    exported_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, tx_date DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_user_category ON transactions(user_id, category);
CREATE INDEX IF NOT EXISTS idx_transactions_export ON transactions(export_status);

CREATE TABLE IF NOT EXISTS bills (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    account_id BIGINT NOT NULL REFERENCES accounts(id),
    name TEXT NOT NULL,
    amount_cents BIGINT NOT NULL,
    category TEXT NOT NULL,
    day_of_month INT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_bills_user_day ON bills(user_id, day_of_month);
CREATE INDEX IF NOT EXISTS idx_bills_user_category ON bills(user_id, category);

CREATE TABLE IF NOT EXISTS bill_payments (
    bill_id BIGINT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
    year INT NOT NULL,
    month INT NOT NULL,
    transaction_id BIGINT NOT NULL,
    paid_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (bill_id, year, month)
);

CREATE TABLE IF NOT EXISTS savings_goals (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    name TEXT NOT NULL,
    target_amount_cents BIGINT NOT NULL,
    current_amount_cents BIGINT NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_goals_user ON savings_goals(user_id);
`

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) postDelta(ctx context.Context, tx pgx.Tx, userID, accountID int64, txType core.TransactionType, amount core.Money, reverse bool) error {
	var acctType core.AccountType
	err := tx.QueryRow(ctx,
		`SELECT account_type FROM accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	).Scan(&acctType)
	if errors.Is(err, pgx.ErrNoRows) {
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
	_, err = tx.Exec(ctx,
		`UPDATE accounts SET `+column+` = `+column+` + $1 WHERE id = $2`,
		delta, accountID,
	)
	if err != nil {
		return fmt.Errorf("apply posting delta: %w", err)
	}
	return nil
}

// Accounts

func (s *PostgresStore) CreateAccount(ctx context.Context, a *core.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO accounts (user_id, name, account_type, balance_cents, current_balance_cents, credit_limit_cents, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		a.UserID, a.Name, a.Type, a.Balance.Cents, a.CurrentBalance.Cents, a.CreditLimit.Cents, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, userID, id int64) (core.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`, userID)
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

func (s *PostgresStore) UpdateAccount(ctx context.Context, a core.Account) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET name = $1, account_type = $2, balance_cents = $3, current_balance_cents = $4, credit_limit_cents = $5
		 WHERE id = $6 AND user_id = $7`,
		a.Name, a.Type, a.Balance.Cents, a.CurrentBalance.Cents, a.CreditLimit.Cents, a.ID, a.UserID,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", a.ID, core.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteAccount(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// Transactions

func (s *PostgresStore) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.postDelta(ctx, tx, t.UserID, t.AccountID, t.Type, t.Amount, false); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO transactions (user_id, account_id, description, amount_cents, category, tx_type, tx_date, export_status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			t.UserID, t.AccountID, t.Description, t.Amount.Cents, t.Category, t.Type, t.Date, ExportPending,
		).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) GetTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY tx_date DESC, id DESC`, userID)
}

func (s *PostgresStore) ListTransactionsByCategory(ctx context.Context, userID int64, category string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND category = $2 ORDER BY tx_date DESC, id DESC`,
		userID, category)
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		old, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, t.ID, t.UserID))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		if err := s.postDelta(ctx, tx, t.UserID, old.AccountID, old.Type, old.Amount, true); err != nil {
			return err
		}
		if err := s.postDelta(ctx, tx, t.UserID, t.AccountID, t.Type, t.Amount, false); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE transactions SET account_id = $1, description = $2, amount_cents = $3, category = $4, tx_type = $5, tx_date = $6, export_status = $7
			 WHERE id = $8 AND user_id = $9`,
			t.AccountID, t.Description, t.Amount.Cents, t.Category, t.Type, t.Date, ExportPending, t.ID, t.UserID,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) DeleteTransaction(ctx context.Context, userID, id int64) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		old, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`, id, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load transaction: %w", err)
		}

		if err := s.postDelta(ctx, tx, userID, old.AccountID, old.Type, old.Amount, true); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
}

// Bills

func (s *PostgresStore) CreateBill(ctx context.Context, b *core.Bill) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO bills (user_id, account_id, name, amount_cents, category, day_of_month, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		b.UserID, b.AccountID, b.Name, b.Amount.Cents, b.Category, b.DayOfMonth, b.Active, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("create bill: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBill(ctx context.Context, userID, id int64) (core.Bill, error) {
	b, err := scanBill(s.pool.QueryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Bill{}, fmt.Errorf("bill %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) queryBills(ctx context.Context, query string, args ...any) ([]core.Bill, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStore) ListBills(ctx context.Context, userID int64) ([]core.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = $1 ORDER BY day_of_month, id`, userID)
}

func (s *PostgresStore) ListBillsByCategory(ctx context.Context, userID int64, category string) ([]core.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills WHERE user_id = $1 AND category = $2 ORDER BY day_of_month, id`,
		userID, category)
}

func (s *PostgresStore) UpdateBill(ctx context.Context, b core.Bill) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bills SET account_id = $1, name = $2, amount_cents = $3, category = $4, day_of_month = $5, is_active = $6
		 WHERE id = $7 AND user_id = $8`,
		b.AccountID, b.Name, b.Amount.Cents, b.Category, b.DayOfMonth, b.Active, b.ID, b.UserID,
	)
	if err != nil {
		return fmt.Errorf("update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bill %d: %w", b.ID, core.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteBill(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM bills WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bill %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) PaidBillIDs(ctx context.Context, userID int64, period core.Period) (map[int64]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.bill_id FROM bill_payments p
		 JOIN bills b ON b.id = p.bill_id
		 WHERE b.user_id = $1 AND p.year = $2 AND p.month = $3`,
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

func (s *PostgresStore) MarkBillPaid(ctx context.Context, userID, billID int64, period core.Period, paidAt time.Time) (core.Transaction, error) {
	var created core.Transaction
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		bill, err := scanBill(tx.QueryRow(ctx,
			`SELECT `+billColumns+` FROM bills WHERE id = $1 AND user_id = $2`, billID, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("bill %d: %w", billID, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load bill: %w", err)
		}

		var exists int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM bill_payments WHERE bill_id = $1 AND year = $2 AND month = $3`,
			billID, period.Year, int(period.Month),
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check bill payment: %w", err)
		}
		if exists > 0 {
			return fmt.Errorf("bill %d already paid for %s: %w", billID, period, core.ErrConflict)
		}

		payment := core.Transaction{
			UserID:      userID,
			AccountID:   bill.AccountID,
			Description: "Bill Payment: " + bill.Name,
			Amount:      bill.Amount,
			Category:    bill.Category,
			Type:        core.Expense,
			Date:        paidAt,
		}
		if err := s.postDelta(ctx, tx, userID, bill.AccountID, payment.Type, payment.Amount, false); err != nil {
			return err
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO transactions (user_id, account_id, description, amount_cents, category, tx_type, tx_date, export_status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
			payment.UserID, payment.AccountID, payment.Description, payment.Amount.Cents,
			payment.Category, payment.Type, payment.Date, ExportPending,
		).Scan(&payment.ID)
		if err != nil {
			return fmt.Errorf("insert payment transaction: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO bill_payments (bill_id, year, month, transaction_id, paid_at) VALUES ($1, $2, $3, $4, $5)`,
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
	return created, nil
}

func (s *PostgresStore) MarkBillUnpaid(ctx context.Context, userID, billID int64, period core.Period) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var transactionID int64
		err := tx.QueryRow(ctx,
			`SELECT p.transaction_id FROM bill_payments p
			 JOIN bills b ON b.id = p.bill_id
			 WHERE p.bill_id = $1 AND b.user_id = $2 AND p.year = $3 AND p.month = $4`,
			billID, userID, period.Year, int(period.Month),
		).Scan(&transactionID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("bill %d payment for %s: %w", billID, period, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load bill payment: %w", err)
		}

		payment, err := scanTransaction(tx.QueryRow(ctx,
			`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, transactionID))
		if err != nil {
			return fmt.Errorf("load payment transaction: %w", err)
		}

		if err := s.postDelta(ctx, tx, userID, payment.AccountID, payment.Type, payment.Amount, true); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID); err != nil {
			return fmt.Errorf("delete payment transaction: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM bill_payments WHERE bill_id = $1 AND year = $2 AND month = $3`,
			billID, period.Year, int(period.Month)); err != nil {
			return fmt.Errorf("delete bill payment: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) ResetBillPayments(ctx context.Context, userID int64, period core.Period) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM bill_payments WHERE year = $1 AND month = $2
		 AND bill_id IN (SELECT id FROM bills WHERE user_id = $3)`,
		period.Year, int(period.Month), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("reset bill payments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) BillOwnerIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT user_id FROM bills WHERE is_active ORDER BY user_id`)
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

func (s *PostgresStore) ReassignCategory(ctx context.Context, userID int64, from, to string, requireUnused bool) (int64, error) {
	var total int64
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if requireUnused {
			var n int64
			err := tx.QueryRow(ctx,
				`SELECT (SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND category = $2)
				      + (SELECT COUNT(*) FROM bills WHERE user_id = $1 AND category = $2)`,
				userID, to).Scan(&n)
			if err != nil {
				return fmt.Errorf("check target category: %w", err)
			}
			if n > 0 {
				return fmt.Errorf("category %q already in use: %w", to, core.ErrConflict)
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE transactions SET category = $1 WHERE user_id = $2 AND category = $3`, to, userID, from)
		if err != nil {
			return fmt.Errorf("reassign transaction categories: %w", err)
		}
		total += tag.RowsAffected()

		tag, err = tx.Exec(ctx,
			`UPDATE bills SET category = $1 WHERE user_id = $2 AND category = $3`, to, userID, from)
		if err != nil {
			return fmt.Errorf("reassign bill categories: %w", err)
		}
		total += tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Savings goals

func (s *PostgresStore) CreateGoal(ctx context.Context, g *core.SavingsGoal) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO savings_goals (user_id, name, target_amount_cents, current_amount_cents, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Active, g.CreatedAt,
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("create savings goal: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGoal(ctx context.Context, userID, id int64) (core.SavingsGoal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.SavingsGoal{}, fmt.Errorf("savings goal %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) ListGoals(ctx context.Context, userID int64) ([]core.SavingsGoal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+goalColumns+` FROM savings_goals WHERE user_id = $1 AND is_active ORDER BY created_at, id`, userID)
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

func (s *PostgresStore) UpdateGoal(ctx context.Context, g core.SavingsGoal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE savings_goals SET name = $1, target_amount_cents = $2, current_amount_cents = $3, is_active = $4
		 WHERE id = $5 AND user_id = $6`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, g.Active, g.ID, g.UserID,
	)
	if err != nil {
		return fmt.Errorf("update savings goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("savings goal %d: %w", g.ID, core.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteGoal(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("savings goal %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) AdjustGoalAmount(ctx context.Context, userID, id, delta int64) (core.SavingsGoal, error) {
	var out core.SavingsGoal
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE savings_goals SET current_amount_cents = current_amount_cents + $1
			 WHERE id = $2 AND user_id = $3 AND current_amount_cents + $1 >= 0`,
			delta, id, userID,
		)
		if err != nil {
			return fmt.Errorf("adjust goal amount: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists int
			err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM savings_goals WHERE id = $1 AND user_id = $2`, id, userID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("check savings goal: %w", err)
			}
			if exists == 0 {
				return fmt.Errorf("savings goal %d: %w", id, core.ErrNotFound)
			}
			return fmt.Errorf("withdraw %d cents: %w", -delta, core.ErrInsufficientFunds)
		}

		out, err = scanGoal(tx.QueryRow(ctx,
			`SELECT `+goalColumns+` FROM savings_goals WHERE id = $1`, id))
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

func (s *PostgresStore) PendingExportTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE export_status = $1 ORDER BY id LIMIT $2`,
		ExportPending, limit)
}

func (s *PostgresStore) MarkTransactionExported(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transactions SET export_status = $1, exported_at = $2 WHERE id = $3`,
		ExportSynced, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark transaction exported: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkTransactionExportError(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE transactions SET export_status = $1 WHERE id = $2`,
		ExportError, id)
	if err != nil {
		return fmt.Errorf("mark transaction export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}
