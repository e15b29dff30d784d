package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Checking   AccountType = "checking"
	Savings    AccountType = "savings"
	Credit     AccountType = "credit"
	Investment AccountType = "investment"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Uncategorized is the sentinel category that entities fall back to when
// their category is deleted without an explicit merge target.
const Uncategorized = "Uncategorized"

type (
	AccountType     string
	TransactionType string

	Money struct {
		Cents int64
	}

	// Account is a user's ledger account. Asset accounts (checking,
	// savings, investment) track Balance; credit accounts track
	// CurrentBalance (outstanding debt) against CreditLimit.
	Account struct {
		ID             int64
		UserID         int64
		Name           string
		Type           AccountType
		Balance        Money
		CurrentBalance Money
		CreditLimit    Money
		CreatedAt      time.Time
	}

	// Transaction is a single posted ledger entry. Amount is always a
	// positive magnitude; the sign applied to the account balance is
	// derived from Type and the account's type.
	Transaction struct {
		ID          int64
		UserID      int64
		AccountID   int64
		Description string
		Amount      Money
		Category    string
		Type        TransactionType
		Date        time.Time
	}

	// Bill is a recurring monthly obligation due on DayOfMonth. Paid
	// state is tracked per calendar period in BillPayment rows, never
	// on the bill itself.
	Bill struct {
		ID         int64
		UserID     int64
		AccountID  int64
		Name       string
		Amount     Money
		Category   string
		DayOfMonth int
		Active     bool
		CreatedAt  time.Time
	}

	// BillPayment records that a bill was paid for one period. The
	// TransactionID points at the implicit expense created when the
	// bill was marked paid.
	BillPayment struct {
		BillID        int64
		Period        Period
		TransactionID int64
		PaidAt        time.Time
	}

	SavingsGoal struct {
		ID            int64
		UserID        int64
		Name          string
		TargetAmount  Money
		CurrentAmount Money
		Active        bool
		CreatedAt     time.Time
	}

	// CategoryUsage is a derived view: how often a category label
	// appears across a user's transactions and bills.
	CategoryUsage struct {
		Name             string
		TransactionCount int
		BillCount        int
		TotalCount       int
	}
)

var (
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyName              = errors.New("empty name")
	ErrEmptyDescription       = errors.New("empty description")
	ErrEmptyCategory          = errors.New("empty category")
	ErrInvalidDayOfMonth      = errors.New("day of month must be between 1 and 31")
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsCredit reports whether the account tracks debt rather than assets.
func (a Account) IsCredit() bool {
	return a.Type == Credit
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	switch a.Type {
	case Checking, Savings, Credit, Investment:
	default:
		return ErrInvalidAccountType
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	switch t.Type {
	case Income, Expense:
	default:
		return ErrInvalidTransactionType
	}
	if t.AccountID <= 0 {
		return errors.New("missing account reference")
	}
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	// Days 29-31 are allowed; the recurrence engine clips them to the
	// last day of shorter months.
	if b.DayOfMonth < 1 || b.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	if b.AccountID <= 0 {
		return errors.New("missing account reference")
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return err
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// PercentComplete returns completion as a percentage. The underlying value
// can exceed 100 when a goal is overfunded; display capping is the caller's
// concern, see PercentCompleteCapped.
func (g SavingsGoal) PercentComplete() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	return float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
}

// PercentCompleteCapped is PercentComplete clamped to 100 for display.
func (g SavingsGoal) PercentCompleteCapped() float64 {
	p := g.PercentComplete()
	if p > 100 {
		return 100
	}
	return p
}

// Remaining returns the amount still needed to reach the target, never
// negative.
func (g SavingsGoal) Remaining() Money {
	rem := g.TargetAmount.Cents - g.CurrentAmount.Cents
	if rem < 0 {
		rem = 0
	}
	return Money{Cents: rem}
}
