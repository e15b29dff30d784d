package ledger

import (
	"testing"

	"budget/internal/core"
)

func TestPostingDelta(t *testing.T) {
	amount := core.Money{Cents: 5000}

	tests := []struct {
		name        string
		accountType core.AccountType
		txType      core.TransactionType
		want        int64
	}{
		{"checking income", core.Checking, core.Income, 5000},
		{"checking expense", core.Checking, core.Expense, -5000},
		{"savings income", core.Savings, core.Income, 5000},
		{"investment expense", core.Investment, core.Expense, -5000},
		{"credit expense increases debt", core.Credit, core.Expense, 5000},
		{"credit payment decreases debt", core.Credit, core.Income, -5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PostingDelta(tt.accountType, tt.txType, amount)
			if got != tt.want {
				t.Errorf("PostingDelta(%s, %s) = %d, want %d", tt.accountType, tt.txType, got, tt.want)
			}
		})
	}
}

func TestApplyDelta(t *testing.T) {
	asset := core.Account{Type: core.Checking, Balance: core.Money{Cents: 10000}}
	ApplyDelta(&asset, -2500)
	if asset.Balance.Cents != 7500 {
		t.Errorf("asset balance = %d, want 7500", asset.Balance.Cents)
	}
	if asset.CurrentBalance.Cents != 0 {
		t.Errorf("asset current_balance moved: %d", asset.CurrentBalance.Cents)
	}

	credit := core.Account{Type: core.Credit, CurrentBalance: core.Money{Cents: 10000}}
	ApplyDelta(&credit, 2500)
	if credit.CurrentBalance.Cents != 12500 {
		t.Errorf("credit current_balance = %d, want 12500", credit.CurrentBalance.Cents)
	}
	if credit.Balance.Cents != 0 {
		t.Errorf("credit balance moved: %d", credit.Balance.Cents)
	}
}

// A posting followed by its reversal must restore the tracked balance.
func TestPostingRoundTrip(t *testing.T) {
	for _, accountType := range []core.AccountType{core.Checking, core.Credit} {
		for _, txType := range []core.TransactionType{core.Income, core.Expense} {
			acct := core.Account{Type: accountType, Balance: core.Money{Cents: 1000}, CurrentBalance: core.Money{Cents: 1000}}
			before := TrackedBalance(acct)

			delta := PostingDelta(accountType, txType, core.Money{Cents: 333})
			ApplyDelta(&acct, delta)
			ApplyDelta(&acct, -delta)

			if got := TrackedBalance(acct); got != before {
				t.Errorf("%s/%s: balance %d after round trip, want %d", accountType, txType, got.Cents, before.Cents)
			}
		}
	}
}
