// Package ledger provides the pure business rules of the budgeting core:
// posting deltas for account balances, bill recurrence/dueness checks and
// category aggregation. Everything here is stateless; persistence and
// atomicity live in the storage layer.
package ledger

import "budget/internal/core"

// PostingDelta returns the signed cents to add to an account's tracked
// balance when a transaction is posted against it.
//
// Asset accounts track net worth: income increases the balance, expense
// decreases it. Credit accounts track outstanding debt: an expense (charge)
// increases CurrentBalance, an income (payment toward the card) decreases
// it. Reversing a posting is applying the negated delta.
func PostingDelta(accountType core.AccountType, txType core.TransactionType, amount core.Money) int64 {
	if accountType == core.Credit {
		if txType == core.Expense {
			return amount.Cents
		}
		return -amount.Cents
	}
	if txType == core.Income {
		return amount.Cents
	}
	return -amount.Cents
}

// ApplyDelta adds a signed posting delta to the account field that tracks
// its balance, CurrentBalance for credit accounts and Balance otherwise.
func ApplyDelta(acct *core.Account, delta int64) {
	if acct.IsCredit() {
		acct.CurrentBalance.Cents += delta
		return
	}
	acct.Balance.Cents += delta
}

// TrackedBalance returns the balance field relevant to the account type.
func TrackedBalance(acct core.Account) core.Money {
	if acct.IsCredit() {
		return acct.CurrentBalance
	}
	return acct.Balance
}
