package export

import (
	"context"

	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryWriter appends one transaction to the external ledger copy.
	EntryWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// EntryRemover removes a transaction from the external copy after a
	// reversal. Adapters that cannot delete may return an error; the
	// worker records it and moves on.
	EntryRemover interface {
		Remove(ctx context.Context, transactionID int64) error
	}
)
