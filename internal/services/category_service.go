package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/storage"
)

// CategoryService derives category usage from transactions and bills.
// Categories have no table of their own, so a rename is a bulk reassign
// and an empty category simply stops appearing.
type CategoryService struct {
	store storage.Store

	// RequireUniqueRename makes Rename fail with core.ErrConflict when
	// the target category is already in use instead of merging into it.
	RequireUniqueRename bool
}

func NewCategoryService(store storage.Store) *CategoryService {
	return &CategoryService{store: store}
}

// List aggregates usage across transactions and bills, sorted by total
// count descending.
func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.CategoryUsage, error) {
	transactions, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	bills, err := s.store.ListBills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return ledger.Aggregate(transactions, bills), nil
}

// Rename reassigns every transaction and bill from one category label to
// another in a single storage transaction. Renaming a category to itself
// is a no-op. In unique mode the target-in-use check runs inside that
// same transaction, so a concurrent insert cannot slip past it.
func (s *CategoryService) Rename(ctx context.Context, userID int64, from, to string) (int64, error) {
	if from == "" || to == "" {
		return 0, core.ErrEmptyCategory
	}
	if from == to {
		return 0, nil
	}

	n, err := s.store.ReassignCategory(ctx, userID, from, to, s.RequireUniqueRename)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return 0, fmt.Errorf("category %q already exists: %w", to, core.ErrConflict)
		}
		return 0, fmt.Errorf("rename category: %w", err)
	}

	slog.InfoContext(ctx, "Category renamed",
		"from", from,
		"to", to,
		"rows", n)
	return n, nil
}

// DeleteOrMerge retires a category by moving its rows to target. An
// empty target merges into the Uncategorized sentinel.
func (s *CategoryService) DeleteOrMerge(ctx context.Context, userID int64, name, target string) (int64, error) {
	if name == "" {
		return 0, core.ErrEmptyCategory
	}
	if target == "" {
		target = core.Uncategorized
	}
	if name == target {
		return 0, nil
	}

	n, err := s.store.ReassignCategory(ctx, userID, name, target, false)
	if err != nil {
		return 0, fmt.Errorf("merge category: %w", err)
	}

	slog.InfoContext(ctx, "Category merged",
		"from", name,
		"into", target,
		"rows", n)
	return n, nil
}
