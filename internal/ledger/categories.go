package ledger

import (
	"sort"

	"budget/internal/core"
)

// Aggregate derives category usage counts from snapshots of a user's
// transactions and bills. It is a pure function recomputed on each read;
// nothing is cached or persisted. The result is ordered by total usage
// descending, ties broken by name for a stable listing.
func Aggregate(transactions []core.Transaction, bills []core.Bill) []core.CategoryUsage {
	byName := make(map[string]*core.CategoryUsage)

	usage := func(name string) *core.CategoryUsage {
		if u, ok := byName[name]; ok {
			return u
		}
		u := &core.CategoryUsage{Name: name}
		byName[name] = u
		return u
	}

	for _, t := range transactions {
		if t.Category == "" {
			continue
		}
		usage(t.Category).TransactionCount++
	}
	for _, b := range bills {
		if b.Category == "" {
			continue
		}
		usage(b.Category).BillCount++
	}

	result := make([]core.CategoryUsage, 0, len(byName))
	for _, u := range byName {
		u.TotalCount = u.TransactionCount + u.BillCount
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalCount != result[j].TotalCount {
			return result[i].TotalCount > result[j].TotalCount
		}
		return result[i].Name < result[j].Name
	})
	return result
}
