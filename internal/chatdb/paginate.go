package chatdb

import (
	"cmp"
	"math"
	"slices"
)

// Paginate returns items[offset:offset+limit] clamped to bounds. Negative
// arguments count as zero; out-of-range windows yield an empty slice.
func Paginate[T any](items []T, offset, limit int) []T {
	offset = min(max(offset, 0), len(items))
	rest := items[offset:]
	limit = min(max(limit, 0), len(rest))
	return rest[:limit:limit]
}

// sortMessages orders by creation time, breaking ties on ROWID so equal
// timestamps page deterministically.
func sortMessages(msgs []Message, order SortOrder) {
	slices.SortStableFunc(msgs, func(a, b Message) int {
		c := cmp.Or(cmp.Compare(a.DateCreated, b.DateCreated), cmp.Compare(a.RowID, b.RowID))
		if order == SortDescending {
			return -c
		}
		return c
	})
}

// fetchWindow is the number of rows to read so that Paginate(offset, limit)
// can be satisfied, saturating instead of overflowing.
func fetchWindow(offset, limit int) int {
	offset, limit = max(offset, 0), max(limit, 0)
	if limit > math.MaxInt-offset {
		return math.MaxInt
	}
	return offset + limit
}
