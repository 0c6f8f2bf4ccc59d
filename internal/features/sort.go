package features

import (
	"sort"

	"github.com/spboyer/tabcheck/internal/dataset"
)

// NTopMessage explains the column truncation applied by SortByImportance.
const NTopMessage = "* showing only the top %d columns, you can change it using the n_top_columns option"

// SortByImportance reorders items keyed by column name. Without importances
// the input order is kept. Otherwise the index, date and label columns come
// first in their input order, followed by the other columns by descending
// importance (ties keep input order, unscored columns count as zero),
// truncated to nTop of them when nTop > 0. Applying it to its own output
// returns the same order.
func SortByImportance[T any](items []T, name func(T) string, ds *dataset.Dataset, imp Importance, nTop int) []T {
	out := make([]T, 0, len(items))
	if !imp.Available() {
		return append(out, items...)
	}

	var rest []T
	for _, it := range items {
		if ds != nil && ds.IsSpecial(name(it)) {
			out = append(out, it)
		} else {
			rest = append(rest, it)
		}
	}

	score := func(it T) float64 {
		v, _ := imp.Score(name(it))
		return v
	}
	sort.SliceStable(rest, func(a, b int) bool { return score(rest[a]) > score(rest[b]) })
	if nTop > 0 && len(rest) > nTop {
		rest = rest[:nTop]
	}
	return append(out, rest...)
}
