package dataset

import (
	"fmt"
	"math"
)

// Thresholds for categorical inference.
const (
	MaxFloatCategories  = 5
	MaxIntCategories    = 30
	MaxCategoricalRatio = 0.01
)

// IsCategorical infers whether a column holds categorical values.
// Text and boolean columns are categorical. Non-integral numeric columns are
// categorical when they have at most MaxFloatCategories distinct values;
// integral ones when they have at most MaxIntCategories distinct values and
// the distinct/non-missing ratio is below MaxCategoricalRatio.
func IsCategorical(values []any) bool {
	distinct := map[string]struct{}{}
	present := 0
	integral := true
	for _, v := range values {
		if isMissing(v) {
			continue
		}
		present++
		switch x := v.(type) {
		case string, bool:
			return true
		default:
			f, ok := ToFloat(x)
			if !ok {
				return true
			}
			if f != math.Trunc(f) {
				integral = false
			}
			distinct[fmt.Sprint(f)] = struct{}{}
		}
	}

	if present == 0 {
		return false
	}
	n := len(distinct)
	if !integral {
		return n <= MaxFloatCategories
	}
	return float64(n)/float64(present) < MaxCategoricalRatio && n <= MaxIntCategories
}
