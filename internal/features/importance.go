// Package features computes feature importances for a model/dataset pair and
// orders columns by them for display.
package features

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"sort"

	"github.com/spboyer/tabcheck/internal/dataset"
	"github.com/spboyer/tabcheck/internal/metrics"
	"github.com/spboyer/tabcheck/internal/model"
)

// PermutationSeed seeds the row shuffles of permutation importance.
const PermutationSeed = 42

// PermutationRepeats is the number of shuffles averaged per feature.
const PermutationRepeats = 5

// Importance is either a set of computed per-column scores or the reason
// they could not be computed. A missing score is never reported as zero.
type Importance struct {
	scores map[string]float64
	reason string
}

// Computed wraps scores, normalising them to sum to 1 when the total is positive.
func Computed(scores map[string]float64) Importance {
	total := 0.0
	for _, v := range scores {
		total += v
	}
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		if total > 0 {
			v /= total
		}
		out[k] = v
	}
	return Importance{scores: out}
}

// Unavailable records why no importance could be computed.
func Unavailable(reason string) Importance {
	return Importance{reason: reason}
}

// Available reports whether scores were computed.
func (i Importance) Available() bool { return i.scores != nil }

// Reason explains an unavailable importance; empty when available.
func (i Importance) Reason() string { return i.reason }

// Score returns the importance of col.
func (i Importance) Score(col string) (float64, bool) {
	v, ok := i.scores[col]
	return v, ok
}

// Ranked returns the scored columns by descending importance. Ties keep the
// relative order of order; scored columns absent from order go last by name.
func (i Importance) Ranked(order []string) []string {
	var cols []string
	for _, c := range order {
		if _, ok := i.scores[c]; ok {
			cols = append(cols, c)
		}
	}
	var rest []string
	for c := range i.scores {
		if !slices.Contains(order, c) {
			rest = append(rest, c)
		}
	}
	slices.Sort(rest)
	cols = append(cols, rest...)

	sort.SliceStable(cols, func(a, b int) bool { return i.scores[cols[a]] > i.scores[cols[b]] })
	return cols
}

// CalculateImportanceOrNone returns the feature importances of m on ds, or an
// unavailable Importance when there is no model or the computation fails.
// It never returns an error and never panics.
func CalculateImportanceOrNone(m model.Model, ds *dataset.Dataset) (imp Importance) {
	if m == nil {
		return Unavailable("no model")
	}
	defer func() {
		if r := recover(); r != nil {
			imp = Unavailable(fmt.Sprintf("importance calculation panicked: %v", r))
		}
		if !imp.Available() {
			slog.Debug("Feature importance unavailable", "reason", imp.Reason())
		}
	}()

	scores, err := calculate(m, ds)
	if err != nil {
		return Unavailable(err.Error())
	}
	return Computed(scores)
}

func calculate(m model.Model, ds *dataset.Dataset) (map[string]float64, error) {
	if ds == nil {
		return nil, fmt.Errorf("no dataset")
	}
	switch x := m.(type) {
	case model.FeatureImportancer:
		scores, err := x.FeatureImportances()
		if err != nil {
			return nil, fmt.Errorf("model importances: %w", err)
		}
		return restrictToFeatures(scores, ds, false)
	case model.LinearModel:
		coef := x.Coefficients()
		if len(coef) == 0 {
			return nil, fmt.Errorf("linear model has no coefficients")
		}
		scores := make(map[string]float64, len(coef))
		for c, w := range coef {
			scores[c] = math.Abs(w)
		}
		return restrictToFeatures(scores, ds, true)
	default:
		return permutationImportance(m, ds)
	}
}

// restrictToFeatures keeps the scores of the dataset features. A feature
// without a score is an error unless missingAsZero is set, as for linear
// models whose absent coefficients are zero weights.
func restrictToFeatures(scores map[string]float64, ds *dataset.Dataset, missingAsZero bool) (map[string]float64, error) {
	out := map[string]float64{}
	for _, f := range ds.Features() {
		v, ok := scores[f]
		if !ok && !missingAsZero {
			return nil, fmt.Errorf("model has no importance for feature %q", f)
		}
		if math.IsNaN(v) || v < 0 {
			return nil, fmt.Errorf("invalid importance %v for feature %q", v, f)
		}
		out[f] = v
	}
	return out, nil
}

// permutationImportance measures how much the prediction error grows when one
// feature's values are shuffled. Negative increases count as zero.
func permutationImportance(m model.Model, ds *dataset.Dataset) (map[string]float64, error) {
	y, err := ds.LabelValues()
	if err != nil {
		return nil, err
	}
	features := ds.FeatureTable()
	base, err := m.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	baseErr := metrics.RMSE(y, base)

	rng := rand.New(rand.NewSource(PermutationSeed))
	scores := make(map[string]float64, len(ds.Features()))
	for _, f := range ds.Features() {
		total := 0.0
		for r := 0; r < PermutationRepeats; r++ {
			shuffled := features.Copy()
			values, _ := shuffled.Column(f)
			rng.Shuffle(len(values), func(a, b int) { values[a], values[b] = values[b], values[a] })

			pred, err := m.Predict(shuffled)
			if err != nil {
				return nil, fmt.Errorf("predict with %q shuffled: %w", f, err)
			}
			total += metrics.RMSE(y, pred) - baseErr
		}
		scores[f] = math.Max(0, total/PermutationRepeats)
	}
	return scores, nil
}
