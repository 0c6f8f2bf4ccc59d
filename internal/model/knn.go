package model

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/spboyer/tabcheck/internal/dataset"
)

// KNNClassifier votes among the K nearest training rows (Euclidean distance).
// Distance ties keep training order; vote ties pick the smallest class.
type KNNClassifier struct {
	K int

	enc     *Encoder
	X       [][]float64
	y       []int
	classes []float64
}

var _ ProbabilisticModel = (*KNNClassifier)(nil)

// NewKNNClassifier creates a classifier that uses k neighbours.
func NewKNNClassifier(k int) *KNNClassifier { return &KNNClassifier{K: k} }

// Fit stores the encoded training data.
func (m *KNNClassifier) Fit(features *dataset.Table, y []float64) error {
	if features.Len() != len(y) {
		return fmt.Errorf("knn: %d rows but %d labels", features.Len(), len(y))
	}
	if m.K <= 0 {
		return fmt.Errorf("knn: k must be positive, got %d", m.K)
	}

	enc := FitEncoder(features)
	X, err := enc.Transform(features)
	if err != nil {
		return fmt.Errorf("knn: %w", err)
	}

	classes := slices.Clone(y)
	slices.Sort(classes)
	classes = slices.Compact(classes)

	idx := make([]int, len(y))
	for i, v := range y {
		idx[i], _ = slices.BinarySearch(classes, v)
	}

	m.enc, m.X, m.y, m.classes = enc, X, idx, classes
	return nil
}

// Classes returns the sorted class values seen at fit time.
func (m *KNNClassifier) Classes() []float64 { return slices.Clone(m.classes) }

// PredictProba returns the neighbour vote share of each class.
func (m *KNNClassifier) PredictProba(features *dataset.Table) ([][]float64, error) {
	if m.enc == nil {
		return nil, errors.New("knn: model is not fitted")
	}
	X, err := m.enc.Transform(features)
	if err != nil {
		return nil, fmt.Errorf("knn: %w", err)
	}

	type neighbour struct {
		d     float64
		class int
	}
	k := min(m.K, len(m.X))
	out := make([][]float64, len(X))
	for i, xi := range X {
		nbrs := make([]neighbour, len(m.X))
		for j, xj := range m.X {
			nbrs[j] = neighbour{d: euclidSquared(xi, xj), class: m.y[j]}
		}
		sort.SliceStable(nbrs, func(a, b int) bool { return nbrs[a].d < nbrs[b].d })

		proba := make([]float64, len(m.classes))
		for _, n := range nbrs[:k] {
			proba[n.class] += 1 / float64(k)
		}
		out[i] = proba
	}
	return out, nil
}

// Predict returns the most voted class value for each row.
func (m *KNNClassifier) Predict(features *dataset.Table) ([]float64, error) {
	proba, err := m.PredictProba(features)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, p := range proba {
		best := 0
		for c := range p {
			if p[c] > p[best] {
				best = c
			}
		}
		out[i] = m.classes[best]
	}
	return out, nil
}

func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
