package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/spboyer/tabcheck/internal/dataset"
)

// LinearRegression is an ordinary least squares regressor with intercept.
// Fitting is closed form, so results are reproducible.
type LinearRegression struct {
	// L2 adds ridge regularisation to the normal equations when > 0.
	L2 float64

	Intercept float64
	Weights   []float64
	enc       *Encoder
}

var (
	_ Model        = (*LinearRegression)(nil)
	_ TaskDeclarer = (*LinearRegression)(nil)
	_ LinearModel  = (*LinearRegression)(nil)
)

// NewLinearRegression returns an unfitted regressor.
func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

// Fit solves the normal equations for features and targets y.
func (m *LinearRegression) Fit(features *dataset.Table, y []float64) error {
	if features.Len() != len(y) {
		return fmt.Errorf("linear: %d rows but %d targets", features.Len(), len(y))
	}
	if len(y) == 0 {
		return errors.New("linear: no rows to fit")
	}

	enc := FitEncoder(features)
	X, err := enc.Transform(features)
	if err != nil {
		return fmt.Errorf("linear: %w", err)
	}

	// Design matrix gets a leading column of ones for the intercept.
	p := len(enc.Columns) + 1
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)
	row := make([]float64, p)
	for i, xi := range X {
		row[0] = 1
		copy(row[1:], xi)
		for a := 0; a < p; a++ {
			xty[a] += row[a] * y[i]
			for b := 0; b < p; b++ {
				xtx[a][b] += row[a] * row[b]
			}
		}
	}
	for a := 1; a < p; a++ {
		xtx[a][a] += m.L2
	}

	beta, err := solve(xtx, xty)
	if err != nil {
		return fmt.Errorf("linear: %w", err)
	}
	m.Intercept = beta[0]
	m.Weights = beta[1:]
	m.enc = enc
	return nil
}

// Predict returns intercept + X·w for each row.
func (m *LinearRegression) Predict(features *dataset.Table) ([]float64, error) {
	if m.enc == nil {
		return nil, errors.New("linear: model is not fitted")
	}
	X, err := m.enc.Transform(features)
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	out := make([]float64, len(X))
	for i, xi := range X {
		sum := m.Intercept
		for j, v := range xi {
			sum += m.Weights[j] * v
		}
		out[i] = sum
	}
	return out, nil
}

func (m *LinearRegression) TaskType() TaskType { return Regression }

// Coefficients returns the weight of each feature column.
func (m *LinearRegression) Coefficients() map[string]float64 {
	if m.enc == nil {
		return nil
	}
	out := make(map[string]float64, len(m.Weights))
	for j, c := range m.enc.Columns {
		out[c] = m.Weights[j]
	}
	return out
}

// solve runs Gaussian elimination with partial pivoting on a copy of A.
func solve(A [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	a := make([][]float64, n)
	for i := range A {
		a[i] = append(append([]float64(nil), A[i]...), b[i])
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errors.New("singular design matrix")
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := a[r][n]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
