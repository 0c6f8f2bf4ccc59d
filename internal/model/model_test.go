package model

import (
	"testing"

	"github.com/spboyer/tabcheck/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearTable(t *testing.T) (*dataset.Table, []float64) {
	t.Helper()
	x := []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}
	z := []any{0.0, 1.0, 0.0, 2.0, 1.0, 3.0}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 1 + 2*x[i].(float64) + 3*z[i].(float64)
	}
	table, err := dataset.NewTable([]string{"x", "z"}, x, z)
	require.NoError(t, err)
	return table, y
}

func TestLinearRegression_RecoversExactFit(t *testing.T) {
	table, y := linearTable(t)
	m := NewLinearRegression()
	require.NoError(t, m.Fit(table, y))

	assert.InDelta(t, 1.0, m.Intercept, 1e-9)
	coef := m.Coefficients()
	assert.InDelta(t, 2.0, coef["x"], 1e-9)
	assert.InDelta(t, 3.0, coef["z"], 1e-9)

	pred, err := m.Predict(table)
	require.NoError(t, err)
	for i := range y {
		assert.InDelta(t, y[i], pred[i], 1e-9)
	}
}

func TestLinearRegression_Errors(t *testing.T) {
	table, y := linearTable(t)
	m := NewLinearRegression()

	_, err := m.Predict(table)
	require.ErrorContains(t, err, "not fitted")

	require.ErrorContains(t, m.Fit(table, y[:2]), "6 rows but 2 targets")

	dup, err := dataset.NewTable([]string{"a", "b"}, []any{1.0, 2.0, 3.0}, []any{2.0, 4.0, 6.0})
	require.NoError(t, err)
	require.ErrorContains(t, m.Fit(dup, []float64{1, 2, 3}), "singular")

	require.NoError(t, m.Fit(table, y))
	other, err := dataset.NewTable([]string{"x"}, []any{1.0})
	require.NoError(t, err)
	_, err = m.Predict(other)
	require.ErrorContains(t, err, `feature "z" missing`)
}

func TestLinearRegression_CategoricalFeature(t *testing.T) {
	table, err := dataset.NewTable([]string{"city", "x"},
		[]any{"a", "b", "a", "b", "a"},
		[]any{1.0, 2.0, 3.0, 4.0, 5.0},
	)
	require.NoError(t, err)
	y := []float64{1, 12, 3, 14, 5}

	m := NewLinearRegression()
	require.NoError(t, m.Fit(table, y))

	unseen, err := dataset.NewTable([]string{"city", "x"}, []any{"c"}, []any{1.0})
	require.NoError(t, err)
	pred, err := m.Predict(unseen)
	require.NoError(t, err)
	assert.InDelta(t, m.Intercept-m.Coefficients()["city"]+m.Coefficients()["x"], pred[0], 1e-9)
}

func TestKNNClassifier(t *testing.T) {
	table, err := dataset.NewTable([]string{"f"}, []any{0.0, 0.1, 0.2, 5.0, 5.1, 9.0, 9.1})
	require.NoError(t, err)
	y := []float64{0, 0, 0, 1, 1, 2, 2}

	m := NewKNNClassifier(2)
	require.NoError(t, m.Fit(table, y))
	assert.Equal(t, []float64{0, 1, 2}, m.Classes())

	query, err := dataset.NewTable([]string{"f"}, []any{0.05, 5.05, 9.2})
	require.NoError(t, err)

	pred, err := m.Predict(query)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, pred)

	proba, err := m.PredictProba(query)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, proba[0])

	require.ErrorContains(t, NewKNNClassifier(0).Fit(table, y), "k must be positive")
}

func TestInferTaskType(t *testing.T) {
	table, err := dataset.NewTable([]string{"f", "binary", "multi"},
		[]any{0.0, 1.0, 2.0, 3.0},
		[]any{0.0, 1.0, 0.0, 1.0},
		[]any{0.0, 1.0, 2.0, 1.0},
	)
	require.NoError(t, err)

	binary, err := dataset.New(table, dataset.WithLabel("binary"), dataset.WithFeatures("f"))
	require.NoError(t, err)
	multi, err := dataset.New(table, dataset.WithLabel("multi"), dataset.WithFeatures("f"))
	require.NoError(t, err)
	unlabeled, err := dataset.New(table)
	require.NoError(t, err)

	knn := NewKNNClassifier(1)

	task, err := InferTaskType(knn, binary)
	require.NoError(t, err)
	assert.Equal(t, Binary, task)

	task, err = InferTaskType(knn, multi)
	require.NoError(t, err)
	assert.Equal(t, Multiclass, task)

	task, err = InferTaskType(NewLinearRegression(), unlabeled)
	require.NoError(t, err)
	assert.Equal(t, Regression, task)

	_, err = InferTaskType(knn, unlabeled)
	require.ErrorIs(t, err, dataset.ErrInvalidInput)
}

func TestValidateTaskType(t *testing.T) {
	table, err := dataset.NewTable([]string{"f", "y"}, []any{0.0, 1.0, 2.0}, []any{0.0, 1.0, 2.0})
	require.NoError(t, err)
	ds, err := dataset.New(table, dataset.WithLabel("y"))
	require.NoError(t, err)

	_, err = ValidateTaskType(NewKNNClassifier(1), ds, Regression)
	require.ErrorIs(t, err, dataset.ErrInvalidInput)
	require.EqualError(t, err, "Expected model to be a type from [regression], but received model of type: multiclass")

	_, err = ValidateTaskType(nil, ds, Regression)
	require.EqualError(t, err, "Check requires a model")

	task, err := ValidateTaskType(NewLinearRegression(), ds, Regression, Binary)
	require.NoError(t, err)
	assert.Equal(t, Regression, task)
}

func TestParseLinear(t *testing.T) {
	m, err := ParseLinear([]byte(`
intercept: 1
coefficients:
  - column: x
    weight: 2
  - column: city
    weight: 10
levels:
  city: [a, b]
`))
	require.NoError(t, err)

	table, err := dataset.NewTable([]string{"city", "x"}, []any{"a", "b"}, []any{1.0, 2.0})
	require.NoError(t, err)
	pred, err := m.Predict(table)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 15}, pred)

	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"no coefficients", "intercept: 1\n", "no coefficients"},
		{"wrong task", "task: binary\ncoefficients: [{column: x, weight: 1}]\n", "task must be regression"},
		{"duplicate", "coefficients: [{column: x, weight: 1}, {column: x, weight: 2}]\n", `duplicate coefficient for "x"`},
		{"unknown levels", "coefficients: [{column: x, weight: 1}]\nlevels: {y: [a]}\n", `unknown column "y"`},
		{"bad yaml", "coefficients: [", "parsing linear model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLinear([]byte(tt.doc))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
