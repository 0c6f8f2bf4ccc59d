package checks

import (
	"fmt"

	"github.com/spboyer/tabcheck/internal/dataset"
	"github.com/spboyer/tabcheck/internal/metrics"
	"github.com/spboyer/tabcheck/internal/model"
)

// regressionRun is the validated input of a regression check along with the
// model's errors on it.
type regressionRun struct {
	ds     *dataset.Dataset
	labels []float64
	preds  []float64
	// errors are label minus prediction.
	errors []float64
}

// prepareRegression validates that input is a labelled Dataset and m a
// regression model, then predicts every row.
func prepareRegression(input any, m model.Model) (*regressionRun, error) {
	ds, err := dataset.Validate(input)
	if err != nil {
		return nil, err
	}
	if err := ds.ValidateLabel(); err != nil {
		return nil, err
	}
	if _, err := model.ValidateTaskType(m, ds, model.Regression); err != nil {
		return nil, err
	}

	labels, err := ds.LabelValues()
	if err != nil {
		return nil, err
	}
	preds, err := m.Predict(ds.FeatureTable())
	if err != nil {
		return nil, fmt.Errorf("predicting: %w", err)
	}
	if len(preds) != len(labels) {
		return nil, fmt.Errorf("model returned %d predictions for %d rows", len(preds), len(labels))
	}
	return &regressionRun{
		ds:     ds,
		labels: labels,
		preds:  preds,
		errors: metrics.Residuals(labels, preds),
	}, nil
}

// rowName identifies row i by its index column value when there is one.
func (r *regressionRun) rowName(i int) string {
	if idx, ok := r.ds.IndexName(); ok {
		values, _ := r.ds.Data().Column(idx)
		return fmt.Sprint(values[i])
	}
	return fmt.Sprint(i)
}

func summaryTable(title string, values []float64) TableDisplay {
	s := metrics.Summarize(values)
	return TableDisplay{
		Title:   title,
		Headers: []string{"min", "25%", "median", "75%", "max"},
		Rows: [][]string{{
			FormatNumber(s.Min, 2),
			FormatNumber(s.Q1, 2),
			FormatNumber(s.Median, 2),
			FormatNumber(s.Q3, 2),
			FormatNumber(s.Max, 2),
		}},
	}
}
