package checks

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/spboyer/tabcheck/internal/dataset"
	"github.com/spboyer/tabcheck/internal/metrics"
	"github.com/spboyer/tabcheck/internal/model"
)

// DefaultMinKurtosis is the default threshold of AddConditionKurtosisNotLessThan.
const DefaultMinKurtosis = -0.1

// extremeRows is how many of the largest over- and under-predictions are shown.
const extremeRows = 3

// ErrorDistributionValue is the value of a RegressionErrorDistribution result.
type ErrorDistributionValue struct {
	Kurtosis float64 `json:"kurtosis"`
}

// RegressionErrorDistribution checks the shape of a regression model's error
// distribution through its excess kurtosis. A flat (strongly negative)
// kurtosis hints at errors that are spread out rather than concentrated near
// zero.
type RegressionErrorDistribution struct {
	ConditionSet
}

var _ Check = (*RegressionErrorDistribution)(nil)

func NewRegressionErrorDistribution() *RegressionErrorDistribution {
	return &RegressionErrorDistribution{}
}

func (*RegressionErrorDistribution) Name() string { return "regression_error_distribution" }

func (c *RegressionErrorDistribution) Run(input any, m model.Model) (*CheckResult, error) {
	run, err := prepareRegression(input, m)
	if err != nil {
		return nil, err
	}
	k := metrics.Kurtosis(run.errors)
	if math.IsNaN(k) {
		return nil, dataset.InvalidInputf("Check requires at least 4 rows with varying prediction errors, got %d rows", len(run.errors))
	}

	return &CheckResult{
		Value:  ErrorDistributionValue{Kurtosis: k},
		Header: "Regression Error Distribution",
		Display: []DisplayItem{
			summaryTable("Model prediction error", run.errors),
			Text(fmt.Sprintf("Excess kurtosis of the errors: %s", FormatNumber(k, 5))),
			extremesTable(run),
		},
	}, nil
}

// extremesTable lists the rows with the most negative and most positive errors.
func extremesTable(run *regressionRun) TableDisplay {
	order := make([]int, len(run.errors))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return run.errors[order[a]] < run.errors[order[b]] })

	n := min(extremeRows, len(order)/2)
	picked := append(order[:n:n], order[len(order)-n:]...)

	t := TableDisplay{
		Title:   "Largest over- and under-estimations",
		Headers: []string{"row", "label", "prediction", "error"},
	}
	for _, i := range picked {
		t.Rows = append(t.Rows, []string{
			run.rowName(i),
			strconv.FormatFloat(run.labels[i], 'g', -1, 64),
			FormatNumber(run.preds[i], 2),
			FormatNumber(run.errors[i], 2),
		})
	}
	return t
}

// AddConditionKurtosisNotLessThan fails when the kurtosis is below minKurtosis.
func (c *RegressionErrorDistribution) AddConditionKurtosisNotLessThan(minKurtosis float64) *RegressionErrorDistribution {
	name := fmt.Sprintf("Kurtosis value is not less than %s", FormatNumber(minKurtosis, 2))
	c.Attach(NewCondition(name, map[string]any{"min_kurtosis": minKurtosis}, func(value any) (bool, string, error) {
		v, ok := value.(ErrorDistributionValue)
		if !ok {
			return false, "", fmt.Errorf("unexpected value type %T", value)
		}
		if v.Kurtosis < minKurtosis {
			return false, fmt.Sprintf("kurtosis: %s", FormatNumber(v.Kurtosis, 5)), nil
		}
		return true, "", nil
	}))
	return c
}
