package checks

import (
	"fmt"
	"math"

	"github.com/spboyer/tabcheck/internal/metrics"
	"github.com/spboyer/tabcheck/internal/model"
	"github.com/spboyer/tabcheck/internal/statistics"
)

// DefaultMaxBiasRatio is the default threshold of
// AddConditionSystematicErrorRatioToRMSENotGreaterThan.
const DefaultMaxBiasRatio = 0.01

// SystematicErrorValue is the value of a RegressionSystematicError result.
type SystematicErrorValue struct {
	RMSE      float64 `json:"rmse"`
	MeanError float64 `json:"mean_error"`
}

// BiasRatio is |mean error| / RMSE, or 0 when the model makes no errors.
func (v SystematicErrorValue) BiasRatio() float64 {
	if v.RMSE == 0 {
		return 0
	}
	return math.Abs(v.MeanError) / v.RMSE
}

// RegressionSystematicError measures whether a regression model consistently
// over- or under-predicts: a mean error far from zero relative to the RMSE.
type RegressionSystematicError struct {
	ConditionSet
}

var _ Check = (*RegressionSystematicError)(nil)

func NewRegressionSystematicError() *RegressionSystematicError {
	return &RegressionSystematicError{}
}

func (*RegressionSystematicError) Name() string { return "regression_systematic_error" }

// Run requires a labelled *dataset.Dataset and a regression model.
func (c *RegressionSystematicError) Run(input any, m model.Model) (*CheckResult, error) {
	run, err := prepareRegression(input, m)
	if err != nil {
		return nil, err
	}

	value := SystematicErrorValue{
		RMSE:      metrics.RMSE(run.labels, run.preds),
		MeanError: metrics.Mean(run.errors),
	}
	ci := statistics.MeanInterval(run.errors, statistics.DefaultLevel)

	return &CheckResult{
		Value:  value,
		Header: "Regression Systematic Error",
		Display: []DisplayItem{
			Text("A non-zero mean of the error distribution indicates systematic error in the model predictions"),
			summaryTable("Model prediction error", run.errors),
			Text(fmt.Sprintf("Mean error: %s, 95%% bootstrap interval [%s, %s]",
				FormatNumber(value.MeanError, 5), FormatNumber(ci.Lower, 5), FormatNumber(ci.Upper, 5))),
		},
	}, nil
}

// AddConditionSystematicErrorRatioToRMSENotGreaterThan fails when
// |mean error| / RMSE is greater than maxRatio. A ratio equal to maxRatio
// passes.
func (c *RegressionSystematicError) AddConditionSystematicErrorRatioToRMSENotGreaterThan(maxRatio float64) *RegressionSystematicError {
	name := fmt.Sprintf("Bias ratio is not greater than %s", FormatNumber(maxRatio, 2))
	c.Attach(NewCondition(name, map[string]any{"max_ratio": maxRatio}, func(value any) (bool, string, error) {
		v, ok := value.(SystematicErrorValue)
		if !ok {
			return false, "", fmt.Errorf("unexpected value type %T", value)
		}
		if v.BiasRatio() > maxRatio {
			return false, fmt.Sprintf("mean error: %s, RMSE: %s", FormatNumber(v.MeanError, 5), FormatNumber(v.RMSE, 2)), nil
		}
		return true, "", nil
	}))
	return c
}
