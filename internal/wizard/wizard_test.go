package wizard

import (
	"strings"
	"testing"

	"github.com/spboyer/tabcheck/internal/checks"
	"github.com/spboyer/tabcheck/internal/suiteconfig"
	"github.com/spboyer/tabcheck/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_Valid(t *testing.T) {
	a, err := Collect(" pricing ", []string{"regression_error_distribution", "columns_info"}, "5", "0.05", "-0.5", "warn")
	require.NoError(t, err)

	assert.Equal(t, "pricing", a.Name)
	assert.Equal(t, []checks.Kind{checks.KindRegressionErrorDistribution, checks.KindColumnsInfo}, a.Kinds)
	assert.Equal(t, 5, a.NTopColumns)
	assert.Equal(t, 0.05, a.MaxBiasRatio)
	assert.Equal(t, -0.5, a.MinKurtosis)
	assert.Equal(t, checks.CategoryWarn, a.Category)
}

func TestCollect_Errors(t *testing.T) {
	tests := []struct {
		name     string
		suite    string
		kinds    []string
		nTop     string
		maxRatio string
		minKurt  string
		category string
		want     string
	}{
		{"empty name", " ", []string{"columns_info"}, "10", "0.01", "-0.1", "FAIL", "suite name is required"},
		{"no checks", "s", nil, "10", "0.01", "-0.1", "FAIL", "select at least one check"},
		{"unknown check", "s", []string{"drift"}, "10", "0.01", "-0.1", "FAIL", "'drift' is not a valid check kind"},
		{"bad top columns", "s", []string{"columns_info"}, "ten", "0.01", "-0.1", "FAIL", "top columns"},
		{"negative top columns", "s", []string{"columns_info"}, "-1", "0.01", "-0.1", "FAIL", "must not be negative"},
		{"negative ratio", "s", []string{"columns_info"}, "10", "-0.01", "-0.1", "FAIL", "maximum bias ratio"},
		{"bad kurtosis", "s", []string{"columns_info"}, "10", "0.01", "flat", "FAIL", "minimum kurtosis"},
		{"bad category", "s", []string{"columns_info"}, "10", "0.01", "-0.1", "INFO", "invalid condition category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Collect(tt.suite, tt.kinds, tt.nTop, tt.maxRatio, tt.minKurt, tt.category)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCollect_DefaultCategory(t *testing.T) {
	a, err := Collect("s", []string{"columns_info"}, "10", "0.01", "-0.1", "")
	require.NoError(t, err)
	assert.Equal(t, checks.CategoryFail, a.Category)
}

func TestAnswersSuite(t *testing.T) {
	a := DefaultAnswers()
	a.NTopColumns = 3
	a.MaxBiasRatio = 0.2
	a.Category = checks.CategoryWarn

	sf := a.Suite()
	require.Len(t, sf.Checks, 3)
	assert.Equal(t, map[string]any{"n_top_columns": 3}, sf.Checks[0].Params)
	assert.Empty(t, sf.Checks[0].Conditions)
	assert.Equal(t, checks.CategoryWarn, sf.Checks[1].Conditions[0].Category)

	suite, err := sf.Build()
	require.NoError(t, err)
	conds := suite.Checks[1].Conditions()
	require.Len(t, conds, 1)
	assert.Equal(t, "Bias ratio is not greater than 0.2", conds[0].Name)
	assert.Equal(t, checks.CategoryWarn, conds[0].Category)
}

func TestAnswersSuite_DefaultsOmitParams(t *testing.T) {
	a := DefaultAnswers()
	sf := a.Suite()
	assert.Nil(t, sf.Checks[0].Params)
	assert.Empty(t, sf.Checks[1].Conditions[0].Category)
}

func TestGenerateSuiteYAML(t *testing.T) {
	a := DefaultAnswers()
	a.Name = "pricing"

	out, err := GenerateSuiteYAML(&a)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "# pricing suite generated by tabcheck init.\n"))
	assert.Contains(t, out, "# Checks: columns_info, regression_systematic_error, regression_error_distribution\n")
	assert.Contains(t, out, "max_ratio: 0.01")

	// The generated file is a valid suite.
	assert.Empty(t, validation.ValidateSuiteBytes([]byte(out)))
	sf, err := suiteconfig.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "pricing", sf.Name)
	_, err = sf.Build()
	require.NoError(t, err)
}

func TestParseHelpers(t *testing.T) {
	v, err := parseNonNegativeInt(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	f, err := parseFloat("-0.25")
	require.NoError(t, err)
	assert.Equal(t, -0.25, f)

	_, err = parseNonNegativeFloat("-1")
	require.Error(t, err)

	require.Error(t, validateName("two\tparts"))
	require.NoError(t, validateName("ok"))
}
