package checks

import (
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// Kind identifies a check implementation in suite files.
type Kind string

const (
	KindColumnsInfo                 Kind = "columns_info"
	KindRegressionSystematicError   Kind = "regression_systematic_error"
	KindRegressionErrorDistribution Kind = "regression_error_distribution"
)

// Kinds lists every check kind Create understands.
func Kinds() []Kind {
	return []Kind{KindColumnsInfo, KindRegressionSystematicError, KindRegressionErrorDistribution}
}

// Describe is a one-line description of a check kind.
func Describe(kind Kind) string {
	switch kind {
	case KindColumnsInfo:
		return "Role and logical type of every column, ordered by feature importance"
	case KindRegressionSystematicError:
		return "Mean prediction error relative to RMSE of a regression model"
	case KindRegressionErrorDistribution:
		return "Kurtosis of the prediction error distribution of a regression model"
	}
	return ""
}

// Create builds a check from its kind and the params given in a suite file.
func Create(kind Kind, params map[string]any) (Check, error) {
	switch kind {
	case KindColumnsInfo:
		v := struct {
			NTopColumns int `mapstructure:"n_top_columns"`
		}{NTopColumns: DefaultNTopColumns}

		if err := decodeParams(params, &v); err != nil {
			return nil, fmt.Errorf("'%s' params: %w", kind, err)
		}
		if v.NTopColumns < 0 {
			return nil, fmt.Errorf("'%s' params: n_top_columns must not be negative", kind)
		}
		return &ColumnsInfo{NTopColumns: v.NTopColumns}, nil
	case KindRegressionSystematicError, KindRegressionErrorDistribution:
		if err := decodeParams(params, &struct{}{}); err != nil {
			return nil, fmt.Errorf("'%s' params: %w", kind, err)
		}
		if kind == KindRegressionSystematicError {
			return NewRegressionSystematicError(), nil
		}
		return NewRegressionErrorDistribution(), nil
	default:
		return nil, fmt.Errorf("'%s' is not a valid check kind", kind)
	}
}

// ConditionSpec describes a condition in a suite file: either a built-in
// condition by Name with Params, or a CEL Expr with an optional Details
// template.
type ConditionSpec struct {
	Name     string            `yaml:"name,omitempty" json:"name,omitempty"`
	Params   map[string]any    `yaml:"params,omitempty" json:"params,omitempty"`
	Expr     string            `yaml:"expr,omitempty" json:"expr,omitempty"`
	Details  string            `yaml:"details,omitempty" json:"details,omitempty"`
	Category ConditionCategory `yaml:"category,omitempty" json:"category,omitempty"`
}

// Built-in condition names usable in a ConditionSpec.
const (
	ConditionBiasRatio   = "systematic_error_ratio_to_rmse_not_greater_than"
	ConditionMinKurtosis = "kurtosis_not_less_than"
)

// ConditionNames lists the built-in conditions for a check kind.
func ConditionNames(kind Kind) []string {
	switch kind {
	case KindRegressionSystematicError:
		return []string{ConditionBiasRatio}
	case KindRegressionErrorDistribution:
		return []string{ConditionMinKurtosis}
	}
	return nil
}

// AttachCondition attaches the condition described by spec to c.
func AttachCondition(c Check, spec ConditionSpec) error {
	if spec.Category != "" && spec.Category != CategoryFail && spec.Category != CategoryWarn {
		return fmt.Errorf("condition category must be %s or %s, got %q", CategoryFail, CategoryWarn, spec.Category)
	}

	if spec.Expr != "" {
		cond, err := ExprCondition(spec.Name, spec.Expr, spec.Details)
		if err != nil {
			return err
		}
		if spec.Category != "" {
			cond.Category = spec.Category
		}
		c.Attach(cond)
		return nil
	}

	if !slices.Contains(ConditionNames(Kind(c.Name())), spec.Name) {
		return fmt.Errorf("'%s' is not a condition of check '%s'", spec.Name, c.Name())
	}

	switch check := c.(type) {
	case *RegressionSystematicError:
		v := struct {
			MaxRatio float64 `mapstructure:"max_ratio"`
		}{MaxRatio: DefaultMaxBiasRatio}
		if err := decodeParams(spec.Params, &v); err != nil {
			return fmt.Errorf("condition '%s' params: %w", spec.Name, err)
		}
		check.AddConditionSystematicErrorRatioToRMSENotGreaterThan(v.MaxRatio)
	case *RegressionErrorDistribution:
		v := struct {
			MinKurtosis float64 `mapstructure:"min_kurtosis"`
		}{MinKurtosis: DefaultMinKurtosis}
		if err := decodeParams(spec.Params, &v); err != nil {
			return fmt.Errorf("condition '%s' params: %w", spec.Name, err)
		}
		check.AddConditionKurtosisNotLessThan(v.MinKurtosis)
	default:
		return fmt.Errorf("'%s' is not a condition of check '%s'", spec.Name, c.Name())
	}

	if spec.Category != "" {
		setLastCategory(c, spec.Category)
	}
	return nil
}

func setLastCategory(c Check, category ConditionCategory) {
	type conditionHolder interface{ lastCondition() *Condition }
	if h, ok := c.(conditionHolder); ok {
		if last := h.lastCondition(); last != nil {
			last.Category = category
		}
	}
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}
