package checks

import (
	"errors"
	"fmt"
	"slices"
)

// ConditionCategory says how a failed condition should be treated.
type ConditionCategory string

const (
	// CategoryFail marks a failed condition as a failure. It is the default.
	CategoryFail ConditionCategory = "FAIL"
	// CategoryWarn marks a failed condition as a warning only.
	CategoryWarn ConditionCategory = "WARN"
)

// ConditionResult is the verdict of one condition against one CheckResult.
type ConditionResult struct {
	IsPass   bool              `json:"is_pass"`
	Category ConditionCategory `json:"category"`
	Name     string            `json:"name"`
	Details  string            `json:"details,omitempty"`
}

// Failed reports whether the condition failed with the FAIL category.
func (r ConditionResult) Failed() bool {
	return !r.IsPass && r.Category != CategoryWarn
}

// ConditionFunc evaluates a CheckResult value. It returns whether the value
// passes and, usually only on failure, a details string.
type ConditionFunc func(value any) (pass bool, details string, err error)

// Condition is a named predicate over a check's result value.
type Condition struct {
	Name     string
	Category ConditionCategory
	// Params records the thresholds the condition was built with.
	Params map[string]any

	fn ConditionFunc
}

// NewCondition returns a FAIL-category condition.
func NewCondition(name string, params map[string]any, fn ConditionFunc) Condition {
	return Condition{Name: name, Category: CategoryFail, Params: params, fn: fn}
}

// Evaluate applies the condition to value.
func (c Condition) Evaluate(value any) (ConditionResult, error) {
	if c.fn == nil {
		return ConditionResult{}, fmt.Errorf("condition %q has no predicate", c.Name)
	}
	category := c.Category
	if category == "" {
		category = CategoryFail
	}
	pass, details, err := c.fn(value)
	if err != nil {
		return ConditionResult{}, fmt.Errorf("condition %q: %w", c.Name, err)
	}
	return ConditionResult{IsPass: pass, Category: category, Name: c.Name, Details: details}, nil
}

// ConditionSet is the ordered list of conditions owned by a check. Checks
// embed it to get the condition half of the Check interface.
type ConditionSet struct {
	conditions []Condition
}

// Attach appends c. Conditions are evaluated in attachment order.
func (s *ConditionSet) Attach(c Condition) {
	s.conditions = append(s.conditions, c)
}

// Conditions returns a copy of the attached conditions.
func (s *ConditionSet) Conditions() []Condition {
	return slices.Clone(s.conditions)
}

// RemoveCondition drops the condition at index i.
func (s *ConditionSet) RemoveCondition(i int) error {
	if i < 0 || i >= len(s.conditions) {
		return fmt.Errorf("no condition at index %d (have %d)", i, len(s.conditions))
	}
	s.conditions = slices.Delete(s.conditions, i, i+1)
	return nil
}

// ClearConditions drops every attached condition.
func (s *ConditionSet) ClearConditions() {
	s.conditions = nil
}

// ConditionsDecision evaluates every attached condition against result.Value
// and returns exactly one ConditionResult per condition, in attachment order.
func (s *ConditionSet) ConditionsDecision(result *CheckResult) ([]ConditionResult, error) {
	if result == nil {
		return nil, errors.New("conditions decision needs a check result")
	}
	out := make([]ConditionResult, 0, len(s.conditions))
	var errs []error
	for _, c := range s.conditions {
		r, err := c.Evaluate(result.Value)
		if err != nil {
			errs = append(errs, err)
			r = ConditionResult{Category: CategoryFail, Name: c.Name, Details: err.Error()}
		}
		out = append(out, r)
	}
	return out, errors.Join(errs...)
}

func (s *ConditionSet) lastCondition() *Condition {
	if len(s.conditions) == 0 {
		return nil
	}
	return &s.conditions[len(s.conditions)-1]
}
