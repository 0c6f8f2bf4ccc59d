// Package checks provides the Check interface, the condition protocol layered
// on top of it, and the dataset and model checks built on both.
package checks

import (
	"github.com/spboyer/tabcheck/internal/model"
)

// CheckResult holds the outcome of a single check run.
type CheckResult struct {
	// Value is the check-specific diagnostic payload that conditions evaluate.
	Value any
	// Header is the display label of the result.
	Header string
	// Display holds renderable items in display order.
	Display []DisplayItem
}

// DisplayItem is a renderable piece of a CheckResult. It is implemented by
// Text and TableDisplay.
type DisplayItem interface {
	displayItem()
}

// Text is a line of prose shown with a result.
type Text string

func (Text) displayItem() {}

// TableDisplay is a small table shown with a result. Every row has one cell
// per header.
type TableDisplay struct {
	Title   string     `json:"title,omitempty"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

func (TableDisplay) displayItem() {}

// Check runs against a dataset and an optional model. Implementations are
// stateless apart from their parameters and attached conditions, so a single
// instance may be run many times.
type Check interface {
	// Name is a stable identifier used in output and in suite files.
	Name() string

	// Run validates its inputs and computes a fresh CheckResult. Invalid input
	// produces an error wrapping dataset.ErrInvalidInput.
	Run(input any, m model.Model) (*CheckResult, error)

	Attach(c Condition)
	Conditions() []Condition
	ConditionsDecision(result *CheckResult) ([]ConditionResult, error)
}
