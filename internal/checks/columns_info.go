package checks

import (
	"fmt"

	"github.com/spboyer/tabcheck/internal/dataset"
	"github.com/spboyer/tabcheck/internal/features"
	"github.com/spboyer/tabcheck/internal/model"
)

// DefaultNTopColumns is the number of feature columns ColumnsInfo shows when a
// model provides importances.
const DefaultNTopColumns = 10

// ColumnsInfo reports the role and logical type of every column. With a model
// the columns are ordered by feature importance, index, date and label first.
type ColumnsInfo struct {
	ConditionSet

	// NTopColumns limits the features shown when importances are available.
	NTopColumns int
}

var _ Check = (*ColumnsInfo)(nil)

// NewColumnsInfo returns a ColumnsInfo showing DefaultNTopColumns features.
func NewColumnsInfo() *ColumnsInfo {
	return &ColumnsInfo{NTopColumns: DefaultNTopColumns}
}

func (*ColumnsInfo) Name() string { return "columns_info" }

// Run accepts a *dataset.Dataset or a raw *dataset.Table. The value is a
// []dataset.ColumnRole.
func (c *ColumnsInfo) Run(input any, m model.Model) (*CheckResult, error) {
	ds, err := dataset.ValidateOrTable(input)
	if err != nil {
		return nil, err
	}
	imp := features.CalculateImportanceOrNone(m, ds)

	value := features.SortByImportance(ds.ColumnsInfo(), func(r dataset.ColumnRole) string { return r.Column }, ds, imp, c.NTopColumns)

	table := TableDisplay{Headers: []string{""}, Rows: [][]string{{"role"}}}
	for _, r := range value {
		table.Headers = append(table.Headers, r.Column)
		table.Rows[0] = append(table.Rows[0], r.Role)
	}

	display := []DisplayItem{Text(fmt.Sprintf(features.NTopMessage, c.NTopColumns)), table}
	if imp.Available() {
		display = append(display, importanceTable(imp, ds.Features(), c.NTopColumns))
	}

	return &CheckResult{
		Value:   value,
		Header:  "Columns Info",
		Display: display,
	}, nil
}

// importanceTable lists the most important features with their normalised
// scores, limited to nTop columns when nTop > 0.
func importanceTable(imp features.Importance, cols []string, nTop int) TableDisplay {
	ranked := imp.Ranked(cols)
	if nTop > 0 && len(ranked) > nTop {
		ranked = ranked[:nTop]
	}
	table := TableDisplay{Title: "Feature importance", Headers: []string{""}, Rows: [][]string{{"importance"}}}
	for _, col := range ranked {
		score, _ := imp.Score(col)
		table.Headers = append(table.Headers, col)
		table.Rows[0] = append(table.Rows[0], FormatNumber(score, 2))
	}
	return table
}
