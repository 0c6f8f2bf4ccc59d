package model

import (
	"fmt"
	"math"

	"github.com/spboyer/tabcheck/internal/dataset"
)

// Encoder turns feature tables into numeric matrices. Non-numeric cells are
// label-encoded in first-seen order; levels unseen at fit time encode as -1.
type Encoder struct {
	Columns []string
	Levels  map[string]map[string]float64
}

// FitEncoder learns the column order and categorical levels of t.
func FitEncoder(t *dataset.Table) *Encoder {
	e := &Encoder{
		Columns: t.Columns(),
		Levels:  map[string]map[string]float64{},
	}
	for _, c := range e.Columns {
		values, _ := t.Column(c)
		for _, v := range values {
			if _, numeric := v.(float64); numeric || v == nil {
				continue
			}
			if _, ok := dataset.ToFloat(v); ok {
				continue
			}
			levels := e.Levels[c]
			if levels == nil {
				levels = map[string]float64{}
				e.Levels[c] = levels
			}
			key := fmt.Sprint(v)
			if _, seen := levels[key]; !seen {
				levels[key] = float64(len(levels))
			}
		}
	}
	return e
}

// Transform encodes t row by row using the fitted columns.
func (e *Encoder) Transform(t *dataset.Table) ([][]float64, error) {
	columns := make([][]any, len(e.Columns))
	for j, c := range e.Columns {
		values, ok := t.Column(c)
		if !ok {
			return nil, fmt.Errorf("encode: feature %q missing from input", c)
		}
		columns[j] = values
	}

	X := make([][]float64, t.Len())
	for i := range X {
		row := make([]float64, len(e.Columns))
		for j, c := range e.Columns {
			v := columns[j][i]
			if levels, categorical := e.Levels[c]; categorical {
				if code, ok := levels[fmt.Sprint(v)]; ok {
					row[j] = code
					continue
				}
			}
			f, ok := dataset.ToFloat(v)
			switch {
			case v == nil || (ok && math.IsNaN(f)):
				return nil, fmt.Errorf("encode: feature %q row %d is missing", c, i)
			case ok:
				row[j] = f
			case e.Levels[c] != nil:
				row[j] = -1
			default:
				return nil, fmt.Errorf("encode: feature %q row %d: %v is not numeric", c, i, v)
			}
		}
		X[i] = row
	}
	return X, nil
}
