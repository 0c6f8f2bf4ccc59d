package dataset

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidInput marks errors caused by a dataset, label or model that a
// check cannot work with.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputf builds an error wrapping ErrInvalidInput. Its message is
// exactly the formatted text.
func InvalidInputf(format string, args ...any) error {
	return &invalidInputError{msg: fmt.Sprintf(format, args...)}
}

type invalidInputError struct{ msg string }

func (e *invalidInputError) Error() string { return e.msg }
func (e *invalidInputError) Unwrap() error { return ErrInvalidInput }

// Role is the part a column plays in a dataset.
type Role string

const (
	RoleFeature Role = "feature"
	RoleLabel   Role = "label"
	RoleIndex   Role = "index"
	RoleDate    Role = "date"
	// RoleOther marks columns left out of an explicit feature list.
	RoleOther Role = "other"
)

// LogicalType is the inferred or declared kind of a feature column.
type LogicalType string

const (
	Categorical LogicalType = "categorical"
	Numerical   LogicalType = "numerical"
)

// ColumnRole pairs a column with the role shown to users, e.g. "numerical feature".
type ColumnRole struct {
	Column string `json:"column" yaml:"column"`
	Role   string `json:"role" yaml:"role"`
}

// Dataset wraps a Table with column roles. The role mapping is fixed at
// construction; the wrapped table is never modified by the dataset.
type Dataset struct {
	data        *Table
	label       string
	index       string
	date        string
	features    []string
	catFeatures map[string]bool
	roles       map[string]Role
}

type options struct {
	label, index, date string
	features           []string
	catFeatures        []string
	catSet             bool
}

// Option configures a Dataset.
type Option func(*options)

func WithLabel(name string) Option { return func(o *options) { o.label = name } }
func WithIndex(name string) Option { return func(o *options) { o.index = name } }
func WithDate(name string) Option  { return func(o *options) { o.date = name } }

// WithFeatures restricts the feature columns. Other unassigned columns get RoleOther.
func WithFeatures(names ...string) Option {
	return func(o *options) { o.features = names }
}

// WithCatFeatures declares the categorical features explicitly and disables inference.
func WithCatFeatures(names ...string) Option {
	return func(o *options) {
		o.catFeatures = names
		o.catSet = true
	}
}

// New wraps t in a Dataset.
func New(t *Table, opts ...Option) (*Dataset, error) {
	if t == nil {
		return nil, fmt.Errorf("dataset: nil table")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ds := &Dataset{
		data:        t,
		label:       o.label,
		index:       o.index,
		date:        o.date,
		catFeatures: map[string]bool{},
		roles:       make(map[string]Role, len(t.names)),
	}

	special := map[string]Role{}
	for _, s := range []struct {
		name string
		role Role
	}{{o.label, RoleLabel}, {o.index, RoleIndex}, {o.date, RoleDate}} {
		if s.name == "" {
			continue
		}
		if !t.HasColumn(s.name) {
			return nil, fmt.Errorf("dataset: %s column %q not found in data", s.role, s.name)
		}
		if prev, dup := special[s.name]; dup {
			return nil, fmt.Errorf("dataset: column %q cannot be both %s and %s", s.name, prev, s.role)
		}
		special[s.name] = s.role
	}

	if o.features != nil {
		for _, f := range o.features {
			if !t.HasColumn(f) {
				return nil, fmt.Errorf("dataset: feature %q not found in data", f)
			}
			if r, ok := special[f]; ok {
				return nil, fmt.Errorf("dataset: feature %q is already the %s column", f, r)
			}
		}
		ds.features = slices.Clone(o.features)
	} else {
		for _, name := range t.names {
			if _, ok := special[name]; !ok {
				ds.features = append(ds.features, name)
			}
		}
	}

	if o.catSet {
		for _, c := range o.catFeatures {
			if !slices.Contains(ds.features, c) {
				return nil, fmt.Errorf("dataset: categorical feature %q is not a feature", c)
			}
			ds.catFeatures[c] = true
		}
	} else {
		for _, f := range ds.features {
			values, _ := t.Column(f)
			if IsCategorical(values) {
				ds.catFeatures[f] = true
			}
		}
	}

	for _, name := range t.names {
		switch {
		case special[name] != "":
			ds.roles[name] = special[name]
		case slices.Contains(ds.features, name):
			ds.roles[name] = RoleFeature
		default:
			ds.roles[name] = RoleOther
		}
	}
	return ds, nil
}

// Validate accepts only a *Dataset.
func Validate(v any) (*Dataset, error) {
	if ds, ok := v.(*Dataset); ok && ds != nil {
		return ds, nil
	}
	return nil, InvalidInputf("Check requires dataset to be of type Dataset. instead got: %T", v)
}

// ValidateOrTable accepts a *Dataset or wraps a raw *Table with default roles.
func ValidateOrTable(v any) (*Dataset, error) {
	switch x := v.(type) {
	case *Dataset:
		if x != nil {
			return x, nil
		}
	case *Table:
		if x != nil {
			return New(x)
		}
	}
	return nil, InvalidInputf("Check requires dataset to be of type Dataset or Table. instead got: %T", v)
}

// ValidateLabel fails when the dataset has no label column.
func (d *Dataset) ValidateLabel() error {
	if d.label == "" {
		return InvalidInputf("Check requires dataset to have a label column")
	}
	return nil
}

// Data returns the wrapped table.
func (d *Dataset) Data() *Table { return d.data }

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.data.Len() }

func (d *Dataset) LabelName() (string, bool) { return d.label, d.label != "" }
func (d *Dataset) IndexName() (string, bool) { return d.index, d.index != "" }
func (d *Dataset) DateName() (string, bool)  { return d.date, d.date != "" }

// Features returns the feature columns: the WithFeatures order when given,
// otherwise table order.
func (d *Dataset) Features() []string { return slices.Clone(d.features) }

// CatFeatures returns the categorical feature columns in feature order.
func (d *Dataset) CatFeatures() []string {
	var out []string
	for _, f := range d.features {
		if d.catFeatures[f] {
			out = append(out, f)
		}
	}
	return out
}

// IsCategorical reports whether col is a categorical feature.
func (d *Dataset) IsCategorical(col string) bool { return d.catFeatures[col] }

// Role returns the role of col and whether the column exists.
func (d *Dataset) Role(col string) (Role, bool) {
	r, ok := d.roles[col]
	return r, ok
}

// IsSpecial reports whether col is the label, index or date column.
func (d *Dataset) IsSpecial(col string) bool {
	switch d.roles[col] {
	case RoleLabel, RoleIndex, RoleDate:
		return true
	}
	return false
}

// LogicalType returns the logical type of a feature column.
func (d *Dataset) LogicalType(col string) LogicalType {
	if d.catFeatures[col] {
		return Categorical
	}
	return Numerical
}

// LabelValues returns the label column as floats.
func (d *Dataset) LabelValues() ([]float64, error) {
	if err := d.ValidateLabel(); err != nil {
		return nil, err
	}
	return d.data.Floats(d.label)
}

// FeatureTable returns a view of the feature columns.
func (d *Dataset) FeatureTable() *Table {
	t, err := d.data.Select(d.features...)
	if err != nil {
		// features are validated against the table in New
		panic(err)
	}
	return t
}

// WithData returns a dataset with the same roles over a different table that
// has the same columns, e.g. a modified copy.
func (d *Dataset) WithData(t *Table) (*Dataset, error) {
	return New(t, d.options()...)
}

// Copy returns a dataset over a deep copy of the data.
func (d *Dataset) Copy() *Dataset {
	c, err := d.WithData(d.data.Copy())
	if err != nil {
		panic(err)
	}
	return c
}

func (d *Dataset) options() []Option {
	return []Option{
		WithLabel(d.label),
		WithIndex(d.index),
		WithDate(d.date),
		WithFeatures(d.features...),
		WithCatFeatures(d.CatFeatures()...),
	}
}

// ColumnsInfo returns the display role of every column, in table order.
func (d *Dataset) ColumnsInfo() []ColumnRole {
	out := make([]ColumnRole, 0, len(d.data.names))
	for _, name := range d.data.names {
		role := string(d.roles[name])
		if d.roles[name] == RoleFeature {
			role = string(d.LogicalType(name)) + " feature"
		}
		out = append(out, ColumnRole{Column: name, Role: role})
	}
	return out
}
