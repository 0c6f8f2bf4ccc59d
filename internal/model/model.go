// Package model defines the fitted-model capabilities checks rely on, task type
// inference, and a few deterministic reference estimators.
package model

//go:generate go tool mockgen -destination ../checks/mock_model_test.go -package checks . Model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spboyer/tabcheck/internal/dataset"
)

// TaskType is the kind of prediction a model performs.
type TaskType string

const (
	Regression TaskType = "regression"
	Binary     TaskType = "binary"
	Multiclass TaskType = "multiclass"
)

// Model is a fitted model that predicts one value per row of a feature table.
type Model interface {
	Predict(features *dataset.Table) ([]float64, error)
}

// ProbabilisticModel is a classifier that exposes class probabilities.
type ProbabilisticModel interface {
	Model
	// PredictProba returns one probability per class, per row.
	PredictProba(features *dataset.Table) ([][]float64, error)
}

// TaskDeclarer is implemented by models that know their own task type.
type TaskDeclarer interface {
	TaskType() TaskType
}

// FeatureImportancer is implemented by models with built-in importances.
type FeatureImportancer interface {
	FeatureImportances() (map[string]float64, error)
}

// LinearModel exposes per-column coefficients.
type LinearModel interface {
	Coefficients() map[string]float64
}

// InferTaskType returns the declared task type of m when it has one. Otherwise
// a probabilistic model is binary when the label has exactly two distinct
// values and multiclass when it has more; anything else is regression.
func InferTaskType(m Model, ds *dataset.Dataset) (TaskType, error) {
	if d, ok := m.(TaskDeclarer); ok {
		return d.TaskType(), nil
	}
	if _, ok := m.(ProbabilisticModel); !ok {
		return Regression, nil
	}

	label, ok := ds.LabelName()
	if !ok {
		return "", dataset.InvalidInputf("Check requires dataset to have a label column")
	}
	values, _ := ds.Data().Column(label)
	distinct := map[string]struct{}{}
	for _, v := range values {
		if v != nil {
			distinct[fmt.Sprint(v)] = struct{}{}
		}
	}
	if len(distinct) == 2 {
		return Binary, nil
	}
	return Multiclass, nil
}

// ValidateTaskType fails when m is missing or its task type is not one of allowed.
func ValidateTaskType(m Model, ds *dataset.Dataset, allowed ...TaskType) (TaskType, error) {
	if m == nil {
		return "", dataset.InvalidInputf("Check requires a model")
	}
	task, err := InferTaskType(m, ds)
	if err != nil {
		return "", err
	}
	if !slices.Contains(allowed, task) {
		names := make([]string, len(allowed))
		for i, a := range allowed {
			names[i] = string(a)
		}
		return "", dataset.InvalidInputf("Expected model to be a type from [%s], but received model of type: %s",
			strings.Join(names, ", "), task)
	}
	return task, nil
}
