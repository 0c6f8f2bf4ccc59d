package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LinearFile is the YAML description of a pre-fitted linear model.
//
//	intercept: 152.1
//	coefficients:
//	  - column: bmi
//	    weight: 938.2
//	levels:
//	  sex: [female, male]
type LinearFile struct {
	Task         TaskType `yaml:"task,omitempty"`
	Intercept    float64  `yaml:"intercept"`
	Coefficients []struct {
		Column string  `yaml:"column"`
		Weight float64 `yaml:"weight"`
	} `yaml:"coefficients"`
	// Levels lists the categories of label-encoded columns, in code order.
	Levels map[string][]string `yaml:"levels,omitempty"`
}

// LoadLinear reads a LinearFile and returns a ready-to-use regressor.
func LoadLinear(path string) (*LinearRegression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: reading %s: %w", path, err)
	}
	return ParseLinear(data)
}

// ParseLinear decodes a LinearFile document.
func ParseLinear(data []byte) (*LinearRegression, error) {
	var f LinearFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("model: parsing linear model: %w", err)
	}
	if f.Task != "" && f.Task != Regression {
		return nil, fmt.Errorf("model: linear model task must be %s, got %s", Regression, f.Task)
	}
	if len(f.Coefficients) == 0 {
		return nil, fmt.Errorf("model: linear model has no coefficients")
	}

	m := &LinearRegression{
		Intercept: f.Intercept,
		enc:       &Encoder{Levels: map[string]map[string]float64{}},
	}
	seen := map[string]bool{}
	for _, c := range f.Coefficients {
		if c.Column == "" {
			return nil, fmt.Errorf("model: coefficient without column")
		}
		if seen[c.Column] {
			return nil, fmt.Errorf("model: duplicate coefficient for %q", c.Column)
		}
		seen[c.Column] = true
		m.enc.Columns = append(m.enc.Columns, c.Column)
		m.Weights = append(m.Weights, c.Weight)
	}
	for col, levels := range f.Levels {
		if !seen[col] {
			return nil, fmt.Errorf("model: levels given for unknown column %q", col)
		}
		codes := make(map[string]float64, len(levels))
		for i, l := range levels {
			codes[l] = float64(i)
		}
		m.enc.Levels[col] = codes
	}
	return m, nil
}
