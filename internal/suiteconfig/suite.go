// Package suiteconfig loads suite YAML files and turns them into runnable
// check suites.
package suiteconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spboyer/tabcheck/internal/checks"
	"github.com/spboyer/tabcheck/internal/validation"
)

// SuiteFile is the YAML form of a suite.
//
//	name: regression
//	checks:
//	  - kind: regression_systematic_error
//	    conditions:
//	      - name: systematic_error_ratio_to_rmse_not_greater_than
//	        params: {max_ratio: 0.01}
type SuiteFile struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Workers     int         `yaml:"workers,omitempty"`
	Include     []string    `yaml:"include,omitempty"`
	Checks      []CheckSpec `yaml:"checks,omitempty"`
}

// CheckSpec is one check entry of a suite file.
type CheckSpec struct {
	Kind       checks.Kind            `yaml:"kind"`
	Params     map[string]any         `yaml:"params,omitempty"`
	Conditions []checks.ConditionSpec `yaml:"conditions,omitempty"`
}

// SchemaError reports a suite file that does not match the schema.
type SchemaError struct {
	Path   string
	Errors []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s does not match the suite schema:\n  %s", e.Path, strings.Join(e.Errors, "\n  "))
}

// Load reads, validates and parses the suite at path, inlining the checks of
// included files after its own.
func Load(path string) (*SuiteFile, error) {
	return load(path, map[string]bool{})
}

func load(path string, seen map[string]bool) (*SuiteFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", path, err)
	}
	// seen holds the current include chain.
	if seen[abs] {
		return nil, fmt.Errorf("suite %s includes itself", path)
	}
	seen[abs] = true
	defer delete(seen, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	if errs := validation.ValidateSuiteBytes(data); len(errs) > 0 {
		return nil, &SchemaError{Path: path, Errors: errs}
	}
	sf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(abs)
	for _, pattern := range sf.Include {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(base, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: include %q: %w", path, pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: include %q matches no files", path, pattern)
		}
		for _, m := range matches {
			inc, err := load(m, seen)
			if err != nil {
				return nil, err
			}
			sf.Checks = append(sf.Checks, inc.Checks...)
		}
	}
	sf.Include = nil
	return sf, nil
}

// Parse decodes a suite document without schema validation.
func Parse(data []byte) (*SuiteFile, error) {
	var sf SuiteFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing suite: %w", err)
	}
	return &sf, nil
}

// Marshal encodes sf as YAML.
func Marshal(sf *SuiteFile) ([]byte, error) {
	return yaml.Marshal(sf)
}

// Build creates the checks of sf and attaches their conditions. Errors for
// every bad entry are returned together.
func (sf *SuiteFile) Build() (*checks.Suite, error) {
	suite := &checks.Suite{Name: sf.Name}
	var errs []error
	for i, spec := range sf.Checks {
		c, err := checks.Create(spec.Kind, spec.Params)
		if err != nil {
			errs = append(errs, fmt.Errorf("checks[%d]: %w", i, err))
			continue
		}
		for j, cond := range spec.Conditions {
			if err := checks.AttachCondition(c, cond); err != nil {
				errs = append(errs, fmt.Errorf("checks[%d].conditions[%d]: %w", i, j, err))
			}
		}
		suite.Checks = append(suite.Checks, c)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return suite, nil
}

// Default is the suite used when none is configured: every check, with the
// built-in conditions at their default thresholds.
func Default() *SuiteFile {
	sf := &SuiteFile{Name: "default"}
	for _, kind := range checks.Kinds() {
		spec := CheckSpec{Kind: kind}
		for _, name := range checks.ConditionNames(kind) {
			spec.Conditions = append(spec.Conditions, checks.ConditionSpec{Name: name})
		}
		sf.Checks = append(sf.Checks, spec)
	}
	return sf
}

// ForKinds is a suite of the given check kinds with their default conditions.
func ForKinds(kinds ...checks.Kind) *SuiteFile {
	all := Default()
	sf := &SuiteFile{Name: "adhoc"}
	for _, k := range kinds {
		spec := CheckSpec{Kind: k}
		for _, d := range all.Checks {
			if d.Kind == k {
				spec = d
			}
		}
		sf.Checks = append(sf.Checks, spec)
	}
	return sf
}
