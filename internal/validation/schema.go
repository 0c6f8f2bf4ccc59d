// Package validation checks suite files against the embedded JSON schema.
package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed suite.schema.json
var suiteSchemaJSON string

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// suiteSchema is the compiled JSON Schema for suite YAML files.
var suiteSchema = mustCompileSchema(suiteSchemaJSON, "suite.schema.json")

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateSuiteFile validates the suite file at path and every file matched by
// its include globs. Include errors are keyed by path relative to the suite.
func ValidateSuiteFile(suitePath string) (suiteErrs []string, includeErrs map[string][]string, err error) {
	data, err := os.ReadFile(suitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading suite file: %w", err)
	}

	suiteErrs = ValidateSuiteBytes(data)

	var spec struct {
		Include []string `yaml:"include"`
	}
	if yamlErr := yaml.Unmarshal(data, &spec); yamlErr != nil {
		return suiteErrs, nil, nil // includes can't be resolved, the suite errors still stand
	}

	baseDir := filepath.Dir(suitePath)
	includeErrs = make(map[string][]string)

	for _, pattern := range spec.Include {
		matches, globErr := filepath.Glob(filepath.Join(baseDir, pattern))
		if globErr != nil {
			includeErrs[pattern] = []string{fmt.Sprintf("bad include pattern: %v", globErr)}
			continue
		}
		if len(matches) == 0 {
			includeErrs[pattern] = []string{"include pattern matches no files"}
			continue
		}
		for _, f := range matches {
			incData, readErr := os.ReadFile(f)
			if readErr != nil {
				includeErrs[relTo(baseDir, f)] = []string{readErr.Error()}
				continue
			}
			if errs := ValidateSuiteBytes(incData); len(errs) > 0 {
				includeErrs[relTo(baseDir, f)] = errs
			}
		}
	}

	return suiteErrs, includeErrs, nil
}

func relTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}

// ValidateSuiteBytes validates raw YAML bytes against the suite schema.
func ValidateSuiteBytes(data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}
	if yamlDoc == nil {
		return []string{"/: suite file is empty"}
	}
	return validateAgainstSchema(suiteSchema, convertToJSONCompatible(yamlDoc))
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible normalises YAML-decoded values for the validator:
// maps with non-string keys become string-keyed maps.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[fmt.Sprint(k)] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
