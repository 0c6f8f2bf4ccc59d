package checks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"
)

// ExprCondition builds a condition from a CEL expression. The expression sees
// the check value, normalised through JSON, as the variable value and must
// evaluate to a bool:
//
//	value.rmse < 60.0 && math.abs(value.mean_error) < 1.0
//
// details is an optional text/template, with sprig functions and
// formatNumber, rendered against the same value when the condition fails.
func ExprCondition(name, expr, details string) (Condition, error) {
	env, err := cel.NewEnv(
		cel.Variable("value", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
		ext.Math(),
		ext.Strings(),
	)
	if err != nil {
		return Condition{}, fmt.Errorf("creating expression environment: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return Condition{}, fmt.Errorf("compiling %q: %w", expr, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return Condition{}, fmt.Errorf("expression %q must evaluate to bool, not %s", expr, out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return Condition{}, fmt.Errorf("building program for %q: %w", expr, err)
	}

	var tmpl *template.Template
	if details != "" {
		funcs := sprig.TxtFuncMap()
		funcs["formatNumber"] = FormatNumber
		if tmpl, err = template.New(name).Funcs(funcs).Parse(details); err != nil {
			return Condition{}, fmt.Errorf("parsing details template: %w", err)
		}
	}

	if name == "" {
		name = expr
	}
	params := map[string]any{"expr": expr}

	return NewCondition(name, params, func(value any) (bool, string, error) {
		normalized, err := normalizeValue(value)
		if err != nil {
			return false, "", err
		}
		out, _, err := prg.Eval(map[string]any{"value": normalized})
		if err != nil {
			return false, "", fmt.Errorf("evaluating %q: %w", expr, err)
		}
		pass, ok := out.Value().(bool)
		if !ok {
			return false, "", fmt.Errorf("expression %q returned %T, not bool", expr, out.Value())
		}
		if pass || tmpl == nil {
			return pass, "", nil
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, normalized); err != nil {
			return false, "", fmt.Errorf("rendering details: %w", err)
		}
		return false, buf.String(), nil
	}), nil
}

// normalizeValue converts a check value into plain maps, slices, strings,
// float64s and bools by round-tripping it through JSON.
func normalizeValue(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding check value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding check value: %w", err)
	}
	return out, nil
}
