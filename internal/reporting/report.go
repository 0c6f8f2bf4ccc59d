// Package reporting renders suite results as text, JSON, JUnit XML, Markdown
// or HTML.
package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/spboyer/tabcheck/internal/checks"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatJUnit    Format = "junit"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatJUnit, FormatMarkdown, FormatHTML}
}

// ParseFormat accepts a format name case-insensitively. "md" and "xml" are
// accepted for markdown and junit.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatJUnit, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "xml":
		return FormatJUnit, nil
	default:
		return "", fmt.Errorf("unknown format %q (want one of %v)", s, Formats())
	}
}

// Options tunes human-readable output.
type Options struct {
	// Color enables ANSI colors in text output.
	Color bool
	// Verbose adds per-check timings and the run ID.
	Verbose bool
}

// Write renders res to w in format f.
func Write(w io.Writer, f Format, res *checks.SuiteResult, opts Options) error {
	switch f {
	case FormatText, "":
		return WriteText(w, res, opts)
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatJUnit:
		return WriteJUnit(w, res)
	case FormatMarkdown:
		return WriteMarkdown(w, res)
	case FormatHTML:
		return WriteHTML(w, res)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// failedConditions returns the conditions of o that did not pass.
func failedConditions(o checks.CheckOutcome) []checks.ConditionResult {
	var out []checks.ConditionResult
	for _, c := range o.Conditions {
		if !c.IsPass {
			out = append(out, c)
		}
	}
	return out
}

func title(o checks.CheckOutcome) string {
	if o.Header != "" {
		return o.Header
	}
	return o.Check
}
