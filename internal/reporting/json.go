package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spboyer/tabcheck/internal/checks"
)

// JSONReport is the document written by WriteJSON.
type JSONReport struct {
	RunID      string                `json:"run_id"`
	Suite      string                `json:"suite"`
	StartedAt  time.Time             `json:"started_at"`
	DurationMs int64                 `json:"duration_ms"`
	Passed     bool                  `json:"passed"`
	Summary    map[checks.Status]int `json:"summary"`
	Checks     []JSONCheck           `json:"checks"`
}

// JSONCheck is one check outcome in a JSONReport.
type JSONCheck struct {
	Check      string                   `json:"check"`
	Header     string                   `json:"header,omitempty"`
	Status     checks.Status            `json:"status"`
	DurationMs int64                    `json:"duration_ms"`
	Value      any                      `json:"value,omitempty"`
	Display    []JSONDisplay            `json:"display,omitempty"`
	Conditions []checks.ConditionResult `json:"conditions,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// JSONDisplay is a display item tagged with its type, "text" or "table".
type JSONDisplay struct {
	Type    string     `json:"type"`
	Text    string     `json:"text,omitempty"`
	Title   string     `json:"title,omitempty"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

// NewJSONReport converts res to its JSON document form.
func NewJSONReport(res *checks.SuiteResult) *JSONReport {
	r := &JSONReport{
		RunID:      res.RunID,
		Suite:      res.Suite,
		StartedAt:  res.StartedAt,
		DurationMs: res.Duration.Milliseconds(),
		Passed:     res.Passed(),
		Summary:    map[checks.Status]int{},
		Checks:     make([]JSONCheck, 0, len(res.Outcomes)),
	}
	for _, s := range []checks.Status{checks.StatusPassed, checks.StatusWarning, checks.StatusFailed, checks.StatusError} {
		r.Summary[s] = res.Count(s)
	}

	for _, o := range res.Outcomes {
		jc := JSONCheck{
			Check:      o.Check,
			Header:     o.Header,
			Status:     o.Status,
			DurationMs: o.Duration.Milliseconds(),
			Conditions: o.Conditions,
		}
		if o.Err != nil {
			jc.Error = o.Err.Error()
		}
		if o.Result != nil {
			jc.Value = o.Result.Value
			for _, item := range o.Result.Display {
				switch it := item.(type) {
				case checks.Text:
					jc.Display = append(jc.Display, JSONDisplay{Type: "text", Text: string(it)})
				case checks.TableDisplay:
					jc.Display = append(jc.Display, JSONDisplay{Type: "table", Title: it.Title, Headers: it.Headers, Rows: it.Rows})
				}
			}
		}
		r.Checks = append(r.Checks, jc)
	}
	return r
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res *checks.SuiteResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewJSONReport(res)); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}
