package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spboyer/tabcheck/internal/checks"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one suite run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one check.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure represents failed FAIL conditions.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a check that could not run.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a suite result to JUnit XML form. Warnings are
// reported in system-out and do not count as failures.
func ConvertToJUnit(res *checks.SuiteResult) *JUnitTestSuites {
	durationSec := res.Duration.Seconds()
	failures := res.Count(checks.StatusFailed)
	errs := res.Count(checks.StatusError)

	suite := JUnitTestSuite{
		Name:      res.Suite,
		Tests:     len(res.Outcomes),
		Failures:  failures,
		Errors:    errs,
		Time:      durationSec,
		Timestamp: res.StartedAt.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "run_id", Value: res.RunID},
			{Name: "warnings", Value: fmt.Sprint(res.Count(checks.StatusWarning))},
		},
	}

	for _, o := range res.Outcomes {
		suite.TestCases = append(suite.TestCases, convertOutcome(res.Suite, o))
	}

	return &JUnitTestSuites{
		Tests:      len(res.Outcomes),
		Failures:   failures,
		Errors:     errs,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertOutcome(suite string, o checks.CheckOutcome) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      title(o),
		Classname: suite + "." + o.Check,
		Time:      o.Duration.Seconds(),
	}

	switch o.Status {
	case checks.StatusFailed:
		tc.Failure = buildFailure(o)
	case checks.StatusError:
		msg := "check error"
		if o.Err != nil {
			msg = o.Err.Error()
		}
		tc.Error = &JUnitError{Message: msg, Type: "CheckError"}
	}
	if warnings := formatConditions(o, checks.CategoryWarn); warnings != "" {
		tc.SystemOut = warnings
	}
	return tc
}

func buildFailure(o checks.CheckOutcome) *JUnitFailure {
	var names []string
	for _, c := range failedConditions(o) {
		if c.Category != checks.CategoryWarn {
			names = append(names, c.Name)
		}
	}
	return &JUnitFailure{
		Message: fmt.Sprintf("%s: %s", o.Check, strings.Join(names, "; ")),
		Type:    "ConditionFailure",
		Body:    formatConditions(o, checks.CategoryFail),
	}
}

func formatConditions(o checks.CheckOutcome, category checks.ConditionCategory) string {
	var b strings.Builder
	for _, c := range failedConditions(o) {
		if c.Category != category {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s", c.Category, c.Name)
		if c.Details != "" {
			fmt.Fprintf(&b, ": %s", c.Details)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteJUnit writes res as JUnit XML.
func WriteJUnit(w io.Writer, res *checks.SuiteResult) error {
	data, err := xml.MarshalIndent(ConvertToJUnit(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(res *checks.SuiteResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJUnit(f, res); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
