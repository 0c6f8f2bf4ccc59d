package reporting

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/tabcheck/internal/checks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToJUnit_Structure(t *testing.T) {
	suites := ConvertToJUnit(newTestResult())

	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	assert.InDelta(t, 3.5, suites.Time, 0.01)

	require.Len(t, suites.TestSuites, 1)
	suite := suites.TestSuites[0]

	assert.Equal(t, "housing", suite.Name)
	assert.Equal(t, 4, suite.Tests)
	assert.Equal(t, 1, suite.Failures)
	assert.Equal(t, "2025-06-15T12:00:00Z", suite.Timestamp)
	require.Len(t, suite.TestCases, 4)
}

func TestConvertToJUnit_PassedTestCase(t *testing.T) {
	tc := ConvertToJUnit(newTestResult()).TestSuites[0].TestCases[0]

	assert.Equal(t, "Columns Info", tc.Name)
	assert.Equal(t, "housing.columns_info", tc.Classname)
	assert.InDelta(t, 1.0, tc.Time, 0.01)
	assert.Nil(t, tc.Failure)
	assert.Nil(t, tc.Error)
	assert.Empty(t, tc.SystemOut)
}

func TestConvertToJUnit_FailedTestCase(t *testing.T) {
	tc := ConvertToJUnit(newTestResult()).TestSuites[0].TestCases[1]

	require.NotNil(t, tc.Failure)
	assert.Equal(t, "ConditionFailure", tc.Failure.Type)
	assert.Equal(t, "regression_systematic_error: Bias ratio is not greater than 0.01", tc.Failure.Message)
	assert.Contains(t, tc.Failure.Body, "[FAIL] Bias ratio is not greater than 0.01: mean error: 1, RMSE: 2")
	// The passing condition is not reported.
	assert.NotContains(t, tc.Failure.Body, "budget")
}

func TestConvertToJUnit_WarningTestCase(t *testing.T) {
	tc := ConvertToJUnit(newTestResult()).TestSuites[0].TestCases[2]

	assert.Nil(t, tc.Failure)
	assert.Nil(t, tc.Error)
	assert.Equal(t, "[WARN] Kurtosis value is not less than -0.1: kurtosis: -1.2\n", tc.SystemOut)
}

func TestConvertToJUnit_ErrorTestCase(t *testing.T) {
	tc := ConvertToJUnit(newTestResult()).TestSuites[0].TestCases[3]

	assert.Nil(t, tc.Failure)
	require.NotNil(t, tc.Error)
	assert.Equal(t, "CheckError", tc.Error.Type)
	assert.Equal(t, "Check requires a label", tc.Error.Message)
	assert.Equal(t, "regression_error_distribution", tc.Name)
}

func TestConvertToJUnit_Properties(t *testing.T) {
	props := ConvertToJUnit(newTestResult()).TestSuites[0].Properties

	propMap := make(map[string]string)
	for _, p := range props {
		propMap[p.Name] = p.Value
	}

	assert.Equal(t, "run-1", propMap["run_id"])
	assert.Equal(t, "1", propMap["warnings"])
}

func TestConvertToJUnit_EmptyResult(t *testing.T) {
	suites := ConvertToJUnit(&checks.SuiteResult{Suite: "empty", StartedAt: time.Now()})
	assert.Equal(t, 0, suites.Tests)
	require.Len(t, suites.TestSuites, 1)
	assert.Empty(t, suites.TestSuites[0].TestCases)
}

func TestWriteJUnitXML_ValidXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xml")
	require.NoError(t, WriteJUnitXML(newTestResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "<?xml"))
	assert.Contains(t, content, "ConditionFailure")
	assert.Contains(t, content, "<system-out>")

	// Verify it parses as valid XML
	var parsed JUnitTestSuites
	require.NoError(t, xml.Unmarshal(data, &parsed))
	assert.Equal(t, 4, parsed.Tests)
	assert.Equal(t, 1, parsed.Failures)
	require.Len(t, parsed.TestSuites, 1)
	assert.Len(t, parsed.TestSuites[0].TestCases, 4)
}
