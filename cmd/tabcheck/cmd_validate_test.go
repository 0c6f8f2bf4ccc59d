package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSuiteFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		suite   string
		wantOut string
		wantErr string
	}{
		{
			name:    "valid",
			suite:   "name: ok\nchecks:\n  - kind: regression_systematic_error\n    conditions:\n      - name: systematic_error_ratio_to_rmse_not_greater_than\n",
			wantOut: `suite "ok" with 1 checks is valid`,
		},
		{
			name:    "schema error",
			suite:   "name: bad\nchecks:\n  - kind: drift\n",
			wantOut: "/checks/0/kind",
			wantErr: "schema problem(s)",
		},
		{
			name:    "condition of another check",
			suite:   "name: bad\nchecks:\n  - kind: regression_systematic_error\n    conditions:\n      - name: kurtosis_not_less_than\n",
			wantErr: "is not a condition of check 'regression_systematic_error'",
		},
		{
			name:    "bad expression",
			suite:   "name: bad\nchecks:\n  - kind: columns_info\n    conditions:\n      - expr: \"value +\"\n",
			wantErr: "compiling",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, "validate", writeSuiteFile(t, tt.suite))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, _, err := runCLI(t, "validate", filepath.Join(t.TempDir(), "none.yaml"))
	require.ErrorContains(t, err, "reading suite file")
}

func TestListCommand(t *testing.T) {
	out, _, err := runCLI(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "columns_info")
	assert.Contains(t, out, "regression_error_distribution")
	assert.Contains(t, out, "conditions: systematic_error_ratio_to_rmse_not_greater_than")
	assert.Contains(t, out, "conditions: kurtosis_not_less_than")
}
