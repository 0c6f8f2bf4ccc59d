package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spboyer/tabcheck/internal/projectconfig"
	"github.com/spboyer/tabcheck/internal/wizard"
)

const projectConfigTemplate = `# tabcheck project configuration. Flags and TABCHECK_* variables override it.
paths:
  suite: ` + projectconfig.DefaultSuiteFile + `
  results: ` + projectconfig.DefaultResultsDir + `
defaults:
  format: ` + projectconfig.DefaultFormat + `
  workers: 1
data:
  # path: data/train.csv
  # label: target
  # index: id
  # model: model.yaml
  # For SQL sources set driver (sqlite3, postgres, snowflake), dsn and query.
  # Postgres and snowflake credentials may come from POSTGRES_* or
  # SNOWFLAKE_* variables in .env instead of dsn.
`

func newInitCommand() *cobra.Command {
	var (
		interactive bool
		name        string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a tabcheck project",
		Long: `Initialize a tabcheck project with a ` + projectconfig.FileName + ` configuration and a
suite file holding every check with its default conditions.

Use --interactive to pick checks and thresholds in a guided wizard.
Existing files are never overwritten.

If no directory is specified, the current directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return initProject(cmd, dir, name, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the guided suite wizard")
	cmd.Flags().StringVar(&name, "name", "default", "Suite name")

	return cmd
}

func initProject(cmd *cobra.Command, dir, name string, interactive bool) error {
	out := cmd.OutOrStdout()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	answers := wizard.DefaultAnswers()
	answers.Name = name
	suitePath := filepath.Join(dir, projectconfig.DefaultSuiteFile)
	if interactive && !exists(suitePath) {
		a, err := wizard.RunSuiteWizard(cmd.InOrStdin(), out, answers)
		if err != nil {
			return err
		}
		answers = *a
	}

	suiteYAML, err := wizard.GenerateSuiteYAML(&answers)
	if err != nil {
		return err
	}

	created := 0
	for _, f := range []struct {
		path, content, what string
	}{
		{filepath.Join(dir, projectconfig.FileName), projectConfigTemplate, "project configuration"},
		{suitePath, suiteYAML, "check suite"},
	} {
		wrote, err := writeNew(f.path, f.content)
		if err != nil {
			return err
		}
		status := "exists"
		if wrote {
			status = "created"
			created++
		}
		fmt.Fprintf(out, "  %-8s %s (%s)\n", status, f.path, f.what) //nolint:errcheck
	}

	if created == 0 {
		fmt.Fprintln(out, "Project is up to date.") //nolint:errcheck
		return nil
	}
	fmt.Fprintln(out, "Project created. Next: tabcheck run --data <file.csv> --label <column>") //nolint:errcheck
	return nil
}

// writeNew writes content to path unless the file already exists.
func writeNew(path, content string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.WriteString(f, content); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, f.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
