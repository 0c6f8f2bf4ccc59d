package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spboyer/tabcheck/internal/suiteconfig"
	"github.com/spboyer/tabcheck/internal/validation"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <suite.yaml>",
		Short: "Validate a suite file and the files it includes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateSuite(cmd, args[0])
		},
	}
}

func validateSuite(cmd *cobra.Command, path string) error {
	w := cmd.OutOrStdout()

	suiteErrs, includeErrs, err := validation.ValidateSuiteFile(path)
	if err != nil {
		return err
	}

	problems := len(suiteErrs)
	for _, e := range suiteErrs {
		fmt.Fprintf(w, "❌ %s: %s\n", path, e) //nolint:errcheck
	}
	names := make([]string, 0, len(includeErrs))
	for name := range includeErrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, e := range includeErrs[name] {
			fmt.Fprintf(w, "❌ %s: %s\n", name, e) //nolint:errcheck
			problems++
		}
	}
	if problems > 0 {
		return fmt.Errorf("%s: %d schema problem(s)", path, problems)
	}

	// The schema cannot tell which conditions belong to which check.
	sf, err := suiteconfig.Load(path)
	if err != nil {
		return err
	}
	if _, err := sf.Build(); err != nil {
		return errors.Join(fmt.Errorf("%s: invalid suite", path), err)
	}

	fmt.Fprintf(w, "✅ %s: suite %q with %d checks is valid\n", path, sf.Name, len(sf.Checks)) //nolint:errcheck
	return nil
}
