package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spboyer/tabcheck/internal/checks"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available checks and their conditions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, k := range checks.Kinds() {
				fmt.Fprintf(w, "%-32s %s\n", k, checks.Describe(k)) //nolint:errcheck
				if names := checks.ConditionNames(k); len(names) > 0 {
					fmt.Fprintf(w, "%-32s conditions: %s\n", "", strings.Join(names, ", ")) //nolint:errcheck
				}
			}
			return nil
		},
	}
}
