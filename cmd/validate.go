// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xataio/qbench/pkg/config"
)

func validateCmd() *cobra.Command {
	var pattern string

	validateCmd := &cobra.Command{
		Use:       "validate <directory>",
		Short:     "Validate the query files in a directory without connecting to a database",
		Example:   "validate ./queries --pattern '*.toml'",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"directory"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []config.LoadOption
			if pattern != "" {
				opts = append(opts, config.WithPattern(pattern))
			}

			groups, err := config.Load(args[0], opts...)
			if err != nil {
				return ExitError{Code: ExitConfig, Err: err}
			}

			revisions := 0
			for _, g := range groups {
				revisions += len(g.Revisions)
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %d revision(s)\n", g.Name, g.Source, len(g.Revisions))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d query group(s) with %d revision(s) are valid\n", len(groups), revisions)

			return nil
		},
	}

	validateCmd.Flags().StringVar(&pattern, "pattern", "", "Glob selecting query files, matched case-insensitively")

	return validateCmd
}
