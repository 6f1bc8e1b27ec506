package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lintPath string

var lintTargetsCmd = &cobra.Command{
	Use:   "lint-targets",
	Short: "Check that every target lands on a statement",
	Long: `Parses each annotated C/C++ file and reports targets that resolved to a line
where no statement or declaration begins, such as the continuation line of a
multi-line call. Exits non-zero when anything is found.`,
	RunE: runLintTargets,
}

func init() {
	lintTargetsCmd.Flags().StringVarP(&lintPath, "path", "p", "", "Source file or directory (required)")
	_ = lintTargetsCmd.MarkFlagRequired("path")
}

func runLintTargets(cmd *cobra.Command, args []string) error {
	findings, err := newPipeline(nil).Lint(cmd.Context(), lintPath)
	if err != nil {
		return err
	}
	for _, f := range findings {
		fmt.Fprintln(cmd.OutOrStdout(), f.String())
	}
	if len(findings) > 0 {
		return fmt.Errorf("found %d suspicious target(s)", len(findings))
	}
	return nil
}
