package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"talesim/internal/diag"
	"talesim/internal/validate"
)

func (a *app) validateCmd() *cobra.Command {
	var vocabPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against the world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, vocabPath)
		},
	}
	cmd.Flags().StringVar(&vocabPath, "vocabulary", "", "Vocabulary file (default from config)")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, vocabPath string) error {
	vocab, err := a.vocabulary(vocabPath)
	if err != nil {
		return err
	}

	// Issues found while parsing are reported with the rest, not logged.
	d := diag.New(nil)
	sc, err := a.parseWorld(cmd, d)
	if err != nil {
		return err
	}

	report := validate.Run(sc, vocab)
	report.Issues = append(d.Issues(), report.Issues...)

	out := cmd.OutOrStdout()
	errorIssues := report.Errors()
	warnIssues := report.Warnings()

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []diag.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(out, "  - %s (%s)\n", issue.Message, issue.Code)
	}
}
