package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/lint"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
)

func newLintCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		enable       []string
		disable      []string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check the site declaration against the hosting rules",
		Long: `Lint checks the declared stack for hosting mistakes.

Rules:
` + ruleList() + `
Info findings are reported but do not fail the run. Exits 2 when an error
or warning is found.

Examples:
    wetwire-staticsite lint --base-name example
    wetwire-staticsite lint --disable SS007 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStack(cmd, opts)
			if err != nil {
				return err
			}
			result := runLint(st, lint.Options{EnabledRules: enable, DisabledRules: disable})
			return outputLintResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&enable, "enable", nil, "Only run these rule IDs")
	cmd.Flags().StringSliceVar(&disable, "disable", nil, "Skip these rule IDs")
	config.AddFlags(cmd)

	return cmd
}

func ruleList() string {
	var sb strings.Builder
	for _, r := range lint.AllRules() {
		fmt.Fprintf(&sb, "    %s: %s\n", r.ID(), r.Description())
	}
	return sb.String()
}

func runLint(st *stack.Stack, opts lint.Options) staticsite.LintResult {
	result := lint.Run(st, opts)

	out := staticsite.LintResult{Success: result.Success}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, staticsite.LintIssue{
			Resource: issue.Resource,
			File:     issue.File,
			Line:     issue.Line,
			Severity: string(issue.Severity),
			Message:  issue.Message,
			Rule:     issue.Rule,
		})
	}
	return out
}

func outputLintResult(w io.Writer, result staticsite.LintResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Issues) == 0 {
			fmt.Fprintln(w, "No issues found.")
			return nil
		}

		for _, issue := range result.Issues {
			if issue.File != "" {
				fmt.Fprintf(w, "%s:%d: %s: %s: %s [%s]\n",
					issue.File, issue.Line, issue.Severity,
					issue.Resource, issue.Message, issue.Rule)
			} else {
				fmt.Fprintf(w, "%s: %s: %s [%s]\n", issue.Severity, issue.Resource, issue.Message, issue.Rule)
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return &exitError{code: 2}
	}

	return nil
}
