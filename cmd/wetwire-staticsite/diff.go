package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/differ"
	"github.com/lex00/wetwire-staticsite-go/internal/template"
)

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <template1> [template2]",
		Short: "Compare CloudFormation templates semantically",
		Long: `Diff compares two CloudFormation templates resource by resource.

With one argument the file is compared against the template the current
settings render to, which shows what a rebuild would change.

Examples:
    wetwire-staticsite diff deployed.json
    wetwire-staticsite diff old.json new.yaml --ignore-order
    wetwire-staticsite diff old.json new.json --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			diffOpts := differ.Options{IgnoreOrder: ignoreOrder}

			var (
				result *differ.Result
				err    error
			)
			if len(args) == 2 {
				result, err = differ.CompareFiles(args[0], args[1], diffOpts)
			} else {
				result, err = diffAgainstBuild(cmd, opts, args[0], diffOpts)
			}
			if err != nil {
				return err
			}
			return outputDiffResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore array element order")
	config.AddFlags(cmd)

	return cmd
}

func diffAgainstBuild(cmd *cobra.Command, opts *globalOptions, path string, diffOpts differ.Options) (*differ.Result, error) {
	old, err := differ.LoadTemplate(path)
	if err != nil {
		return nil, err
	}

	st, _, err := loadStack(cmd, opts)
	if err != nil {
		return nil, err
	}
	current, err := template.NewBuilder(st).Build()
	if err != nil {
		return nil, fmt.Errorf("building template: %w", err)
	}

	return differ.Compare(old, current, diffOpts)
}

func outputDiffResult(w io.Writer, result *differ.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		s := result.Summary
		if s.Added+s.Removed+s.Modified == 0 {
			fmt.Fprintln(w, "No differences.")
			return nil
		}

		for _, e := range result.Diff.Added {
			fmt.Fprintf(w, "+ %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Removed {
			fmt.Fprintf(w, "- %s (%s)\n", e.Resource, e.Type)
		}
		for _, e := range result.Diff.Modified {
			fmt.Fprintf(w, "~ %s (%s)\n", e.Resource, e.Type)
			for _, change := range e.Changes {
				fmt.Fprintf(w, "    %s\n", change)
			}
		}
		fmt.Fprintf(w, "\n%d added, %d removed, %d modified\n", s.Added, s.Removed, s.Modified)

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
