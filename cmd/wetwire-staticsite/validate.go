package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking the stack and
// its rendered template.
func newValidateCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate references and the rendered CloudFormation template",
		Long: `Validate checks the declared stack and the template it renders to.

Checks performed:
  - Reference validity: every reference names a declared resource and attribute
  - Template: the CloudFormation rendering passes cfn-lint

Examples:
    wetwire-staticsite validate --base-name example
    wetwire-staticsite validate --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStack(cmd, opts)
			if err != nil {
				return err
			}

			dir, err := os.MkdirTemp("", "wetwire-staticsite-validate-")
			if err != nil {
				return fmt.Errorf("creating temp dir: %w", err)
			}
			defer func() {
				_ = os.RemoveAll(dir)
			}()

			result, err := validation.ValidateStack(st, dir)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			return outputValidateResult(cmd.OutOrStdout(), result.Summary(), outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	config.AddFlags(cmd)

	return cmd
}

func outputValidateResult(w io.Writer, result staticsite.ValidateResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
			for _, warnMsg := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
			}
			return nil
		}

		fmt.Fprintln(w, "Validation FAILED:")
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return &exitError{code: 1}
	}

	return nil
}
