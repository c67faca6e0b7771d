package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	"github.com/lex00/wetwire-staticsite-go/internal/template"
	"github.com/lex00/wetwire-staticsite-go/internal/terraform"
)

// Render targets.
const (
	targetTerraform      = "terraform"
	targetCloudFormation = "cloudformation"
)

func newBuildCmd(opts *globalOptions) *cobra.Command {
	var (
		target       string
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site as Terraform JSON or CloudFormation",
		Long: `Build declares the site stack and renders it for an IaC engine.

The Terraform target writes a .tf.json document with a region input
variable. The CloudFormation target writes a template in JSON or YAML, with
bucket attachments folded into their buckets.

Examples:
    wetwire-staticsite build --base-name example > main.tf.json
    wetwire-staticsite build --target cloudformation --format yaml
    wetwire-staticsite build -o template.json --target cloudformation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStack(cmd, opts)
			if err != nil {
				return err
			}
			return runBuild(cmd.OutOrStdout(), st, cfg, target, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", targetTerraform, "Render target: terraform or cloudformation")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml (cloudformation only)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	config.AddFlags(cmd)

	return cmd
}

func runBuild(w io.Writer, st *stack.Stack, cfg config.Site, target, format, outputFile string) error {
	data, err := render(st, cfg.Region, target, format)
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}

	return os.WriteFile(outputFile, data, 0644)
}

// render produces the document for target in format.
func render(st *stack.Stack, region, target, format string) ([]byte, error) {
	switch target {
	case targetTerraform:
		if format != "json" {
			return nil, fmt.Errorf("unknown format for terraform: %s (terraform output is json)", format)
		}
		doc, err := terraform.Render(st, region)
		if err != nil {
			return nil, fmt.Errorf("rendering terraform: %w", err)
		}
		return terraform.ToJSON(doc)

	case targetCloudFormation:
		tmpl, err := template.NewBuilder(st).Build()
		if err != nil {
			return nil, fmt.Errorf("building template: %w", err)
		}
		switch format {
		case "json":
			return template.ToJSON(tmpl)
		case "yaml":
			return template.ToYAML(tmpl)
		}
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return nil, fmt.Errorf("unknown target: %s (use '%s' or '%s')", target, targetTerraform, targetCloudFormation)
}
