package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/plan"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared resources in creation order",
		Long: `List displays every resource of the site stack in the order it is
created, with its CloudFormation and Terraform types and dependencies.

Examples:
    wetwire-staticsite list --base-name example
    wetwire-staticsite list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStack(cmd, opts)
			if err != nil {
				return err
			}
			result, err := runList(st)
			if err != nil {
				return err
			}
			return outputListResult(cmd.OutOrStdout(), result, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	config.AddFlags(cmd)

	return cmd
}

func runList(st *stack.Stack) (staticsite.ListResult, error) {
	resources := st.Discovered()
	order, err := plan.Order(resources)
	if err != nil {
		return staticsite.ListResult{}, err
	}

	result := staticsite.ListResult{
		Resources: make([]staticsite.ListResource, 0, len(order)),
	}
	for i, name := range order {
		res := resources[name]
		var refs []string
		for _, ref := range st.References(name) {
			refs = append(refs, ref.String())
		}
		result.Resources = append(result.Resources, staticsite.ListResource{
			Order:         i + 1,
			Name:          name,
			Type:          res.Type,
			TerraformType: res.TerraformType,
			DependsOn:     res.Dependencies,
			References:    refs,
		})
	}
	return result, nil
}

func outputListResult(w io.Writer, result staticsite.ListResult, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Declared resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %d. %s: %s (%s)\n", res.Order, res.Name, res.Type, res.TerraformType)
			if len(res.References) > 0 {
				fmt.Fprintf(w, "       refs: %s\n", strings.Join(res.References, ", "))
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
