package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/graph"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat   string
		clusterByType  bool
		terraformTypes bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

The output can be rendered with Graphviz:
    wetwire-staticsite graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    wetwire-staticsite graph -f mermaid

Examples:
    wetwire-staticsite graph
    wetwire-staticsite graph -c               # cluster by service
    wetwire-staticsite graph --terraform      # label with Terraform types`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := loadStack(cmd, opts)
			if err != nil {
				return err
			}
			return runGraph(cmd.OutOrStdout(), st, outputFormat, clusterByType, terraformTypes)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service")
	cmd.Flags().BoolVar(&terraformTypes, "terraform", false, "Label nodes with Terraform resource types")
	config.AddFlags(cmd)

	return cmd
}

func runGraph(w io.Writer, st *stack.Stack, format string, cluster, terraformTypes bool) error {
	var graphFormat graph.Format
	switch format {
	case "dot":
		graphFormat = graph.FormatDOT
	case "mermaid":
		graphFormat = graph.FormatMermaid
	default:
		return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", format)
	}

	gen := &graph.Generator{
		Format:         graphFormat,
		ClusterByType:  cluster,
		TerraformTypes: terraformTypes,
	}

	return gen.Generate(st.Discovered(), w)
}
