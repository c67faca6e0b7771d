// Package graph generates DOT and Mermaid format dependency graphs from discovered resources.
package graph

import (
	"io"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	staticsite "github.com/lex00/wetwire-staticsite-go"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for GitHub/markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from discovered resources.
//
// Edges point from a resource to what it depends on. Attribute references
// are drawn blue; explicit dependencies that are not also references are
// dashed.
type Generator struct {
	// Format specifies the output format (dot or mermaid). Defaults to dot.
	Format Format

	// ClusterByType groups resources by AWS service.
	ClusterByType bool

	// TerraformTypes labels nodes with Terraform resource types instead of
	// CloudFormation types.
	TerraformTypes bool
}

// Generate creates a dependency graph and writes it to w.
func (g *Generator) Generate(resources map[string]staticsite.DiscoveredResource, w io.Writer) error {
	graph := g.buildGraph(resources)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString is a convenience method that returns the graph as a string.
func (g *Generator) GenerateString(resources map[string]staticsite.DiscoveredResource) (string, error) {
	var sb strings.Builder
	if err := g.Generate(resources, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// buildGraph creates the dot.Graph structure from discovered resources.
func (g *Generator) buildGraph(resources map[string]staticsite.DiscoveredResource) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	names := sortedNames(resources)

	var nodes map[string]dot.Node
	if g.ClusterByType {
		nodes = g.addClusteredNodes(graph, names, resources)
	} else {
		nodes = g.addNodes(graph, names, resources)
	}

	refs := buildRefSet(resources)
	for _, name := range names {
		res := resources[name]
		explicit := make(map[string]bool, len(res.ExplicitDependencies))
		for _, dep := range res.ExplicitDependencies {
			explicit[dep] = true
		}

		for _, dep := range res.Dependencies {
			to, ok := nodes[dep]
			if !ok {
				continue
			}
			e := graph.Edge(nodes[name], to)

			key := name + "->" + dep
			switch {
			case refs[key]:
				e.Attr("color", "blue")
			case explicit[dep]:
				e.Attr("style", "dashed")
			}
		}
	}

	return graph
}

// buildRefSet creates a set of edges that are attribute references.
func buildRefSet(resources map[string]staticsite.DiscoveredResource) map[string]bool {
	refs := make(map[string]bool)
	for name, res := range resources {
		for _, usage := range res.AttrRefUsages {
			refs[name+"->"+usage.ResourceName] = true
		}
	}
	return refs
}

// addNodes adds resource nodes without clustering.
func (g *Generator) addNodes(graph *dot.Graph, names []string, resources map[string]staticsite.DiscoveredResource) map[string]dot.Node {
	nodes := make(map[string]dot.Node, len(names))
	for _, name := range names {
		n := graph.Node(name)
		n.Label(g.label(resources[name]))
		nodes[name] = n
	}
	return nodes
}

// addClusteredNodes adds resource nodes grouped by AWS service.
func (g *Generator) addClusteredNodes(graph *dot.Graph, names []string, resources map[string]staticsite.DiscoveredResource) map[string]dot.Node {
	serviceResources := make(map[string][]string)
	var services []string
	for _, name := range names {
		service := extractService(resources[name].Type)
		if _, seen := serviceResources[service]; !seen {
			services = append(services, service)
		}
		serviceResources[service] = append(serviceResources[service], name)
	}
	sort.Strings(services)

	nodes := make(map[string]dot.Node, len(names))
	for _, service := range services {
		resNames := serviceResources[service]

		parent := graph
		if len(resNames) > 1 {
			parent = graph.Subgraph("cluster_"+service, dot.ClusterOption{})
			parent.Attr("label", service)
			parent.Attr("style", "rounded")
			parent.Attr("bgcolor", "lightyellow")
		}

		for _, name := range resNames {
			n := parent.Node(name)
			n.Label(g.label(resources[name]))
			nodes[name] = n
		}
	}
	return nodes
}

func (g *Generator) label(res staticsite.DiscoveredResource) string {
	typ := res.Type
	if g.TerraformTypes {
		typ = res.TerraformType
	}
	return res.Name + "\\n[" + typ + "]"
}

// extractService extracts the AWS service name from a CloudFormation type.
// e.g., "AWS::S3::Bucket" -> "S3"
func extractService(cfType string) string {
	parts := strings.Split(cfType, "::")
	if len(parts) == 3 {
		return parts[1]
	}
	return "Other"
}

func sortedNames(resources map[string]staticsite.DiscoveredResource) []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
