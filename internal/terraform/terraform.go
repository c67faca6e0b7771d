// Package terraform renders a stack as a Terraform JSON configuration
// (.tf.json).
//
// References become interpolations of the target's attribute:
//
//	site.Attr(s3.AttrArn) → "${aws_s3_bucket.site_bucket.arn}"
//
// Joins become interpolated strings, and policy documents are embedded as
// JSON strings.
package terraform

import (
	"encoding/json"
	"fmt"
	"strings"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/serialize"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
)

// Provider requirements.
const (
	ProviderSource  = "hashicorp/aws"
	ProviderVersion = "~> 5.0"
)

// RegionVariable is the input variable selecting the AWS region.
const RegionVariable = "region"

// Document is a Terraform JSON configuration.
type Document struct {
	Terraform Settings                             `json:"terraform"`
	Variable  map[string]Variable                  `json:"variable,omitempty"`
	Provider  map[string]Provider                  `json:"provider"`
	Resource  map[string]map[string]map[string]any `json:"resource"`
	Output    map[string]Output                    `json:"output,omitempty"`
}

// Settings is the terraform block.
type Settings struct {
	RequiredProviders map[string]RequiredProvider `json:"required_providers"`
}

// RequiredProvider pins a provider source and version.
type RequiredProvider struct {
	Source  string `json:"source"`
	Version string `json:"version"`
}

// Variable is an input variable.
type Variable struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
}

// Provider is a provider configuration block.
type Provider struct {
	Region string `json:"region"`
}

// Output is an output value.
type Output struct {
	Description string `json:"description,omitempty"`
	Value       any    `json:"value"`
}

// Label returns the Terraform resource label for a logical name.
func Label(name string) string {
	return serialize.ToSnakeCase(name)
}

// Address returns "<type>.<label>" for an entry.
func Address(e *stack.Entry) string {
	return e.Resource.TerraformType() + "." + Label(e.Name)
}

// Render converts the stack to a Terraform document. region is the default
// of the region input variable.
func Render(st *stack.Stack, region string) (*Document, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}

	doc := &Document{
		Terraform: Settings{
			RequiredProviders: map[string]RequiredProvider{
				"aws": {Source: ProviderSource, Version: ProviderVersion},
			},
		},
		Variable: map[string]Variable{
			RegionVariable: {
				Type:        "string",
				Description: "AWS region to deploy into",
				Default:     region,
			},
		},
		Provider: map[string]Provider{
			"aws": {Region: "${var." + RegionVariable + "}"},
		},
		Resource: make(map[string]map[string]map[string]any),
	}

	enc := serialize.Encoder{Tag: serialize.TagTerraform, Resolver: resolver{st: st}}

	for _, e := range st.Entries() {
		body, err := enc.Resource(e.Resource)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", e.Name, err)
		}

		if len(e.DependsOn) > 0 {
			deps := make([]string, 0, len(e.DependsOn))
			for _, dep := range e.DependsOn {
				target, _ := st.Get(dep)
				deps = append(deps, Address(target))
			}
			body["depends_on"] = deps
		}

		typ := e.Resource.TerraformType()
		if doc.Resource[typ] == nil {
			doc.Resource[typ] = make(map[string]map[string]any)
		}
		doc.Resource[typ][Label(e.Name)] = body
	}

	if outputs := st.Outputs(); len(outputs) > 0 {
		doc.Output = make(map[string]Output, len(outputs))
		r := resolver{st: st}
		for _, out := range outputs {
			value, err := r.ResolveRef(out.Value)
			if err != nil {
				return nil, fmt.Errorf("output %s: %w", out.Name, err)
			}
			doc.Output[Label(out.Name)] = Output{Description: out.Description, Value: value}
		}
	}

	return doc, nil
}

// ToJSON serializes the document with two-space indentation.
func ToJSON(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

type resolver struct {
	st *stack.Stack
}

func (r resolver) ResolveRef(ref staticsite.AttrRef) (any, error) {
	target, ok := r.st.Get(ref.Resource)
	if !ok {
		return nil, fmt.Errorf("reference %s: %w", ref, stack.ErrUndefinedReference)
	}

	attr := "id"
	if ar, ok := target.Resource.(staticsite.AttributeResolver); ok {
		name, err := ar.TerraformAttr(ref.Attribute)
		if err != nil {
			return nil, err
		}
		attr = name
	} else if ref.Attribute != "" {
		return nil, fmt.Errorf("reference %s: %w", ref, stack.ErrUnknownAttribute)
	}

	return "${" + Address(target) + "." + attr + "}", nil
}

func (resolver) ResolveJoin(delimiter string, values []any) (any, error) {
	parts := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("cannot interpolate %T", v)
		}
		parts[i] = s
	}
	return strings.Join(parts, delimiter), nil
}
