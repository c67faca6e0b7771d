// Package template builds a CloudFormation template from a stack.
//
// Bucket configuration aspects that Terraform declares as separate
// resources (ownership controls, ACL, website, public access block) are
// folded into the owning AWS::S3::Bucket. References to a folded resource
// resolve to its owner, and explicit dependencies are remapped the same
// way; a dependency between two aspects of the same bucket disappears
// because they become one resource.
package template

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/plan"
	"github.com/lex00/wetwire-staticsite-go/internal/serialize"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
)

// FormatVersion is the template format version.
const FormatVersion = "2010-09-09"

// Builder constructs CloudFormation templates from a stack.
type Builder struct {
	st *stack.Stack
	// folded maps attachment names to the resource they fold into.
	folded map[string]string
}

// NewBuilder creates a template builder for st.
func NewBuilder(st *stack.Stack) *Builder {
	return &Builder{st: st, folded: make(map[string]string)}
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*staticsite.Template, error) {
	if err := b.st.Validate(); err != nil {
		return nil, err
	}

	order, err := plan.Order(b.st.Discovered())
	if err != nil {
		return nil, err
	}

	fragments := make(map[string][]map[string]any)
	for _, e := range b.st.Entries() {
		if att, ok := e.Resource.(staticsite.Attachment); ok {
			owner := att.AttachedTo().Resource
			if _, isAttachment := b.attachment(owner); isAttachment {
				return nil, fmt.Errorf("%s: attached to %s, which is itself attached", e.Name, owner)
			}
			b.folded[e.Name] = owner
			fragments[owner] = append(fragments[owner], att.CloudFormationFragment())
		}
	}

	template := &staticsite.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.st.Description,
		Resources:                make(map[string]staticsite.ResourceDef),
	}

	enc := serialize.Encoder{Tag: serialize.TagCloudFormation, Resolver: b}

	for _, name := range order {
		if _, ok := b.folded[name]; ok {
			continue
		}
		e, _ := b.st.Get(name)

		props, err := enc.Resource(e.Resource)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}

		if w, ok := e.Resource.(staticsite.ConfigWrapper); ok {
			props = map[string]any{w.CloudFormationWrapper(): props}
		}

		for _, fragment := range fragments[name] {
			for k, v := range fragment {
				if _, exists := props[k]; exists {
					return nil, fmt.Errorf("%s: property %s set twice", name, k)
				}
				props[k] = v
			}
		}

		if len(props) == 0 {
			props = nil
		}

		template.Resources[name] = staticsite.ResourceDef{
			Type:       e.Resource.ResourceType(),
			Properties: props,
			DependsOn:  b.dependsOn(name),
		}
	}

	if outputs := b.st.Outputs(); len(outputs) > 0 {
		template.Outputs = make(map[string]staticsite.Output, len(outputs))
		for _, out := range outputs {
			value, err := b.ResolveRef(out.Value)
			if err != nil {
				return nil, fmt.Errorf("output %s: %w", out.Name, err)
			}
			template.Outputs[out.Name] = staticsite.Output{Description: out.Description, Value: value}
		}
	}

	return template, nil
}

func (b *Builder) attachment(name string) (staticsite.Attachment, bool) {
	e, ok := b.st.Get(name)
	if !ok {
		return nil, false
	}
	att, ok := e.Resource.(staticsite.Attachment)
	return att, ok
}

// owner returns the template resource name declared as name.
func (b *Builder) owner(name string) string {
	if owner, ok := b.folded[name]; ok {
		return owner
	}
	return name
}

// dependsOn returns the explicit dependencies of name and of every
// attachment folded into it, remapped to template resources. Targets already
// referenced through Ref or GetAtt are left out.
func (b *Builder) dependsOn(name string) []string {
	var explicit []string
	referenced := make(map[string]bool)
	for _, e := range b.st.Entries() {
		if b.owner(e.Name) == name {
			explicit = append(explicit, e.DependsOn...)
			for _, ref := range b.st.References(e.Name) {
				referenced[b.owner(ref.Resource)] = true
			}
		}
	}

	seen := make(map[string]bool)
	var deps []string
	for _, dep := range explicit {
		target := b.owner(dep)
		if target == name || seen[target] || referenced[target] {
			continue
		}
		seen[target] = true
		deps = append(deps, target)
	}
	return deps
}

// ResolveRef implements serialize.Resolver.
func (b *Builder) ResolveRef(ref staticsite.AttrRef) (any, error) {
	target, ok := b.st.Get(ref.Resource)
	if !ok {
		return nil, fmt.Errorf("reference %s: %w", ref, stack.ErrUndefinedReference)
	}

	name := b.owner(target.Name)
	if name != target.Name {
		if ref.Attribute != "" {
			return nil, fmt.Errorf("reference %s: %w", ref, stack.ErrUnknownAttribute)
		}
		return map[string]any{"Ref": name}, nil
	}

	if ar, ok := target.Resource.(staticsite.AttributeResolver); ok {
		expr, err := ar.CloudFormationAttr(name, ref.Attribute)
		if err != nil {
			return nil, err
		}
		return plain(expr)
	}
	if ref.Attribute != "" {
		return nil, fmt.Errorf("reference %s: %w", ref, stack.ErrUnknownAttribute)
	}
	return map[string]any{"Ref": name}, nil
}

// ResolveJoin implements serialize.Resolver.
func (b *Builder) ResolveJoin(delimiter string, values []any) (any, error) {
	return map[string]any{"Fn::Join": []any{delimiter, values}}, nil
}

// plain converts an intrinsic value to maps and slices so that both the
// JSON and YAML encoders render it the same way.
func plain(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ToJSON serializes the template to JSON.
func ToJSON(t *staticsite.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *staticsite.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
