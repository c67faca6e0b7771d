// Package stack holds a declared set of named resources and the references
// between them.
//
// Resources are added in declaration order. Each Add returns an Entry whose
// Ref and Attr methods produce the references other resources embed:
//
//	st := stack.New("static site")
//	logs := st.Add("LogBucket", s3.Bucket{Name: "example-logs"})
//	controls := st.Add("LogBucketOwnershipControls", s3.OwnershipControls{Bucket: logs.Ref()})
//	st.Add("LogBucketAcl", s3.BucketACL{Bucket: logs.Ref()}, controls)
//
// Declaration problems (duplicate or empty names) are collected and
// reported by Err, so declarations read as a flat list.
package stack

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/internal/serialize"
)

var (
	// ErrDuplicate is returned when two resources share a logical name.
	ErrDuplicate = errors.New("duplicate resource name")
	// ErrEmptyName is returned when a resource has no logical name.
	ErrEmptyName = errors.New("empty resource name")
	// ErrUndefinedReference is returned when a reference names no declared resource.
	ErrUndefinedReference = errors.New("undefined reference")
	// ErrUnknownAttribute is returned when a reference names an attribute the
	// target resource does not expose.
	ErrUnknownAttribute = errors.New("unknown attribute")
)

// Entry is a declared resource.
type Entry struct {
	Name     string
	Resource staticsite.Resource
	// DependsOn lists explicit dependencies, in declaration order.
	DependsOn []string
	File      string
	Line      int
}

// Ref returns a reference to the entry's primary identifier.
func (e *Entry) Ref() staticsite.AttrRef {
	return staticsite.AttrRef{Resource: e.Name}
}

// Attr returns a reference to one of the entry's attributes.
func (e *Entry) Attr(attribute string) staticsite.AttrRef {
	return staticsite.AttrRef{Resource: e.Name, Attribute: attribute}
}

// OutputDef is a value exported by the stack.
type OutputDef struct {
	Name        string
	Description string
	Value       staticsite.AttrRef
}

// Stack is an ordered collection of named resources.
type Stack struct {
	Description string

	entries []*Entry
	byName  map[string]*Entry
	outputs []OutputDef
	errs    []error
}

// New creates an empty stack.
func New(description string) *Stack {
	return &Stack{
		Description: description,
		byName:      make(map[string]*Entry),
	}
}

// Add declares a resource. dependsOn lists resources that must exist first
// even though r does not reference them.
func (s *Stack) Add(name string, r staticsite.Resource, dependsOn ...*Entry) *Entry {
	e := &Entry{Name: name, Resource: r}
	if _, file, line, ok := runtime.Caller(1); ok {
		e.File = file
		e.Line = line
	}

	for _, dep := range dependsOn {
		if dep == nil {
			s.errs = append(s.errs, fmt.Errorf("%s: nil dependency", name))
			continue
		}
		e.DependsOn = append(e.DependsOn, dep.Name)
	}

	switch {
	case name == "":
		s.errs = append(s.errs, fmt.Errorf("%s:%d: %w", e.File, e.Line, ErrEmptyName))
		return e
	case s.byName[name] != nil:
		prev := s.byName[name]
		s.errs = append(s.errs, fmt.Errorf("%s: %w (first declared at %s:%d)", name, ErrDuplicate, prev.File, prev.Line))
		return e
	}

	s.entries = append(s.entries, e)
	s.byName[name] = e
	return e
}

// Output exports a resource attribute.
func (s *Stack) Output(name, description string, value staticsite.AttrRef) {
	s.outputs = append(s.outputs, OutputDef{Name: name, Description: description, Value: value})
}

// Outputs returns the exported values in declaration order.
func (s *Stack) Outputs() []OutputDef {
	return s.outputs
}

// Err returns the declaration errors collected by Add.
func (s *Stack) Err() error {
	return errors.Join(s.errs...)
}

// Get returns the entry with the given logical name.
func (s *Stack) Get(name string) (*Entry, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// Entries returns all entries in declaration order.
func (s *Stack) Entries() []*Entry {
	return s.entries
}

// Len returns the number of declared resources.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Names returns the logical names in declaration order.
func (s *Stack) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

// References returns the attribute references made by the named resource.
func (s *Stack) References(name string) []staticsite.AttrRef {
	e, ok := s.byName[name]
	if !ok {
		return nil
	}
	return serialize.Refs(e.Resource)
}

// Dependencies returns the sorted, de-duplicated union of a resource's
// explicit dependencies and the resources it references.
func (s *Stack) Dependencies(name string) []string {
	e, ok := s.byName[name]
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var deps []string
	add := func(dep string) {
		if dep == name || seen[dep] {
			return
		}
		seen[dep] = true
		deps = append(deps, dep)
	}

	for _, dep := range e.DependsOn {
		add(dep)
	}
	for _, ref := range serialize.Refs(e.Resource) {
		add(ref.Resource)
	}

	sort.Strings(deps)
	return deps
}

// Validate checks that every reference and explicit dependency names a
// declared resource and that referenced attributes exist.
func (s *Stack) Validate() error {
	errs := append([]error(nil), s.errs...)

	for _, e := range s.entries {
		for _, dep := range e.DependsOn {
			if _, ok := s.byName[dep]; !ok {
				errs = append(errs, fmt.Errorf("%s: depends on %s: %w", e.Name, dep, ErrUndefinedReference))
			}
		}
		for _, ref := range serialize.Refs(e.Resource) {
			if err := s.checkRef(ref); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
			}
		}
	}

	for _, out := range s.outputs {
		if err := s.checkRef(out.Value); err != nil {
			errs = append(errs, fmt.Errorf("output %s: %w", out.Name, err))
		}
	}

	return errors.Join(errs...)
}

func (s *Stack) checkRef(ref staticsite.AttrRef) error {
	target, ok := s.byName[ref.Resource]
	if !ok {
		return fmt.Errorf("reference %s: %w", ref, ErrUndefinedReference)
	}
	if ref.Attribute == "" {
		return nil
	}

	resolver, ok := target.Resource.(staticsite.AttributeResolver)
	if !ok {
		return fmt.Errorf("reference %s: %w", ref, ErrUnknownAttribute)
	}
	if _, err := resolver.CloudFormationAttr(target.Name, ref.Attribute); err != nil {
		return fmt.Errorf("reference %s: %w: %v", ref, ErrUnknownAttribute, err)
	}
	if _, err := resolver.TerraformAttr(ref.Attribute); err != nil {
		return fmt.Errorf("reference %s: %w: %v", ref, ErrUnknownAttribute, err)
	}
	return nil
}

// Discovered returns the stack as a map of discovered resources keyed by
// logical name, the shape consumed by ordering, graphing and listing.
func (s *Stack) Discovered() map[string]staticsite.DiscoveredResource {
	result := make(map[string]staticsite.DiscoveredResource, len(s.entries))

	for _, e := range s.entries {
		res := staticsite.DiscoveredResource{
			Name:                 e.Name,
			Type:                 e.Resource.ResourceType(),
			TerraformType:        e.Resource.TerraformType(),
			File:                 e.File,
			Line:                 e.Line,
			Dependencies:         s.Dependencies(e.Name),
			ExplicitDependencies: append([]string(nil), e.DependsOn...),
		}
		for _, ref := range serialize.Refs(e.Resource) {
			res.AttrRefUsages = append(res.AttrRefUsages, staticsite.AttrRefUsage{
				ResourceName: ref.Resource,
				Attribute:    ref.Attribute,
			})
		}
		result[e.Name] = res
	}

	return result
}
