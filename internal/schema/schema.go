// Package schema provides offline CloudFormation schema validation.
// It validates rendered templates against the schemas of the resource types
// a site stack declares.
package schema

import (
	"fmt"
	"sort"
	"strings"

	staticsite "github.com/lex00/wetwire-staticsite-go"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// SchemaError is a single schema violation. Property is a dotted path below
// the resource's Properties.
type SchemaError struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

func (e SchemaError) String() string {
	if e.Property == "" {
		return fmt.Sprintf("%s: %s", e.Resource, e.Message)
	}
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Property, e.Message)
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []SchemaError
	Warnings []SchemaError
}

// ValidateTemplate validates a CloudFormation template against known schemas.
// Findings are sorted by resource, then property.
func ValidateTemplate(template *staticsite.Template, opts Options) (*Result, error) {
	if template == nil {
		return nil, fmt.Errorf("nil template")
	}

	result := &Result{Valid: true}

	for name, resource := range template.Resources {
		errs, warnings := validateResource(name, resource, opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	sortErrors(result.Errors)
	sortErrors(result.Warnings)

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result, nil
}

// validateResource validates a single resource.
func validateResource(name string, resource staticsite.ResourceDef, opts Options) ([]SchemaError, []SchemaError) {
	var errs, warnings []SchemaError

	if !isValidResourceType(resource.Type) {
		errs = append(errs, SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		// Not an error: the template may carry types this package has no schema for.
		warnings = append(warnings, SchemaError{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errs, warnings
	}

	propErrs, propWarnings := validateObject(name, "", resource.Properties, schema.Required, schema.Properties, opts)
	return append(errs, propErrs...), append(warnings, propWarnings...)
}

// validateObject checks required and known properties of one level.
func validateObject(resource, prefix string, props map[string]any, required []string, known map[string]PropertySchema, opts Options) ([]SchemaError, []SchemaError) {
	var errs, warnings []SchemaError

	for _, name := range required {
		if _, exists := props[name]; !exists {
			errs = append(errs, SchemaError{
				Resource: resource,
				Property: join(prefix, name),
				Message:  fmt.Sprintf("missing required property: %s", name),
			})
		}
	}

	for propName, propValue := range props {
		path := join(prefix, propName)
		propSchema, ok := known[propName]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, SchemaError{
					Resource: resource,
					Property: path,
					Message:  fmt.Sprintf("unknown property: %s", propName),
				})
			}
			continue
		}

		propErrs, propWarnings := validateProperty(resource, path, propValue, propSchema, opts)
		errs = append(errs, propErrs...)
		warnings = append(warnings, propWarnings...)
	}

	return errs, warnings
}

// isValidResourceType checks if a resource type has valid format.
func isValidResourceType(resourceType string) bool {
	// CloudFormation resource types follow pattern: AWS::Service::Resource or Custom::*
	if strings.HasPrefix(resourceType, "Custom::") {
		return true
	}
	parts := strings.Split(resourceType, "::")
	if len(parts) != 3 {
		return false
	}
	return parts[0] == "AWS"
}

// validateProperty validates a property value against its schema, recursing
// into maps and lists of maps that declare nested properties.
func validateProperty(resource, path string, value any, schema PropertySchema, opts Options) ([]SchemaError, []SchemaError) {
	var errs, warnings []SchemaError

	if isIntrinsic(value) {
		return nil, nil
	}

	if !isValidType(value, schema.Type) {
		return []SchemaError{{
			Resource: resource,
			Property: path,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		}}, nil
	}

	if len(schema.AllowedValues) > 0 {
		if strVal, ok := value.(string); ok && !contains(schema.AllowedValues, strVal) {
			errs = append(errs, SchemaError{
				Resource: resource,
				Property: path,
				Message:  fmt.Sprintf("value %q not in allowed values: %v", strVal, schema.AllowedValues),
			})
		}
	}

	if schema.Properties == nil && len(schema.Required) == 0 {
		return errs, warnings
	}

	switch v := value.(type) {
	case map[string]any:
		e, w := validateObject(resource, path, v, schema.Required, schema.Properties, opts)
		errs = append(errs, e...)
		warnings = append(warnings, w...)
	case []any:
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok || isIntrinsic(m) {
				continue
			}
			e, w := validateObject(resource, fmt.Sprintf("%s[%d]", path, i), m, schema.Required, schema.Properties, opts)
			errs = append(errs, e...)
			warnings = append(warnings, w...)
		}
	}

	return errs, warnings
}

// isIntrinsic reports whether value is a Ref or Fn:: expression, which is
// valid wherever a value is.
func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || strings.HasPrefix(key, "Fn::")
	}
	return false
}

// isValidType checks if a value matches the expected type.
func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, float64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	case "Json":
		return true // Accept any value as JSON
	default:
		return true // Unknown type - accept
	}
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func sortErrors(errs []SchemaError) {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Resource != errs[j].Resource {
			return errs[i].Resource < errs[j].Resource
		}
		return errs[i].Property < errs[j].Property
	})
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Type       string
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property. Map properties, and
// List properties whose items are maps, may declare nested properties.
type PropertySchema struct {
	Type          string
	AllowedValues []string
	Required      []string
	Properties    map[string]PropertySchema
}
