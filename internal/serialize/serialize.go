// Package serialize converts resource structs to engine property maps.
//
// The same struct renders to CloudFormation (PascalCase, `cfn` tags) and
// Terraform (snake_case, `tf` tags). Tag options:
//
//	-     field is not emitted for this engine
//	keep  emit the field even when it holds its zero value
//	json  encode the subtree as a JSON string (Terraform policies)
//
// Fields without a tag for the requested key fall back to their `json` tag,
// then to the field name (CloudFormation) or its snake_case form (Terraform).
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/intrinsics"
)

// Tag keys.
const (
	TagCloudFormation = "cfn"
	TagTerraform      = "tf"
	TagJSON           = "json"
)

// Resolver turns engine-neutral references into engine expressions.
type Resolver interface {
	// ResolveRef returns the expression for a resource attribute reference.
	ResolveRef(ref staticsite.AttrRef) (any, error)
	// ResolveJoin returns the expression joining already-resolved values.
	ResolveJoin(delimiter string, values []any) (any, error)
}

// Expander is implemented by values that serialize as another value,
// such as intrinsics.AWSPrincipal.
type Expander interface {
	Expand() any
}

var (
	attrRefType = reflect.TypeOf(staticsite.AttrRef{})
	joinType    = reflect.TypeOf(intrinsics.Join{})
)

// Encoder serializes values for one engine.
type Encoder struct {
	// Tag is the struct tag key to read field names from.
	Tag string
	// Resolver handles AttrRef and Join values. When nil, AttrRefs use their
	// CloudFormation JSON form.
	Resolver Resolver
}

// Resource serializes a struct to a property map.
// Nil pointers, empty collections and zero scalars are omitted.
func (e Encoder) Resource(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("serialize: %T is not a struct", v)
	}

	return e.structValue(val)
}

func (e Encoder) structValue(val reflect.Value) (map[string]any, error) {
	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		name, opts := e.fieldName(field)
		if name == "-" {
			continue
		}

		if isZeroValue(fieldVal) && !opts.keep {
			continue
		}

		serialized, err := e.value(fieldVal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if serialized == nil {
			continue
		}

		if opts.json {
			data, err := json.Marshal(serialized)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			serialized = string(data)
		}

		result[name] = serialized
	}

	return result, nil
}

type tagOptions struct {
	keep bool
	json bool
}

// fieldName returns the property name and options for a struct field.
func (e Encoder) fieldName(field reflect.StructField) (string, tagOptions) {
	var opts tagOptions

	tag, ok := field.Tag.Lookup(e.Tag)
	if !ok {
		tag = field.Tag.Get(TagJSON)
	}

	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		switch opt {
		case "keep":
			opts.keep = true
		case "json":
			opts.json = true
		}
	}

	name := parts[0]
	if name != "" {
		return name, opts
	}
	if e.Tag == TagTerraform {
		return ToSnakeCase(field.Name), opts
	}
	return field.Name, opts
}

// isZeroValue returns true if the value is the zero value for its type.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

// Value serializes an arbitrary value.
func (e Encoder) Value(v any) (any, error) {
	return e.value(reflect.ValueOf(v))
}

func (e Encoder) value(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		return e.value(v.Elem())
	}

	switch v.Type() {
	case attrRefType:
		ref := v.Interface().(staticsite.AttrRef)
		if e.Resolver != nil {
			return e.Resolver.ResolveRef(ref)
		}
	case joinType:
		join := v.Interface().(intrinsics.Join)
		if e.Resolver != nil {
			values := make([]any, len(join.Values))
			for i, item := range join.Values {
				resolved, err := e.Value(item)
				if err != nil {
					return nil, err
				}
				values[i] = resolved
			}
			return e.Resolver.ResolveJoin(join.Delimiter, values)
		}
	}

	if v.CanInterface() {
		if expander, ok := v.Interface().(Expander); ok {
			return e.Value(expander.Expand())
		}
		if marshaler, ok := v.Interface().(json.Marshaler); ok {
			data, err := marshaler.MarshalJSON()
			if err != nil {
				return nil, err
			}
			var result any
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return result, nil
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return e.structValue(v)

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := e.value(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any)
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			val, err := e.value(iter.Value())
			if err != nil {
				return nil, err
			}
			result[key] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
		return result, nil
	}
}

// Refs returns every AttrRef reachable from v, in field order.
// Duplicates are kept.
func Refs(v any) []staticsite.AttrRef {
	var refs []staticsite.AttrRef
	collectRefs(reflect.ValueOf(v), &refs)
	return refs
}

func collectRefs(v reflect.Value, refs *[]staticsite.AttrRef) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			collectRefs(v.Elem(), refs)
		}
		return
	}

	if v.Type() == attrRefType {
		if ref := v.Interface().(staticsite.AttrRef); !ref.IsZero() {
			*refs = append(*refs, ref)
		}
		return
	}

	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				collectRefs(v.Field(i), refs)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			collectRefs(v.Index(i), refs)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			collectRefs(iter.Value(), refs)
		}
	}
}

// ToSnakeCase converts PascalCase to snake_case.
// A trailing run of capitals stays together: "DistributionID" -> "distribution_id".
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					result.WriteRune('_')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}
