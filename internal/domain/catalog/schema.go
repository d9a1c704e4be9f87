package catalog

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies a prop schema variant
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBool    Kind = "boolean"
	KindEnum    Kind = "enum"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindAny     Kind = "any"
)

// PropSchema is a structural description of one prop value.
// Only the fields relevant to Kind are consulted.
type PropSchema struct {
	Kind        Kind
	Description string
	Enum        []string    // KindEnum
	Items       *PropSchema // KindArray
	Fields      []Prop      // KindObject, in declaration order
	Strict      bool        // KindObject: reject fields not declared
	Min         *float64    // KindNumber, KindInteger
	Max         *float64    // KindNumber, KindInteger
}

// Prop is a named field of an object schema
type Prop struct {
	Name     string
	Schema   PropSchema
	Required bool
}

// String returns a string schema
func String(description string) PropSchema {
	return PropSchema{Kind: KindString, Description: description}
}

// Number returns a number schema
func Number(description string) PropSchema {
	return PropSchema{Kind: KindNumber, Description: description}
}

// Integer returns an integer schema
func Integer(description string) PropSchema {
	return PropSchema{Kind: KindInteger, Description: description}
}

// Bool returns a boolean schema
func Bool(description string) PropSchema {
	return PropSchema{Kind: KindBool, Description: description}
}

// Enum returns a schema accepting one of the given strings
func Enum(description string, values ...string) PropSchema {
	return PropSchema{Kind: KindEnum, Description: description, Enum: values}
}

// ArrayOf returns an array schema with the given item schema
func ArrayOf(item PropSchema, description string) PropSchema {
	return PropSchema{Kind: KindArray, Description: description, Items: &item}
}

// Object returns an object schema with the given fields
func Object(fields ...Prop) PropSchema {
	return PropSchema{Kind: KindObject, Fields: fields}
}

// Any returns a schema accepting every JSON value
func Any(description string) PropSchema {
	return PropSchema{Kind: KindAny, Description: description}
}

// Required declares a required field
func Required(name string, schema PropSchema) Prop {
	return Prop{Name: name, Schema: schema, Required: true}
}

// Optional declares an optional field
func Optional(name string, schema PropSchema) Prop {
	return Prop{Name: name, Schema: schema}
}

// Between sets numeric bounds on a number or integer schema
func (s PropSchema) Between(min, max float64) PropSchema {
	s.Min = &min
	s.Max = &max
	return s
}

// StrictFields marks an object schema as rejecting undeclared fields
func (s PropSchema) StrictFields() PropSchema {
	s.Strict = true
	return s
}

// Field returns the declared field with the given name
func (s PropSchema) Field(name string) (Prop, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Prop{}, false
}

// check verifies the schema itself is well formed
func (s PropSchema) check(path string) error {
	switch s.Kind {
	case KindString, KindBool, KindAny:
		return nil
	case KindNumber, KindInteger:
		if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
			return fmt.Errorf("%s: minimum %v exceeds maximum %v", path, *s.Min, *s.Max)
		}
		return nil
	case KindEnum:
		if len(s.Enum) == 0 {
			return fmt.Errorf("%s: enum requires at least one value", path)
		}
		return nil
	case KindArray:
		if s.Items == nil {
			return fmt.Errorf("%s: array requires an item schema", path)
		}
		return s.Items.check(path + "[]")
	case KindObject:
		seen := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			if f.Name == "" {
				return fmt.Errorf("%s: field with empty name", path)
			}
			if seen[f.Name] {
				return fmt.Errorf("%s: duplicate field %q", path, f.Name)
			}
			seen[f.Name] = true
			if err := f.Schema.check(joinField(path, f.Name)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%s: unknown schema kind %q", path, s.Kind)
	}
}

// validate walks value against the schema and appends every violation found
func (s PropSchema) validate(path string, value any, out *[]Violation) {
	switch s.Kind {
	case KindAny:
		return

	case KindString:
		if _, ok := value.(string); !ok {
			*out = append(*out, wrongType(path, "string", value))
		}

	case KindBool:
		if _, ok := value.(bool); !ok {
			*out = append(*out, wrongType(path, "boolean", value))
		}

	case KindNumber, KindInteger:
		n, ok := toFloat(value)
		if !ok {
			*out = append(*out, wrongType(path, string(s.Kind), value))
			return
		}
		if s.Kind == KindInteger && n != math.Trunc(n) {
			*out = append(*out, wrongType(path, "integer", value))
			return
		}
		if (s.Min != nil && n < *s.Min) || (s.Max != nil && n > *s.Max) {
			*out = append(*out, Violation{
				Field:   path,
				Code:    ViolationOutOfRange,
				Message: fmt.Sprintf("value %v outside %s", n, s.rangeText()),
			})
		}

	case KindEnum:
		str, ok := value.(string)
		if !ok {
			*out = append(*out, wrongType(path, "string", value))
			return
		}
		for _, allowed := range s.Enum {
			if str == allowed {
				return
			}
		}
		*out = append(*out, Violation{
			Field:   path,
			Code:    ViolationNotInEnum,
			Message: fmt.Sprintf("%q is not one of %s", str, quoteAll(s.Enum)),
		})

	case KindArray:
		items, ok := value.([]any)
		if !ok {
			*out = append(*out, wrongType(path, "array", value))
			return
		}
		for i, item := range items {
			s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item, out)
		}

	case KindObject:
		obj, ok := value.(map[string]any)
		if !ok {
			*out = append(*out, wrongType(path, "object", value))
			return
		}
		s.validateObject(path, obj, out)
	}
}

// validateObject checks declared fields in order, then undeclared ones
func (s PropSchema) validateObject(path string, obj map[string]any, out *[]Violation) {
	for _, f := range s.Fields {
		fieldPath := joinField(path, f.Name)
		v, present := obj[f.Name]
		if !present || v == nil {
			if f.Required {
				*out = append(*out, Violation{
					Field:   fieldPath,
					Code:    ViolationMissingRequired,
					Message: "required prop missing",
				})
			}
			continue
		}
		f.Schema.validate(fieldPath, v, out)
	}

	if !s.Strict {
		return
	}

	unknown := make([]string, 0)
	for name := range obj {
		if _, ok := s.Field(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		*out = append(*out, Violation{
			Field:   joinField(path, name),
			Code:    ViolationUnknownField,
			Message: "prop not declared by the component",
		})
	}
}

// Shape renders the schema as a compact type expression for prompts
func (s PropSchema) Shape() string {
	switch s.Kind {
	case KindEnum:
		return strings.Join(quoteEach(s.Enum), " | ")
	case KindArray:
		inner := s.Items.Shape()
		if s.Items.Kind == KindEnum {
			inner = "(" + inner + ")"
		}
		return inner + "[]"
	case KindObject:
		parts := make([]string, 0, len(s.Fields))
		for _, f := range s.Fields {
			name := f.Name
			if !f.Required {
				name += "?"
			}
			parts = append(parts, name+": "+f.Schema.Shape())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindNumber, KindInteger:
		if s.Min != nil || s.Max != nil {
			return string(s.Kind) + " " + s.rangeText()
		}
		return string(s.Kind)
	default:
		return string(s.Kind)
	}
}

func (s PropSchema) rangeText() string {
	lo, hi := "-inf", "+inf"
	if s.Min != nil {
		lo = strconv.FormatFloat(*s.Min, 'f', -1, 64)
	}
	if s.Max != nil {
		hi = strconv.FormatFloat(*s.Max, 'f', -1, 64)
	}
	return "[" + lo + ".." + hi + "]"
}

func wrongType(path, want string, got any) Violation {
	return Violation{
		Field:   path,
		Code:    ViolationWrongType,
		Message: fmt.Sprintf("expected %s, got %s", want, jsonTypeName(got)),
	}
}

// jsonTypeName names the JSON type of a decoded value
func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func joinField(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func quoteEach(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Quote(v)
	}
	return out
}

func quoteAll(values []string) string {
	return "[" + strings.Join(quoteEach(values), ", ") + "]"
}
