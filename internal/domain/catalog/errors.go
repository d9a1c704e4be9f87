package catalog

import (
	"fmt"
	"strings"
)

// ViolationCode classifies a single schema violation
type ViolationCode string

const (
	ViolationMissingRequired    ViolationCode = "missing_required"
	ViolationWrongType          ViolationCode = "wrong_type"
	ViolationNotInEnum          ViolationCode = "not_in_enum"
	ViolationOutOfRange         ViolationCode = "out_of_range"
	ViolationUnknownField       ViolationCode = "unknown_field"
	ViolationUnknownType        ViolationCode = "unknown_type"
	ViolationChildrenNotAllowed ViolationCode = "children_not_allowed"
)

// Violation describes one field that failed validation
type Violation struct {
	Field   string        `json:"field"`
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

// SchemaError lists every violation found for one element's props
type SchemaError struct {
	Type       string      `json:"type"`
	Violations []Violation `json:"violations"`
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field == "" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("schema: %s: %s", e.Type, strings.Join(parts, "; "))
}

// Has reports whether any violation carries the given code
func (e *SchemaError) Has(code ViolationCode) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// DuplicateTypeError is returned when a type name is registered twice
type DuplicateTypeError struct {
	Name string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("component type already registered: %s", e.Name)
}
