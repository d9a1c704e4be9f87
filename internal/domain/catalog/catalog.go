package catalog

import (
	"fmt"
	"sync"
)

// ComponentDefinition describes one legal element type
type ComponentDefinition struct {
	Name        string
	Description string
	Props       PropSchema // Object schema; zero value means "no props"
	HasChildren bool
}

// Catalog is the registry of component definitions, kept in registration order
type Catalog struct {
	mu    sync.RWMutex
	order []string
	defs  map[string]ComponentDefinition
}

// New creates a catalog and registers the given definitions in order
func New(defs ...ComponentDefinition) (*Catalog, error) {
	c := &Catalog{
		defs: make(map[string]ComponentDefinition, len(defs)),
	}
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is New for static catalogs; it panics on error
func MustNew(defs ...ComponentDefinition) *Catalog {
	c, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Register adds a definition. Registering an existing name fails with *DuplicateTypeError.
func (c *Catalog) Register(def ComponentDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("component name is required")
	}
	if def.Props.Kind == "" {
		def.Props = Object()
	}
	if def.Props.Kind != KindObject {
		return fmt.Errorf("component %s: props schema must be an object, got %s", def.Name, def.Props.Kind)
	}
	if err := def.Props.check("props"); err != nil {
		return fmt.Errorf("component %s: %w", def.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.defs[def.Name]; exists {
		return &DuplicateTypeError{Name: def.Name}
	}
	c.defs[def.Name] = def
	c.order = append(c.order, def.Name)
	return nil
}

// Lookup returns the definition for a type name
func (c *Catalog) Lookup(name string) (ComponentDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.defs[name]
	return def, ok
}

// HasChildren reports whether elements of the type may own children.
// Unknown types report false.
func (c *Catalog) HasChildren(name string) bool {
	def, ok := c.Lookup(name)
	return ok && def.HasChildren
}

// Types returns type names in registration order
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of registered types
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Definitions returns all definitions in registration order
func (c *Catalog) Definitions() []ComponentDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ComponentDefinition, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.defs[name])
	}
	return out
}

// ValidateProps checks props against the type's schema and returns a
// *SchemaError listing every violation, or nil.
func (c *Catalog) ValidateProps(typeName string, props map[string]any) error {
	def, ok := c.Lookup(typeName)
	if !ok {
		return &SchemaError{
			Type: typeName,
			Violations: []Violation{{
				Code:    ViolationUnknownType,
				Message: fmt.Sprintf("unknown component type %q", typeName),
			}},
		}
	}

	if props == nil {
		props = map[string]any{}
	}

	var violations []Violation
	def.Props.validateObject("", props, &violations)
	if len(violations) > 0 {
		return &SchemaError{Type: typeName, Violations: violations}
	}
	return nil
}

// ValidateProp checks a single top-level prop value. Props the type does not
// declare are accepted unless the props schema is strict.
func (c *Catalog) ValidateProp(typeName, name string, value any) error {
	def, ok := c.Lookup(typeName)
	if !ok {
		return c.ValidateProps(typeName, nil)
	}

	field, declared := def.Props.Field(name)
	var violations []Violation
	switch {
	case !declared && def.Props.Strict:
		violations = append(violations, Violation{
			Field:   name,
			Code:    ViolationUnknownField,
			Message: "prop not declared by the component",
		})
	case !declared:
	case value == nil && field.Required:
		violations = append(violations, Violation{
			Field:   name,
			Code:    ViolationMissingRequired,
			Message: "required prop missing",
		})
	case value != nil:
		field.Schema.validate(name, value, &violations)
	}

	if len(violations) > 0 {
		return &SchemaError{Type: typeName, Violations: violations}
	}
	return nil
}
