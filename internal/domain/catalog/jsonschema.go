package catalog

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	draft2020     = "https://json-schema.org/draft/2020-12/schema"
	schemaBaseURL = "https://jsonrender.schemas.local/catalog/"
)

// JSONSchema exports the props schema of one type as a JSON Schema document
func (c *Catalog) JSONSchema(typeName string) (map[string]any, error) {
	def, ok := c.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown component type %q", typeName)
	}
	doc := def.Props.jsonSchema()
	doc["$schema"] = draft2020
	return doc, nil
}

// ElementSchema exports a JSON Schema accepting any element the catalog allows
func (c *Catalog) ElementSchema() map[string]any {
	defs := c.Definitions()
	variants := make([]any, 0, len(defs))

	for _, def := range defs {
		var children any = false
		if def.HasChildren {
			children = map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			}
		}
		variants = append(variants, map[string]any{
			"type":        "object",
			"description": def.Description,
			"properties": map[string]any{
				"key":      map[string]any{"type": "string"},
				"type":     map[string]any{"const": def.Name},
				"props":    def.Props.jsonSchema(),
				"children": children,
			},
			"required": []any{"type"},
		})
	}

	return map[string]any{
		"$schema": draft2020,
		"$id":     schemaBaseURL + "element.schema.json",
		"oneOf":   variants,
	}
}

// CompileSchema compiles the exported props schema of a type so it can be
// checked by a standard JSON Schema validator
func (c *Catalog) CompileSchema(typeName string) (*jsonschema.Schema, error) {
	doc, err := c.JSONSchema(typeName)
	if err != nil {
		return nil, err
	}
	return compileDocument(schemaBaseURL+typeName+".schema.json", doc)
}

// CompileElementSchema compiles ElementSchema
func (c *Catalog) CompileElementSchema() (*jsonschema.Schema, error) {
	return compileDocument(schemaBaseURL+"element.schema.json", c.ElementSchema())
}

func compileDocument(url string, doc map[string]any) (*jsonschema.Schema, error) {
	data, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

func (s PropSchema) jsonSchema() map[string]any {
	out := map[string]any{}
	if s.Description != "" {
		out["description"] = s.Description
	}

	switch s.Kind {
	case KindString, KindBool:
		out["type"] = string(s.Kind)
	case KindNumber, KindInteger:
		out["type"] = string(s.Kind)
		if s.Min != nil {
			out["minimum"] = *s.Min
		}
		if s.Max != nil {
			out["maximum"] = *s.Max
		}
	case KindEnum:
		values := make([]any, len(s.Enum))
		for i, v := range s.Enum {
			values[i] = v
		}
		out["type"] = "string"
		out["enum"] = values
	case KindArray:
		out["type"] = "array"
		out["items"] = s.Items.jsonSchema()
	case KindObject:
		props := make(map[string]any, len(s.Fields))
		required := make([]any, 0)
		for _, f := range s.Fields {
			props[f.Name] = f.Schema.jsonSchema()
			if f.Required {
				required = append(required, f.Name)
			}
		}
		out["type"] = "object"
		out["properties"] = props
		if len(required) > 0 {
			out["required"] = required
		}
		if s.Strict {
			out["additionalProperties"] = false
		}
	}
	return out
}
