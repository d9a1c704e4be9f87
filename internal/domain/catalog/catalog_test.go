package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterDuplicate(t *testing.T) {
	cat, err := New(ComponentDefinition{Name: "Text"})
	require.NoError(t, err)

	err = cat.Register(ComponentDefinition{Name: "Text"})
	require.Error(t, err)

	var dup *DuplicateTypeError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "Text", dup.Name)
	assert.Equal(t, 1, cat.Len())
}

func TestRegisterRejectsMalformedDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  ComponentDefinition
	}{
		{name: "empty name", def: ComponentDefinition{}},
		{name: "non-object props", def: ComponentDefinition{Name: "X", Props: String("")}},
		{name: "empty enum", def: ComponentDefinition{Name: "X", Props: Object(Optional("e", Enum("")))}},
		{name: "array without items", def: ComponentDefinition{Name: "X", Props: Object(Optional("a", PropSchema{Kind: KindArray}))}},
		{name: "duplicate field", def: ComponentDefinition{Name: "X", Props: Object(Optional("a", String("")), Optional("a", Number("")))}},
		{name: "inverted bounds", def: ComponentDefinition{Name: "X", Props: Object(Optional("n", Number("").Between(5, 1)))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := MustNew()
			assert.Error(t, cat.Register(tt.def))
			assert.Equal(t, 0, cat.Len())
		})
	}
}

func TestValidatePropsReportsEveryViolation(t *testing.T) {
	cat := Default()

	err := cat.ValidateProps("Chart", map[string]any{
		"kind": "pie",
		"data": []any{
			map[string]any{"label": "a", "value": 1.0},
			map[string]any{"label": 7.0},
		},
	})
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "Chart", schemaErr.Type)

	fields := make([]string, 0, len(schemaErr.Violations))
	for _, v := range schemaErr.Violations {
		fields = append(fields, v.Field)
	}
	assert.Equal(t, []string{"kind", "data[1].label", "data[1].value"}, fields)
	assert.True(t, schemaErr.Has(ViolationNotInEnum))
	assert.True(t, schemaErr.Has(ViolationWrongType))
	assert.True(t, schemaErr.Has(ViolationMissingRequired))
}

func TestValidateProps(t *testing.T) {
	cat := Default()

	tests := []struct {
		name     string
		typeName string
		props    map[string]any
		wantCode ViolationCode
	}{
		{name: "valid title slide", typeName: "TitleSlide", props: map[string]any{"title": "Hello"}},
		{name: "extra props tolerated", typeName: "TitleSlide", props: map[string]any{"title": "Hello", "mood": "calm"}},
		{name: "null optional treated as absent", typeName: "TitleSlide", props: map[string]any{"title": "Hi", "subtitle": nil}},
		{name: "nil props on type without required", typeName: "Deck", props: nil},
		{name: "missing required", typeName: "TitleSlide", props: map[string]any{}, wantCode: ViolationMissingRequired},
		{name: "null required", typeName: "TitleSlide", props: map[string]any{"title": nil}, wantCode: ViolationMissingRequired},
		{name: "wrong type", typeName: "Text", props: map[string]any{"content": 3.0}, wantCode: ViolationWrongType},
		{name: "enum", typeName: "Callout", props: map[string]any{"text": "x", "variant": "danger"}, wantCode: ViolationNotInEnum},
		{name: "integer with fraction", typeName: "Heading", props: map[string]any{"text": "x", "level": 1.5}, wantCode: ViolationWrongType},
		{name: "integer out of range", typeName: "Heading", props: map[string]any{"text": "x", "level": 4.0}, wantCode: ViolationOutOfRange},
		{name: "array item type", typeName: "BulletList", props: map[string]any{"items": []any{"a", true}}, wantCode: ViolationWrongType},
		{name: "unknown type", typeName: "Nonexistent", props: map[string]any{}, wantCode: ViolationUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cat.ValidateProps(tt.typeName, tt.props)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			assert.True(t, schemaErr.Has(tt.wantCode), "violations: %v", schemaErr.Violations)
		})
	}
}

func TestStrictObjectsRejectUnknownFields(t *testing.T) {
	cat := MustNew(ComponentDefinition{
		Name:  "Badge",
		Props: Object(Required("label", String(""))).StrictFields(),
	})

	err := cat.ValidateProps("Badge", map[string]any{"label": "new", "color": "red", "age": 2.0})
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Len(t, schemaErr.Violations, 2)
	assert.Equal(t, "age", schemaErr.Violations[0].Field)
	assert.Equal(t, "color", schemaErr.Violations[1].Field)

	assert.Error(t, cat.ValidateProp("Badge", "color", "red"))
	assert.NoError(t, cat.ValidateProp("Badge", "label", "ok"))
}

func TestValidateProp(t *testing.T) {
	cat := Default()

	assert.NoError(t, cat.ValidateProp("Heading", "level", 2.0))
	assert.NoError(t, cat.ValidateProp("Heading", "undeclared", "anything"))
	assert.NoError(t, cat.ValidateProp("Heading", "level", nil))
	assert.Error(t, cat.ValidateProp("Heading", "text", nil))
	assert.Error(t, cat.ValidateProp("Heading", "level", "two"))
	assert.Error(t, cat.ValidateProp("Ghost", "x", 1.0))
}

func TestValidatePropsAcceptsDecodedNumbers(t *testing.T) {
	var props map[string]any
	require.NoError(t, sonic.UnmarshalString(`{"text":"x","level":2}`, &props))
	assert.NoError(t, Default().ValidateProps("Heading", props))
}

func TestHasChildren(t *testing.T) {
	cat := Default()
	assert.True(t, cat.HasChildren("Deck"))
	assert.True(t, cat.HasChildren("Columns"))
	assert.False(t, cat.HasChildren("TitleSlide"))
	assert.False(t, cat.HasChildren("Nonexistent"))
}

func TestDescribeIsDeterministic(t *testing.T) {
	first := Default().Describe().String()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Default().Describe().String())
	}

	desc := Default().Describe()
	names := make([]string, 0, len(desc.Components))
	for _, c := range desc.Components {
		names = append(names, c.Name)
	}
	assert.Equal(t, Default().Types(), names)
	assert.Equal(t, "Deck", names[0])
}

func TestDescribeText(t *testing.T) {
	cat := MustNew(
		ComponentDefinition{
			Name:        "TitleSlide",
			Description: "Opening slide",
			Props: Object(
				Required("title", String("Slide title")),
				Optional("tone", Enum("", "calm", "bold")),
			),
		},
		ComponentDefinition{Name: "Stack", HasChildren: true},
		ComponentDefinition{
			Name:  "List",
			Props: Object(Required("items", ArrayOf(String(""), "")), Optional("size", Integer("").Between(1, 3))),
		},
	)

	want := "TitleSlide: Opening slide (no children)\n" +
		"  - title: string (required) - Slide title\n" +
		"  - tone: \"calm\" | \"bold\" (optional)\n" +
		"\n" +
		"Stack (children allowed)\n" +
		"  (no props)\n" +
		"\n" +
		"List (no children)\n" +
		"  - items: string[] (required)\n" +
		"  - size: integer [1..3] (optional)\n"
	assert.Equal(t, want, cat.Describe().String())
}

func TestDescribeJSON(t *testing.T) {
	data, err := Default().Describe().JSON()
	require.NoError(t, err)

	var decoded Description
	require.NoError(t, sonic.Unmarshal(data, &decoded))
	assert.Equal(t, Default().Describe(), decoded)
}

func TestJSONSchemaAgreesWithValidator(t *testing.T) {
	cat := Default()

	tests := []struct {
		typeName string
		props    string
	}{
		{"TitleSlide", `{"title":"Hello"}`},
		{"TitleSlide", `{"subtitle":"no title"}`},
		{"TitleSlide", `{"title":5}`},
		{"Heading", `{"text":"x","level":2}`},
		{"Heading", `{"text":"x","level":2.5}`},
		{"Heading", `{"text":"x","level":9}`},
		{"Callout", `{"text":"x","variant":"warning"}`},
		{"Callout", `{"text":"x","variant":"loud"}`},
		{"BulletList", `{"items":["a","b"],"ordered":true}`},
		{"BulletList", `{"items":"a"}`},
		{"Chart", `{"kind":"bar","data":[{"label":"q1","value":3}]}`},
		{"Chart", `{"kind":"bar","data":[{"label":"q1"}]}`},
		{"Columns", `{"gap":2,"extra":"tolerated"}`},
	}

	for _, tt := range tests {
		t.Run(tt.typeName+" "+tt.props, func(t *testing.T) {
			schema, err := cat.CompileSchema(tt.typeName)
			require.NoError(t, err)

			var props map[string]any
			require.NoError(t, sonic.UnmarshalString(tt.props, &props))

			ours := cat.ValidateProps(tt.typeName, props)
			theirs := schema.Validate(props)
			assert.Equal(t, ours == nil, theirs == nil, "validator=%v jsonschema=%v", ours, theirs)
		})
	}
}

func TestElementSchemaCompiles(t *testing.T) {
	cat := Default()
	schema, err := cat.CompileElementSchema()
	require.NoError(t, err)

	var good, leafWithChildren map[string]any
	require.NoError(t, sonic.UnmarshalString(`{"key":"d","type":"Deck","props":{},"children":["s1"]}`, &good))
	require.NoError(t, sonic.UnmarshalString(`{"key":"t","type":"Text","props":{"content":"x"},"children":["a"]}`, &leafWithChildren))

	assert.NoError(t, schema.Validate(good))
	assert.Error(t, schema.Validate(leafWithChildren))

	_, err = cat.JSONSchema("Nope")
	assert.Error(t, err)
}

func TestLoadYAMLAndTOML(t *testing.T) {
	dir := t.TempDir()
	yamlDoc := `components:
  - name: Banner
    description: Full-width banner
    props:
      - name: text
        type: string
        required: true
      - name: tone
        type: enum
        values: [info, alert]
  - name: Stack
    children: true
`
	tomlDoc := `[[components]]
name = "Badge"
description = "Small label"
strict = true

[[components.props]]
name = "label"
type = "string"
required = true

[[components.props]]
name = "size"
type = "integer"
min = 1.0
max = 3.0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-base.yaml"), []byte(yamlDoc), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "extra"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra", "02-badge.toml"), []byte(tomlDoc), 0o644))

	cat, err := Load(filepath.Join(dir, "**", "*.{yaml,toml}"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Banner", "Stack", "Badge"}, cat.Types())
	assert.True(t, cat.HasChildren("Stack"))
	assert.NoError(t, cat.ValidateProps("Banner", map[string]any{"text": "hi", "tone": "info"}))
	assert.Error(t, cat.ValidateProps("Banner", map[string]any{"text": "hi", "tone": "loud"}))
	assert.Error(t, cat.ValidateProps("Badge", map[string]any{"label": "x", "size": 5.0}))
	assert.Error(t, cat.ValidateProps("Badge", map[string]any{"label": "x", "color": "red"}))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "*.yaml"))
	assert.Error(t, err)

	dup := "components:\n  - name: A\n  - name: A\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.yaml"), []byte(dup), 0o644))
	_, err = Load(filepath.Join(dir, "dup.yaml"))
	var dupErr *DuplicateTypeError
	assert.True(t, errors.As(err, &dupErr))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("x"), 0o644))
	_, err = LoadFiles(filepath.Join(dir, "bad.txt"))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"components":[{"name":"L","props":[{"name":"xs","type":"array"}]}]}`), FormatJSON)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "array requires items"))
}
