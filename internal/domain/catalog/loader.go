package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format identifies a catalog file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// catalogFile is the on-disk catalog layout shared by YAML, TOML and JSON
type catalogFile struct {
	Components []componentSpec `yaml:"components" toml:"components" json:"components"`
}

type componentSpec struct {
	Name        string     `yaml:"name" toml:"name" json:"name"`
	Description string     `yaml:"description" toml:"description" json:"description"`
	Children    bool       `yaml:"children" toml:"children" json:"children"`
	Strict      bool       `yaml:"strict" toml:"strict" json:"strict"`
	Props       []propSpec `yaml:"props" toml:"props" json:"props"`
}

type propSpec struct {
	Name        string     `yaml:"name" toml:"name" json:"name"`
	Type        string     `yaml:"type" toml:"type" json:"type"`
	Description string     `yaml:"description" toml:"description" json:"description"`
	Required    bool       `yaml:"required" toml:"required" json:"required"`
	Values      []string   `yaml:"values" toml:"values" json:"values"`
	Items       *propSpec  `yaml:"items" toml:"items" json:"items"`
	Fields      []propSpec `yaml:"fields" toml:"fields" json:"fields"`
	Strict      bool       `yaml:"strict" toml:"strict" json:"strict"`
	Min         *float64   `yaml:"min" toml:"min" json:"min"`
	Max         *float64   `yaml:"max" toml:"max" json:"max"`
}

// Load builds a catalog from every file matching a doublestar pattern
// (e.g. "catalogs/**/*.yaml"). Files are read in sorted order so the
// registration order, and therefore Describe output, is reproducible.
func Load(pattern string) (*Catalog, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no catalog files match %q", pattern)
	}
	sort.Strings(matches)
	return LoadFiles(matches...)
}

// LoadFiles builds a catalog from the given files in order
func LoadFiles(paths ...string) (*Catalog, error) {
	var defs []ComponentDefinition
	for _, path := range paths {
		format, err := formatFromPath(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		fileDefs, err := Parse(data, format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, fileDefs...)
	}

	cat, err := New(defs...)
	if err != nil {
		return nil, err
	}

	// File catalogs are authored by hand; make sure every export compiles
	for _, name := range cat.Types() {
		if _, err := cat.CompileSchema(name); err != nil {
			return nil, fmt.Errorf("component %s: %w", name, err)
		}
	}
	return cat, nil
}

// Parse decodes catalog definitions from data in the given format
func Parse(data []byte, format Format) ([]ComponentDefinition, error) {
	var file catalogFile
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	case FormatTOML:
		err = toml.Unmarshal(data, &file)
	case FormatJSON:
		err = sonic.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s catalog: %w", format, err)
	}

	defs := make([]ComponentDefinition, 0, len(file.Components))
	for _, spec := range file.Components {
		fields := make([]Prop, 0, len(spec.Props))
		for _, p := range spec.Props {
			schema, err := p.toSchema()
			if err != nil {
				return nil, fmt.Errorf("component %s: prop %s: %w", spec.Name, p.Name, err)
			}
			fields = append(fields, Prop{Name: p.Name, Schema: schema, Required: p.Required})
		}
		props := Object(fields...)
		props.Strict = spec.Strict

		defs = append(defs, ComponentDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Props:       props,
			HasChildren: spec.Children,
		})
	}
	return defs, nil
}

func (p propSpec) toSchema() (PropSchema, error) {
	schema := PropSchema{
		Kind:        Kind(strings.ToLower(p.Type)),
		Description: p.Description,
		Min:         p.Min,
		Max:         p.Max,
	}

	switch schema.Kind {
	case "bool":
		schema.Kind = KindBool
	case "":
		schema.Kind = KindAny
	case KindEnum:
		schema.Enum = p.Values
	case KindArray:
		if p.Items == nil {
			return PropSchema{}, fmt.Errorf("array requires items")
		}
		item, err := p.Items.toSchema()
		if err != nil {
			return PropSchema{}, err
		}
		schema.Items = &item
	case KindObject:
		schema.Strict = p.Strict
		for _, f := range p.Fields {
			fs, err := f.toSchema()
			if err != nil {
				return PropSchema{}, fmt.Errorf("%s: %w", f.Name, err)
			}
			schema.Fields = append(schema.Fields, Prop{Name: f.Name, Schema: fs, Required: f.Required})
		}
	}
	return schema, nil
}

func formatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported catalog file extension: %s", path)
}
