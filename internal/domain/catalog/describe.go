package catalog

import (
	"strings"

	"github.com/bytedance/sonic"
)

// Description is the deterministic, prompt-ready summary of a catalog
type Description struct {
	Components []ComponentDescription `json:"components"`
}

// ComponentDescription summarizes one component type
type ComponentDescription struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Children    bool              `json:"children"`
	Props       []PropDescription `json:"props"`
}

// PropDescription summarizes one top-level prop
type PropDescription struct {
	Name        string   `json:"name"`
	Shape       string   `json:"shape"`
	Kind        Kind     `json:"kind"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Describe summarizes the catalog in registration order
func (c *Catalog) Describe() Description {
	defs := c.Definitions()
	desc := Description{Components: make([]ComponentDescription, 0, len(defs))}

	for _, def := range defs {
		cd := ComponentDescription{
			Name:        def.Name,
			Description: def.Description,
			Children:    def.HasChildren,
			Props:       make([]PropDescription, 0, len(def.Props.Fields)),
		}
		for _, f := range def.Props.Fields {
			cd.Props = append(cd.Props, PropDescription{
				Name:        f.Name,
				Shape:       f.Schema.Shape(),
				Kind:        f.Schema.Kind,
				Required:    f.Required,
				Description: f.Schema.Description,
				Enum:        f.Schema.Enum,
			})
		}
		desc.Components = append(desc.Components, cd)
	}

	return desc
}

// String renders the description as plain text for model instructions.
//
// Format, one block per component:
//
//	TitleSlide: Opening slide (no children)
//	  - title: string (required) - Slide title
func (d Description) String() string {
	var sb strings.Builder
	for i, comp := range d.Components {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(comp.Name)
		if comp.Description != "" {
			sb.WriteString(": ")
			sb.WriteString(comp.Description)
		}
		if comp.Children {
			sb.WriteString(" (children allowed)\n")
		} else {
			sb.WriteString(" (no children)\n")
		}
		if len(comp.Props) == 0 {
			sb.WriteString("  (no props)\n")
		}
		for _, p := range comp.Props {
			sb.WriteString("  - ")
			sb.WriteString(p.Name)
			sb.WriteString(": ")
			sb.WriteString(p.Shape)
			if p.Required {
				sb.WriteString(" (required)")
			} else {
				sb.WriteString(" (optional)")
			}
			if p.Description != "" {
				sb.WriteString(" - ")
				sb.WriteString(p.Description)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// JSON encodes the description. Field order follows struct order, so the
// output is stable for a given catalog.
func (d Description) JSON() ([]byte, error) {
	return sonic.Marshal(d)
}
