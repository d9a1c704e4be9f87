// Package catalog defines the closed set of component types a model may emit.
//
// A Catalog maps type names to prop schemas, child allowance and a
// human-readable description. It serves two consumers:
//   - the tree store, which validates every element against it before
//     the element enters the tree
//   - the prompt builder, which embeds Describe() output in the model's
//     system instructions so the model knows which shapes are legal
//
// Prop Schemas:
//   - Tagged union of kinds: string, number, integer, boolean, enum,
//     array, object, any
//   - Walked by an explicit validator that reports every violation
//   - Exportable as JSON Schema (draft 2020-12)
//
// Lifecycle:
//
// A catalog is built once at startup (in code via New/Register, or from
// YAML/TOML files via Load) and then passed by reference to the stores and
// renderers that need it. It is never held in package-level state.
//
// Example Usage:
//
//	cat, err := catalog.New(
//	    catalog.ComponentDefinition{
//	        Name:        "TitleSlide",
//	        Description: "Opening slide",
//	        Props:       catalog.Object(catalog.Required("title", catalog.String("Slide title"))),
//	    },
//	)
//	err = cat.ValidateProps("TitleSlide", map[string]any{"title": "Hello"})
package catalog
