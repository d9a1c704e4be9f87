package catalog

// Default returns the slide-deck catalog served when no catalog files are configured
func Default() *Catalog {
	return MustNew(
		ComponentDefinition{
			Name:        "Deck",
			Description: "Root container for a presentation; children are slides",
			HasChildren: true,
			Props: Object(
				Optional("title", String("Deck title")),
				Optional("theme", Enum("Color theme", "light", "dark")),
			),
		},
		ComponentDefinition{
			Name:        "TitleSlide",
			Description: "Opening slide with a large title",
			Props: Object(
				Required("title", String("Slide title")),
				Optional("subtitle", String("Line shown under the title")),
				Optional("presenter", String("Presenter name")),
			),
		},
		ComponentDefinition{
			Name:        "Slide",
			Description: "Content slide; children are stacked blocks",
			HasChildren: true,
			Props: Object(
				Optional("title", String("Slide heading")),
				Optional("layout", Enum("Arrangement of children", "stack", "center", "split")),
			),
		},
		ComponentDefinition{
			Name:        "Heading",
			Description: "Section heading",
			Props: Object(
				Required("text", String("Heading text")),
				Optional("level", Integer("Heading level").Between(1, 3)),
			),
		},
		ComponentDefinition{
			Name:        "Text",
			Description: "Paragraph of body text",
			Props: Object(
				Required("content", String("Paragraph text")),
				Optional("tone", Enum("Visual weight", "default", "muted", "emphasis")),
			),
		},
		ComponentDefinition{
			Name:        "BulletList",
			Description: "List of short points",
			Props: Object(
				Required("items", ArrayOf(String(""), "List entries")),
				Optional("ordered", Bool("Number the entries")),
			),
		},
		ComponentDefinition{
			Name:        "Quote",
			Description: "Highlighted quotation",
			Props: Object(
				Required("text", String("Quoted text")),
				Optional("attribution", String("Who said it")),
			),
		},
		ComponentDefinition{
			Name:        "Chart",
			Description: "Simple bar or line chart",
			Props: Object(
				Required("kind", Enum("Chart type", "bar", "line")),
				Optional("title", String("Chart caption")),
				Required("data", ArrayOf(Object(
					Required("label", String("Category label")),
					Required("value", Number("Data value")),
				), "Data points in display order")),
			),
		},
		ComponentDefinition{
			Name:        "Image",
			Description: "Image with alt text",
			Props: Object(
				Required("src", String("Image URL")),
				Required("alt", String("Accessible description")),
				Optional("caption", String("Caption under the image")),
			),
		},
		ComponentDefinition{
			Name:        "Columns",
			Description: "Side-by-side layout; each child is one column",
			HasChildren: true,
			Props: Object(
				Optional("gap", Integer("Spacing between columns").Between(0, 8)),
			),
		},
		ComponentDefinition{
			Name:        "Callout",
			Description: "Boxed note drawing attention to a point",
			Props: Object(
				Required("text", String("Callout text")),
				Optional("variant", Enum("Callout style", "info", "warning", "success")),
			),
		},
	)
}
