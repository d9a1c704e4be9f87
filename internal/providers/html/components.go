package html

import (
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/render"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/chart"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/props"
)

var esc = stdhtml.EscapeString

// Registry returns the HTML component registry for the built-in catalog
func Registry() render.Registry[string] {
	return render.Registry[string]{
		"Deck":       deck,
		"TitleSlide": titleSlide,
		"Slide":      slide,
		"Heading":    heading,
		"Text":       text,
		"BulletList": bulletList,
		"Quote":      quote,
		"Chart":      chartFigure,
		"Image":      image,
		"Columns":    columns,
		"Callout":    callout,
	}
}

// open writes an opening tag carrying the element's key and type
func open(b *strings.Builder, tag, class string, el tree.UIElement) {
	fmt.Fprintf(b, `<%s class="%s" data-key="%s" data-type="%s">`, tag, class, esc(el.Key), esc(el.Type))
}

func deck(el tree.UIElement, children []string) string {
	var b strings.Builder
	open(&b, "main", "deck theme-"+oneOf(props.String(el.Props, "theme"), "light", "light", "dark"), el)
	if title := props.String(el.Props, "title"); title != "" {
		fmt.Fprintf(&b, `<h1 class="deck-title">%s</h1>`, esc(title))
	}
	for _, child := range children {
		b.WriteString(child)
	}
	b.WriteString("</main>")
	return b.String()
}

func titleSlide(el tree.UIElement, _ []string) string {
	var b strings.Builder
	open(&b, "section", "slide title-slide", el)
	fmt.Fprintf(&b, "<h1>%s</h1>", esc(props.String(el.Props, "title")))
	if sub := props.String(el.Props, "subtitle"); sub != "" {
		fmt.Fprintf(&b, `<p class="subtitle">%s</p>`, esc(sub))
	}
	if who := props.String(el.Props, "presenter"); who != "" {
		fmt.Fprintf(&b, `<p class="presenter">%s</p>`, esc(who))
	}
	b.WriteString("</section>")
	return b.String()
}

func slide(el tree.UIElement, children []string) string {
	var b strings.Builder
	layout := oneOf(props.String(el.Props, "layout"), "stack", "stack", "center", "split")
	open(&b, "section", "slide layout-"+layout, el)
	if title := props.String(el.Props, "title"); title != "" {
		fmt.Fprintf(&b, "<header><h2>%s</h2></header>", esc(title))
	}
	b.WriteString(`<div class="slide-body">`)
	for _, child := range children {
		b.WriteString(child)
	}
	b.WriteString("</div></section>")
	return b.String()
}

func heading(el tree.UIElement, _ []string) string {
	level := props.Clamp(props.Int(el.Props, "level", 1), 1, 3)
	return fmt.Sprintf(`<h%d class="heading" data-key="%s">%s</h%d>`,
		level, esc(el.Key), esc(props.String(el.Props, "text")), level)
}

func text(el tree.UIElement, _ []string) string {
	tone := oneOf(props.String(el.Props, "tone"), "default", "default", "muted", "emphasis")
	return fmt.Sprintf(`<p class="text tone-%s" data-key="%s">%s</p>`,
		tone, esc(el.Key), esc(props.String(el.Props, "content")))
}

func bulletList(el tree.UIElement, _ []string) string {
	tag := "ul"
	if props.Bool(el.Props, "ordered") {
		tag = "ol"
	}
	var b strings.Builder
	open(&b, tag, "bullets", el)
	for _, item := range props.Strings(el.Props, "items") {
		fmt.Fprintf(&b, "<li>%s</li>", esc(item))
	}
	fmt.Fprintf(&b, "</%s>", tag)
	return b.String()
}

func quote(el tree.UIElement, _ []string) string {
	var b strings.Builder
	open(&b, "blockquote", "quote", el)
	fmt.Fprintf(&b, "<p>%s</p>", esc(props.String(el.Props, "text")))
	if who := props.String(el.Props, "attribution"); who != "" {
		fmt.Fprintf(&b, "<footer><cite>%s</cite></footer>", esc(who))
	}
	b.WriteString("</blockquote>")
	return b.String()
}

func chartFigure(el tree.UIElement, _ []string) string {
	series := chart.FromProps(el.Props)
	kind := oneOf(series.Kind, chart.KindBar, chart.KindBar, chart.KindLine)

	var b strings.Builder
	open(&b, "figure", "chart chart-"+kind, el)
	if series.Title != "" {
		fmt.Fprintf(&b, "<figcaption>%s</figcaption>", esc(series.Title))
	}

	values := series.Values()
	switch {
	case len(values) == 0:
		b.WriteString(`<p class="chart-empty">No data</p>`)
	case kind == chart.KindLine:
		sum := chart.Summarize(values)
		fmt.Fprintf(&b, `<p class="sparkline">%s</p>`, chart.Sparkline(values))
		fmt.Fprintf(&b, `<p class="chart-summary">min %s, max %s, mean %s</p>`,
			chart.FormatValue(sum.Min), chart.FormatValue(sum.Max), chart.FormatValue(sum.Mean))
	default:
		for i, frac := range chart.Fractions(values) {
			p := series.Points[i]
			fmt.Fprintf(&b,
				`<div class="bar-row"><span class="bar-label">%s</span><span class="bar" style="width: %.1f%%"></span><span class="bar-value">%s</span></div>`,
				esc(p.Label), frac*100, chart.FormatValue(p.Value))
		}
	}
	b.WriteString("</figure>")
	return b.String()
}

func image(el tree.UIElement, _ []string) string {
	var b strings.Builder
	open(&b, "figure", "image", el)
	fmt.Fprintf(&b, `<img src="%s" alt="%s">`, esc(props.String(el.Props, "src")), esc(props.String(el.Props, "alt")))
	if caption := props.String(el.Props, "caption"); caption != "" {
		fmt.Fprintf(&b, "<figcaption>%s</figcaption>", esc(caption))
	}
	b.WriteString("</figure>")
	return b.String()
}

func columns(el tree.UIElement, children []string) string {
	gap := props.Clamp(props.Int(el.Props, "gap", 2), 0, 8)
	var b strings.Builder
	open(&b, "div", fmt.Sprintf("columns gap-%d", gap), el)
	for _, child := range children {
		fmt.Fprintf(&b, `<div class="column">%s</div>`, child)
	}
	b.WriteString("</div>")
	return b.String()
}

func callout(el tree.UIElement, _ []string) string {
	variant := oneOf(props.String(el.Props, "variant"), "info", "info", "warning", "success")
	var b strings.Builder
	open(&b, "aside", "callout callout-"+variant, el)
	fmt.Fprintf(&b, "<p>%s</p></aside>", esc(props.String(el.Props, "text")))
	return b.String()
}

// oneOf returns v when it is one of allowed, else def. Class names are
// never built from unchecked prop values.
func oneOf(v, def string, allowed ...string) string {
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}
