package terminal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/render"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/chart"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/props"
)

const (
	minWidth    = 20
	barMaxWidth = 40
)

// components renders the built-in slide catalog into styled text
type components struct {
	styles Styles
	width  int
}

// Registry returns the terminal component registry for the built-in
// catalog. width bounds slide boxes and wrapped text.
func Registry(styles Styles, width int) render.Registry[string] {
	c := &components{styles: styles, width: max(width, minWidth)}
	return render.Registry[string]{
		"Deck":       c.deck,
		"TitleSlide": c.titleSlide,
		"Slide":      c.slide,
		"Heading":    c.heading,
		"Text":       c.text,
		"BulletList": c.bulletList,
		"Quote":      c.quote,
		"Chart":      c.chart,
		"Image":      c.image,
		"Columns":    c.columns,
		"Callout":    c.callout,
	}
}

func (c *components) deck(el tree.UIElement, children []string) string {
	var parts []string
	if title := props.String(el.Props, "title"); title != "" {
		parts = append(parts, c.styles.DeckTitle.Render(title))
	}
	parts = append(parts, children...)
	return strings.Join(parts, "\n\n")
}

func (c *components) titleSlide(el tree.UIElement, _ []string) string {
	lines := []string{c.styles.Title.Render(props.String(el.Props, "title"))}
	if sub := props.String(el.Props, "subtitle"); sub != "" {
		lines = append(lines, c.styles.Subtitle.Render(sub))
	}
	if who := props.String(el.Props, "presenter"); who != "" {
		lines = append(lines, "", c.styles.Presenter.Render(who))
	}
	return c.styles.TitleSlide.
		Width(c.inner(c.styles.TitleSlide)).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (c *components) slide(el tree.UIElement, children []string) string {
	var body string
	switch props.String(el.Props, "layout") {
	case "split":
		body = c.join(children, 2)
	case "center":
		body = lipgloss.JoinVertical(lipgloss.Center, children...)
	default:
		body = lipgloss.JoinVertical(lipgloss.Left, children...)
	}

	inner := c.inner(c.styles.Slide)
	if props.String(el.Props, "layout") == "center" {
		body = lipgloss.PlaceHorizontal(inner, lipgloss.Center, body)
	}
	if title := props.String(el.Props, "title"); title != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, c.styles.SlideTitle.Render(title), "", body)
	}
	return c.styles.Slide.Width(inner).Render(body)
}

func (c *components) heading(el tree.UIElement, _ []string) string {
	level := props.Clamp(props.Int(el.Props, "level", 1), 1, len(c.styles.Headings))
	return c.styles.Headings[level-1].Render(props.String(el.Props, "text"))
}

func (c *components) text(el tree.UIElement, _ []string) string {
	style := c.styles.Text
	switch props.String(el.Props, "tone") {
	case "muted":
		style = c.styles.Muted
	case "emphasis":
		style = c.styles.Emphasis
	}
	return style.Render(props.String(el.Props, "content"))
}

func (c *components) bulletList(el tree.UIElement, _ []string) string {
	ordered := props.Bool(el.Props, "ordered")
	items := props.Strings(el.Props, "items")
	lines := make([]string, len(items))
	for i, item := range items {
		marker := "•"
		if ordered {
			marker = fmt.Sprintf("%d.", i+1)
		}
		lines[i] = c.styles.Bullet.Render(marker) + " " + c.styles.Text.Render(item)
	}
	return strings.Join(lines, "\n")
}

func (c *components) quote(el tree.UIElement, _ []string) string {
	body := c.styles.Quote.Render("“" + props.String(el.Props, "text") + "”")
	if who := props.String(el.Props, "attribution"); who != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, c.styles.Attribution.Render("  - "+who))
	}
	return body
}

func (c *components) chart(el tree.UIElement, _ []string) string {
	series := chart.FromProps(el.Props)

	var lines []string
	if series.Title != "" {
		lines = append(lines, c.styles.ChartTitle.Render(series.Title))
	}
	if len(series.Points) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, c.styles.Muted.Render("(no data)"))...)
	}

	values := series.Values()
	if series.Kind == chart.KindLine {
		sum := chart.Summarize(values)
		lines = append(lines,
			c.styles.Bar.Render(chart.Sparkline(values)),
			c.styles.Axis.Render(fmt.Sprintf("min %s  max %s  mean %s",
				chart.FormatValue(sum.Min), chart.FormatValue(sum.Max), chart.FormatValue(sum.Mean))),
		)
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	labelWidth := 0
	for _, label := range series.Labels() {
		labelWidth = max(labelWidth, lipgloss.Width(label))
	}
	bars := chart.Scale(values, min(barMaxWidth, max(c.width-labelWidth-12, 1)))
	for i, p := range series.Points {
		label := p.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(p.Label))
		lines = append(lines, fmt.Sprintf("%s %s %s",
			c.styles.Axis.Render(label),
			c.styles.Bar.Render(strings.Repeat("█", bars[i])),
			chart.FormatValue(p.Value)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (c *components) image(el tree.UIElement, _ []string) string {
	body := c.styles.Image.Render(fmt.Sprintf("[image] %s\n%s",
		props.String(el.Props, "alt"),
		c.styles.Muted.Render(props.String(el.Props, "src"))))
	if caption := props.String(el.Props, "caption"); caption != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, body, c.styles.Caption.Render(caption))
	}
	return body
}

func (c *components) columns(el tree.UIElement, children []string) string {
	return c.join(children, props.Clamp(props.Int(el.Props, "gap", 2), 0, 8))
}

func (c *components) callout(el tree.UIElement, _ []string) string {
	variant := props.StringOr(el.Props, "variant", "info")
	style, ok := c.styles.Callouts[variant]
	if !ok {
		style = c.styles.Callouts["info"]
	}
	icons := map[string]string{"info": "i", "warning": "!", "success": "✓"}
	return style.Render(icons[variant] + " " + props.String(el.Props, "text"))
}

// join lays blocks side by side separated by gap spaces
func (c *components) join(blocks []string, gap int) string {
	if len(blocks) == 0 {
		return ""
	}
	spacer := strings.Repeat(" ", gap)
	parts := make([]string, 0, len(blocks)*2-1)
	for i, b := range blocks {
		if i > 0 {
			parts = append(parts, spacer)
		}
		parts = append(parts, b)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// inner is the content width left inside a bordered style
func (c *components) inner(style lipgloss.Style) int {
	return max(c.width-style.GetHorizontalFrameSize(), 1)
}
