package html

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
)

func TestRendersTitleSlide(t *testing.T) {
	store := tree.NewStore(catalog.Default())
	require.True(t, store.Apply(patch.Set("/root", "s1")))
	require.True(t, store.Apply(patch.Set("/elements/s1", map[string]any{
		"key": "s1", "type": "TitleSlide", "props": map[string]any{"title": "Hello", "subtitle": "World"},
	})))

	res := NewRenderer(nil).Render(store.Snapshot())
	require.Empty(t, res.Diagnostics)

	out := NewSanitizer().Sanitize(res.Output)
	assert.Contains(t, out, "<h1>Hello</h1>")
	assert.Contains(t, out, `<p class="subtitle">World</p>`)
	assert.Contains(t, out, `data-key="s1"`)
	assert.Contains(t, out, `class="slide title-slide"`)
}

func TestEscapesProps(t *testing.T) {
	out := text(tree.UIElement{Key: "t", Type: "Text", Props: map[string]any{"content": "<script>alert(1)</script>"}}, nil)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")

	clean := NewSanitizer().Sanitize(out)
	assert.NotContains(t, clean, "<script>")
}

func TestSanitizerStripsUnsafeMarkup(t *testing.T) {
	s := NewSanitizer()

	img := image(tree.UIElement{Key: "i", Type: "Image", Props: map[string]any{"src": "javascript:alert(1)", "alt": "x"}}, nil)
	assert.NotContains(t, s.Sanitize(img), "javascript")

	safe := image(tree.UIElement{Key: "i", Type: "Image", Props: map[string]any{"src": "https://example.com/a.png", "alt": "logo"}}, nil)
	assert.Contains(t, s.Sanitize(safe), `src="https://example.com/a.png"`)

	assert.NotContains(t, s.Sanitize(`<span style="position: fixed">x</span>`), "position")
	assert.NotContains(t, s.Sanitize(`<div onclick="steal()">x</div>`), "onclick")
	assert.Contains(t, s.Sanitize(`<span class="bar" style="width: 50%"></span>`), "50%")
}

func TestChartMarkup(t *testing.T) {
	el := tree.UIElement{Key: "c", Type: "Chart", Props: map[string]any{
		"kind":  "bar",
		"title": "Sales",
		"data": []any{
			map[string]any{"label": "a", "value": 1.0},
			map[string]any{"label": "b", "value": 4.0},
		},
	}}
	out := NewSanitizer().Sanitize(chartFigure(el, nil))
	assert.Contains(t, out, "<figcaption>Sales</figcaption>")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "100.0%")
	assert.Equal(t, 2, strings.Count(out, `class="bar-row"`))

	el.Props["kind"] = "line"
	line := chartFigure(el, nil)
	assert.Contains(t, line, "chart-line")
	assert.Contains(t, line, "▁█")
	assert.Contains(t, line, "mean 2.50")

	empty := chartFigure(tree.UIElement{Type: "Chart", Props: map[string]any{}}, nil)
	assert.Contains(t, empty, "No data")
}

func TestClassesComeFromFixedVocabulary(t *testing.T) {
	out := callout(tree.UIElement{Type: "Callout", Props: map[string]any{"text": "hi", "variant": `x" onmouseover="evil`}}, nil)
	assert.Contains(t, out, "callout-info")
	assert.NotContains(t, out, "onmouseover")

	cols := columns(tree.UIElement{Type: "Columns", Props: map[string]any{"gap": 99.0}}, []string{"<p>a</p>", "<p>b</p>"})
	assert.Contains(t, cols, "gap-8")
	assert.Equal(t, 2, strings.Count(cols, `class="column"`))
}

func TestPage(t *testing.T) {
	r := NewRenderer(nil)
	res := r.Render(tree.New())
	page := Page(NewSanitizer(), "Deck <1>", res.Output)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>Deck &lt;1&gt;</title>")
	assert.Contains(t, page, "Waiting for content")
	assert.Contains(t, page, "<style>")
}

func TestUnknownComponent(t *testing.T) {
	store := tree.NewStore(nil)
	store.Apply(patch.Set("/root", "u"))
	store.Apply(patch.Set("/elements/u", map[string]any{"type": "Marquee"}))

	res := NewRenderer(nil).Render(store.Snapshot())
	assert.Contains(t, res.Output, "Unknown component: Marquee")
	assert.Len(t, res.Diagnostics, 1)
}
