package generator

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
)

// demoChunkSize is deliberately small and odd so chunks cut across lines
const demoChunkSize = 37

const maxTitle = 60

// DemoOption configures a Demo
type DemoOption func(*Demo)

// WithDemoDelay pauses between chunks
func WithDemoDelay(d time.Duration) DemoOption {
	return func(g *Demo) {
		g.delay = d
	}
}

// WithPreamble prefixes the stream with a line of prose, as chatty models do
func WithPreamble(text string) DemoOption {
	return func(g *Demo) {
		g.preamble = text
	}
}

// Demo synthesizes a small deck from the prompt so the service works
// without any upstream
type Demo struct {
	delay    time.Duration
	preamble string
}

// NewDemo creates the demo generator
func NewDemo(opts ...DemoOption) *Demo {
	g := &Demo{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate streams the deck for in
func (g *Demo) Generate(_ context.Context, in session.Input) (ingest.Source, error) {
	patches := DemoDeck(in.Prompt)

	var b strings.Builder
	if g.preamble != "" {
		b.WriteString(g.preamble)
		b.WriteByte('\n')
	}
	for _, p := range patches {
		line, err := p.Line()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.Path, err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return NewPacedSource(io.NopCloser(strings.NewReader(b.String())), demoChunkSize, g.delay), nil
}

// DemoDeck returns the patches for a three-slide deck about prompt. Parents
// are emitted before their children and props arrive after their element,
// so a renderer sees the deck grow.
func DemoDeck(prompt string) []patch.Patch {
	title := demoTitle(prompt)
	words := demoWords(prompt)

	bullets := make([]any, 0, len(words))
	data := make([]any, 0, len(words))
	for _, w := range words {
		bullets = append(bullets, w)
		data = append(data, map[string]any{"label": w, "value": float64(len([]rune(w)))})
	}
	if len(bullets) == 0 {
		bullets = append(bullets, "Nothing to list yet")
		data = append(data, map[string]any{"label": "empty", "value": 0.0})
	}

	element := func(key, typ string, props map[string]any, children ...string) patch.Patch {
		value := map[string]any{"key": key, "type": typ, "props": props}
		if children != nil {
			kids := make([]any, len(children))
			for i, c := range children {
				kids[i] = c
			}
			value["children"] = kids
		}
		return patch.Set(patch.ElementPath(key), value)
	}

	return []patch.Patch{
		patch.Set(patch.JoinPath(patch.SegmentRoot), "deck"),
		element("deck", "Deck", map[string]any{"title": title}, "intro", "points", "numbers"),
		element("intro", "TitleSlide", map[string]any{"title": title}),
		patch.Set(patch.ElementPath("intro", patch.SegmentProps, "subtitle"), "A generated overview"),
		element("points", "Slide", map[string]any{"title": "Key points", "layout": "stack"}, "points-list", "points-note"),
		element("points-list", "BulletList", map[string]any{"items": bullets}),
		element("points-note", "Callout", map[string]any{"text": "Every slide streamed in as it was produced.", "variant": "info"}),
		element("numbers", "Slide", map[string]any{"title": "By the numbers"}, "numbers-chart"),
		element("numbers-chart", "Chart", map[string]any{"kind": "bar", "title": "Word length", "data": data}),
	}
}

func demoTitle(prompt string) string {
	title := strings.Join(strings.Fields(prompt), " ")
	if title == "" {
		return "Untitled"
	}
	if r := []rune(title); len(r) > maxTitle {
		title = strings.TrimSpace(string(r[:maxTitle])) + "…"
	}
	r := []rune(title)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// demoWords picks up to five distinct words of three or more letters
func demoWords(prompt string) []string {
	seen := make(map[string]bool)
	var words []string
	for _, f := range strings.FieldsFunc(prompt, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		w := strings.ToLower(f)
		if len([]rune(w)) < 3 || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
		if len(words) == 5 {
			break
		}
	}
	return words
}
