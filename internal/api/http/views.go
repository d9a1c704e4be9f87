package http

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/render"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/html"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/props"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/terminal"
)

// Render formats
const (
	FormatHTML = "html"
	FormatText = "text"
)

const (
	minTextWidth = 20
	maxTextWidth = 240
	// maxTextWidths bounds how many text renderers one session keeps
	maxTextWidths = 4
)

// view holds the reconciling renderers of one session. Reusing them across
// requests lets unchanged subtrees skip re-rendering.
type view struct {
	html *render.Renderer[string]
	text map[int]*render.Renderer[string]
}

// views caches renderers per session
type views struct {
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	sanitizer *html.Sanitizer

	mu      sync.Mutex
	entries map[string]*view
}

func newViews(metrics *monitoring.Metrics, logger *zap.Logger) *views {
	return &views{
		metrics:   metrics,
		logger:    logger,
		sanitizer: html.NewSanitizer(),
		entries:   make(map[string]*view),
	}
}

func (v *views) get(sid string) *view {
	e, ok := v.entries[sid]
	if !ok {
		e = &view{text: make(map[int]*render.Renderer[string])}
		v.entries[sid] = e
	}
	return e
}

func (v *views) htmlRenderer(sid string) *render.Renderer[string] {
	v.mu.Lock()
	defer v.mu.Unlock()

	e := v.get(sid)
	if e.html == nil {
		e.html = html.NewRenderer(v.logger)
	}
	return e.html
}

func (v *views) textRenderer(sid string, width int) *render.Renderer[string] {
	v.mu.Lock()
	defer v.mu.Unlock()

	e := v.get(sid)
	r, ok := e.text[width]
	if !ok {
		if len(e.text) >= maxTextWidths {
			clear(e.text)
		}
		r = terminal.NewRenderer(
			terminal.WithWidth(width),
			terminal.WithTheme(terminal.ThemeLight),
			terminal.WithLogger(v.logger),
		)
		e.text[width] = r
	}
	return r
}

// page renders t as sanitized HTML, as a standalone document unless
// fragmentOnly is set
func (v *views) page(sid, title string, t tree.UITree, fragmentOnly bool) (string, render.Result[string]) {
	res := v.render(FormatHTML, v.htmlRenderer(sid), t)
	if fragmentOnly {
		return v.sanitizer.Sanitize(res.Output), res
	}
	return html.Page(v.sanitizer, title, res.Output), res
}

// text renders t for a terminal of the given width; zero means the default
func (v *views) text(sid string, width int, t tree.UITree) render.Result[string] {
	if width == 0 {
		width = terminal.DefaultWidth
	}
	width = props.Clamp(width, minTextWidth, maxTextWidth)
	return v.render(FormatText, v.textRenderer(sid, width), t)
}

func (v *views) render(format string, r *render.Renderer[string], t tree.UITree) render.Result[string] {
	res := r.Render(t)
	if v.metrics != nil {
		v.metrics.RecordRender(format, res.Duration, res.Stats.Rendered, res.Stats.Reused, res.Stats.Skipped)
	}
	return res
}

// drop forgets a session's renderers
func (v *views) drop(sid string) {
	v.mu.Lock()
	delete(v.entries, sid)
	v.mu.Unlock()
}

// len returns the number of sessions with cached renderers
func (v *views) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}
