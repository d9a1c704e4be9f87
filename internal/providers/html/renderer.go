package html

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/render"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
)

// NewRenderer returns a reconciling renderer producing HTML fragments.
// Fragments are not yet sanitized; pass them through a Sanitizer or Page.
func NewRenderer(logger *zap.Logger) *render.Renderer[string] {
	return render.New(Registry(),
		render.WithPlaceholder(func() string {
			return `<p class="placeholder">Waiting for content...</p>`
		}),
		render.WithUnknown(func(el tree.UIElement) string {
			return fmt.Sprintf(`<div class="unknown" data-key="%s">Unknown component: %s</div>`,
				esc(el.Key), esc(el.Type))
		}),
		render.WithLogger[string](logger),
	)
}

const stylesheet = `
body { font-family: system-ui, sans-serif; margin: 0; padding: 2rem; background: #fafafa; color: #1a1a1a; }
.theme-dark { background: #111; color: #eee; }
.slide { border: 1px solid #ccc; border-radius: 8px; padding: 1.5rem; margin: 1rem 0; background: #fff; }
.theme-dark .slide { background: #1b1b1b; border-color: #333; }
.title-slide { text-align: center; }
.layout-center .slide-body { text-align: center; }
.layout-split .slide-body, .columns { display: flex; gap: 1rem; }
.columns .column { flex: 1; }
.tone-muted { color: #777; }
.tone-emphasis { font-weight: 600; }
.quote { border-left: 4px solid #aaa; margin: 0; padding-left: 1rem; font-style: italic; }
.bar-row { display: flex; align-items: center; gap: .5rem; }
.bar-label { min-width: 6rem; }
.bar { display: inline-block; height: 1rem; background: #5b3fd9; }
.sparkline { font-size: 1.5rem; letter-spacing: .1rem; }
.callout { padding: .75rem 1rem; border-left: 4px solid; }
.callout-info { border-color: #1f6feb; }
.callout-warning { border-color: #b35900; }
.callout-success { border-color: #1a7f37; }
.unknown { border: 1px dashed #cf222e; color: #cf222e; padding: .5rem; }
.placeholder { color: #999; }
figure.image img { max-width: 100%; }
`

// Page wraps a sanitized fragment into a standalone HTML document
func Page(s *Sanitizer, title, fragment string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", esc(title))
	fmt.Fprintf(&b, "<style>%s</style>\n", stylesheet)
	b.WriteString("</head>\n<body>\n")
	b.WriteString(s.Sanitize(fragment))
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
