package terminal

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/render"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
)

// DefaultWidth is used when no width is configured
const DefaultWidth = 80

type options struct {
	width  int
	theme  string
	logger *zap.Logger
}

// Option configures NewRenderer
type Option func(*options)

// WithWidth sets the render width in cells
func WithWidth(width int) Option {
	return func(o *options) {
		if width > 0 {
			o.width = width
		}
	}
}

// WithTheme selects ThemeDark or ThemeLight
func WithTheme(theme string) Option {
	return func(o *options) {
		o.theme = theme
	}
}

// WithLogger sets the renderer's logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewRenderer returns a reconciling renderer producing terminal text
func NewRenderer(opts ...Option) *render.Renderer[string] {
	o := options{width: DefaultWidth, theme: ThemeDark}
	for _, opt := range opts {
		opt(&o)
	}
	styles := NewStyles(o.theme)

	return render.New(Registry(styles, o.width),
		render.WithPlaceholder(func() string {
			return styles.Placeholder.Render("Waiting for content...")
		}),
		render.WithUnknown(func(el tree.UIElement) string {
			return styles.Unknown.Render("unknown component: " + el.Type)
		}),
		render.WithLogger[string](o.logger),
	)
}
