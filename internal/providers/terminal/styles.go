package terminal

import "github.com/charmbracelet/lipgloss"

// Themes understood by NewStyles
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type palette struct {
	accent  lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	info    lipgloss.Color
	warning lipgloss.Color
	success lipgloss.Color
	errorC  lipgloss.Color
}

var palettes = map[string]palette{
	ThemeDark: {
		accent:  lipgloss.Color("#AD8CFF"),
		text:    lipgloss.Color("#EEEEEE"),
		muted:   lipgloss.Color("#777777"),
		info:    lipgloss.Color("#5FAFFF"),
		warning: lipgloss.Color("#FFB86C"),
		success: lipgloss.Color("#3DDC97"),
		errorC:  lipgloss.Color("#FF5C5C"),
	},
	ThemeLight: {
		accent:  lipgloss.Color("#5B3FD9"),
		text:    lipgloss.Color("#1A1A1A"),
		muted:   lipgloss.Color("#8A8A8A"),
		info:    lipgloss.Color("#1F6FEB"),
		warning: lipgloss.Color("#B35900"),
		success: lipgloss.Color("#1A7F37"),
		errorC:  lipgloss.Color("#CF222E"),
	},
}

// Styles holds every style the terminal components use
type Styles struct {
	DeckTitle   lipgloss.Style
	Slide       lipgloss.Style
	SlideTitle  lipgloss.Style
	TitleSlide  lipgloss.Style
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Presenter   lipgloss.Style
	Headings    [3]lipgloss.Style
	Text        lipgloss.Style
	Muted       lipgloss.Style
	Emphasis    lipgloss.Style
	Bullet      lipgloss.Style
	Quote       lipgloss.Style
	Attribution lipgloss.Style
	ChartTitle  lipgloss.Style
	Bar         lipgloss.Style
	Axis        lipgloss.Style
	Image       lipgloss.Style
	Caption     lipgloss.Style
	Callouts    map[string]lipgloss.Style
	Placeholder lipgloss.Style
	Unknown     lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Footer      lipgloss.Style
}

// NewStyles builds the styles for a theme; unknown themes fall back to dark
func NewStyles(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[ThemeDark]
	}

	callout := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(c).
			Foreground(c).
			Padding(0, 1)
	}

	return Styles{
		DeckTitle: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true).
			Underline(true),

		Slide: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1),

		SlideTitle: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),

		TitleSlide: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.accent).
			Padding(1, 2).
			Align(lipgloss.Center),

		Title: lipgloss.NewStyle().
			Foreground(p.text).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(p.muted),

		Presenter: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),

		Headings: [3]lipgloss.Style{
			lipgloss.NewStyle().Foreground(p.accent).Bold(true).Underline(true),
			lipgloss.NewStyle().Foreground(p.accent).Bold(true),
			lipgloss.NewStyle().Foreground(p.text).Bold(true),
		},

		Text: lipgloss.NewStyle().
			Foreground(p.text),

		Muted: lipgloss.NewStyle().
			Foreground(p.muted),

		Emphasis: lipgloss.NewStyle().
			Foreground(p.text).
			Bold(true),

		Bullet: lipgloss.NewStyle().
			Foreground(p.accent),

		Quote: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(p.muted).
			Italic(true).
			Padding(0, 1),

		Attribution: lipgloss.NewStyle().
			Foreground(p.muted),

		ChartTitle: lipgloss.NewStyle().
			Foreground(p.text).
			Bold(true),

		Bar: lipgloss.NewStyle().
			Foreground(p.accent),

		Axis: lipgloss.NewStyle().
			Foreground(p.muted),

		Image: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.muted).
			Padding(0, 1),

		Caption: lipgloss.NewStyle().
			Foreground(p.muted).
			Italic(true),

		Callouts: map[string]lipgloss.Style{
			"info":    callout(p.info),
			"warning": callout(p.warning),
			"success": callout(p.success),
		},

		Placeholder: lipgloss.NewStyle().
			Foreground(p.muted).
			Faint(true),

		Unknown: lipgloss.NewStyle().
			Foreground(p.errorC).
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.errorC).
			Padding(0, 1),

		Status: lipgloss.NewStyle().
			Background(p.accent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1),

		Error: lipgloss.NewStyle().
			Foreground(p.errorC).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(p.muted).
			Faint(true),
	}
}
