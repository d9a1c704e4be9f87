package terminal

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/render"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
)

const statusInterval = 150 * time.Millisecond

// Feed is the live tree a preview follows; *session.Session satisfies it
type Feed interface {
	Current() (tree.UITree, uint64)
	OnRevision(cb func(revision uint64)) func()
	Status() ingest.State
	Cancel()
}

type revisionMsg uint64

type statusTickMsg time.Time

// Preview is a bubbletea model that redraws the tree on every revision
type Preview struct {
	feed     Feed
	renderer *render.Renderer[string]
	styles   Styles

	updates     chan uint64
	unsubscribe func()
	exitOnDone  bool

	body     string
	revision uint64
	status   ingest.State
	diags    int
	width    int
	quitting bool
}

// NewPreview subscribes to feed. exitOnDone quits once the generation
// reaches a terminal state.
func NewPreview(feed Feed, r *render.Renderer[string], styles Styles, exitOnDone bool) *Preview {
	p := &Preview{
		feed:       feed,
		renderer:   r,
		styles:     styles,
		updates:    make(chan uint64, 1),
		exitOnDone: exitOnDone,
		status:     feed.Status(),
	}
	p.unsubscribe = feed.OnRevision(func(rev uint64) {
		// Coalesce: the model always renders the latest tree
		select {
		case p.updates <- rev:
		default:
		}
	})
	p.refresh()
	return p
}

// Init starts listening for revisions and status changes
func (p *Preview) Init() tea.Cmd {
	return tea.Batch(p.waitForRevision(), statusTick())
}

// Update handles keys, resizes, revisions and status ticks
func (p *Preview) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return p, p.quit()
		case "x":
			p.feed.Cancel()
			p.status = p.feed.Status()
		}

	case tea.WindowSizeMsg:
		p.width = msg.Width

	case revisionMsg:
		p.refresh()
		return p, p.waitForRevision()

	case statusTickMsg:
		p.status = p.feed.Status()
		if p.exitOnDone && p.status.Terminal() {
			p.refresh()
			return p, p.quit()
		}
		return p, statusTick()
	}
	return p, nil
}

// View draws the status bar, the rendered tree and the help line
func (p *Preview) View() string {
	if p.quitting {
		return p.body + "\n"
	}

	status := p.styles.Status.Render(fmt.Sprintf("%s  rev %d", p.status, p.revision))
	if p.diags > 0 {
		status += " " + p.styles.Error.Render(fmt.Sprintf("%d diagnostics", p.diags))
	}
	help := p.styles.Footer.Render("x: cancel  q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, status, "", p.body, "", help)
}

// Body returns the latest rendered tree
func (p *Preview) Body() string {
	return p.body
}

func (p *Preview) refresh() {
	t, rev := p.feed.Current()
	res := p.renderer.Render(t)
	p.body = res.Output
	p.revision = rev
	p.diags = len(res.Diagnostics)
}

func (p *Preview) quit() tea.Cmd {
	p.quitting = true
	p.unsubscribe()
	return tea.Quit
}

func (p *Preview) waitForRevision() tea.Cmd {
	return func() tea.Msg {
		return revisionMsg(<-p.updates)
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
