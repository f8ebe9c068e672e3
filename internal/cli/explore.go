package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphscope/pkg/graph"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/render/elements"
	"github.com/matzehuels/graphscope/pkg/render/layout"
	"github.com/matzehuels/graphscope/pkg/session"
	"github.com/matzehuels/graphscope/pkg/store"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listExpandedStyle = lipgloss.NewStyle().Foreground(colorGreen)
	listAnchorStyle   = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

const defaultExploreOutput = "explore.html"

// exploreCommand creates the interactive explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		output    string
		sessionID string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Expand and collapse nodes interactively",
		Long: `Explore a graph in the terminal. Visible nodes are listed; expanding one
reveals its direct neighbours and collapsing it hides them again. Every change
re-renders the HTML visualization to the output file, so a browser pointed at
it always shows the current view.

When the session backend is file or redis, the expansion state is saved and
can be resumed with --session.`,
		Example: `  graphscope explore graph.json
  graphscope explore --session 6f1c... -o current.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runExplore(ctx, input, output, sessionID, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultExploreOutput, "HTML file rewritten on every change")
	cmd.Flags().StringVar(&sessionID, "session", "", "resume a saved session")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input, output, sessionID string, noCache bool) error {
	s, err := c.openStore(ctx, input, noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	// Log lines would tear the alternate screen.
	quiet := log.NewWithOptions(io.Discard, log.Options{})
	runner.Logger = quiet

	var sessions session.Store
	if c.Config.Session.Backend != session.BackendMemory {
		if sessions, err = c.openSessions(ctx); err != nil {
			return err
		}
		defer sessions.Close()
	}

	sess, err := c.exploreSession(ctx, sessions, sessionID)
	if err != nil {
		return err
	}

	m := newExploreModel(ctx, s, runner, sess)
	m.sessions = sessions
	m.output = output
	m.height = c.Config.Render.Height
	m.logger = quiet

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if input != "" {
		if err := watchFile(withLogger(ctx, quiet), input, func() { p.Send(reloadMsg{}) }); err != nil {
			c.Logger.Warn("not watching graph file", "err", err)
		}
	}

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	fm := final.(exploreModel)
	if fm.err != nil {
		return fm.err
	}
	printSuccess("Explored %s", fm.statsLine())
	if fm.wrote {
		printFile(output)
	}
	if sessions != nil {
		printNextStep("Resume with", "graphscope explore --session "+sess.ID)
	}
	return nil
}

// exploreSession resumes sessionID or starts a new session from config.
func (c *CLI) exploreSession(ctx context.Context, sessions session.Store, sessionID string) (*session.Session, error) {
	if sessionID != "" {
		if sessions == nil {
			return nil, fmt.Errorf("--session needs a file or redis session backend")
		}
		sess, err := sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("resume session %s: %w", sessionID, err)
		}
		sess.Extend(c.Config.Session.TTL.Duration)
		return sess, nil
	}
	view := graph.ViewMode(c.Config.Render.View)
	return session.New(view, c.Config.Render.Layout, c.Config.Session.TTL.Duration)
}

// =============================================================================
// Messages
// =============================================================================

// loadedMsg carries the base graph of the current view.
type loadedMsg struct {
	g   graph.Graph
	err error
}

// neighboursMsg carries the neighbourhood fetched for an expansion.
type neighboursMsg struct {
	id string
	g  graph.Graph
}

// renderedMsg carries a finished render.
type renderedMsg struct {
	res   *pipeline.Result
	err   error
	wrote bool
}

// reloadMsg asks for the base graph to be read again.
type reloadMsg struct{}

// =============================================================================
// exploreModel - Interactive expansion state
// =============================================================================

// exploreModel is the bubbletea model of the explore command. It owns the
// session; the store, runner and filesystem are only touched from commands.
type exploreModel struct {
	ctx      context.Context
	store    store.Store
	runner   *pipeline.Runner
	sessions session.Store
	sess     *session.Session
	logger   *log.Logger

	base   graph.Graph
	result *pipeline.Result
	rows   []graph.Node

	output string
	height int
	wrote  bool

	cursor int
	offset int
	window int

	busy   bool
	status string
	err    error
}

func newExploreModel(ctx context.Context, s store.Store, runner *pipeline.Runner, sess *session.Session) exploreModel {
	return exploreModel{
		ctx:    ctx,
		store:  s,
		runner: runner,
		sess:   sess,
		logger: log.Default(),
		window: 15,
		busy:   true,
		status: "Loading graph",
	}
}

func (m exploreModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.window = max(msg.Height-9, 5)

	case loadedMsg:
		if msg.err != nil {
			m.busy = false
			m.status = "Load failed: " + msg.err.Error()
			if m.result == nil {
				m.err = msg.err
				return m, tea.Quit
			}
			return m, nil
		}
		m.base = msg.g
		return m, m.renderCmd()

	case reloadMsg:
		m.busy = true
		m.status = "Graph file changed, reloading"
		return m, m.loadCmd()

	case neighboursMsg:
		before := len(m.sess.Working(m.base).Nodes)
		m.sess.Expand(msg.id, msg.g)
		m.save()
		added := len(m.sess.Working(m.base).Nodes) - before
		m.status = fmt.Sprintf("Expanded %s (%d new nodes)", m.caption(msg.id), added)
		return m, m.renderCmd()

	case renderedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Render failed: " + msg.err.Error()
			return m, nil
		}
		m.result = msg.res
		m.rows = msg.res.Visible.Nodes
		m.wrote = m.wrote || msg.wrote
		m.clampCursor()
	}
	return m, nil
}

func (m exploreModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			if m.cursor >= m.offset+m.window {
				m.offset = m.cursor - m.window + 1
			}
		}
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "enter", " ":
		if len(m.rows) == 0 {
			return m, nil
		}
		if m.sess.View == graph.ViewSchema {
			m.status = "Switch to the data view to expand nodes"
			return m, nil
		}
		id := m.rows[m.cursor].ID
		if m.sess.Expanded.Has(id) {
			m.sess.Collapse(id)
			m.save()
			m.status = "Collapsed " + m.caption(id)
			m.busy = true
			return m, m.renderCmd()
		}
		m.busy = true
		m.status = "Expanding " + m.caption(id)
		return m, m.expandCmd(id)

	case "r":
		m.sess.Reset()
		m.save()
		m.status = "Reset to source documents"
		m.busy = true
		return m, m.renderCmd()

	case "v":
		if m.sess.View == graph.ViewSchema {
			m.sess.View = graph.ViewData
		} else {
			m.sess.View = graph.ViewSchema
		}
		m.save()
		m.status = "Switched to " + string(m.sess.View) + " view"
		m.busy = true
		m.cursor, m.offset = 0, 0
		return m, m.loadCmd()

	case "l":
		m.sess.Layout = nextLayout(m.sess.Layout)
		m.save()
		m.status = "Layout " + m.sess.Layout
		m.busy = true
		return m, m.renderCmd()
	}
	return m, nil
}

// nextLayout cycles through the layout presets.
func nextLayout(current string) string {
	names := layout.Names()
	i := slices.Index(names, current)
	return names[(i+1)%len(names)]
}

func (m *exploreModel) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

// save persists the session when a session store is configured.
func (m *exploreModel) save() {
	if m.sessions == nil {
		return
	}
	if err := m.sessions.Set(m.ctx, m.sess); err != nil {
		m.logger.Warn("save session failed", "id", m.sess.ID, "err", err)
		m.status = "Session not saved: " + err.Error()
	}
}

func (m exploreModel) caption(id string) string {
	if n, ok := m.sess.Working(m.base).Node(id); ok {
		return rowName(n)
	}
	return id
}

// =============================================================================
// Commands
// =============================================================================

func (m exploreModel) loadCmd() tea.Cmd {
	ctx, s, view := m.ctx, m.store, m.sess.View
	return func() tea.Msg {
		var (
			g   graph.Graph
			err error
		)
		if view == graph.ViewSchema {
			g, err = s.Schema(ctx)
		} else {
			g, err = s.Graph(ctx)
		}
		return loadedMsg{g: g, err: err}
	}
}

func (m exploreModel) expandCmd(id string) tea.Cmd {
	ctx, s, logger := m.ctx, m.store, m.logger
	return func() tea.Msg {
		return neighboursMsg{id: id, g: store.FetchNeighbors(ctx, s, id, logger)}
	}
}

// renderCmd snapshots the session and renders it off the update loop.
func (m exploreModel) renderCmd() tea.Cmd {
	ctx, runner, output := m.ctx, m.runner, m.output
	g := m.sess.Working(m.base)
	opts := pipeline.Options{
		Layout:   m.sess.Layout,
		View:     string(m.sess.View),
		Height:   m.height,
		Expanded: m.sess.Snapshot().IDs(),
	}
	return func() tea.Msg {
		res, err := runner.Render(ctx, g, opts)
		if err != nil {
			return renderedMsg{err: err}
		}
		if output == "" {
			return renderedMsg{res: res}
		}
		if err := os.WriteFile(output, []byte(res.Payload.HTML), 0o644); err != nil {
			return renderedMsg{err: fmt.Errorf("write %s: %w", output, err)}
		}
		return renderedMsg{res: res, wrote: true}
	}
}

// =============================================================================
// View
// =============================================================================

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore Graph"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("%s view · %s layout", m.sess.View, m.layoutName())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ expand/collapse  r reset  v view  l layout  q quit"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		if m.result != nil {
			b.WriteString(StyleWarning.Render("No nodes to display."))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.table())
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.rows))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.result != nil {
		b.WriteString(StyleDim.Render(m.statsLine()))
		b.WriteString("\n")
	}
	status := m.status
	if m.busy {
		status += "…"
	}
	b.WriteString(StyleHighlight.Render(status))
	return b.String()
}

func (m exploreModel) table() string {
	end := min(m.offset+m.window, len(m.rows))

	rows := make([][]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		n := m.rows[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		marker := "○"
		if m.sess.Expanded.Has(n.ID) {
			marker = "●"
		}
		label := "-"
		if len(n.Labels) > 0 {
			label = n.Labels[0]
		}
		rows = append(rows, []string{cursor, marker, label, rowName(n), n.ID})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Label", "Name", "Element ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			idx := m.offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			n := m.rows[idx]
			switch {
			case idx == m.cursor:
				return listSelectedStyle
			case col == 1 && m.sess.Expanded.Has(n.ID):
				return listExpandedStyle
			case col == 4:
				return listDimStyle
			case n.IsAnchor():
				return listAnchorStyle
			}
			return lipgloss.NewStyle()
		})

	return t.Render()
}

func (m exploreModel) layoutName() string {
	if m.result != nil && m.result.Payload.Layout != "" {
		return m.result.Payload.Layout
	}
	if m.sess.Layout != "" {
		return m.sess.Layout
	}
	return pipeline.DefaultLayout
}

func (m exploreModel) statsLine() string {
	if m.result == nil {
		return "nothing rendered"
	}
	return m.result.Stats.String()
}

// rowName is the display name of a node: source documents use their
// selector label, everything else its caption.
func rowName(n graph.Node) string {
	if n.IsAnchor() {
		return n.SelectorLabel()
	}
	return elements.Caption(n)
}
