package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/mik25/your-series/internal/pipeline"
	"github.com/mik25/your-series/internal/tui/theme"
)

// maxSkippedShown bounds the skipped series listed under the stats panel.
const maxSkippedShown = 5

type buildEventMsg struct {
	event pipeline.Event
	done  bool
}

// BuildProgressModel displays a running library build.
type BuildProgressModel struct {
	pipeline *pipeline.Pipeline
	events   <-chan pipeline.Event
	summary  pipeline.Summary
	fatalErr error

	width  int
	height int

	progress progress.Model
	spinner  spinner.Model
	theme    theme.Theme

	parent context.Context
	cancel context.CancelFunc

	done     bool
	canceled bool
}

// ModelOption configures a BuildProgressModel.
type ModelOption func(*BuildProgressModel)

// WithContext makes the build stop when ctx is cancelled, even if the
// program exits without a quit key.
func WithContext(ctx context.Context) ModelOption {
	return func(m *BuildProgressModel) { m.parent = ctx }
}

// NewBuildProgressModel creates a model that drives p.
func NewBuildProgressModel(p *pipeline.Pipeline, th theme.Theme, opts ...ModelOption) *BuildProgressModel {
	gradient := th.ProgressGradient()
	prog := progress.New(progress.WithGradient(gradient[0], gradient[1]))
	prog.Width = 50

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))
	spin.Style = lipgloss.NewStyle().Foreground(th.Colors().Accent)

	m := &BuildProgressModel{
		pipeline: p,
		summary:  p.SummarySnapshot(),
		width:    80,
		height:   16,
		progress: prog,
		spinner:  spin,
		theme:    th,
		parent:   context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init starts the build.
func (m *BuildProgressModel) Init() tea.Cmd {
	var ctx context.Context
	ctx, m.cancel = context.WithCancel(m.parent)
	m.events = m.pipeline.Start(ctx)
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

func (m *BuildProgressModel) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-m.events
		if !ok {
			return buildEventMsg{done: true}
		}
		return buildEventMsg{event: evt}
	}
}

// Update processes Bubble Tea messages.
func (m *BuildProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.progress.Width = max(msg.Width-4, 10)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case buildEventMsg:
		return m.handleEvent(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *BuildProgressModel) handleEvent(msg buildEventMsg) (tea.Model, tea.Cmd) {
	if msg.done {
		m.summary = m.pipeline.SummarySnapshot()
		m.done = true
		return m, tea.Quit
	}

	m.summary = msg.event.Summary
	if msg.event.Err != nil && !errors.Is(msg.event.Err, context.Canceled) {
		m.fatalErr = msg.event.Err
	}
	return m, m.waitForEvent()
}

// ratio maps the build phase onto a single progress bar. Resolution dominates
// the run time so it gets the bar between the load and write phases.
func ratio(s pipeline.Summary) float64 {
	switch s.Phase {
	case pipeline.PhaseAggregate, pipeline.PhaseWrite:
		return 1
	case pipeline.PhaseResolve:
		if s.TotalSeries == 0 {
			return 1
		}
		return float64(s.ProcessedSeries) / float64(s.TotalSeries)
	default:
		return 0
	}
}

// View renders the progress UI.
func (m *BuildProgressModel) View() string {
	if m.fatalErr != nil {
		return fmt.Sprintf("Error: %v\n", m.fatalErr)
	}

	s := m.summary
	header := m.theme.HeaderStyle().Width(m.width).Render("Building Series Library")

	colors := m.theme.Colors()
	phase := lipgloss.JoinHorizontal(lipgloss.Center,
		m.spinner.View()+" ",
		m.theme.BadgeStyle(phaseBadge(s)).Render(s.Phase),
		lipgloss.NewStyle().Foreground(colors.Accent).Bold(true).
			Render(fmt.Sprintf(" Active Workers: %d", s.ActiveWorkers)),
	)

	stats := []string{
		fmt.Sprintf("%s Playlists: %d (unavailable: %d)", m.theme.Icon("playlist"), s.Playlists, s.PlaylistsFailed),
		fmt.Sprintf("%s Episodes parsed: %d", m.theme.Icon("episode"), s.Episodes),
		fmt.Sprintf("%s Series: %d/%d", m.theme.Icon("series"), s.ProcessedSeries, s.TotalSeries),
		fmt.Sprintf("%s Resolved: %d", m.theme.Icon("success"), s.ResolvedSeries),
		fmt.Sprintf("%s Skipped: %d", m.theme.Icon("skip"), s.SkippedSeries),
		fmt.Sprintf("Max Worker Pool: %d workers", s.WorkerLimit),
	}
	if s.Done && s.Err == "" {
		stats = append(stats, fmt.Sprintf("%s Wrote %d series, %d episodes", m.theme.Icon("save"), s.OutputSeries, s.OutputEpisodes))
	}

	panel := m.theme.PanelStyle()
	panelWidth := max(m.width-panel.GetHorizontalFrameSize(), 0)
	blocks := []string{strings.Join(stats, "\n")}
	if skipped := m.renderSkipped(); skipped != "" {
		blocks = append(blocks, skipped)
	}

	statusText := "Resolving series identifiers... please wait"
	switch {
	case s.Canceled || m.canceled:
		statusText = "Cancelled, saving identifier cache"
	case s.Done:
		statusText = "Build complete"
	case s.LastSeries != "":
		statusText = s.LastSeries
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		phase,
		m.progress.ViewAs(ratio(s)),
		panel.Width(panelWidth).Render(strings.Join(blocks, "\n")),
		m.theme.StatusBarStyle().Width(m.width).Render(statusText),
	)
}

func phaseBadge(s pipeline.Summary) theme.BadgeKind {
	switch {
	case s.Err != "":
		return theme.BadgeError
	case s.Canceled:
		return theme.BadgeMuted
	case s.Done:
		return theme.BadgeSuccess
	default:
		return theme.BadgeInfo
	}
}

func (m *BuildProgressModel) renderSkipped() string {
	skipped := m.summary.Skipped
	if len(skipped) == 0 {
		return ""
	}
	start := max(len(skipped)-maxSkippedShown, 0)
	nameWidth := max(m.width-8, 10)

	lines := []string{fmt.Sprintf("Skipped series: %d", len(skipped))}
	for _, name := range skipped[start:] {
		lines = append(lines, "• "+runewidth.Truncate(name, nameWidth, "..."))
	}
	if start > 0 {
		lines = append(lines, fmt.Sprintf("... and %d more", start))
	}
	return lipgloss.NewStyle().Foreground(m.theme.Colors().Error).Render(strings.Join(lines, "\n"))
}

// Wait blocks until the build has finished, including the cache save that
// follows a cancellation.
func (m *BuildProgressModel) Wait() {
	if m.events == nil {
		return
	}
	for range m.events {
	}
}

// Stop cancels a build that is still running and waits for it to finish,
// so the identifier cache is saved however the program exited.
func (m *BuildProgressModel) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.Wait()
}

// Summary returns the last summary the model saw.
func (m *BuildProgressModel) Summary() pipeline.Summary {
	return m.summary
}

// Canceled reports whether the user interrupted the build.
func (m *BuildProgressModel) Canceled() bool {
	return m.canceled
}

// Err returns the error that stopped the build, if any.
func (m *BuildProgressModel) Err() error {
	return m.fatalErr
}
