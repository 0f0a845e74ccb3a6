package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/newsdash/internal/dashboard"
	"github.com/mmcdole/newsdash/internal/domain"
	"github.com/mmcdole/newsdash/internal/search"
	"github.com/mmcdole/newsdash/internal/tui/styles"
)

// Dashboard is the coordinator surface the TUI drives
type Dashboard interface {
	Snapshot() dashboard.State
	LoadNews()
	ChangeCategory(category string)
	RefreshCache(category string)
}

// MetricsSource provides the server's cache statistics
type MetricsSource interface {
	GetMetrics(ctx context.Context) (*domain.CacheMetrics, error)
}

// Opener launches article links
type Opener interface {
	Open(rawURL string) error
}

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateFiltering
	StateJumping
	StateHelp
	StateMetrics
)

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	Dashboard  Dashboard
	MetricsSrc MetricsSource
	Opener     Opener
	updates    <-chan dashboard.State

	// Data
	News           dashboard.State
	Metrics        *domain.CacheMetrics
	MetricsLoading bool

	// List state
	Cursor  int
	Offset  int
	visible []search.Result

	// UI components
	FilterInput textinput.Model
	JumpInput   textinput.Model
	Spinner     spinner.Model
	Help        help.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool

	now func() time.Time
}

// NewModel creates a new application model. updates delivers coordinator
// snapshots; metrics and opener may be nil.
func NewModel(d Dashboard, updates <-chan dashboard.State, metrics MetricsSource, opener Opener) Model {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter headlines"

	jump := textinput.New()
	jump.Prompt = "category: "
	jump.Placeholder = "tech, sci, ..."

	h := help.New()
	h.Styles.ShortKey = styles.HelpKeyStyle
	h.Styles.ShortDesc = styles.HelpDescStyle
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.AccentStyle

	m := Model{
		State:       StateBrowsing,
		Dashboard:   d,
		MetricsSrc:  metrics,
		Opener:      opener,
		updates:     updates,
		News:        d.Snapshot(),
		FilterInput: filter,
		JumpInput:   jump,
		Spinner:     spin,
		Help:        h,
		now:         time.Now,
	}
	m.refilter()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenStateCmd(m.updates),
		m.Spinner.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width
		m.Ready = true
		m.ensureCursorVisible()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case StateMsg:
		m.applyState(msg.State)
		return m, ListenStateCmd(m.updates)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case MetricsLoadedMsg:
		m.Metrics = msg.Metrics
		m.MetricsLoading = false
		return m, nil

	case ArticleOpenedMsg:
		m.StatusMsg = "Opened: " + msg.Title
		m.StatusIsErr = false
		return m, ClearStatusCmd(3 * time.Second)

	case ErrMsg:
		m.MetricsLoading = false
		slog.Error("tui operation failed", "context", msg.Context, "error", msg.Err)
		m.StatusMsg = "Failed " + msg.Context + ". See the log for details."
		m.StatusIsErr = true
		return m, ClearStatusCmd(5 * time.Second)

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		return m, ClearStatusCmd(3 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	// Cursor blink and other input plumbing
	var cmd tea.Cmd
	switch m.State {
	case StateFiltering:
		m.FilterInput, cmd = m.FilterInput.Update(msg)
	case StateJumping:
		m.JumpInput, cmd = m.JumpInput.Update(msg)
	}
	return m, cmd
}

// applyState replaces the displayed snapshot. The cursor returns to the top
// when the category changes.
func (m *Model) applyState(state dashboard.State) {
	if state.SelectedCategory != m.News.SelectedCategory {
		m.Cursor = 0
		m.Offset = 0
	}
	m.News = state
	m.refilter()
}

// SelectedCategory returns the category the coordinator has selected
func (m Model) SelectedCategory() string {
	return m.News.SelectedCategory
}
