package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/newsdash/internal/search"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.State = StateBrowsing
		}
		return m, nil

	case StateMetrics:
		switch {
		case key.Matches(msg, Keys.Escape, Keys.Metrics, Keys.Quit):
			m.State = StateBrowsing
		case key.Matches(msg, Keys.Reload):
			cmd := m.loadMetrics()
			return m, cmd
		}
		return m, nil

	case StateFiltering:
		return m.handleFilterKey(msg)

	case StateJumping:
		return m.handleJumpKey(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.isFiltered() {
			m.clearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.State = StateFiltering
		focus := m.FilterInput.Focus()
		return m, tea.Batch(focus, textinput.Blink)

	case key.Matches(msg, Keys.Jump):
		m.State = StateJumping
		m.JumpInput.Reset()
		focus := m.JumpInput.Focus()
		return m, tea.Batch(focus, textinput.Blink)

	case key.Matches(msg, Keys.Metrics):
		if m.MetricsSrc == nil {
			return m, nil
		}
		m.State = StateMetrics
		cmd := m.loadMetrics()
		return m, cmd

	case key.Matches(msg, Keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, Keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, Keys.Home):
		m.moveCursor(-len(m.visible))
		return m, nil

	case key.Matches(msg, Keys.End):
		m.moveCursor(len(m.visible))
		return m, nil

	case key.Matches(msg, Keys.PrevCategory):
		m.cycleCategory(-1)
		return m, nil

	case key.Matches(msg, Keys.NextCategory):
		m.cycleCategory(1)
		return m, nil

	case key.Matches(msg, Keys.Open):
		article, ok := m.selectedArticle()
		if !ok || m.Opener == nil {
			return m, nil
		}
		return m, OpenArticleCmd(m.Opener, article)

	case key.Matches(msg, Keys.Reload):
		m.Dashboard.LoadNews()
		return m, nil

	case key.Matches(msg, Keys.ClearCache):
		m.Dashboard.RefreshCache(m.News.SelectedCategory)
		return m, nil

	case key.Matches(msg, Keys.ClearAll):
		m.Dashboard.RefreshCache("")
		return m, nil
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.State = StateBrowsing
		m.clearFilter()
		return m, nil
	case tea.KeyEnter:
		m.State = StateBrowsing
		m.FilterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.FilterInput, cmd = m.FilterInput.Update(msg)
	m.Cursor = 0
	m.Offset = 0
	m.refilter()
	return m, cmd
}

func (m Model) handleJumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.State = StateBrowsing
		m.JumpInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.State = StateBrowsing
		m.JumpInput.Blur()
		category := search.ResolveCategory(m.JumpInput.Value(), m.News.Categories)
		if category == "" {
			return m, nil
		}
		m.Dashboard.ChangeCategory(category)
		return m, func() tea.Msg {
			return StatusMsg{Message: "Category: " + category}
		}
	}

	var cmd tea.Cmd
	m.JumpInput, cmd = m.JumpInput.Update(msg)
	return m, cmd
}

// cycleCategory asks the coordinator for the neighbouring category. The
// selection moves when the resulting snapshot arrives.
func (m *Model) cycleCategory(delta int) {
	categories := m.News.Categories
	if len(categories) == 0 {
		return
	}

	current := -1
	for i, c := range categories {
		if c == m.News.SelectedCategory {
			current = i
			break
		}
	}

	next := (current + delta + len(categories)) % len(categories)
	if current < 0 {
		next = 0
	}
	m.Dashboard.ChangeCategory(categories[next])
}

func (m *Model) loadMetrics() tea.Cmd {
	m.MetricsLoading = true
	return LoadMetricsCmd(m.MetricsSrc)
}
