package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/newsdash/internal/dashboard"
	"github.com/mmcdole/newsdash/internal/domain"
	"github.com/mmcdole/newsdash/internal/search"
	"github.com/mmcdole/newsdash/internal/tui/styles"
)

// categoryIcons decorates the default vocabulary in the tab bar
var categoryIcons = map[string]string{
	"technology":    "💻",
	"business":      "💼",
	"science":       "🔬",
	"health":        "🏥",
	"sports":        "⚽",
	"entertainment": "🎬",
}

// categoryIcon returns the icon for category, or a newspaper for unknown ones
func categoryIcon(category string) string {
	if icon, ok := categoryIcons[category]; ok {
		return icon
	}
	return "📰"
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	var body string
	switch m.State {
	case StateHelp:
		body = m.renderHelp()
	case StateMetrics:
		body = m.renderMetrics()
	default:
		body = m.renderList()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderStatus(),
		"",
		body,
		"",
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("newsdash")
	if m.News.TotalResults > 0 {
		title += styles.SubtitleStyle.Render(fmt.Sprintf("  %d articles", m.News.TotalResults))
	}

	tabs := make([]string, 0, len(m.News.Categories))
	for _, c := range m.News.Categories {
		label := categoryIcon(c) + " " + c
		if c == m.News.SelectedCategory {
			tabs = append(tabs, styles.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, styles.TabStyle.Render(label))
		}
	}

	return styles.HeaderStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	))
}

// renderStatus shows loading, the fetch error, cache provenance and the
// result of the last cache clear
func (m Model) renderStatus() string {
	var parts []string

	switch {
	case m.News.Loading:
		parts = append(parts, m.Spinner.View()+" Loading news...")
	case m.News.Error != "":
		parts = append(parts, styles.ErrorStyle.Render(m.News.Error))
	}

	if !m.News.UpdatedAt.IsZero() {
		parts = append(parts, cacheBadge(m.News, m.now()))
		parts = append(parts, styles.DimStyle.Render("updated "+domain.TimeAgo(m.now(), m.News.UpdatedAt)))
	}

	if m.News.CacheNotice != "" {
		if m.News.CacheNotice == domain.CacheClearFailedMessage {
			parts = append(parts, styles.ErrorStyle.Render(m.News.CacheNotice))
		} else {
			parts = append(parts, styles.SuccessStyle.Render(m.News.CacheNotice))
		}
	}

	return styles.StatusBarStyle.Render(strings.Join(parts, "  "))
}

// cacheBadge renders whether the displayed articles came from the server cache.
// The TTL counts down from UpdatedAt and is dropped once it has run out.
func cacheBadge(s dashboard.State, now time.Time) string {
	if !s.FromCache {
		return styles.LiveBadgeStyle.Render("live")
	}
	label := "cached"
	if s.CacheTTL != nil {
		if left := *s.CacheTTL - now.Sub(s.UpdatedAt); left > 0 {
			label += " · " + formatTTL(left) + " left"
		}
	}
	return styles.CachedBadgeStyle.Render(label)
}

func (m Model) renderList() string {
	width := m.Width - 2
	if width < 20 {
		width = 20
	}

	if len(m.visible) == 0 {
		msg := "No articles found"
		switch {
		case m.News.Loading:
			msg = ""
		case m.isFiltered():
			msg = "No headlines match " + fmt.Sprintf("%q", m.FilterInput.Value())
		}
		return lipgloss.Place(width, m.listHeight(), lipgloss.Center, lipgloss.Center, styles.DimStyle.Render(msg))
	}

	end := m.Offset + m.pageSize()
	if end > len(m.visible) {
		end = len(m.visible)
	}

	rows := make([]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		rows = append(rows, m.renderItem(m.visible[i], i == m.Cursor, width))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderItem(r search.Result, selected bool, width int) string {
	a := r.Article

	var title string
	if selected {
		title = styles.SelectedItemStyle.Render("> " + truncate(a.Title, width-4))
	} else {
		title = styles.NormalItemStyle.Render("  " + highlight(a.Title, r.MatchedIndexes, width-4))
	}

	meta := a.Byline()
	if !a.PublishedAt.IsZero() {
		meta += " · " + domain.TimeAgo(m.now(), a.PublishedAt)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		styles.ItemMetaStyle.Render("  "+truncate(meta, width-4)),
		styles.ItemDescStyle.Render("  "+truncate(a.Description, width-4)),
	)
}

// highlight truncates title to n runes like truncate and marks the
// fuzzy-matched rune positions that survive the cut
func highlight(title string, matched []int, n int) string {
	if len(matched) == 0 {
		return truncate(title, n)
	}
	if n <= 0 {
		return ""
	}

	runes := []rune(title)
	keep, suffix := len(runes), ""
	if len(runes) > n {
		keep = n
		if n > 3 {
			keep, suffix = n-3, "..."
		}
	}

	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	var b strings.Builder
	for i, r := range runes[:keep] {
		if set[i] {
			b.WriteString(styles.MatchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteString(suffix)
	return b.String()
}

func (m Model) renderMetrics() string {
	var content string
	switch {
	case m.MetricsLoading && m.Metrics == nil:
		content = m.Spinner.View() + " Loading metrics..."
	case m.Metrics == nil:
		content = styles.DimStyle.Render("No metrics available")
	default:
		mt := m.Metrics
		content = strings.Join([]string{
			fmt.Sprintf("Hits            %d", mt.Hits),
			fmt.Sprintf("Misses          %d", mt.Misses),
			fmt.Sprintf("Total requests  %d", mt.TotalRequests),
			fmt.Sprintf("Hit rate        %.1f%%", mt.HitRatePercent),
		}, "\n")
	}

	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Cache metrics"),
		content,
		"",
		styles.DimStyle.Render("r refresh · esc close"),
	))
}

func (m Model) renderHelp() string {
	h := m.Help
	h.ShowAll = true
	return styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Keys"),
		h.View(Keys),
	))
}

func (m Model) renderFooter() string {
	switch m.State {
	case StateFiltering:
		return m.FilterInput.View()
	case StateJumping:
		return m.JumpInput.View()
	}

	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.ErrorStyle.Render(m.StatusMsg)
		}
		return styles.SuccessStyle.Render(m.StatusMsg)
	}

	if m.isFiltered() {
		return styles.HighlightStyle.Render("filter: "+m.FilterInput.Value()) + "  " + m.Help.View(Keys)
	}
	return m.Help.View(Keys)
}

// formatTTL renders a cache lifetime compactly, e.g. "45s", "2m", "1h5m"
func formatTTL(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		h := int(d.Hours())
		if mins := int(d.Minutes()) % 60; mins > 0 {
			return fmt.Sprintf("%dh%dm", h, mins)
		}
		return fmt.Sprintf("%dh", h)
	}
}

// truncate shortens s to n runes, ending in "..." when cut
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
