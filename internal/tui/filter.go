package tui

import (
	"github.com/mmcdole/newsdash/internal/domain"
	"github.com/mmcdole/newsdash/internal/search"
)

// refilter recomputes the visible articles from the current snapshot and
// filter text, keeping the cursor in range
func (m *Model) refilter() {
	m.visible = search.FilterArticles(m.FilterInput.Value(), m.News.Articles)
	if m.Cursor >= len(m.visible) {
		m.Cursor = len(m.visible) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.ensureCursorVisible()
}

// clearFilter drops the filter text and shows every article again
func (m *Model) clearFilter() {
	m.FilterInput.Reset()
	m.FilterInput.Blur()
	m.refilter()
}

// isFiltered reports whether a filter is narrowing the list
func (m Model) isFiltered() bool {
	return m.FilterInput.Value() != ""
}

// selectedArticle returns the article under the cursor
func (m Model) selectedArticle() (domain.Article, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.visible) {
		return domain.Article{}, false
	}
	return m.visible[m.Cursor].Article, true
}
