package tui

// Vertical layout
const (
	HeaderHeight = 2 // title + category tabs
	StatusHeight = 1
	FooterHeight = 1
	ItemHeight   = 3 // title, byline, description

	MinListHeight = ItemHeight
)

// listHeight returns the rows available to the article list
func (m Model) listHeight() int {
	h := m.Height - HeaderHeight - StatusHeight - FooterHeight - 2 // blank separators
	if h < MinListHeight {
		return MinListHeight
	}
	return h
}

// pageSize returns how many articles fit on screen
func (m Model) pageSize() int {
	n := m.listHeight() / ItemHeight
	if n < 1 {
		return 1
	}
	return n
}

// ensureCursorVisible scrolls the list so the cursor is on screen
func (m *Model) ensureCursorVisible() {
	page := m.pageSize()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+page {
		m.Offset = m.Cursor - page + 1
	}
	if maxOffset := len(m.visible) - page; m.Offset > maxOffset {
		m.Offset = maxOffset
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}

// moveCursor moves the cursor by delta, clamped to the list
func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	if m.Cursor >= len(m.visible) {
		m.Cursor = len(m.visible) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.ensureCursorVisible()
}
