package tui

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/newsdash/internal/dashboard"
	"github.com/mmcdole/newsdash/internal/domain"
)

// fakeDashboard records the actions the model asks for
type fakeDashboard struct {
	mu       sync.Mutex
	state    dashboard.State
	loads    int
	changes  []string
	refreshs []string
}

func (f *fakeDashboard) Snapshot() dashboard.State { return f.state }

func (f *fakeDashboard) LoadNews() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
}

func (f *fakeDashboard) ChangeCategory(category string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, category)
}

func (f *fakeDashboard) RefreshCache(category string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshs = append(f.refreshs, category)
}

type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) Open(rawURL string) error {
	o.opened = append(o.opened, rawURL)
	return o.err
}

func testState() dashboard.State {
	return dashboard.State{
		SelectedCategory: "technology",
		Categories:       append([]string(nil), domain.DefaultCategories...),
		Articles: []domain.Article{
			{ID: "1", Title: "Rust 2.0 released", URL: "https://example.com/rust", Source: "Wire"},
			{ID: "2", Title: "Go generics in practice", URL: "https://example.com/go", Source: "Verge"},
			{ID: "3", Title: "Chip shortage eases", URL: "https://example.com/chips", Source: "Reuters"},
		},
		TotalResults: 3,
	}
}

func newTestModel(t *testing.T) (Model, *fakeDashboard) {
	t.Helper()
	d := &fakeDashboard{state: testState()}
	m := NewModel(d, nil, nil, &fakeOpener{})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), d
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestNewModel_ShowsSnapshot(t *testing.T) {
	m, _ := newTestModel(t)

	assert.True(t, m.Ready)
	assert.Equal(t, "technology", m.SelectedCategory())
	assert.Len(t, m.visible, 3)
	assert.Equal(t, 0, m.Cursor)
}

func TestKeys_ReloadAndCacheClear(t *testing.T) {
	m, d := newTestModel(t)

	press(t, m, runes("r"), runes("c"), runes("C"))

	assert.Equal(t, 1, d.loads)
	assert.Equal(t, []string{"technology", ""}, d.refreshs)
}

func TestKeys_CycleCategory(t *testing.T) {
	m, d := newTestModel(t)

	press(t, m, runes("l"))
	press(t, m, runes("h"))

	// technology is the first default category, so going back wraps
	assert.Equal(t, []string{"business", "entertainment"}, d.changes)
}

func TestKeys_CycleCategoryUnknownSelection(t *testing.T) {
	m, d := newTestModel(t)
	m.News.SelectedCategory = "weather"

	press(t, m, runes("l"))

	assert.Equal(t, []string{domain.DefaultCategories[0]}, d.changes)
}

func TestKeys_CursorMovement(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("j"), runes("j"), runes("j"))
	assert.Equal(t, 2, m.Cursor)

	m = press(t, m, runes("k"))
	assert.Equal(t, 1, m.Cursor)

	m = press(t, m, runes("G"))
	assert.Equal(t, 2, m.Cursor)

	m = press(t, m, runes("g"))
	assert.Equal(t, 0, m.Cursor)
}

func TestKeys_FilterNarrowsList(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("/"))
	require.Equal(t, StateFiltering, m.State)

	m = press(t, m, runes("r"), runes("u"), runes("s"), runes("t"))
	require.Len(t, m.visible, 1)
	assert.Equal(t, "Rust 2.0 released", m.visible[0].Article.Title)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, StateBrowsing, m.State)
	assert.True(t, m.isFiltered())
	assert.Len(t, m.visible, 1)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.isFiltered())
	assert.Len(t, m.visible, 3)
}

func TestKeys_FilterEscapeRestores(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("/"), runes("z"), runes("z"), runes("z"))
	assert.Empty(t, m.visible)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateBrowsing, m.State)
	assert.Len(t, m.visible, 3)
}

func TestKeys_JumpResolvesCategory(t *testing.T) {
	m, d := newTestModel(t)

	m = press(t, m, runes(":"))
	require.Equal(t, StateJumping, m.State)

	m = press(t, m, runes("s"), runes("p"), runes("o"))
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Equal(t, StateBrowsing, m.State)
	assert.Equal(t, []string{"sports"}, d.changes)
	require.NotNil(t, cmd)
	assert.Equal(t, StatusMsg{Message: "Category: sports"}, cmd())
}

func TestKeys_JumpEmptyIsIgnored(t *testing.T) {
	m, d := newTestModel(t)

	press(t, m, runes(":"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, d.changes)
}

func TestKeys_OpenArticle(t *testing.T) {
	m, _ := newTestModel(t)
	opener := m.Opener.(*fakeOpener)

	m = press(t, m, runes("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, ArticleOpenedMsg{Title: "Go generics in practice"}, cmd())
	assert.Equal(t, []string{"https://example.com/go"}, opener.opened)
}

func TestKeys_OpenArticleFailure(t *testing.T) {
	m, _ := newTestModel(t)
	m.Opener = &fakeOpener{err: errors.New("no browser")}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(ErrMsg)
	require.True(t, ok)
	assert.Equal(t, "opening article: no browser", msg.Error())
}

func TestKeys_HelpToggles(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("?"))
	assert.Equal(t, StateHelp, m.State)

	m = press(t, m, runes("?"))
	assert.Equal(t, StateBrowsing, m.State)
}

func TestKeys_MetricsNeedsSource(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("m"))
	assert.Equal(t, StateBrowsing, m.State)
}

func TestStateMsg_ResetsCursorOnCategoryChange(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, runes("j"), runes("j"))
	require.Equal(t, 2, m.Cursor)

	same := testState()
	same.Loading = true
	m = press(t, m, StateMsg{State: same})
	assert.Equal(t, 2, m.Cursor, "same category keeps the cursor")

	sports := testState()
	sports.SelectedCategory = "sports"
	sports.Articles = sports.Articles[:1]
	m = press(t, m, StateMsg{State: sports})

	assert.Equal(t, 0, m.Cursor)
	assert.Equal(t, "sports", m.SelectedCategory())
	assert.Len(t, m.visible, 1)
}

func TestStateMsg_ClampsCursor(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, runes("G"))

	shorter := testState()
	shorter.Articles = shorter.Articles[:1]
	m = press(t, m, StateMsg{State: shorter})

	assert.Equal(t, 0, m.Cursor)
}

func TestListenStateCmd(t *testing.T) {
	ch := make(chan dashboard.State, 1)
	ch <- testState()

	msg := ListenStateCmd(ch)()
	assert.Equal(t, StateMsg{State: testState()}, msg)

	close(ch)
	assert.Nil(t, ListenStateCmd(ch)())
}

func TestStatusMessages(t *testing.T) {
	m, _ := newTestModel(t)

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	m = press(t, m, ErrMsg{Err: errors.New("dial tcp 10.0.0.7:8000: connection refused"), Context: "loading cache metrics"})
	assert.Equal(t, "Failed loading cache metrics. See the log for details.", m.StatusMsg)
	assert.NotContains(t, m.StatusMsg, "10.0.0.7")
	assert.True(t, m.StatusIsErr)
	assert.Contains(t, logs.String(), "connection refused")
	assert.Contains(t, logs.String(), "loading cache metrics")

	m = press(t, m, ClearStatusMsg{})
	assert.Empty(t, m.StatusMsg)
	assert.False(t, m.StatusIsErr)
}

func TestView_RendersHeadlines(t *testing.T) {
	m, _ := newTestModel(t)
	m.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

	view := m.View()

	assert.Contains(t, view, "newsdash")
	assert.Contains(t, view, "technology")
	assert.Contains(t, view, "Rust 2.0 released")
	assert.Contains(t, view, "Chip shortage eases")
}

func TestView_ShowsErrorAndNotice(t *testing.T) {
	m, _ := newTestModel(t)
	st := testState()
	st.Error = domain.LoadFailedMessage
	st.CacheNotice = domain.CacheClearFailedMessage
	m = press(t, m, StateMsg{State: st})

	view := m.View()

	assert.Contains(t, view, domain.LoadFailedMessage)
	assert.Contains(t, view, domain.CacheClearFailedMessage)
}

func TestView_NotReady(t *testing.T) {
	d := &fakeDashboard{state: testState()}
	m := NewModel(d, nil, nil, nil)

	assert.Equal(t, "Loading...", m.View())
}
