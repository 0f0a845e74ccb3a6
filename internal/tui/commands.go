package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/newsdash/internal/dashboard"
	"github.com/mmcdole/newsdash/internal/domain"
)

// Command factories for async operations

// ListenStateCmd waits for the next dashboard snapshot. The model re-issues
// it after every StateMsg; it returns nil once the channel is closed.
func ListenStateCmd(ch <-chan dashboard.State) tea.Cmd {
	return func() tea.Msg {
		state, ok := <-ch
		if !ok {
			return nil
		}
		return StateMsg{State: state}
	}
}

// LoadMetricsCmd fetches the server's cache metrics
func LoadMetricsCmd(src MetricsSource) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		metrics, err := src.GetMetrics(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading cache metrics"}
		}
		return MetricsLoadedMsg{Metrics: metrics}
	}
}

// OpenArticleCmd opens an article in the browser
func OpenArticleCmd(opener Opener, article domain.Article) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Open(article.URL); err != nil {
			return ErrMsg{Err: err, Context: "opening article"}
		}
		return ArticleOpenedMsg{Title: article.Title}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
