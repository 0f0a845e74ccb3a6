package tui

import (
	"github.com/mmcdole/newsdash/internal/dashboard"
	"github.com/mmcdole/newsdash/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// StateMsg carries a dashboard snapshot published by the coordinator
type StateMsg struct {
	State dashboard.State
}

// MetricsLoadedMsg signals that cache metrics have been fetched
type MetricsLoadedMsg struct {
	Metrics *domain.CacheMetrics
}

// ArticleOpenedMsg signals that the browser was launched
type ArticleOpenedMsg struct {
	Title string
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
