// Package dashboard coordinates when news is fetched and which response is
// allowed to reach the screen.
//
// A Coordinator owns one event loop goroutine. User actions, refresh ticks and
// request completions are all funnelled onto that loop, where a Reducer applies
// them to the dashboard State one at a time. Requests run concurrently; each
// carries the sequence number it was issued with, and only the completion
// matching the latest issued sequence may change what is displayed.
package dashboard

import (
	"time"

	"github.com/mmcdole/newsdash/internal/domain"
)

// Origin records what triggered a fetch
type Origin int

const (
	OriginStart          Origin = iota // first fetch on Start
	OriginReload                       // manual reload
	OriginTick                         // refresh scheduler
	OriginCategoryChange               // user picked another category
	OriginCacheClear                   // reload after a successful cache clear
)

func (o Origin) String() string {
	switch o {
	case OriginStart:
		return "start"
	case OriginReload:
		return "reload"
	case OriginTick:
		return "tick"
	case OriginCategoryChange:
		return "category"
	case OriginCacheClear:
		return "cache_clear"
	default:
		return "unknown"
	}
}

// selectsCategory reports whether a fetch of this origin moves the selection
func (o Origin) selectsCategory() bool {
	return o == OriginCategoryChange || o == OriginCacheClear
}

// Ticket tags one dispatched fetch
type Ticket struct {
	Seq      uint64
	Category string
	Origin   Origin
}

// CacheClearTicket tags one cache invalidation request
type CacheClearTicket struct {
	Target string // category to invalidate, empty for all
	Active string // category selected when the clear was requested
}

// Completion is the result/failure variant produced by the Dispatcher
type Completion struct {
	Ticket Ticket
	Result *domain.FetchResult
	Err    error
}

// State is the dashboard snapshot handed to the presentation layer.
// Slices are shared between snapshots and must not be modified.
type State struct {
	SelectedCategory string
	Categories       []string
	Articles         []domain.Article
	Loading          bool
	Error            string // user-facing; empty when there is none
	FromCache        bool
	CacheTTL         *time.Duration
	TotalResults     int
	CacheNotice      string    // outcome of the last cache clear
	UpdatedAt        time.Time // when the displayed articles arrived
}

// Clone returns a copy of s that does not alias its optional fields
func (s State) Clone() State {
	if s.CacheTTL != nil {
		ttl := *s.CacheTTL
		s.CacheTTL = &ttl
	}
	return s
}
