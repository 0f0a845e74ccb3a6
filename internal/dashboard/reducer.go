package dashboard

import (
	"fmt"
	"time"

	"github.com/mmcdole/newsdash/internal/domain"
)

// Reducer is the single owner of the dashboard State. It performs no I/O and
// is not safe for concurrent use; the Coordinator drives it from one goroutine.
type Reducer struct {
	state   State
	seq     uint64 // last issued sequence
	pending uint64 // sequence whose completion may mutate state
	now     func() time.Time
}

// NewReducer creates a reducer with category selected and nothing loaded
func NewReducer(category string, categories []string) *Reducer {
	return &Reducer{
		state: State{
			SelectedCategory: category,
			Categories:       append([]string(nil), categories...),
		},
		now: time.Now,
	}
}

// State returns a snapshot of the current state
func (r *Reducer) State() State {
	return r.state.Clone()
}

// Pending returns the sequence of the active fetch
func (r *Reducer) Pending() uint64 {
	return r.pending
}

// BeginFetch marks a new fetch as the active one. Only category changes and
// cache-clear reloads move the selection; reloads and ticks keep it.
func (r *Reducer) BeginFetch(category string, origin Origin) Ticket {
	r.seq++
	r.pending = r.seq
	r.state.Loading = true
	r.state.Error = ""
	if origin.selectsCategory() {
		r.state.SelectedCategory = category
	}
	return Ticket{Seq: r.seq, Category: category, Origin: origin}
}

// Reload begins a fetch of the selected category
func (r *Reducer) Reload(origin Origin) Ticket {
	return r.BeginFetch(r.state.SelectedCategory, origin)
}

// ChangeCategory selects category and begins fetching it.
// Selecting the current category is a no-op and returns false.
func (r *Reducer) ChangeCategory(category string) (Ticket, bool) {
	if category == r.state.SelectedCategory {
		return Ticket{}, false
	}
	return r.BeginFetch(category, OriginCategoryChange), true
}

// IsCurrent reports whether a completion for t may still mutate state
func (r *Reducer) IsCurrent(t Ticket) bool {
	return t.Seq == r.pending && t.Category == r.state.SelectedCategory
}

// CompleteFetch applies result if t is still the active fetch for the
// selected category. Superseded results are discarded and false is returned.
func (r *Reducer) CompleteFetch(t Ticket, result *domain.FetchResult) bool {
	if !r.IsCurrent(t) {
		return false
	}
	r.state.Articles = result.Articles
	r.state.FromCache = result.FromCache
	r.state.CacheTTL = result.CacheTTL
	r.state.TotalResults = result.TotalResults
	r.state.Loading = false
	r.state.UpdatedAt = r.now()
	return true
}

// FailFetch records a failure of the active fetch. Articles already on
// screen are kept. Superseded failures are discarded and false is returned.
func (r *Reducer) FailFetch(t Ticket, err error) bool {
	if t.Seq != r.pending {
		return false
	}
	r.state.Loading = false
	r.state.Error = domain.LoadFailedMessage
	return true
}

// Apply routes a dispatcher completion to CompleteFetch or FailFetch
func (r *Reducer) Apply(c Completion) bool {
	if c.Err != nil {
		return r.FailFetch(c.Ticket, c.Err)
	}
	return r.CompleteFetch(c.Ticket, c.Result)
}

// BeginCacheClear captures the selected category for the reload that follows
// a successful clear. An empty target invalidates every category.
func (r *Reducer) BeginCacheClear(target string) CacheClearTicket {
	r.state.CacheNotice = ""
	return CacheClearTicket{Target: target, Active: r.state.SelectedCategory}
}

// CompleteCacheClear records the acknowledgment and begins exactly one fetch
// of the category that was selected when the clear was requested.
func (r *Reducer) CompleteCacheClear(t CacheClearTicket, ack *domain.RefreshAck) Ticket {
	r.state.CacheNotice = cacheClearedNotice(t.Target, ack)
	return r.BeginFetch(t.Active, OriginCacheClear)
}

// FailCacheClear surfaces a failed clear without touching the articles,
// the fetch error or the loading flag.
func (r *Reducer) FailCacheClear(t CacheClearTicket) {
	r.state.CacheNotice = domain.CacheClearFailedMessage
}

// SetCategories replaces the category vocabulary. An empty list is ignored.
func (r *Reducer) SetCategories(categories []string) bool {
	if len(categories) == 0 {
		return false
	}
	r.state.Categories = append([]string(nil), categories...)
	return true
}

// Invalidate permanently advances the sequence so that no outstanding
// completion can match again
func (r *Reducer) Invalidate() {
	r.seq++
	r.pending = r.seq
}

func cacheClearedNotice(target string, ack *domain.RefreshAck) string {
	if ack != nil && ack.Message != "" {
		return ack.Message
	}
	if target == "" {
		return "All news cache invalidated"
	}
	return fmt.Sprintf("Category '%s' cache invalidated", target)
}
