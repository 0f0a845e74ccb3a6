package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/newsdash/internal/domain"
)

const waitTimeout = 2 * time.Second

type reply struct {
	result *domain.FetchResult
	err    error
}

// call is one GetNews invocation held open until the test answers it
type call struct {
	query domain.Query
	reply chan reply
}

func (c *call) respond(result *domain.FetchResult) {
	c.reply <- reply{result: result}
}

func (c *call) fail(err error) {
	c.reply <- reply{err: err}
}

// gatedRepo hands every GetNews call to the test, which decides when and how
// it completes. Categories and cache invalidation answer immediately.
type gatedRepo struct {
	calls chan *call

	categories    []string
	categoriesErr error
	clearErr      error

	mu          sync.Mutex
	invalidated []string
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{calls: make(chan *call, 16)}
}

func (r *gatedRepo) GetNews(ctx context.Context, q domain.Query) (*domain.FetchResult, error) {
	c := &call{query: q, reply: make(chan reply, 1)}
	select {
	case r.calls <- c:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rep := <-c.reply:
		return rep.result, rep.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, ctx.Err())
	}
}

func (r *gatedRepo) GetCategories(ctx context.Context) ([]string, error) {
	return r.categories, r.categoriesErr
}

func (r *gatedRepo) GetMetrics(ctx context.Context) (*domain.CacheMetrics, error) {
	return &domain.CacheMetrics{}, nil
}

func (r *gatedRepo) InvalidateCache(ctx context.Context, category string) (*domain.RefreshAck, error) {
	r.mu.Lock()
	r.invalidated = append(r.invalidated, category)
	r.mu.Unlock()
	if r.clearErr != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheClear, r.clearErr)
	}
	return &domain.RefreshAck{}, nil
}

func (r *gatedRepo) invalidations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.invalidated...)
}

// next waits for the next GetNews call
func (r *gatedRepo) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-r.calls:
		return c
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for a news request")
		return nil
	}
}

// expectNoCall fails if a GetNews call arrives within d
func (r *gatedRepo) expectNoCall(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case c := <-r.calls:
		t.Fatalf("unexpected news request for %q", c.query.Category)
	case <-time.After(d):
	}
}

func articles(category string, n int) []domain.Article {
	out := make([]domain.Article, n)
	for i := range out {
		id := fmt.Sprintf("%s-%d", category, i+1)
		out[i] = domain.Article{
			ID:       id,
			Title:    "Story " + id,
			URL:      "https://example.com/" + id,
			Source:   "Wire",
			Category: category,
		}
	}
	return out
}

func page(category string, n int, fromCache bool) *domain.FetchResult {
	return &domain.FetchResult{
		Articles:     articles(category, n),
		TotalResults: n,
		FromCache:    fromCache,
		Category:     category,
	}
}

// waitState reads published snapshots until one satisfies cond
func waitState(t *testing.T, obs *ChannelObserver, cond func(State) bool) State {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case s := <-obs.C():
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for dashboard state")
			return State{}
		}
	}
}

func settled(s State) bool { return !s.Loading }
