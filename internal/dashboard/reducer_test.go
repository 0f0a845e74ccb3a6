package dashboard

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/newsdash/internal/domain"
)

func newTestReducer() *Reducer {
	r := NewReducer(domain.DefaultCategory, domain.DefaultCategories)
	r.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestReducer_InitialState(t *testing.T) {
	r := newTestReducer()
	s := r.State()

	assert.Equal(t, "technology", s.SelectedCategory)
	assert.Equal(t, domain.DefaultCategories, s.Categories)
	assert.Empty(t, s.Articles)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
}

func TestReducer_BeginFetchClearsErrorAndMarksLoading(t *testing.T) {
	r := newTestReducer()
	first := r.Reload(OriginStart)
	require.True(t, r.FailFetch(first, errors.New("boom")))
	require.Equal(t, domain.LoadFailedMessage, r.State().Error)

	second := r.Reload(OriginReload)

	s := r.State()
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.Greater(t, second.Seq, first.Seq)
	assert.Equal(t, second.Seq, r.Pending())
}

func TestReducer_CompleteFetchAppliesResult(t *testing.T) {
	r := newTestReducer()
	ticket := r.Reload(OriginStart)
	ttl := 90 * time.Second
	result := page("technology", 6, true)
	result.CacheTTL = &ttl

	require.True(t, r.CompleteFetch(ticket, result))

	s := r.State()
	assert.False(t, s.Loading)
	assert.Len(t, s.Articles, 6)
	assert.True(t, s.FromCache)
	require.NotNil(t, s.CacheTTL)
	assert.Equal(t, ttl, *s.CacheTTL)
	assert.Equal(t, 6, s.TotalResults)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), s.UpdatedAt)
}

func TestReducer_FailureKeepsArticles(t *testing.T) {
	r := newTestReducer()
	require.True(t, r.CompleteFetch(r.Reload(OriginStart), page("technology", 3, false)))

	ticket := r.Reload(OriginTick)
	require.True(t, r.FailFetch(ticket, &domain.StatusError{Code: 500}))

	s := r.State()
	assert.False(t, s.Loading)
	assert.Equal(t, domain.LoadFailedMessage, s.Error)
	assert.Len(t, s.Articles, 3)
}

func TestReducer_OnlyLatestCompletionApplies(t *testing.T) {
	r := newTestReducer()
	older := r.Reload(OriginReload)
	newer := r.Reload(OriginReload)

	require.True(t, r.CompleteFetch(newer, page("technology", 2, false)))
	assert.False(t, r.CompleteFetch(older, page("technology", 5, false)))
	assert.False(t, r.FailFetch(older, errors.New("late")))

	s := r.State()
	assert.Len(t, s.Articles, 2)
	assert.Empty(t, s.Error)
}

func TestReducer_CategoryChangeSupersedesInFlightFetch(t *testing.T) {
	r := newTestReducer()
	technology := r.Reload(OriginStart)

	sports, ok := r.ChangeCategory("sports")
	require.True(t, ok)
	assert.Equal(t, "sports", sports.Category)
	assert.Equal(t, "sports", r.State().SelectedCategory)

	require.True(t, r.CompleteFetch(sports, page("sports", 4, false)))
	assert.False(t, r.CompleteFetch(technology, page("technology", 6, false)))

	s := r.State()
	assert.Equal(t, "sports", s.SelectedCategory)
	for _, a := range s.Articles {
		assert.Equal(t, "sports", a.Category)
	}
}

func TestReducer_StaleCompletionKeepsLoading(t *testing.T) {
	r := newTestReducer()
	technology := r.Reload(OriginStart)
	_, ok := r.ChangeCategory("health")
	require.True(t, ok)

	assert.False(t, r.CompleteFetch(technology, page("technology", 6, false)))
	assert.True(t, r.State().Loading)
}

func TestReducer_ChangeToSameCategoryIsNoop(t *testing.T) {
	r := newTestReducer()
	before := r.Pending()

	_, ok := r.ChangeCategory("technology")

	assert.False(t, ok)
	assert.Equal(t, before, r.Pending())
	assert.False(t, r.State().Loading)
}

func TestReducer_ReloadAndTickKeepSelection(t *testing.T) {
	r := newTestReducer()
	_, ok := r.ChangeCategory("science")
	require.True(t, ok)

	for _, origin := range []Origin{OriginReload, OriginTick, OriginStart} {
		ticket := r.Reload(origin)
		assert.Equal(t, "science", ticket.Category)
		assert.Equal(t, "science", r.State().SelectedCategory)
	}
}

func TestReducer_CompletionMatchingSeqButNotCategoryIsDiscarded(t *testing.T) {
	r := newTestReducer()
	ticket := r.Reload(OriginReload)
	forged := Ticket{Seq: ticket.Seq, Category: "sports", Origin: OriginReload}

	assert.False(t, r.CompleteFetch(forged, page("sports", 1, false)))
	assert.True(t, r.State().Loading)
}

func TestReducer_ArrivalOrderNeverOverridesLatest(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := 0; round < 200; round++ {
		r := newTestReducer()
		n := 2 + rng.IntN(6)
		tickets := make([]Ticket, n)
		for i := range tickets {
			tickets[i] = r.Reload(OriginReload)
		}
		latest := tickets[n-1]

		rng.Shuffle(n, func(i, j int) { tickets[i], tickets[j] = tickets[j], tickets[i] })
		for _, ticket := range tickets {
			result := page("technology", int(ticket.Seq), false)
			applied := r.CompleteFetch(ticket, result)
			assert.Equal(t, ticket == latest, applied, "round %d seq %d", round, ticket.Seq)
		}

		assert.Len(t, r.State().Articles, int(latest.Seq))
		assert.False(t, r.State().Loading)
	}
}

func TestReducer_CacheClearReloadsCapturedCategory(t *testing.T) {
	r := newTestReducer()
	require.True(t, r.CompleteFetch(r.Reload(OriginStart), page("technology", 6, false)))

	req := r.BeginCacheClear("technology")
	assert.Equal(t, "technology", req.Active)

	_, ok := r.ChangeCategory("business")
	require.True(t, ok)

	ticket := r.CompleteCacheClear(req, &domain.RefreshAck{KeysDeleted: 3})

	assert.Equal(t, "technology", ticket.Category)
	assert.Equal(t, OriginCacheClear, ticket.Origin)
	s := r.State()
	assert.Equal(t, "technology", s.SelectedCategory)
	assert.True(t, s.Loading)
	assert.Equal(t, "Category 'technology' cache invalidated", s.CacheNotice)
}

func TestReducer_CacheClearNotice(t *testing.T) {
	tests := []struct {
		name   string
		target string
		ack    *domain.RefreshAck
		want   string
	}{
		{"server message wins", "sports", &domain.RefreshAck{Message: "Cleared 4 keys"}, "Cleared 4 keys"},
		{"single category", "sports", &domain.RefreshAck{}, "Category 'sports' cache invalidated"},
		{"all categories", "", nil, "All news cache invalidated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestReducer()
			r.CompleteCacheClear(r.BeginCacheClear(tt.target), tt.ack)
			assert.Equal(t, tt.want, r.State().CacheNotice)
		})
	}
}

func TestReducer_CacheClearFailureLeavesFetchStateAlone(t *testing.T) {
	r := newTestReducer()
	require.True(t, r.CompleteFetch(r.Reload(OriginStart), page("technology", 6, false)))
	pending := r.Pending()

	r.FailCacheClear(r.BeginCacheClear("technology"))

	s := r.State()
	assert.Equal(t, domain.CacheClearFailedMessage, s.CacheNotice)
	assert.Empty(t, s.Error)
	assert.False(t, s.Loading)
	assert.Len(t, s.Articles, 6)
	assert.Equal(t, pending, r.Pending())
}

func TestReducer_SetCategoriesIgnoresEmptyList(t *testing.T) {
	r := newTestReducer()

	assert.False(t, r.SetCategories(nil))
	assert.Equal(t, domain.DefaultCategories, r.State().Categories)

	assert.True(t, r.SetCategories([]string{"world", "technology"}))
	assert.Equal(t, []string{"world", "technology"}, r.State().Categories)
}

func TestReducer_InvalidateMakesOutstandingCompletionsInert(t *testing.T) {
	r := newTestReducer()
	ticket := r.Reload(OriginStart)

	r.Invalidate()

	assert.False(t, r.CompleteFetch(ticket, page("technology", 6, false)))
	assert.False(t, r.FailFetch(ticket, errors.New("late")))
	assert.Empty(t, r.State().Articles)
}

func TestState_CloneDoesNotAliasTTL(t *testing.T) {
	ttl := time.Minute
	s := State{CacheTTL: &ttl}

	c := s.Clone()
	*c.CacheTTL = time.Hour

	assert.Equal(t, time.Minute, *s.CacheTTL)
}
