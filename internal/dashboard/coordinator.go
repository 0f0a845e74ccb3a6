package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/newsdash/internal/domain"
	"github.com/mmcdole/newsdash/internal/metrics"
)

const (
	// DefaultRefreshInterval is the auto-refresh period
	DefaultRefreshInterval = 5 * time.Minute

	// DefaultPageSize is the number of articles requested per fetch
	DefaultPageSize = 6

	eventBuffer = 64
)

// ErrAlreadyStarted is returned by a second call to Start
var ErrAlreadyStarted = errors.New("coordinator already started")

type options struct {
	logger     *slog.Logger
	recorder   *metrics.Recorder
	observers  []Observer
	category   string
	categories []string
	pageSize   int
	interval   time.Duration
}

// Option configures a Coordinator
type Option func(*options)

func defaultOptions() options {
	return options{
		logger:     slog.Default(),
		category:   domain.DefaultCategory,
		categories: domain.DefaultCategories,
		pageSize:   DefaultPageSize,
		interval:   DefaultRefreshInterval,
	}
}

// WithLogger sets the operator log
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(recorder *metrics.Recorder) Option {
	return func(o *options) { o.recorder = recorder }
}

// WithObserver adds a state observer
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observers = append(o.observers, observer) }
}

// WithCategory sets the category selected at start
func WithCategory(category string) Option {
	return func(o *options) {
		if category != "" {
			o.category = category
		}
	}
}

// WithCategories sets the vocabulary used until the server list arrives
func WithCategories(categories []string) Option {
	return func(o *options) {
		if len(categories) > 0 {
			o.categories = categories
		}
	}
}

// WithPageSize sets the number of articles requested per fetch
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithRefreshInterval sets the auto-refresh period; zero disables it
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval >= 0 {
			o.interval = interval
		}
	}
}

// Loop events
type (
	startEvent    struct{}
	reloadEvent   struct{ origin Origin }
	categoryEvent struct{ category string }
	clearEvent    struct{ target string }
	fetchDone     struct{ completion Completion }
	categoriesDone struct {
		categories []string
		err        error
	}
	clearDone struct {
		ticket CacheClearTicket
		ack    *domain.RefreshAck
		err    error
	}
)

// Coordinator drives the dashboard: it owns the Reducer on a single loop
// goroutine, dispatches fetches and runs the refresh scheduler.
type Coordinator struct {
	repo       domain.NewsRepository
	dispatcher *Dispatcher
	opts       options

	reducer  *Reducer // loop goroutine only
	snapshot atomic.Pointer[State]
	events   chan any

	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *Scheduler
	started   bool
	stopped   bool

	wg sync.WaitGroup
}

// New creates a stopped coordinator over repo
func New(repo domain.NewsRepository, opts ...Option) *Coordinator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Coordinator{
		repo:       repo,
		dispatcher: NewDispatcher(repo, o.logger, o.recorder),
		opts:       o,
		reducer:    NewReducer(o.category, o.categories),
		events:     make(chan any, eventBuffer),
	}
	initial := c.reducer.State()
	c.snapshot.Store(&initial)
	return c
}

// Start begins the event loop, issues the first fetch and arms the refresh
// scheduler. If any step fails everything already started is torn down.
func (c *Coordinator) Start(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	loopCtx := c.ctx
	c.mu.Unlock()

	defer func() {
		if err != nil {
			c.Stop()
		}
	}()

	if err := context.Cause(loopCtx); err != nil {
		return fmt.Errorf("starting coordinator: %w", err)
	}

	c.wg.Add(1)
	go c.run(loopCtx)

	if !c.post(startEvent{}) {
		return fmt.Errorf("starting coordinator: %w", context.Cause(loopCtx))
	}

	if c.opts.interval > 0 {
		sched := NewScheduler(c.opts.interval, func() {
			c.post(reloadEvent{origin: OriginTick})
		})
		if err := sched.Start(loopCtx); err != nil {
			return fmt.Errorf("arming refresh scheduler: %w", err)
		}
		c.mu.Lock()
		c.scheduler = sched
		c.mu.Unlock()
	}

	c.opts.logger.Info("dashboard started",
		"category", c.opts.category,
		"page_size", c.opts.pageSize,
		"refresh_interval", c.opts.interval.String(),
	)
	return nil
}

// Stop disarms the scheduler, makes every outstanding completion inert and
// waits for all coordinator goroutines to exit. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	sched, cancel := c.scheduler, c.cancel
	c.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	cancel()
	c.wg.Wait()

	c.opts.logger.Info("dashboard stopped")
}

// Snapshot returns the latest published state
func (c *Coordinator) Snapshot() State {
	return c.snapshot.Load().Clone()
}

// LoadNews reloads the selected category
func (c *Coordinator) LoadNews() {
	c.post(reloadEvent{origin: OriginReload})
}

// ChangeCategory selects category and loads it. Selecting the current
// category does nothing.
func (c *Coordinator) ChangeCategory(category string) {
	c.post(categoryEvent{category: category})
}

// RefreshCache invalidates the server cache for category, or for every
// category when category is empty, then reloads on success.
func (c *Coordinator) RefreshCache(category string) {
	c.post(clearEvent{target: category})
}

// post hands ev to the loop. It reports false once the loop is gone.
func (c *Coordinator) post(ev any) bool {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	if ctx == nil {
		c.opts.logger.Debug("dashboard not started, dropping event", "event", fmt.Sprintf("%T", ev))
		return false
	}

	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Coordinator) run(ctx context.Context) {
	defer c.wg.Done()
	defer c.reducer.Invalidate()

	for {
		select {
		case ev := <-c.events:
			if ctx.Err() != nil {
				return
			}
			if c.handle(ctx, ev) {
				c.publish()
			}
		case <-ctx.Done():
			return
		}
	}
}

// handle applies one event and reports whether the state changed
func (c *Coordinator) handle(ctx context.Context, ev any) bool {
	switch ev := ev.(type) {
	case startEvent:
		c.async(func() {
			categories, err := c.repo.GetCategories(ctx)
			c.post(categoriesDone{categories: categories, err: err})
		})
		c.dispatch(ctx, c.reducer.Reload(OriginStart))
		return true

	case reloadEvent:
		c.dispatch(ctx, c.reducer.Reload(ev.origin))
		return true

	case categoryEvent:
		ticket, ok := c.reducer.ChangeCategory(ev.category)
		if !ok {
			c.opts.logger.Debug("category unchanged", "category", ev.category)
			return false
		}
		c.dispatch(ctx, ticket)
		return true

	case fetchDone:
		return c.complete(ev.completion)

	case categoriesDone:
		if ev.err != nil {
			c.opts.logger.Warn("failed to load categories, keeping defaults",
				"kind", domain.Classify(ev.err).String(), "error", ev.err)
			return false
		}
		return c.reducer.SetCategories(ev.categories)

	case clearEvent:
		ticket := c.reducer.BeginCacheClear(ev.target)
		c.opts.logger.Info("clearing server cache", "target", ticket.Target, "active", ticket.Active)
		c.async(func() {
			ack, err := c.repo.InvalidateCache(ctx, ticket.Target)
			c.post(clearDone{ticket: ticket, ack: ack, err: err})
		})
		return true

	case clearDone:
		if ev.err != nil {
			c.opts.recorder.CacheCleared(false)
			c.opts.recorder.Failed(domain.CacheClearFailure.String())
			c.opts.logger.Error("cache clear failed",
				"target", ev.ticket.Target,
				"kind", domain.CacheClearFailure.String(),
				"status", domain.StatusCode(ev.err),
				"error", ev.err,
			)
			c.reducer.FailCacheClear(ev.ticket)
			return true
		}
		c.opts.recorder.CacheCleared(true)
		c.dispatch(ctx, c.reducer.CompleteCacheClear(ev.ticket, ev.ack))
		return true
	}

	c.opts.logger.Warn("unknown dashboard event", "event", fmt.Sprintf("%T", ev))
	return false
}

// dispatch runs the fetch for t off the loop and posts its completion back
func (c *Coordinator) dispatch(ctx context.Context, t Ticket) {
	q := domain.Query{
		Category: t.Category,
		Page:     1,
		PageSize: c.opts.pageSize,
	}
	c.opts.recorder.Dispatched(t.Origin.String())
	c.opts.logger.Debug("dispatching fetch", "seq", t.Seq, "category", t.Category, "origin", t.Origin.String())

	c.async(func() {
		completion := c.dispatcher.Dispatch(ctx, t, q)
		c.post(fetchDone{completion: completion})
	})
}

func (c *Coordinator) complete(comp Completion) bool {
	if !c.reducer.Apply(comp) {
		c.opts.recorder.Completed(metrics.OutcomeStale)
		c.opts.logger.Debug("discarding stale completion",
			"seq", comp.Ticket.Seq,
			"category", comp.Ticket.Category,
			"pending", c.reducer.Pending(),
		)
		return false
	}

	if comp.Err != nil {
		c.opts.recorder.Completed(metrics.OutcomeFailed)
		return true
	}

	c.opts.recorder.Completed(metrics.OutcomeApplied)
	c.opts.recorder.Served(comp.Result.FromCache)
	return true
}

func (c *Coordinator) publish() {
	state := c.reducer.State()
	c.snapshot.Store(&state)
	for _, o := range c.opts.observers {
		o.OnState(state)
	}
}

func (c *Coordinator) async(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}
