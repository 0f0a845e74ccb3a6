package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/newsdash/internal/domain"
	"github.com/mmcdole/newsdash/internal/metrics"
)

// Dispatcher issues single news requests. It never touches dashboard state;
// the completion it returns is reduced by the caller.
type Dispatcher struct {
	repo     domain.NewsRepository
	logger   *slog.Logger
	recorder *metrics.Recorder
}

// NewDispatcher creates a dispatcher over repo
func NewDispatcher(repo domain.NewsRepository, logger *slog.Logger, recorder *metrics.Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{repo: repo, logger: logger, recorder: recorder}
}

// Dispatch performs one attempt of q and tags the outcome with t.
// There is no retry; every failure is returned in the completion.
func (d *Dispatcher) Dispatch(ctx context.Context, t Ticket, q domain.Query) Completion {
	start := time.Now()
	result, err := d.repo.GetNews(ctx, q)
	d.recorder.ObserveFetch(time.Since(start))

	if err == nil && result == nil {
		err = fmt.Errorf("%w: empty result", domain.ErrMalformedResponse)
	}
	if err != nil {
		kind := domain.Classify(err)
		d.recorder.Failed(kind.String())
		d.logger.Error("news fetch failed",
			"seq", t.Seq,
			"category", q.Category,
			"origin", t.Origin.String(),
			"kind", kind.String(),
			"status", domain.StatusCode(err),
			"error", err,
		)
		return Completion{Ticket: t, Err: err}
	}

	d.logger.Debug("news fetched",
		"seq", t.Seq,
		"category", q.Category,
		"articles", len(result.Articles),
		"from_cache", result.FromCache,
		"elapsed", time.Since(start),
	)
	return Completion{Ticket: t, Result: result}
}
