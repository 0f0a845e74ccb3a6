package domain

import "context"

// NewsRepository provides access to the news aggregation API
type NewsRepository interface {
	// GetNews returns one page of articles for a category.
	// The query is forwarded as-is; unknown categories are the server's call.
	GetNews(ctx context.Context, q Query) (*FetchResult, error)

	// GetCategories returns the server's category list
	GetCategories(ctx context.Context) ([]string, error)

	// GetMetrics returns the server's cache hit/miss counters
	GetMetrics(ctx context.Context) (*CacheMetrics, error)

	// InvalidateCache drops the server cache for one category, or for all
	// categories when category is empty
	InvalidateCache(ctx context.Context, category string) (*RefreshAck, error)
}
