package domain

import (
	"fmt"
	"time"
)

// DefaultCategories is the client-known category vocabulary. The server's
// /categories list is authoritative when it can be loaded.
var DefaultCategories = []string{
	"technology",
	"business",
	"science",
	"health",
	"sports",
	"entertainment",
}

// DefaultCategory is the category shown when nothing else is configured
const DefaultCategory = "technology"

// Article represents a single news article served by the news API
type Article struct {
	ID          string    // Server-assigned identifier
	Title       string    // Headline
	Description string    // Short summary (may be empty)
	Content     string    // Truncated body (may be empty)
	URL         string    // Original article URL
	ImageURL    string    // Lead image (may be empty)
	PublishedAt time.Time // Publication time
	Source      string    // Publisher name
	Author      string    // Byline (may be empty)
	Category    string    // Category the article was requested under
}

// Byline returns "Source · Author", or just the source when there is no author
func (a Article) Byline() string {
	if a.Author == "" {
		return a.Source
	}
	return fmt.Sprintf("%s · %s", a.Source, a.Author)
}

// TimeAgo renders how long before now t was, e.g. "just now", "5m ago", "2d ago"
func TimeAgo(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// Query identifies one page of one category
type Query struct {
	Category     string
	Page         int
	PageSize     int
	ForceRefresh bool
}

// FetchResult is the outcome of one successful news request.
// A newer result replaces an older one entirely; results are never merged.
type FetchResult struct {
	Articles     []Article
	TotalResults int
	FromCache    bool           // Served from the API's cache rather than upstream
	CacheTTL     *time.Duration // Remaining server cache lifetime, nil when unknown
	Category     string         // Category echoed back by the server
}

// CacheMetrics reports the API's cache effectiveness
type CacheMetrics struct {
	Hits           int64
	Misses         int64
	TotalRequests  int64
	HitRatePercent float64
}

// RefreshAck acknowledges a cache invalidation request
type RefreshAck struct {
	Message     string
	KeysDeleted int
}
