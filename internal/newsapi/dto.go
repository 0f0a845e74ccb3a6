package newsapi

// Wire types for the news API. Required fields are pointers so an absent
// field can be told apart from a zero value.

// NewsResponse is the body of GET /news
type NewsResponse struct {
	Articles     *[]ArticleDTO `json:"articles"`
	TotalResults int           `json:"total_results"`
	FromCache    *bool         `json:"from_cache"`
	CacheTTL     *int          `json:"cache_ttl"`
	Category     string        `json:"category"`
}

// ArticleDTO is a single article as serialized by the API
type ArticleDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Content     *string `json:"content"`
	URL         string  `json:"url"`
	ImageURL    *string `json:"image_url"`
	PublishedAt string  `json:"published_at"`
	Source      string  `json:"source"`
	Author      *string `json:"author"`
	Category    string  `json:"category"`
}

// CategoriesResponse is the body of GET /news/categories
type CategoriesResponse struct {
	Categories *[]string `json:"categories"`
}

// MetricsResponse is the body of GET /news/metrics
type MetricsResponse struct {
	Hits           *int64   `json:"hits"`
	Misses         *int64   `json:"misses"`
	TotalRequests  int64    `json:"total_requests"`
	HitRatePercent *float64 `json:"hit_rate_percent"`
}

// RefreshRequest is the body of POST /news/refresh.
// A nil Category together with InvalidateAll drops every category.
type RefreshRequest struct {
	Category      *string `json:"category"`
	InvalidateAll bool    `json:"invalidate_all"`
}

// RefreshResponse is the optional acknowledgment body of POST /news/refresh
type RefreshResponse struct {
	Message     string `json:"message"`
	KeysDeleted int    `json:"keys_deleted"`
}
