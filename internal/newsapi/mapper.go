package newsapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/newsdash/internal/domain"
)

// timestampLayouts lists accepted published_at formats. The API emits naive
// ISO-8601 timestamps (no zone) as well as RFC3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an API timestamp. Zone-less values are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// MapNewsResponse converts a decoded /news body to a domain result.
// Missing required fields yield domain.ErrMalformedResponse.
func MapNewsResponse(resp NewsResponse) (*domain.FetchResult, error) {
	if resp.Articles == nil {
		return nil, fmt.Errorf("%w: missing articles", domain.ErrMalformedResponse)
	}
	if resp.FromCache == nil {
		return nil, fmt.Errorf("%w: missing from_cache", domain.ErrMalformedResponse)
	}

	articles, err := MapArticles(*resp.Articles)
	if err != nil {
		return nil, err
	}

	result := &domain.FetchResult{
		Articles:     articles,
		TotalResults: resp.TotalResults,
		FromCache:    *resp.FromCache,
		Category:     resp.Category,
	}
	if resp.CacheTTL != nil {
		ttl := time.Duration(*resp.CacheTTL) * time.Second
		result.CacheTTL = &ttl
	}
	return result, nil
}

// MapArticles converts wire articles to domain articles, preserving order
func MapArticles(dtos []ArticleDTO) ([]domain.Article, error) {
	articles := make([]domain.Article, 0, len(dtos))
	for i, d := range dtos {
		a, err := mapArticle(d)
		if err != nil {
			return nil, fmt.Errorf("%w: article %d: %v", domain.ErrMalformedResponse, i, err)
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func mapArticle(d ArticleDTO) (domain.Article, error) {
	if d.ID == "" || d.URL == "" {
		return domain.Article{}, fmt.Errorf("missing id or url")
	}
	published, err := ParseTimestamp(d.PublishedAt)
	if err != nil {
		return domain.Article{}, err
	}
	return domain.Article{
		ID:          d.ID,
		Title:       d.Title,
		Description: deref(d.Description),
		Content:     deref(d.Content),
		URL:         d.URL,
		ImageURL:    deref(d.ImageURL),
		PublishedAt: published,
		Source:      d.Source,
		Author:      deref(d.Author),
		Category:    d.Category,
	}, nil
}

// MapMetrics converts a /metrics body to domain metrics
func MapMetrics(resp MetricsResponse) (*domain.CacheMetrics, error) {
	if resp.Hits == nil || resp.Misses == nil || resp.HitRatePercent == nil {
		return nil, fmt.Errorf("%w: incomplete metrics", domain.ErrMalformedResponse)
	}
	total := resp.TotalRequests
	if total == 0 {
		total = *resp.Hits + *resp.Misses
	}
	return &domain.CacheMetrics{
		Hits:           *resp.Hits,
		Misses:         *resp.Misses,
		TotalRequests:  total,
		HitRatePercent: *resp.HitRatePercent,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
