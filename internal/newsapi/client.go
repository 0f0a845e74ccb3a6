package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/newsdash/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "newsdash/1.0"
	maxErrorBody   = 512
)

// Client implements domain.NewsRepository over the news API's HTTP interface
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new news API client. A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request and returns the body of a 2xx response.
// Transport failures wrap domain.ErrServerOffline; other statuses return *domain.StatusError.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("news api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("news api request failed", "url", reqURL, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", domain.ErrServerOffline, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		c.logger.Error("news api error status", "url", reqURL, "status", resp.StatusCode, "body", snippet)
		return nil, &domain.StatusError{Code: resp.StatusCode, Body: snippet}
	}

	return data, nil
}

// decode unmarshals a response body, mapping failures to domain.ErrMalformedResponse
func (c *Client) decode(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(data))
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// GetNews returns one page of articles for q.Category
func (c *Client) GetNews(ctx context.Context, q domain.Query) (*domain.FetchResult, error) {
	query := url.Values{}
	query.Set("category", q.Category)
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("page_size", strconv.Itoa(q.PageSize))
	query.Set("force_refresh", strconv.FormatBool(q.ForceRefresh))

	data, err := c.doRequest(ctx, http.MethodGet, "/", query, nil)
	if err != nil {
		return nil, err
	}

	var resp NewsResponse
	if err := c.decode(data, &resp); err != nil {
		return nil, err
	}

	result, err := MapNewsResponse(resp)
	if err != nil {
		c.logger.Error("news payload rejected", "category", q.Category, "error", err)
		return nil, err
	}
	return result, nil
}

// GetCategories returns the server's category list
func (c *Client) GetCategories(ctx context.Context) ([]string, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/categories", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp CategoriesResponse
	if err := c.decode(data, &resp); err != nil {
		return nil, err
	}
	if resp.Categories == nil {
		return nil, fmt.Errorf("%w: missing categories", domain.ErrMalformedResponse)
	}
	return *resp.Categories, nil
}

// GetMetrics returns the server's cache metrics
func (c *Client) GetMetrics(ctx context.Context) (*domain.CacheMetrics, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/metrics", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp MetricsResponse
	if err := c.decode(data, &resp); err != nil {
		return nil, err
	}
	return MapMetrics(resp)
}

// InvalidateCache asks the server to drop its cache for category, or for
// every category when category is empty. Any 2xx counts as success; the
// acknowledgment body is decoded best-effort.
func (c *Client) InvalidateCache(ctx context.Context, category string) (*domain.RefreshAck, error) {
	req := RefreshRequest{InvalidateAll: category == ""}
	if category != "" {
		req.Category = &category
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/refresh", nil, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCacheClear, err)
	}

	ack := &domain.RefreshAck{}
	var resp RefreshResponse
	if len(bytes.TrimSpace(data)) > 0 && json.Unmarshal(data, &resp) == nil {
		ack.Message = resp.Message
		ack.KeysDeleted = resp.KeysDeleted
	}
	return ack, nil
}
