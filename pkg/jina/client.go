// Package jina provides a client for the Jina AI reader and search API.
package jina

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/pkg/httpjson"
)

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL via Jina AI Reader and returns the markdown content.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
	// Search performs a web search via Jina AI Search and returns results.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// ReadResponse is the parsed Jina API response.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the content from Jina.
type ReadData struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchResponse is the parsed Jina Search API response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// SearchOption configures a search request.
type SearchOption func(url.Values)

// WithSiteFilter restricts search results to a specific domain.
func WithSiteFilter(domain string) SearchOption {
	return func(q url.Values) { q.Set("site", domain) }
}

// WithCount limits the number of returned results.
func WithCount(n int) SearchOption {
	return func(q url.Values) {
		if n > 0 {
			q.Set("num", strconv.Itoa(n))
		}
	}
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithSearchBaseURL sets a custom search base URL (for testing).
func WithSearchBaseURL(u string) Option {
	return func(c *httpClient) { c.searchBaseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey        string
	baseURL       string
	searchBaseURL string
	http          *http.Client
}

// NewClient creates a new Jina AI Reader client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       "https://r.jina.ai",
		searchBaseURL: "https://s.jina.ai",
		http:          httpjson.NewHTTPClient(30 * time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) header() http.Header {
	h := http.Header{}
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
	return h
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	h := c.header()
	h.Set("X-Return-Format", "markdown")

	var result ReadResponse
	err := httpjson.DoJSON(ctx, c.http, httpjson.Request{
		Service: "jina",
		URL:     c.baseURL + "/" + targetURL,
		Header:  h,
	}, &result)
	if err != nil {
		return nil, eris.Wrap(err, "jina: read")
	}
	return &result, nil
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	q := url.Values{}
	for _, opt := range opts {
		opt(q)
	}
	reqURL := c.searchBaseURL + "/" + url.PathEscape(query)
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	var result SearchResponse
	err := httpjson.DoJSON(ctx, c.http, httpjson.Request{
		Service: "jina",
		URL:     reqURL,
		Header:  c.header(),
	}, &result)
	// Jina returns 422 when no results are available for the query.
	if httpjson.StatusCode(err) == http.StatusUnprocessableEntity {
		return &SearchResponse{Code: http.StatusUnprocessableEntity}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "jina: search")
	}
	return &result, nil
}
