// Package serpapi provides a client for SerpAPI's Google search endpoint.
package serpapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/pkg/httpjson"
)

const defaultBaseURL = "https://serpapi.com"

// Client runs Google searches through SerpAPI.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest describes one Google query.
type SearchRequest struct {
	Query string
	Num   int
	// Location biases results, e.g. "Austin, Texas, United States".
	Location string
}

// SearchResponse is the subset of SerpAPI's response used for enrichment.
type SearchResponse struct {
	SearchMetadata SearchMetadata  `json:"search_metadata"`
	OrganicResults []OrganicResult `json:"organic_results"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledge_graph,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// SearchMetadata describes the SerpAPI job.
type SearchMetadata struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrganicResult is a single organic Google result.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

// KnowledgeGraph is Google's entity panel, present for well-known companies.
type KnowledgeGraph struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a SerpAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    httpjson.NewHTTPClient(30 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// noResults is SerpAPI's 200-status message for an empty result page.
const noResults = "hasn't returned any results"

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, eris.New("serpapi: empty query")
	}

	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", req.Query)
	q.Set("api_key", c.apiKey)
	if req.Num > 0 {
		q.Set("num", strconv.Itoa(req.Num))
	}
	if req.Location != "" {
		q.Set("location", req.Location)
	}

	var resp SearchResponse
	err := httpjson.DoJSON(ctx, c.http, httpjson.Request{
		Service: "serpapi",
		URL:     c.baseURL + "/search.json?" + q.Encode(),
	}, &resp)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: search")
	}

	if resp.Error != "" {
		if strings.Contains(resp.Error, noResults) {
			resp.Error = ""
			return &resp, nil
		}
		return nil, eris.Errorf("serpapi: search: %s", resp.Error)
	}
	return &resp, nil
}
