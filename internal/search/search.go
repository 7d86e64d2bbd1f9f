// Package search adapts web search providers to a single Searcher interface
// and supplies the chaining, throttling and deduplication the email and
// domain cascades need.
package search

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/resilience"
	"github.com/sells-group/lead-enrich/pkg/jina"
	"github.com/sells-group/lead-enrich/pkg/serpapi"
)

// Result is a single organic search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web query.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// SerpAPI searches Google through SerpAPI.
type SerpAPI struct {
	client serpapi.Client
	retry  resilience.RetryConfig
}

// NewSerpAPI wraps a SerpAPI client.
func NewSerpAPI(client serpapi.Client) *SerpAPI {
	return &SerpAPI{client: client, retry: resilience.DefaultRetryConfig()}
}

// Name implements Searcher.
func (s *SerpAPI) Name() string { return "serpapi" }

// Search implements Searcher.
func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	cfg := s.retry
	cfg.OnRetry = resilience.RetryLogger("serpapi", "search")
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*serpapi.SearchResponse, error) {
		return s.client.Search(ctx, serpapi.SearchRequest{Query: query, Num: limit})
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: serpapi")
	}

	out := make([]Result, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		out = append(out, Result{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	return truncate(out, limit), nil
}

// Jina searches through the Jina search endpoint.
type Jina struct {
	client jina.Client
	retry  resilience.RetryConfig
}

// NewJina wraps a Jina client.
func NewJina(client jina.Client) *Jina {
	return &Jina{client: client, retry: resilience.DefaultRetryConfig()}
}

// Name implements Searcher.
func (j *Jina) Name() string { return "jina" }

// Search implements Searcher.
func (j *Jina) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	cfg := j.retry
	cfg.OnRetry = resilience.RetryLogger("jina", "search")
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*jina.SearchResponse, error) {
		return j.client.Search(ctx, query, jina.WithCount(limit))
	})
	if err != nil {
		return nil, eris.Wrap(err, "search: jina")
	}

	out := make([]Result, 0, len(resp.Data))
	for _, r := range resp.Data {
		snippet := r.Description
		if snippet == "" {
			snippet = firstChars(r.Content, 300)
		}
		out = append(out, Result{Title: r.Title, Link: r.URL, Snippet: snippet})
	}
	return truncate(out, limit), nil
}

// Chain tries searchers in order and returns the first non-empty result
// set. Errors are logged and the next searcher is tried.
type Chain struct {
	searchers []Searcher
}

// NewChain creates a Chain from the non-nil searchers given.
func NewChain(searchers ...Searcher) *Chain {
	c := &Chain{}
	for _, s := range searchers {
		if s != nil {
			c.searchers = append(c.searchers, s)
		}
	}
	return c
}

// Len returns the number of configured searchers.
func (c *Chain) Len() int { return len(c.searchers) }

// Name implements Searcher.
func (c *Chain) Name() string {
	names := make([]string, len(c.searchers))
	for i, s := range c.searchers {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Search implements Searcher.
func (c *Chain) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if len(c.searchers) == 0 {
		return nil, apperr.Unavailable("search: chain", "web search")
	}

	var lastErr error
	for _, s := range c.searchers {
		results, err := s.Search(ctx, query, limit)
		if err != nil {
			lastErr = err
			zap.L().Debug("search: searcher failed, trying next",
				zap.String("searcher", s.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// Throttled spaces queries to a fixed rate across all callers.
type Throttled struct {
	next    Searcher
	limiter *rate.Limiter
}

// NewThrottled wraps next with a limiter allowing perSec queries per second.
func NewThrottled(next Searcher, perSec float64) *Throttled {
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSec), 1)}
}

// Name implements Searcher.
func (t *Throttled) Name() string { return t.next.Name() }

// Search implements Searcher.
func (t *Throttled) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, apperr.Wrap(apperr.KindTimeout, "search: throttle", err)
	}
	return t.next.Search(ctx, query, limit)
}

// DedupeByLink keeps the first result for each normalized link. Results with
// an empty link are dropped.
func DedupeByLink(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := normalizeLink(r.Link)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func normalizeLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimRight(link, "/"))
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(u.EscapedPath(), "/")
	key := host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

func truncate(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func firstChars(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
