package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/model"
)

// leadPaths are the pages most likely to list people and contact details.
var leadPaths = []string{"", "/about", "/about-us", "/team", "/our-team", "/leadership", "/contact"}

// LeadPageURLs returns the home, about, team, leadership and contact page
// URLs for domain.
func LeadPageURLs(domain string) []string {
	domain = strings.TrimSuffix(strings.TrimSpace(domain), "/")
	urls := make([]string, len(leadPaths))
	for i, p := range leadPaths {
		urls[i] = "https://" + domain + p
	}
	return urls
}

// Chain tries scrapers in priority order, returning the first success.
type Chain struct {
	PathMatcher *PathMatcher
	scrapers    []Scraper
}

// NewChain creates a Chain with the given path matcher and scrapers.
// Nil scrapers are skipped so optional providers can be passed directly.
func NewChain(matcher *PathMatcher, scrapers ...Scraper) *Chain {
	if matcher == nil {
		matcher = NewPathMatcher(nil)
	}
	c := &Chain{PathMatcher: matcher}
	for _, s := range scrapers {
		if s != nil {
			c.scrapers = append(c.scrapers, s)
		}
	}
	return c
}

// Names lists the scrapers in priority order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.scrapers))
	for i, s := range c.scrapers {
		names[i] = s.Name()
	}
	return names
}

// Scrape tries each scraper in order for a single URL.
// Returns the first successful result, or an error if all fail.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if c.PathMatcher.IsExcluded(targetURL) {
		return nil, eris.Errorf("scrape: url excluded by path matcher: %s", targetURL)
	}
	if len(c.scrapers) == 0 {
		return nil, apperr.Unavailable("scrape: chain", "scraping")
	}

	var lastErr error
	for _, s := range c.scrapers {
		if !s.Supports(targetURL) {
			continue
		}
		result, err := s.Scrape(ctx, targetURL)
		if err == nil && result != nil {
			return result, nil
		}
		if err != nil {
			zap.L().Debug("scrape: scraper failed, trying next",
				zap.String("scraper", s.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

// ScrapeAll fetches urls through the chain with at most maxConcurrent
// requests in flight. Failed URLs are skipped. Pages come back in the order
// of urls, and a redirect landing on an already-fetched URL is dropped.
func (c *Chain) ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []model.CrawledPage {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	slots := make([]*model.CrawledPage, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, u := range urls {
		g.Go(func() error {
			if c.PathMatcher.IsExcluded(u) {
				return nil
			}
			result, err := c.Scrape(gCtx, u)
			if err != nil {
				zap.L().Debug("scrape: chain failed for url", zap.String("url", u), zap.Error(err))
				return nil
			}
			page := result.Page
			if page.URL == "" {
				page.URL = u
			}
			slots[i] = &page
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool, len(urls))
	pages := make([]model.CrawledPage, 0, len(urls))
	for _, p := range slots {
		if p == nil {
			continue
		}
		key := strings.TrimSuffix(strings.ToLower(p.URL), "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		pages = append(pages, *p)
	}
	return pages
}
