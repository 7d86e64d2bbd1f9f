// Package scrape fetches company web pages through a chain of scrapers:
// a headless browser, a plain HTTP client, Jina Reader and Firecrawl. The
// first scraper that returns usable content wins.
package scrape

import (
	"context"

	"github.com/sells-group/lead-enrich/internal/model"
)

// Result holds a scraped page with its source.
type Result struct {
	Page   model.CrawledPage
	Source string // e.g. "browser", "jina"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
