package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/pkg/firecrawl"
)

// FirecrawlAdapter wraps a Firecrawl client as the last-resort Scraper.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports implements Scraper.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches a single URL as markdown plus HTML so the extractor can
// still walk the DOM.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"markdown", "html"},
	})
	if err != nil {
		return nil, err
	}
	if resp.Data.Markdown == "" && resp.Data.HTML == "" {
		return nil, eris.New("firecrawl: empty page")
	}

	pageURL := resp.Data.Metadata.SourceURL
	if pageURL == "" {
		pageURL = targetURL
	}
	return &Result{
		Page: model.CrawledPage{
			URL:        pageURL,
			Title:      resp.Data.Metadata.Title,
			Markdown:   resp.Data.Markdown,
			HTML:       resp.Data.HTML,
			StatusCode: resp.Data.Metadata.StatusCode,
		},
		Source: "firecrawl",
	}, nil
}
