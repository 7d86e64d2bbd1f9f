package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/model"
)

const (
	localUserAgent = "Mozilla/5.0 (compatible; LeadEnrichBot/1.0)"
	maxBodyBytes   = 1 << 20
	minBodyBytes   = 100
)

// LocalScraper fetches HTML with net/http and keeps both the raw document
// and a plaintext rendering. Blocked or empty pages fall through to the
// next scraper.
type LocalScraper struct {
	client *http.Client
}

// NewLocalScraper creates a LocalScraper with a per-request timeout.
func NewLocalScraper(timeout time.Duration) *LocalScraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &LocalScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return "local_http" }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, rejects blocked responses and renders the text.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", localUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}
	if len(body) < minBodyBytes {
		return nil, eris.New("local_http: empty page")
	}

	raw := string(body)
	title, text := htmlToText(raw)

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		Page: model.CrawledPage{
			URL:        finalURL,
			Title:      title,
			Markdown:   text,
			HTML:       raw,
			StatusCode: resp.StatusCode,
		},
		Source: "local_http",
	}, nil
}
