package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
)

// BrowserScraper renders pages in headless Chrome so JavaScript-built team
// pages yield their final DOM. The browser is connected lazily on first use
// and shared by all requests; each request gets its own tab.
type BrowserScraper struct {
	controlURL string
	timeout    time.Duration
	launch     func() (string, error)

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserScraper creates a BrowserScraper. An empty controlURL launches a
// local headless browser on first use.
func NewBrowserScraper(controlURL string, timeout time.Duration) *BrowserScraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserScraper{
		controlURL: controlURL,
		timeout:    timeout,
		launch: func() (string, error) {
			return launcher.New().Headless(true).Launch()
		},
	}
}

// Name implements Scraper.
func (b *BrowserScraper) Name() string { return "browser" }

// Supports implements Scraper.
func (b *BrowserScraper) Supports(_ string) bool { return true }

func (b *BrowserScraper) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	controlURL := b.controlURL
	if controlURL == "" {
		u, err := b.launch()
		if err != nil {
			return nil, eris.Wrap(err, "browser: launch")
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, eris.Wrap(err, "browser: connect")
	}
	zap.L().Info("browser: connected", zap.String("control_url", controlURL))
	b.browser = browser
	return browser, nil
}

// Scrape opens targetURL in a new tab, waits for the load event and
// returns the rendered HTML with its text rendering.
func (b *BrowserScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	browser, err := b.connect()
	if err != nil {
		return nil, err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, eris.Wrap(err, "browser: open tab")
	}
	defer func() { _ = page.Close() }()

	p := page.Timeout(b.timeout)
	if err := p.Navigate(targetURL); err != nil {
		return nil, eris.Wrap(err, "browser: navigate")
	}
	if err := p.WaitLoad(); err != nil {
		return nil, eris.Wrap(err, "browser: wait load")
	}
	raw, err := p.HTML()
	if err != nil {
		return nil, eris.Wrap(err, "browser: read html")
	}
	if len(raw) < minBodyBytes {
		return nil, eris.New("browser: empty page")
	}

	title, text := htmlToText(raw)
	finalURL := targetURL
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
		if info.Title != "" {
			title = info.Title
		}
	}

	return &Result{
		Page: model.CrawledPage{
			URL:        finalURL,
			Title:      title,
			Markdown:   text,
			HTML:       raw,
			StatusCode: 200,
		},
		Source: "browser",
	}, nil
}

// Close disconnects from the browser, if connected.
func (b *BrowserScraper) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}
