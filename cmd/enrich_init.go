package main

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/ai"
	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/consolidate"
	"github.com/sells-group/lead-enrich/internal/enrich"
	"github.com/sells-group/lead-enrich/internal/scrape"
	"github.com/sells-group/lead-enrich/internal/search"
	"github.com/sells-group/lead-enrich/internal/waterfall"
	"github.com/sells-group/lead-enrich/internal/waterfall/provider"
	"github.com/sells-group/lead-enrich/pkg/apollo"
	"github.com/sells-group/lead-enrich/pkg/clearbit"
	"github.com/sells-group/lead-enrich/pkg/firecrawl"
	"github.com/sells-group/lead-enrich/pkg/hunter"
	"github.com/sells-group/lead-enrich/pkg/jina"
	"github.com/sells-group/lead-enrich/pkg/serpapi"
)

// enrichEnv holds the enricher, the consolidator and the resources they
// share, for the serve, enrich and dedupe commands.
type enrichEnv struct {
	Enricher     *enrich.Enricher
	Consolidator *consolidate.Consolidator
	AI           ai.Generator // may be nil

	closers []io.Closer
}

// Close releases the cache connection and the headless browser.
func (e *enrichEnv) Close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			zap.L().Warn("close resource", zap.Error(err))
		}
	}
}

// initEnricher validates cfg for mode and builds every client the cascade
// needs. Providers without credentials are left out, which makes their
// stages unavailable rather than failing. Callers should defer env.Close().
func initEnricher(ctx context.Context, c *config.Config, mode string, progress chan<- enrich.Event) (*enrichEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	env := &enrichEnv{}

	gen, err := ai.New(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "init ai")
	}
	ai.LogSelected(gen)
	env.AI = gen
	env.Consolidator = consolidate.New(gen)

	store, err := cache.New(ctx, c.Cache)
	if err != nil {
		return nil, eris.Wrap(err, "init cache")
	}
	if closer, ok := store.(io.Closer); ok {
		env.closers = append(env.closers, closer)
	}

	jinaOpts := []jina.Option{jina.WithBaseURL(c.Jina.BaseURL)}
	if c.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
	}
	var jinaClient jina.Client
	if c.Jina.Key != "" {
		jinaClient = jina.NewClient(c.Jina.Key, jinaOpts...)
	}

	searcher := buildSearch(c, jinaClient)

	// Scrape chain: browser (optional) → local HTTP → Jina → Firecrawl.
	var scrapers []scrape.Scraper
	if c.Browser.Enabled {
		browser := scrape.NewBrowserScraper(c.Browser.ControlURL, time.Duration(c.Browser.TimeoutSecs)*time.Second)
		env.closers = append(env.closers, browser)
		scrapers = append(scrapers, browser)
	}
	scrapers = append(scrapers, scrape.NewLocalScraper(15*time.Second))
	if jinaClient != nil {
		scrapers = append(scrapers, scrape.NewJinaAdapter(jinaClient))
	}
	if c.Firecrawl.Key != "" {
		scrapers = append(scrapers, scrape.NewFirecrawlAdapter(
			firecrawl.NewClient(c.Firecrawl.Key, firecrawl.WithBaseURL(c.Firecrawl.BaseURL)),
		))
	}
	chain := scrape.NewChain(scrape.NewPathMatcher(nil), scrapers...)
	zap.L().Info("scrape chain ready", zap.Strings("scrapers", chain.Names()))

	databases, err := buildDatabases(c)
	if err != nil {
		env.Close()
		return nil, err
	}

	opts := enrich.OptionsFromConfig(c)
	opts.Progress = progress

	deps := enrich.Deps{
		AI:      gen,
		Scraper: chain,
		Cache:   store,
	}
	// Interface fields stay nil, not typed-nil, when unavailable.
	if searcher != nil {
		deps.Search = searcher
	}
	if databases != nil {
		deps.Databases = databases
	}
	env.Enricher = enrich.New(deps, opts)

	return env, nil
}

// buildSearch chains SerpAPI and Jina search, returning nil when neither
// has a key.
func buildSearch(c *config.Config, jinaClient jina.Client) *search.Chain {
	var searchers []search.Searcher
	if c.SerpAPI.Key != "" {
		searchers = append(searchers, search.NewSerpAPI(
			serpapi.NewClient(c.SerpAPI.Key, serpapi.WithBaseURL(c.SerpAPI.BaseURL)),
		))
	}
	if jinaClient != nil {
		searchers = append(searchers, search.NewJina(jinaClient))
	}
	if len(searchers) == 0 {
		zap.L().Warn("no search provider configured, search stages are unavailable")
		return nil
	}
	return search.NewChain(searchers...)
}

// buildDatabases registers the contact databases and loads the cascade
// order. It returns nil when no database has credentials.
func buildDatabases(c *config.Config) (*waterfall.Executor, error) {
	reg := provider.NewRegistry()

	var apolloClient apollo.Client
	if c.Apollo.Key != "" {
		apolloClient = apollo.NewClient(c.Apollo.Key, apollo.WithBaseURL(c.Apollo.BaseURL))
	}
	reg.Register(provider.NewApollo(apolloClient))

	var hunterClient hunter.Client
	if c.Hunter.Key != "" {
		hunterClient = hunter.NewClient(c.Hunter.Key, hunter.WithBaseURL(c.Hunter.BaseURL))
	}
	reg.Register(provider.NewHunter(hunterClient))

	var clearbitClient clearbit.Client
	if c.Clearbit.Key != "" {
		clearbitClient = clearbit.NewClient(c.Clearbit.Key, clearbit.WithBaseURL(c.Clearbit.BaseURL))
	}
	reg.Register(provider.NewClearbit(clearbitClient))

	wfCfg := waterfall.DefaultConfig()
	if c.Waterfall.ConfigPath != "" {
		loaded, err := waterfall.LoadConfig(c.Waterfall.ConfigPath)
		if err != nil {
			return nil, eris.Wrap(err, "init waterfall")
		}
		wfCfg = loaded
	}
	wfCfg = wfCfg.WithTimeout(time.Duration(c.Enrich.DatabaseTimeoutSecs) * time.Second)

	exec := waterfall.NewExecutor(wfCfg, reg)
	if !exec.Configured() {
		zap.L().Warn("no contact database configured, database stage is unavailable")
		return nil, nil
	}
	zap.L().Info("contact databases enabled", zap.Strings("providers", reg.List()))
	return exec, nil
}
