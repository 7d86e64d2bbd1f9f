// Package enrich runs the enrichment cascade. A domain is tried against the
// hybrid search/scrape stage, then the AI model directly, then the contact
// databases; an email address is resolved from search results and
// synthesized into a single lead.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/ai"
	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/search"
	"github.com/sells-group/lead-enrich/internal/waterfall"
)

// PageScraper fetches a set of pages, skipping the ones that fail.
type PageScraper interface {
	ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []model.CrawledPage
}

// Databases is the contact-database cascade.
type Databases interface {
	Configured() bool
	Run(ctx context.Context, domain string) (*waterfall.Result, error)
}

// Deps are the collaborators of an Enricher. A nil dependency makes the
// stages that need it unavailable.
type Deps struct {
	AI        ai.Generator
	Search    search.Searcher
	Scraper   PageScraper
	Databases Databases
	Cache     cache.Cache
}

// Options holds the cascade's budgets and limits.
type Options struct {
	// Deadline bounds a whole request.
	Deadline        time.Duration
	HybridTimeout   time.Duration
	AIDirectTimeout time.Duration
	// DatabaseTimeout bounds the database stage as a whole. Zero leaves
	// only the per-provider budgets of the cascade.
	DatabaseTimeout time.Duration
	// SynthesisTimeout bounds the email path's AI profile call.
	SynthesisTimeout time.Duration
	// RefineTimeout bounds the hybrid stage's AI refinement, which never
	// gets more than half of the stage time still left.
	RefineTimeout     time.Duration
	SearchLimit       int
	SearchRatePerSec  float64
	ScrapeConcurrency int
	// AIConsolidate lets the model refine hybrid-stage leads.
	AIConsolidate bool
	CacheTTL      time.Duration
	// Progress, when set, receives milestones. Sends never block.
	Progress chan<- Event
}

// DefaultOptions returns the production budgets.
func DefaultOptions() Options {
	return Options{
		Deadline:          120 * time.Second,
		HybridTimeout:     100 * time.Second,
		AIDirectTimeout:   8 * time.Second,
		SynthesisTimeout:  30 * time.Second,
		RefineTimeout:     20 * time.Second,
		SearchLimit:       10,
		SearchRatePerSec:  2,
		ScrapeConcurrency: 3,
		AIConsolidate:     true,
		CacheTTL:          time.Hour,
	}
}

// OptionsFromConfig maps the enrich and cache config sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	e := cfg.Enrich
	secs := func(n int, fallback time.Duration) time.Duration {
		if n <= 0 {
			return fallback
		}
		return time.Duration(n) * time.Second
	}
	opts.Deadline = secs(e.DeadlineSecs, opts.Deadline)
	opts.HybridTimeout = secs(e.HybridTimeoutSecs, opts.HybridTimeout)
	opts.AIDirectTimeout = secs(e.AIDirectTimeoutSecs, opts.AIDirectTimeout)
	opts.SynthesisTimeout = secs(e.SynthesisTimeoutSecs, opts.SynthesisTimeout)
	opts.RefineTimeout = secs(e.RefineTimeoutSecs, opts.RefineTimeout)
	if e.DatabaseStageTimeoutSecs > 0 {
		opts.DatabaseTimeout = time.Duration(e.DatabaseStageTimeoutSecs) * time.Second
	}
	if e.SearchLimit > 0 {
		opts.SearchLimit = e.SearchLimit
	}
	if e.SearchRatePerSec > 0 {
		opts.SearchRatePerSec = e.SearchRatePerSec
	}
	if e.ScrapeConcurrency > 0 {
		opts.ScrapeConcurrency = e.ScrapeConcurrency
	}
	opts.AIConsolidate = e.AIConsolidate
	if ttl := cfg.Cache.TTL(); ttl > 0 {
		opts.CacheTTL = ttl
	}
	return opts
}

// Enricher runs the domain and email cascades.
type Enricher struct {
	gen       ai.Generator
	search    search.Searcher
	scraper   PageScraper
	databases Databases
	cache     cache.Cache
	opts      Options
}

// New creates an Enricher. Search is rate limited to opts.SearchRatePerSec.
func New(deps Deps, opts Options) *Enricher {
	e := &Enricher{
		gen:       deps.AI,
		search:    deps.Search,
		scraper:   deps.Scraper,
		databases: deps.Databases,
		cache:     deps.Cache,
		opts:      opts,
	}
	if e.search != nil && opts.SearchRatePerSec > 0 {
		e.search = search.NewThrottled(e.search, opts.SearchRatePerSec)
	}
	return e
}

// cached reads key into dst. Cache errors count as misses.
func (e *Enricher) cached(ctx context.Context, key string, dst any) bool {
	if e.cache == nil {
		return false
	}
	ok, err := e.cache.Get(ctx, key, dst)
	if err != nil {
		zap.L().Warn("enrich: cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (e *Enricher) store(ctx context.Context, key string, value any) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, value, e.opts.CacheTTL); err != nil {
		zap.L().Warn("enrich: cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
