package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/ai/mocks"
	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/scrape"
	"github.com/sells-group/lead-enrich/internal/search"
	"github.com/sells-group/lead-enrich/internal/waterfall"
)

func stageOutcomes(res *model.EnrichmentResult) map[string]model.StageOutcome {
	out := map[string]model.StageOutcome{}
	for _, a := range res.Metadata.StagesAttempted {
		out[a.Stage] = a.Outcome
	}
	return out
}

func TestEnrichDomain_InvalidDomain(t *testing.T) {
	searcher := newMockSearcher(t)
	e := New(Deps{Search: searcher}, testOptions())

	for _, raw := range []string{"", "not a domain", "acme", "acme.c0m"} {
		res, err := e.EnrichDomain(context.Background(), raw)
		require.Error(t, err, raw)
		assert.True(t, apperr.Is(err, apperr.KindValidation), raw)
		assert.False(t, res.Success)
		assert.NotNil(t, res.Leads)
		assert.Empty(t, res.Leads)
	}
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrichDomain_HybridWinsSkipsLaterStages(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, 10).Return([]search.Result{janeProfile}, nil)
	scraper := newMockScraper(t)
	gen := mocks.NewMockGenerator(t)
	dbs := newMockDatabases(t)

	e := New(Deps{AI: gen, Search: searcher, Scraper: scraper, Databases: dbs}, testOptions())
	res, err := e.EnrichDomain(context.Background(), "https://www.Acme.com/about")
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Jane Doe", res.Leads[0].Name)
	assert.Equal(t, "CEO", res.Leads[0].Title)
	assert.Equal(t, "Acme", res.Leads[0].Company)
	assert.Equal(t, "hybrid:search", res.Metadata.Source)
	assert.Empty(t, res.Error)
	require.NotNil(t, res.CompanyInfo)
	assert.Equal(t, "Acme", res.CompanyInfo.Name)
	assert.Equal(t, model.Unknown, res.CompanyInfo.Industry)

	searcher.AssertNumberOfCalls(t, "Search", 2)
	scraper.AssertNotCalled(t, "ScrapeAll", mock.Anything, mock.Anything, mock.Anything)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	dbs.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	dbs.AssertNotCalled(t, "Configured")
	assert.Equal(t, map[string]model.StageOutcome{"hybrid": model.OutcomeFound}, stageOutcomes(res))
}

func TestEnrichDomain_ScrapesWhenSearchFindsNobody(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{}, nil)
	scraper := newMockScraper(t)
	scraper.On("ScrapeAll", mock.Anything, scrape.LeadPageURLs("acmedental.com"), 3).
		Return([]model.CrawledPage{{URL: "https://acmedental.com/team", HTML: teamHTML}})

	e := New(Deps{Search: searcher, Scraper: scraper}, testOptions())
	res, err := e.EnrichDomain(context.Background(), "acmedental.com")
	require.NoError(t, err)

	assert.Equal(t, "hybrid:scrape", res.Metadata.Source)
	require.Len(t, res.Leads, 2)
	assert.Equal(t, "Jane Doe", res.Leads[0].Name)
	assert.Equal(t, "jdoe@acmedental.com", res.Leads[0].Email)
	assert.Equal(t, "Acme Dental", res.Leads[0].Company)
	assert.Equal(t, "John Smith", res.Leads[1].Name)
	assert.Equal(t, "Acme Dental", res.CompanyInfo.Name)
	assert.Equal(t, "Dental", res.CompanyInfo.Industry)
}

func TestEnrichDomain_AIRefinementKeepsOnlyEvidencedFacts(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{janeProfile}, nil)
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("```json\n"+`{"leads":[
		{"name":"Jane Doe","title":"Chief Executive Officer","email":"jane@acme.com"},
		{"name":"Bob Invented","title":"CTO"}
	],"company":{"industry":"Software"}}`+"\n```", nil).Once()

	opts := testOptions()
	opts.AIConsolidate = true
	e := New(Deps{AI: gen, Search: searcher}, opts)
	res, err := e.EnrichDomain(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.Equal(t, "hybrid:search+ai", res.Metadata.Source)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Jane Doe", res.Leads[0].Name)
	assert.Equal(t, "Chief Executive Officer", res.Leads[0].Title)
	assert.Empty(t, res.Leads[0].Email, "address absent from the text is dropped")
	assert.Equal(t, "Software", res.CompanyInfo.Industry)
}

func TestEnrichDomain_AIRefinementFailureKeepsRuleLeads(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{janeProfile}, nil)
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("overloaded")).Once()

	opts := testOptions()
	opts.AIConsolidate = true
	res, err := New(Deps{AI: gen, Search: searcher}, opts).EnrichDomain(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "hybrid:search", res.Metadata.Source)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "CEO", res.Leads[0].Title)
}

func TestEnrichDomain_SlowRefinementKeepsRuleLeads(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{janeProfile}, nil)
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).
		Run(blockUntilDone).Return("", context.DeadlineExceeded).Once()
	dbs := newMockDatabases(t)

	opts := testOptions()
	opts.AIConsolidate = true
	opts.HybridTimeout = 200 * time.Millisecond
	e := New(Deps{AI: gen, Search: searcher, Databases: dbs}, opts)

	start := time.Now()
	res, err := e.EnrichDomain(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), opts.HybridTimeout)
	assert.True(t, res.Success)
	assert.Equal(t, "hybrid:search", res.Metadata.Source)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Jane Doe", res.Leads[0].Name)
	assert.Equal(t, "CEO", res.Leads[0].Title)
	assert.Equal(t, map[string]model.StageOutcome{"hybrid": model.OutcomeFound}, stageOutcomes(res))
	dbs.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestEnrichDomain_RefinementBudget(t *testing.T) {
	opts := testOptions()
	opts.RefineTimeout = 20 * time.Second
	e := New(Deps{}, opts)

	assert.Equal(t, 20*time.Second, e.refineBudget(time.Time{}))
	assert.Equal(t, 20*time.Second, e.refineBudget(time.Now().Add(time.Minute)))

	b := e.refineBudget(time.Now().Add(10 * time.Second))
	assert.LessOrEqual(t, b, 5*time.Second)
	assert.Greater(t, b, 4*time.Second)

	assert.Negative(t, e.refineBudget(time.Now().Add(-time.Second)))
}

func TestTruncateKeepsRunes(t *testing.T) {
	s := "Zoë Müller"
	for n := 0; n <= len(s); n++ {
		got := truncate(s, n)
		assert.True(t, utf8.ValidString(got), "n=%d", n)
		assert.LessOrEqual(t, len(got), n)
		assert.True(t, strings.HasPrefix(s, got))
	}
	assert.Equal(t, "Zo", truncate(s, 3), "a split two-byte rune is dropped")
	assert.Equal(t, s, truncate(s, 100))
}

func TestEnrichDomain_AIDirect(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).
		Return(`{"leads":[{"name":"Ann Lee","title":"Founder"},{"name":""}],"company":{"name":"Acme Corp","location":"Denver, CO"}}`, nil).Once()
	dbs := newMockDatabases(t)

	res, err := New(Deps{AI: gen, Databases: dbs}, testOptions()).EnrichDomain(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.Equal(t, "ai-direct", res.Metadata.Source)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, model.DataSourceAI, res.Leads[0].DataSource)
	assert.Equal(t, "Acme Corp", res.Leads[0].Company)
	assert.Equal(t, "Denver, CO", res.CompanyInfo.Location)
	assert.Equal(t, model.OutcomeUnavailable, stageOutcomes(res)["hybrid"])
	dbs.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestEnrichDomain_DatabaseStage(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return("I am not sure.", nil).Once()

	winner := model.NewLead("Sam Park", model.DataSourceScraped, model.MethodDomain)
	winner.Email = "sam@acme.com"
	dbs := newMockDatabases(t)
	dbs.On("Configured").Return(true)
	dbs.On("Run", mock.Anything, "acme.com").Return(&waterfall.Result{
		Winner: "hunter",
		Leads:  []model.Lead{winner},
		Attempts: []model.StageAttempt{
			{Stage: "database:apollo", Outcome: model.OutcomeEmpty},
			{Stage: "database:hunter", Outcome: model.OutcomeFound, Leads: 1},
		},
	}, nil)

	res, err := New(Deps{AI: gen, Databases: dbs}, testOptions()).EnrichDomain(context.Background(), "acme.com")
	require.NoError(t, err)

	assert.Equal(t, "database:hunter", res.Metadata.Source)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, winner.ID, res.Leads[0].ID)
	assert.Equal(t, map[string]model.StageOutcome{
		"hybrid":          model.OutcomeUnavailable,
		"ai-direct":       model.OutcomeFailed,
		"database":        model.OutcomeFound,
		"database:apollo": model.OutcomeEmpty,
		"database:hunter": model.OutcomeFound,
	}, stageOutcomes(res))
}

func TestEnrichDomain_AllEmptyNeverFabricates(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{}, nil)
	scraper := newMockScraper(t)
	scraper.On("ScrapeAll", mock.Anything, mock.Anything, mock.Anything).Return([]model.CrawledPage{})
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(`{"leads":[]}`, nil)
	dbs := newMockDatabases(t)
	dbs.On("Configured").Return(true)
	dbs.On("Run", mock.Anything, "acme-unknown-xyz.com").Return(&waterfall.Result{
		Attempts: []model.StageAttempt{{Stage: "database:apollo", Outcome: model.OutcomeEmpty}},
	}, apperr.New(apperr.KindEmpty, "waterfall: run", "no provider returned contacts"))
	mem := cache.NewMemory()

	e := New(Deps{AI: gen, Search: searcher, Scraper: scraper, Databases: dbs, Cache: mem}, testOptions())
	res, err := e.EnrichDomain(context.Background(), "acme-unknown-xyz.com")

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExhausted))
	assert.Equal(t, 404, apperr.StatusOf(err))
	assert.False(t, res.Success)
	assert.NotNil(t, res.Leads)
	assert.Empty(t, res.Leads)
	assert.Contains(t, res.Error, "No enrichment data")
	assert.Nil(t, res.CompanyInfo)
	assert.Equal(t, map[string]model.StageOutcome{
		"hybrid":          model.OutcomeEmpty,
		"ai-direct":       model.OutcomeEmpty,
		"database":        model.OutcomeEmpty,
		"database:apollo": model.OutcomeEmpty,
	}, stageOutcomes(res))
	assert.Equal(t, 0, mem.Len(), "failures are never cached")
}

func TestEnrichDomain_NothingConfigured(t *testing.T) {
	res, err := New(Deps{}, testOptions()).EnrichDomain(context.Background(), "acme.com")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindExhausted))
	require.Len(t, res.Metadata.StagesAttempted, 3)
	for _, a := range res.Metadata.StagesAttempted {
		assert.Equal(t, model.OutcomeUnavailable, a.Outcome, a.Stage)
	}
}

func TestEnrichDomain_TimeoutFallsThrough(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Run(blockUntilDone).Return(nil, context.Canceled)
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything).Return(`{"leads":[{"name":"Ann Lee","title":"Owner"}]}`, nil)

	opts := testOptions()
	opts.HybridTimeout = 50 * time.Millisecond
	e := New(Deps{AI: gen, Search: searcher}, opts)

	start := time.Now()
	res, err := e.EnrichDomain(context.Background(), "acme.com")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ai-direct", res.Metadata.Source)
	assert.Less(t, elapsed, opts.HybridTimeout+500*time.Millisecond)
	require.NotEmpty(t, res.Metadata.StagesAttempted)
	first := res.Metadata.StagesAttempted[0]
	assert.Equal(t, "hybrid", first.Stage)
	assert.Equal(t, model.OutcomeTimeout, first.Outcome)
	assert.Contains(t, first.Error, "budget")
}

func TestEnrichDomain_OuterDeadline(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).
		Run(blockUntilDone).Return(nil, context.DeadlineExceeded)
	gen := mocks.NewMockGenerator(t)

	opts := testOptions()
	opts.Deadline = 60 * time.Millisecond
	e := New(Deps{AI: gen, Search: searcher}, opts)

	start := time.Now()
	res, err := e.EnrichDomain(context.Background(), "acme.com")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, apperr.Is(err, apperr.KindTimeout))
	assert.False(t, res.Success)
	assert.Empty(t, res.Leads)
	assert.Contains(t, res.Error, "timed out")
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestEnrichDomain_CacheRoundTrip(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{janeProfile}, nil).Times(2)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded")).Maybe()
	mem := cache.NewMemory()
	e := New(Deps{Search: searcher, Cache: mem}, testOptions())

	first, err := e.EnrichDomain(context.Background(), "example.com")
	require.NoError(t, err)
	assert.False(t, first.Metadata.CacheHit)
	assert.Equal(t, 1, mem.Len())

	second, err := e.EnrichDomain(context.Background(), "EXAMPLE.com")
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.Metadata.CacheHit)
	assert.Equal(t, first.Metadata.Source, second.Metadata.Source)
	require.Len(t, second.Leads, len(first.Leads))
	for i := range first.Leads {
		assert.Equal(t, first.Leads[i].ID, second.Leads[i].ID)
		assert.Equal(t, first.Leads[i].Name, second.Leads[i].Name)
	}
	searcher.AssertNumberOfCalls(t, "Search", 2)
}

func TestEnrichDomain_FailureNotCached(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("upstream 503"))
	mem := cache.NewMemory()
	e := New(Deps{Search: searcher, Cache: mem}, testOptions())

	for range 2 {
		res, err := e.EnrichDomain(context.Background(), "example.com")
		require.Error(t, err)
		assert.False(t, res.Metadata.CacheHit)
	}
	assert.Equal(t, 0, mem.Len())
	searcher.AssertNumberOfCalls(t, "Search", 4)
}

func TestEnrichDomain_ProgressEvents(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{janeProfile}, nil)

	events := make(chan Event, 16)
	opts := testOptions()
	opts.Progress = events
	_, err := New(Deps{Search: searcher}, opts).EnrichDomain(context.Background(), "acme.com")
	require.NoError(t, err)
	close(events)

	var types []EventType
	for ev := range events {
		assert.Equal(t, "acme.com", ev.Subject)
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventStageStarted, EventStageFinished, EventCompleted}, types)
}

func TestEnrichDomain_ProgressNeverBlocks(t *testing.T) {
	searcher := newMockSearcher(t)
	searcher.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]search.Result{janeProfile}, nil)

	opts := testOptions()
	opts.Progress = make(chan Event) // nobody receives
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = New(Deps{Search: searcher}, opts).EnrichDomain(context.Background(), "acme.com")
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enrichment blocked on the progress channel")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Enrich = config.EnrichConfig{
		DeadlineSecs:      90,
		SearchRatePerSec:  0.5,
		ScrapeConcurrency: 5,
		AIConsolidate:     true,
	}
	cfg.Enrich.RefineTimeoutSecs = 3
	cfg.Enrich.SynthesisTimeoutSecs = 12
	cfg.Cache.TTLMinutes = 15

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 90*time.Second, opts.Deadline)
	assert.Equal(t, 100*time.Second, opts.HybridTimeout, "unset budgets keep defaults")
	assert.Equal(t, 8*time.Second, opts.AIDirectTimeout)
	assert.InDelta(t, 0.5, opts.SearchRatePerSec, 0.001)
	assert.Equal(t, 5, opts.ScrapeConcurrency)
	assert.Equal(t, 10, opts.SearchLimit)
	assert.True(t, opts.AIConsolidate)
	assert.Equal(t, 15*time.Minute, opts.CacheTTL)
	assert.Equal(t, 3*time.Second, opts.RefineTimeout)
	assert.Equal(t, 12*time.Second, opts.SynthesisTimeout)
	assert.Zero(t, opts.DatabaseTimeout, "per-provider budgets only by default")

	cfg.Enrich.DatabaseStageTimeoutSecs = 8
	assert.Equal(t, 8*time.Second, OptionsFromConfig(cfg).DatabaseTimeout)
}
