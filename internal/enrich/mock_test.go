package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/search"
	"github.com/sells-group/lead-enrich/internal/waterfall"
)

// --- Searcher Mock ---

type mockSearcher struct {
	mock.Mock
}

func newMockSearcher(t *testing.T) *mockSearcher {
	m := &mockSearcher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockSearcher) Name() string { return "mock-search" }

func (m *mockSearcher) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	args := m.Called(ctx, query, limit)
	results, _ := args.Get(0).([]search.Result)
	return results, args.Error(1)
}

// --- Scraper Mock ---

type mockScraper struct {
	mock.Mock
}

func newMockScraper(t *testing.T) *mockScraper {
	m := &mockScraper{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockScraper) ScrapeAll(ctx context.Context, urls []string, maxConcurrent int) []model.CrawledPage {
	args := m.Called(ctx, urls, maxConcurrent)
	pages, _ := args.Get(0).([]model.CrawledPage)
	return pages
}

// --- Databases Mock ---

type mockDatabases struct {
	mock.Mock
}

func newMockDatabases(t *testing.T) *mockDatabases {
	m := &mockDatabases{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockDatabases) Configured() bool {
	return m.Called().Bool(0)
}

func (m *mockDatabases) Run(ctx context.Context, domain string) (*waterfall.Result, error) {
	args := m.Called(ctx, domain)
	res, _ := args.Get(0).(*waterfall.Result)
	return res, args.Error(1)
}

// blockUntilDone makes a mocked call hang until its context is cancelled.
func blockUntilDone(args mock.Arguments) {
	<-args.Get(0).(context.Context).Done()
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.SearchRatePerSec = 0
	opts.AIConsolidate = false
	return opts
}

var janeProfile = search.Result{
	Title:   "Jane Doe - CEO - Acme | LinkedIn",
	Link:    "https://www.linkedin.com/in/janedoe",
	Snippet: "Jane Doe is the CEO of Acme.",
}

const teamHTML = `<html><head>
<title>Our Team | Acme Dental</title>
<meta property="og:site_name" content="Acme Dental">
</head><body>
<div class="team-member"><h3>Dr. Jane Doe, DDS</h3><p>Lead Dentist</p><a href="mailto:jdoe@acmedental.com">Email</a></div>
<div class="team-member"><h3>John Smith</h3><p>Office Manager</p></div>
</body></html>`
