package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/ai"
	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/extract"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/scrape"
	"github.com/sells-group/lead-enrich/internal/search"
)

const (
	stageHybrid   = "hybrid"
	stageAIDirect = "ai-direct"
	stageDatabase = "database"

	// maxContextChars caps the raw text handed to the model.
	maxContextChars = 24000
)

// EnrichDomain finds leads for a company domain. Stages run strictly in
// order and the first one producing a named lead wins; stage errors are
// logged and the cascade moves on. The error is non-nil only for invalid
// input (validation), an expired deadline (timeout) or when every stage came
// up empty (exhausted); a structured result is returned in every case.
func (e *Enricher) EnrichDomain(ctx context.Context, raw string) (*model.EnrichmentResult, error) {
	start := time.Now()
	domain, err := model.ValidateDomain(raw)
	if err != nil {
		return &model.EnrichmentResult{
			Leads:    []model.Lead{},
			Error:    err.Error(),
			Message:  "Invalid domain format",
			Metadata: model.Metadata{Source: "none", ProcessingTimeMs: elapsedMs(start)},
		}, err
	}

	key := cache.Key("domain", domain)
	var hit model.EnrichmentResult
	if e.cached(ctx, key, &hit) {
		hit.Metadata.CacheHit = true
		hit.Metadata.ProcessingTimeMs = elapsedMs(start)
		e.emit(Event{Type: EventCacheHit, Subject: domain})
		e.emit(Event{Type: EventCompleted, Subject: domain, Leads: len(hit.Leads), Success: hit.Success})
		zap.L().Info("enrich: served from cache", zap.String("domain", domain), zap.Int("leads", len(hit.Leads)))
		return &hit, nil
	}

	if e.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Deadline)
		defer cancel()
	}

	var attempts []model.StageAttempt
	for _, st := range e.domainStages(domain) {
		if ctx.Err() != nil {
			break
		}
		out := e.runStage(ctx, domain, st, &attempts)
		if out == nil {
			continue
		}

		company := model.CompanyInfo{Name: extract.CompanyFromDomain(domain), Domain: domain}
		if out.company != nil {
			company = out.company.Merge(company)
		}
		company = company.Normalize()
		leads := withCompany(out.leads, company.Name)

		res := &model.EnrichmentResult{
			Success:     true,
			Leads:       leads,
			CompanyInfo: &company,
			Message:     fmt.Sprintf("Found %d leads for %s", len(leads), domain),
			Metadata: model.Metadata{
				Source:           out.source,
				ProcessingTimeMs: elapsedMs(start),
				StagesAttempted:  attempts,
			},
		}
		e.store(ctx, key, res)
		e.emit(Event{Type: EventCompleted, Subject: domain, Leads: len(leads), Success: true})
		zap.L().Info("enrich: domain enriched",
			zap.String("domain", domain),
			zap.String("source", out.source),
			zap.Int("leads", len(leads)),
			zap.Int64("duration_ms", res.Metadata.ProcessingTimeMs),
		)
		return res, nil
	}

	res := &model.EnrichmentResult{
		Leads: []model.Lead{},
		Metadata: model.Metadata{
			Source:           "none",
			ProcessingTimeMs: elapsedMs(start),
			StagesAttempted:  attempts,
		},
	}
	if ctx.Err() != nil {
		err = apperr.New(apperr.KindTimeout, "enrich: domain", "deadline of "+e.opts.Deadline.String()+" exceeded for "+domain)
		res.Error = "Enrichment timed out for " + domain
		res.Message = "The request exceeded its time budget before any stage found leads"
	} else {
		err = apperr.New(apperr.KindExhausted, "enrich: domain", "no stage found leads for "+domain)
		res.Error = "No enrichment data found for " + domain
		res.Message = "Every enrichment source was tried without finding contacts"
	}
	e.emit(Event{Type: EventCompleted, Subject: domain})
	zap.L().Warn("enrich: domain not enriched",
		zap.String("domain", domain),
		zap.Int("stages", len(attempts)),
		zap.Int64("duration_ms", res.Metadata.ProcessingTimeMs),
		zap.Error(err),
	)
	return res, err
}

func (e *Enricher) domainStages(domain string) []stage {
	return []stage{
		{
			name:      stageHybrid,
			budget:    e.opts.HybridTimeout,
			available: func() bool { return e.search != nil || e.scraper != nil },
			run: func(ctx context.Context) (*stageOutput, error) {
				return e.hybrid(ctx, domain, deadlineAfter(e.opts.HybridTimeout))
			},
		},
		{
			name:      stageAIDirect,
			budget:    e.opts.AIDirectTimeout,
			available: func() bool { return e.gen != nil },
			run:       func(ctx context.Context) (*stageOutput, error) { return e.aiDirect(ctx, domain) },
		},
		{
			name:      stageDatabase,
			budget:    e.opts.DatabaseTimeout,
			available: func() bool { return e.databases != nil && e.databases.Configured() },
			run:       func(ctx context.Context) (*stageOutput, error) { return e.database(ctx, domain) },
		},
	}
}

// hybrid reads leads from search results, and only when those yield none,
// from the company's own pages. The model may then refine them against the
// raw text, within a share of the time left before the stage deadline.
func (e *Enricher) hybrid(ctx context.Context, domain string, deadline time.Time) (*stageOutput, error) {
	company := extract.CompanyFromDomain(domain)
	out := &stageOutput{}
	var evidence []string

	if e.search != nil {
		results := e.searchAll(ctx, domainQueries(domain, company))
		out.source = "hybrid:search"
		out.leads = extract.LeadsFromSearch(results, company)
		for _, r := range results {
			evidence = append(evidence, r.Title+"\n"+r.Snippet)
		}
		zap.L().Debug("enrich: hybrid search",
			zap.String("domain", domain),
			zap.Int("results", len(results)),
			zap.Int("leads", len(out.leads)),
		)
	}

	if len(out.leads) == 0 && e.scraper != nil {
		pages := e.scraper.ScrapeAll(ctx, scrape.LeadPageURLs(domain), e.opts.ScrapeConcurrency)
		var leads []model.Lead
		var info model.CompanyInfo
		evidence = evidence[:0]
		for _, p := range pages {
			leads = append(leads, extract.LeadsFromHTML(p)...)
			info = info.Merge(extract.CompanyFromHTML(p, domain))
			evidence = append(evidence, p.Text())
		}
		out.source = "hybrid:scrape"
		out.leads = extract.MergeByName(leads)
		if len(pages) > 0 {
			out.company = &info
		}
		zap.L().Debug("enrich: hybrid scrape",
			zap.String("domain", domain),
			zap.Int("pages", len(pages)),
			zap.Int("leads", len(out.leads)),
		)
	}

	if len(out.leads) == 0 {
		return out, apperr.Empty("enrich: hybrid")
	}
	if e.opts.AIConsolidate && e.gen != nil {
		return e.refine(ctx, domain, out, strings.Join(evidence, "\n\n"), deadline), nil
	}
	return out, nil
}

func domainQueries(domain, company string) []string {
	return []string{
		fmt.Sprintf(`site:linkedin.com/in "%s"`, company),
		fmt.Sprintf(`"%s" owner OR founder OR CEO OR president`, domain),
	}
}

// searchAll runs queries in order and merges their results by link. Failed
// queries are logged and skipped.
func (e *Enricher) searchAll(ctx context.Context, queries []string) []search.Result {
	var all []search.Result
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		results, err := e.search.Search(ctx, q, e.opts.SearchLimit)
		if err != nil {
			zap.L().Debug("enrich: search query failed", zap.String("query", q), zap.Error(err))
			continue
		}
		all = append(all, results...)
	}
	return search.DedupeByLink(all)
}

type aiLead struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
}

type aiCompany struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Size        string `json:"size"`
	Location    string `json:"location"`
}

func (c *aiCompany) info(domain string) model.CompanyInfo {
	if c == nil {
		return model.CompanyInfo{}
	}
	return model.CompanyInfo{
		Name:        c.Name,
		Domain:      domain,
		Description: c.Description,
		Industry:    c.Industry,
		Size:        c.Size,
		Location:    c.Location,
	}
}

type aiLeads struct {
	Leads   []aiLead   `json:"leads"`
	Company *aiCompany `json:"company"`
}

func (e *Enricher) generateJSON(ctx context.Context, req ai.Request, dst any) error {
	text, err := e.gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	return ai.DecodeJSON(text, dst)
}

// deadlineAfter returns now+budget, or the zero time for no budget.
func deadlineAfter(budget time.Duration) time.Time {
	if budget <= 0 {
		return time.Time{}
	}
	return time.Now().Add(budget)
}

// refineBudget caps the refinement call at RefineTimeout and at half of the
// time left before the stage deadline. Zero means no cap; a negative value
// means no time is left.
func (e *Enricher) refineBudget(deadline time.Time) time.Duration {
	budget := e.opts.RefineTimeout
	if deadline.IsZero() {
		return budget
	}
	half := time.Until(deadline) / 2
	if half <= 0 {
		return -1
	}
	if budget <= 0 || half < budget {
		budget = half
	}
	return budget
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// refine asks the model to clean up rule-extracted leads against the raw
// text. Model leads are kept only when their name occurs in the text, and
// their email and phone only when those occur too. Any failure, a reply
// past the refinement budget, or a reply with no surviving lead keeps the
// rule leads.
func (e *Enricher) refine(ctx context.Context, domain string, out *stageOutput, text string, deadline time.Time) *stageOutput {
	budget := e.refineBudget(deadline)
	if budget < 0 {
		zap.L().Debug("enrich: no time left for ai refinement", zap.String("domain", domain))
		return out
	}
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	text = truncate(text, maxContextChars)
	candidates, _ := json.Marshal(out.leads)

	var resp aiLeads
	err := e.generateJSON(ctx, ai.Request{
		System:    refineSystem,
		Prompt:    fmt.Sprintf(refinePrompt, domain, candidates, text),
		MaxTokens: 2048,
		JSON:      true,
		Purpose:   "hybrid-refine",
	}, &resp)
	if err != nil {
		zap.L().Warn("enrich: ai refinement failed, keeping extracted leads",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return out
	}

	lower := strings.ToLower(text)
	digits := model.PhoneDigits(text)
	byName := make(map[string]model.Lead, len(out.leads))
	for _, l := range out.leads {
		byName[strings.ToLower(l.Name)] = l
	}

	var leads []model.Lead
	for _, a := range resp.Leads {
		name := strings.Join(strings.Fields(a.Name), " ")
		if name == "" || !strings.Contains(lower, strings.ToLower(name)) {
			continue
		}
		l := model.NewLead(name, model.DataSourceScraped, model.MethodDomain)
		l.Title = a.Title
		l.Specialty = a.Specialty
		if email := strings.ToLower(strings.TrimSpace(a.Email)); email != "" && strings.Contains(lower, email) {
			l.Email = email
		}
		if d := model.PhoneDigits(a.Phone); len(d) >= 7 && strings.Contains(digits, d) {
			l.Phone = a.Phone
		}
		if prior, ok := byName[strings.ToLower(name)]; ok {
			l.Title = firstNonEmpty(l.Title, prior.Title)
			l.Email = firstNonEmpty(l.Email, prior.Email)
			l.Phone = firstNonEmpty(l.Phone, prior.Phone)
			l.Specialty = firstNonEmpty(l.Specialty, prior.Specialty)
		}
		leads = append(leads, l.Clean())
	}
	leads = model.UniqueLeads(leads)
	if len(leads) == 0 {
		zap.L().Debug("enrich: ai refinement kept no leads", zap.String("domain", domain))
		return out
	}

	refined := &stageOutput{source: out.source + "+ai", leads: leads, company: out.company}
	if resp.Company != nil {
		info := resp.Company.info(domain)
		if out.company != nil {
			info = out.company.Merge(info)
		}
		refined.company = &info
	}
	return refined
}

// aiDirect asks the model what it knows about the domain.
func (e *Enricher) aiDirect(ctx context.Context, domain string) (*stageOutput, error) {
	var resp aiLeads
	err := e.generateJSON(ctx, ai.Request{
		System:    directSystem,
		Prompt:    fmt.Sprintf(directPrompt, domain),
		MaxTokens: 1500,
		JSON:      true,
		Purpose:   "ai-direct",
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := &stageOutput{source: stageAIDirect}
	for _, a := range resp.Leads {
		name := strings.Join(strings.Fields(a.Name), " ")
		if name == "" {
			continue
		}
		l := model.NewLead(name, model.DataSourceAI, model.MethodDomain)
		l.Title = a.Title
		l.Email = a.Email
		l.Phone = a.Phone
		l.Specialty = a.Specialty
		out.leads = append(out.leads, l.Clean())
	}
	out.leads = model.UniqueLeads(out.leads)
	if resp.Company != nil {
		info := resp.Company.info(domain)
		out.company = &info
	}
	if len(out.leads) == 0 {
		return out, apperr.Empty("enrich: ai-direct")
	}
	return out, nil
}

// database runs the contact-database cascade.
func (e *Enricher) database(ctx context.Context, domain string) (*stageOutput, error) {
	res, err := e.databases.Run(ctx, domain)
	out := &stageOutput{source: stageDatabase}
	if res != nil {
		out.nested = res.Attempts
		out.leads = res.Leads
		out.company = res.Company
		if res.Found() {
			out.source = stageDatabase + ":" + res.Winner
		}
	}
	return out, err
}

// withCompany returns copies of leads with an empty company filled in.
func withCompany(leads []model.Lead, company string) []model.Lead {
	out := make([]model.Lead, len(leads))
	for i, l := range leads {
		if l.Company == "" && company != model.Unknown {
			l.Company = company
		}
		out[i] = l
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
