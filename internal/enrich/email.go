package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/ai"
	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/cache"
	"github.com/sells-group/lead-enrich/internal/extract"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/search"
)

const (
	stageSearch    = "search"
	stageSynthesis = "ai-synthesis"
	stageRules     = "rule-based"

	maxSources = 10
)

// EnrichByEmail builds a single lead for an email address from search
// results. A name guessed from the address alone is never enough: with zero
// search results the result is unsuccessful and Lead is nil. The model
// synthesizes the profile when configured; otherwise, or when it fails,
// rules read a title and phone from the snippets with low confidence.
func (e *Enricher) EnrichByEmail(ctx context.Context, raw string) (*model.EmailEnrichmentResult, error) {
	start := time.Now()
	email, err := model.ValidateEmail(raw)
	if err != nil {
		return &model.EmailEnrichmentResult{
			Sources:  []string{},
			Error:    err.Error(),
			Message:  "Invalid email format",
			Metadata: model.Metadata{Source: "none", ProcessingTimeMs: elapsedMs(start)},
		}, err
	}

	key := cache.Key("email", email)
	var hit model.EmailEnrichmentResult
	if e.cached(ctx, key, &hit) {
		hit.Metadata.CacheHit = true
		hit.Metadata.ProcessingTimeMs = elapsedMs(start)
		e.emit(Event{Type: EventCacheHit, Subject: email})
		e.emit(Event{Type: EventCompleted, Subject: email, Leads: 1, Success: true})
		return &hit, nil
	}

	if e.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Deadline)
		defer cancel()
	}

	name := extract.NameFromEmail(email)
	domain := model.EmailDomain(email)
	company := extract.CompanyFromDomain(domain)
	log := zap.L().With(zap.String("email", email), zap.String("derived_name", name))

	var attempts []model.StageAttempt
	results := e.searchEmail(ctx, email, name, company, domain, &attempts)

	fail := func(err error, msg string) (*model.EmailEnrichmentResult, error) {
		e.emit(Event{Type: EventCompleted, Subject: email})
		log.Warn("enrich: email not enriched", zap.Error(err))
		return &model.EmailEnrichmentResult{
			Sources:  []string{},
			Error:    msg,
			Message:  err.Error(),
			Metadata: model.Metadata{Source: "none", ProcessingTimeMs: elapsedMs(start), StagesAttempted: attempts},
		}, err
	}

	if len(results) == 0 {
		if ctx.Err() != nil {
			return fail(apperr.New(apperr.KindTimeout, "enrich: email", "deadline exceeded for "+email),
				"Enrichment timed out for "+email)
		}
		return fail(apperr.New(apperr.KindExhausted, "enrich: email", "zero search results for "+email),
			"No search results found for "+email)
	}

	snippets := make([]string, 0, len(results))
	sources := make([]string, 0, min(len(results), maxSources))
	for _, r := range results {
		snippets = append(snippets, strings.TrimSpace(r.Title+" "+r.Snippet))
		if len(sources) < maxSources {
			sources = append(sources, r.Link)
		}
	}
	info := model.CompanyInfo{
		Name:     company,
		Domain:   domain,
		Industry: model.SpecialtyFromText(snippets...),
	}

	out := e.runStage(ctx, email, stage{
		name:      stageSynthesis,
		budget:    e.opts.SynthesisTimeout,
		available: func() bool { return e.gen != nil },
		run: func(ctx context.Context) (*stageOutput, error) {
			s, err := e.synthesize(ctx, email, name, company, domain, results)
			if err != nil {
				return nil, err
			}
			return &stageOutput{
				source:     stageSynthesis,
				leads:      []model.Lead{s.lead},
				company:    &s.company,
				confidence: s.confidence,
			}, nil
		},
	}, &attempts)

	res := &model.EmailEnrichmentResult{Success: true, Sources: sources}
	if out != nil {
		lead := out.leads[0]
		res.Lead = &lead
		res.Confidence = out.confidence
		info = out.company.Merge(info)
		res.Metadata.Source = stageSynthesis
	} else {
		if name == "" {
			attempts = append(attempts, model.StageAttempt{Stage: stageRules, Outcome: model.OutcomeEmpty,
				Error: "no person name could be derived from the address"})
			return fail(apperr.New(apperr.KindExhausted, "enrich: email", "no person name found for "+email),
				"Could not identify a person for "+email)
		}
		lead := ruleBasedLead(email, name, company, snippets)
		res.Lead = &lead
		res.Confidence = model.ConfidenceLow
		res.Metadata.Source = stageRules
		attempts = append(attempts, model.StageAttempt{Stage: stageRules, Outcome: model.OutcomeFound, Leads: 1})
	}

	info = info.Normalize()
	res.CompanyInfo = &info
	res.Message = fmt.Sprintf("Built a %s-confidence profile for %s", res.Confidence, email)
	res.Metadata.ProcessingTimeMs = elapsedMs(start)
	res.Metadata.StagesAttempted = attempts

	e.store(ctx, key, res)
	e.emit(Event{Type: EventCompleted, Subject: email, Leads: 1, Success: true})
	log.Info("enrich: email enriched",
		zap.String("source", res.Metadata.Source),
		zap.String("confidence", string(res.Confidence)),
		zap.Int("results", len(results)),
	)
	return res, nil
}

// emailQueries lists up to three literal-address queries, up to three
// name-and-company queries (only with a derived name) and one company query.
func emailQueries(email, name, company, domain string) []string {
	qs := []string{
		fmt.Sprintf(`"%s"`, email),
		fmt.Sprintf(`"%s" linkedin`, email),
		fmt.Sprintf(`"%s" contact`, email),
	}
	if name != "" {
		qs = append(qs,
			fmt.Sprintf(`"%s" "%s"`, name, company),
			fmt.Sprintf(`"%s" %s linkedin`, name, company),
			fmt.Sprintf(`"%s" site:%s`, name, domain),
		)
	}
	return append(qs, fmt.Sprintf(`%s %s company`, company, domain))
}

func (e *Enricher) searchEmail(ctx context.Context, email, name, company, domain string, log *[]model.StageAttempt) []search.Result {
	if e.search == nil {
		*log = append(*log, model.StageAttempt{Stage: stageSearch, Outcome: model.OutcomeUnavailable})
		return nil
	}
	e.emit(Event{Type: EventStageStarted, Subject: email, Stage: stageSearch})
	start := time.Now()
	results := e.searchAll(ctx, emailQueries(email, name, company, domain))
	attempt := model.StageAttempt{Stage: stageSearch, DurationMs: elapsedMs(start), Outcome: model.OutcomeFound}
	switch {
	case len(results) > 0:
	case ctx.Err() != nil:
		attempt.Outcome = model.OutcomeTimeout
		attempt.Error = ctx.Err().Error()
	default:
		attempt.Outcome = model.OutcomeEmpty
	}
	*log = append(*log, attempt)
	e.emit(Event{Type: EventStageFinished, Subject: email, Stage: stageSearch, Outcome: attempt.Outcome})
	return results
}

type synthesized struct {
	lead       model.Lead
	company    model.CompanyInfo
	confidence model.Confidence
}

type aiProfile struct {
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Phone       string     `json:"phone"`
	Specialty   string     `json:"specialty"`
	Confidence  string     `json:"confidence"`
	CompanyInfo *aiCompany `json:"companyInfo"`
}

// synthesize asks the model for a profile. The model's name is used only
// when the snippets contain it; otherwise the derived name stands. A reply
// with neither is a failure.
func (e *Enricher) synthesize(ctx context.Context, email, name, company, domain string, results []search.Result) (*synthesized, error) {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	evidence := strings.ToLower(b.String())

	var p aiProfile
	if err := e.generateJSON(ctx, ai.Request{
		System:    synthesisSystem,
		Prompt:    fmt.Sprintf(synthesisPrompt, email, orNone(name), domain, company, b.String()),
		MaxTokens: 1024,
		JSON:      true,
		Purpose:   "email-synthesis",
	}, &p); err != nil {
		return nil, err
	}

	full := strings.Join(strings.Fields(p.Name), " ")
	if full == "" || !strings.Contains(evidence, strings.ToLower(full)) {
		full = name
	}
	if full == "" {
		return nil, apperr.Empty("enrich: email synthesis")
	}

	l := model.NewLead(full, model.DataSourceAI, model.MethodEmail)
	l.Email = email
	l.Title = p.Title
	l.Company = firstNonEmpty(p.Company, company)
	l.Phone = p.Phone
	l.Specialty = p.Specialty
	return &synthesized{
		lead:       l.Clean(),
		company:    p.CompanyInfo.info(domain),
		confidence: model.ParseConfidence(p.Confidence),
	}, nil
}

func ruleBasedLead(email, name, company string, snippets []string) model.Lead {
	p := extract.RuleBasedProfile(name, snippets)
	l := model.NewLead(name, model.DataSourceRuleBased, model.MethodEmail)
	l.Email = email
	l.Company = company
	l.Title = p.Title
	l.Phone = p.Phone
	l.Specialty = p.Specialty
	return l.Clean()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
