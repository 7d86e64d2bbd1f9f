package consolidate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/ai"
	"github.com/sells-group/lead-enrich/internal/model"
)

const systemPrompt = `You merge duplicate contact records into one.
For each field choose exactly one of the candidate values listed for it, copied verbatim.
Never fabricate, never combine values and never correct spelling. Only choose among the given values.
Prefer the most complete, official and senior-sounding value. Use "" when a field has no candidates.
Respond with a single JSON object: {"name":"","company":"","title":"","phone":"","email":"","specialty":""}`

// Consolidator merges duplicate groups, asking a generator to adjudicate
// when one is configured.
type Consolidator struct {
	gen     ai.Generator
	timeout time.Duration
}

// Option configures a Consolidator.
type Option func(*Consolidator)

// WithTimeout bounds each AI adjudication call.
func WithTimeout(d time.Duration) Option {
	return func(c *Consolidator) { c.timeout = d }
}

// New creates a Consolidator. A nil generator uses the rules only.
func New(gen ai.Generator, opts ...Option) *Consolidator {
	c := &Consolidator{gen: gen, timeout: 20 * time.Second}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Consolidate merges a duplicate group into one lead. A singleton comes back
// cleaned with duplicatesFound 0. Larger groups yield a new record (fresh
// id, consolidated data source, duplicatesFound n-1, consolidatedFrom the
// member ids). An AI value that is not one of the group's own values is
// replaced by the rule choice, and any AI failure falls back to the rules,
// so Consolidate never fails on a non-empty group. An empty group yields a
// zero Lead.
func (c *Consolidator) Consolidate(ctx context.Context, group []model.Lead) model.Lead {
	if len(group) < 2 || c.gen == nil {
		return Fallback(group)
	}

	f := collect(group)
	rules := ruleChoice(f)
	picked, err := c.adjudicate(ctx, f)
	if err != nil {
		zap.L().Warn("consolidate: ai adjudication failed, using rules",
			zap.String("provider", c.gen.Name()),
			zap.Int("group_size", len(group)),
			zap.Error(err),
		)
		return build(group, f, rules)
	}
	return build(group, f, constrain(picked, rules, f))
}

func (c *Consolidator) adjudicate(ctx context.Context, f fields) (choice, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	text, err := c.gen.Generate(ctx, ai.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(f),
		MaxTokens:   512,
		Temperature: 0,
		JSON:        true,
		Purpose:     "consolidate",
	})
	if err != nil {
		return choice{}, err
	}
	var out choice
	if err := ai.DecodeJSON(text, &out); err != nil {
		return choice{}, err
	}
	return out, nil
}

func buildPrompt(f fields) string {
	candidates := map[string][]string{
		"name":      distinct(f.names),
		"company":   distinct(f.companies),
		"title":     distinct(f.titles),
		"phone":     distinct(f.phones),
		"email":     distinct(f.emails),
		"specialty": distinct(f.specialties),
	}
	body, _ := json.MarshalIndent(candidates, "", "  ")
	return fmt.Sprintf("These records describe the same person. Candidate values per field:\n%s\n\nReturn the merged record as JSON.", body)
}

// constrain keeps each AI value only when it matches one of the group's
// values for that field, using the group's own spelling.
func constrain(got, rules choice, f fields) choice {
	return choice{
		Name:      among(got.Name, f.names, rules.Name),
		Company:   among(got.Company, f.companies, rules.Company),
		Title:     among(got.Title, f.titles, rules.Title),
		Phone:     among(got.Phone, f.phones, rules.Phone),
		Email:     among(got.Email, f.emails, rules.Email),
		Specialty: among(got.Specialty, f.specialties, rules.Specialty),
	}
}

func among(v string, values []string, fallback string) string {
	key := normalize(v)
	if key == "" {
		return fallback
	}
	for _, candidate := range values {
		if normalize(candidate) == key {
			return strings.TrimSpace(candidate)
		}
	}
	return fallback
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func distinct(values []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[normalize(v)] {
			continue
		}
		seen[normalize(v)] = true
		out = append(out, v)
	}
	return out
}

// Deduplicate groups leads and consolidates every group, reporting counts.
func (c *Consolidator) Deduplicate(ctx context.Context, leads []model.Lead) model.DedupeResult {
	groups := Group(leads)
	res := model.DedupeResult{
		Leads:      make([]model.Lead, 0, len(groups)),
		InputCount: len(leads),
	}
	for _, g := range groups {
		if len(g) > 1 {
			res.DuplicateGroups++
		}
		res.Leads = append(res.Leads, c.Consolidate(ctx, g))
	}
	res.OutputCount = len(res.Leads)
	zap.L().Info("consolidate: deduplicated leads",
		zap.Int("input", res.InputCount),
		zap.Int("output", res.OutputCount),
		zap.Int("duplicate_groups", res.DuplicateGroups),
	)
	return res
}
