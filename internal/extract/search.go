package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/search"
)

var (
	linkedInSuffixRe = regexp.MustCompile(`(?i)\s*[|\-–—]\s*linkedin\s*$`)
	resultSplitRe    = regexp.MustCompile(`\s+[-–—|]\s+`)
)

// LeadsFromSearch reads people out of search results. Profile-style titles
// such as "Jane Doe - CEO - Acme | LinkedIn" yield name, title and company;
// snippets get the same pattern pass as page text. company, when set,
// overrides the company named in the result.
func LeadsFromSearch(results []search.Result, company string) []model.Lead {
	var leads []model.Lead
	for _, r := range results {
		if l, ok := leadFromResultTitle(r, company); ok {
			leads = append(leads, l)
		}
		for _, l := range LeadsFromText(r.Snippet) {
			if company != "" {
				l.Company = company
			}
			leads = append(leads, l)
		}
	}
	return MergeByName(leads)
}

func leadFromResultTitle(r search.Result, company string) (model.Lead, bool) {
	title := linkedInSuffixRe.ReplaceAllString(strings.TrimSpace(r.Title), "")
	parts := resultSplitRe.Split(title, -1)
	if len(parts) < 2 {
		return model.Lead{}, false
	}
	name, doctor := CleanName(parts[0])
	if !LooksLikeName(name) {
		return model.Lead{}, false
	}

	var role, org string
	switch {
	case LooksLikeTitle(parts[1]):
		role = parts[1]
		if i := strings.Index(strings.ToLower(role), " at "); i > 0 {
			org = role[i+4:]
		}
		role = cleanTitle(role)
		if len(parts) > 2 && org == "" {
			org = parts[2]
		}
	default:
		// "Jane Doe - Acme | LinkedIn": the second part is the employer.
		org = parts[1]
		role = ExecutiveTitle(r.Snippet)
	}
	if role == "" && !strings.Contains(strings.ToLower(r.Link), "linkedin.com/in/") {
		// Without a role only profile pages are trusted to name a person.
		return model.Lead{}, false
	}
	if role == "" && doctor {
		role = "Doctor"
	}

	l := model.NewLead(name, model.DataSourceScraped, model.MethodDomain)
	l.Title = role
	l.Company = strings.TrimSpace(org)
	if company != "" {
		l.Company = company
	}
	l.Email, l.Phone = contactIn([]string{r.Snippet}, name)
	return l.Clean(), true
}
