package model

import (
	"regexp"
	"strings"
)

// Seniority is a conventionally bounded level derived from a job title.
type Seniority string

const (
	SeniorityOwner        Seniority = "Owner"
	SeniorityCLevel       Seniority = "C-Level"
	SeniorityDirector     Seniority = "Director"
	SeniorityManager      Seniority = "Manager"
	SenioritySenior       Seniority = "Senior"
	SeniorityAssociate    Seniority = "Associate"
	SeniorityProfessional Seniority = "Professional"
	SeniorityUnknown      Seniority = "Unknown"
)

var titleTokenRe = regexp.MustCompile(`[a-z]+`)

// titleTokens lower-cases a title and splits it into alphabetic words.
func titleTokens(title string) map[string]bool {
	toks := titleTokenRe.FindAllString(strings.ToLower(title), -1)
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}

func hasAny(set map[string]bool, words ...string) bool {
	for _, w := range words {
		if set[w] {
			return true
		}
	}
	return false
}

// SeniorityFromTitle maps a free-text title onto a Seniority level. Matching
// is word-based so "Director" never matches "CTO".
func SeniorityFromTitle(title string) Seniority {
	title = strings.TrimSpace(title)
	if title == "" {
		return SeniorityUnknown
	}
	lower := strings.ToLower(title)
	t := titleTokens(title)

	switch {
	case hasAny(t, "owner", "proprietor", "founder", "cofounder") || strings.Contains(lower, "co-founder") ||
		strings.Contains(lower, "managing partner"):
		return SeniorityOwner
	case strings.Contains(lower, "vice president") || hasAny(t, "vp", "svp", "evp", "avp"):
		return SeniorityDirector
	case hasAny(t, "ceo", "cto", "cfo", "coo", "cmo", "cio", "ciso", "cro", "cpo", "chief", "president", "chairman", "chairwoman"):
		return SeniorityCLevel
	case hasAny(t, "director", "head", "partner", "principal"):
		return SeniorityDirector
	case hasAny(t, "manager", "supervisor", "superintendent", "administrator"):
		return SeniorityManager
	case hasAny(t, "senior", "sr", "lead", "staff"):
		return SenioritySenior
	case hasAny(t, "associate", "assistant", "coordinator", "junior", "jr", "intern", "trainee", "receptionist"):
		return SeniorityAssociate
	default:
		return SeniorityProfessional
	}
}
