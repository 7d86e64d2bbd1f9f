package extract

import (
	"regexp"
	"strings"
)

// titleWords mark a line as a job title.
var titleWords = []string{
	"ceo", "cfo", "cto", "coo", "cmo", "cio", "chief", "founder", "co-founder", "owner",
	"president", "vice president", "vp", "director", "manager", "head of", "lead", "partner",
	"principal", "officer", "executive", "chairman", "chair", "dentist", "doctor", "dds",
	"dmd", "physician", "surgeon", "attorney", "engineer", "consultant", "specialist",
	"coordinator", "administrator", "associate", "analyst", "senior", "supervisor", "broker",
	"agent", "realtor", "accountant", "cpa", "veterinarian", "dvm", "hygienist", "nurse",
	"therapist", "orthodontist", "counsel", "controller", "treasurer", "secretary", "advisor",
	"representative", "assistant", "designer", "developer", "strategist",
}

// titleWordSet holds the single-word entries of titleWords.
var titleWordSet = func() map[string]bool {
	set := make(map[string]bool, len(titleWords))
	for _, w := range titleWords {
		if !strings.ContainsAny(w, " -") {
			set[w] = true
		}
	}
	return set
}()

var titleWordRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(titleWords))
	for i, w := range titleWords {
		res[i] = regexp.MustCompile(`(?i)(?:^|[^a-z])` + regexp.QuoteMeta(w) + `(?:$|[^a-z])`)
	}
	return res
}()

// LooksLikeTitle reports whether s reads as a job title.
func LooksLikeTitle(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 80 {
		return false
	}
	for _, re := range titleWordRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// executiveTitles are matched in search snippets, most senior first.
var executiveTitles = []string{
	"Chief Executive Officer", "CEO", "Co-Founder", "Founder", "Owner", "President",
	"Chief Operating Officer", "COO", "Chief Financial Officer", "CFO",
	"Chief Technology Officer", "CTO", "Chief Marketing Officer", "CMO",
	"Managing Partner", "Managing Director", "Vice President", "VP", "Partner",
	"Director", "Manager", "Dentist", "Physician", "Attorney",
}

var executiveTitleRes = func() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(executiveTitles))
	for i, t := range executiveTitles {
		pattern := regexp.QuoteMeta(t)
		if strings.ToUpper(t) == t {
			// Acronyms are matched case-sensitively.
			res[i] = regexp.MustCompile(`\b` + pattern + `\b`)
			continue
		}
		res[i] = regexp.MustCompile(`(?i)\b` + pattern + `\b`)
	}
	return res
}()

// ExecutiveTitle returns the most senior executive title mentioned in text.
func ExecutiveTitle(text string) string {
	for i, re := range executiveTitleRes {
		if re.MatchString(text) {
			return executiveTitles[i]
		}
	}
	return ""
}

// cleanTitle trims separators and a trailing company attribution from a
// title fragment: "CEO at Acme Inc." becomes "CEO".
func cleanTitle(s string) string {
	s = strings.TrimSpace(strings.Trim(s, " -–—|,:;."))
	lower := strings.ToLower(s)
	for _, sep := range []string{" at ", " @ ", " | ", " - "} {
		if i := strings.Index(lower, sep); i > 0 {
			s, lower = s[:i], lower[:i]
		}
	}
	return strings.TrimSpace(strings.Trim(s, " -–—|,:;."))
}
