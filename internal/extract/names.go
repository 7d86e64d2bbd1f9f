// Package extract turns scraped pages and search results into leads and
// company profiles with deterministic rules. Nothing here calls a network
// service.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// nameTokenRe matches one capitalized name word: "Jane", "O'Neil",
// "Smith-Jones", "McDonald" or an initial like "Q.".
var nameTokenRe = regexp.MustCompile(`^(?:[A-Z](?:[a-z]+|['’][A-Z][a-z]+)(?:-[A-Z]?[a-z]+)*|[A-Z][a-z]*[A-Z][a-z]+|[A-Z]\.)$`)

// notNameWords are capitalized words that appear in headings and
// navigation but never in a person's name.
var notNameWords = map[string]bool{
	"about": true, "our": true, "team": true, "contact": true, "us": true, "home": true,
	"services": true, "service": true, "privacy": true, "policy": true, "read": true,
	"more": true, "learn": true, "meet": true, "the": true, "and": true, "of": true,
	"llc": true, "inc": true, "corp": true, "ltd": true, "company": true, "group": true, "leadership": true,
	"staff": true, "board": true, "directors": true, "management": true, "welcome": true,
	"news": true, "blog": true, "careers": true, "join": true, "view": true, "profile": true,
	"email": true, "phone": true, "call": true, "office": true, "location": true, "locations": true,
	"copyright": true, "all": true, "rights": true, "reserved": true, "terms": true, "menu": true,
	"chief": true, "officer": true, "executive": true, "director": true, "manager": true,
	"president": true, "founder": true, "owner": true, "partner": true, "linkedin": true,
	"street": true, "suite": true, "avenue": true, "road": true, "new": true, "patients": true,
	"schedule": true, "appointment": true, "book": true, "online": true, "today": true,
}

// honorifics are stripped from the front of a name.
var honorifics = []string{"Dr.", "Dr", "Mr.", "Mr", "Mrs.", "Mrs", "Ms.", "Ms", "Prof.", "Prof"}

// credentials are stripped from the end of a name ("Jane Doe, DDS").
var credentials = map[string]bool{
	"dds": true, "dmd": true, "md": true, "do": true, "phd": true, "mba": true, "cpa": true,
	"esq": true, "jd": true, "rn": true, "np": true, "pa": true, "dvm": true, "jr": true,
	"sr": true, "ii": true, "iii": true, "pe": true, "cfa": true, "msn": true, "ms": true,
}

// CleanName strips honorifics and trailing credentials and reports whether
// a doctor honorific was present.
func CleanName(s string) (name string, doctor bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, h := range honorifics {
		if strings.HasPrefix(s, h+" ") {
			doctor = strings.HasPrefix(h, "Dr")
			s = strings.TrimSpace(s[len(h):])
			break
		}
	}
	if i := strings.Index(s, ","); i > 0 {
		rest := strings.ToLower(strings.Trim(strings.TrimSpace(s[i+1:]), "."))
		if credentials[strings.ReplaceAll(rest, ".", "")] {
			s = strings.TrimSpace(s[:i])
		}
	}
	toks := strings.Fields(s)
	for len(toks) > 2 && credentials[strings.ToLower(strings.ReplaceAll(toks[len(toks)-1], ".", ""))] {
		toks = toks[:len(toks)-1]
	}
	return strings.Join(toks, " "), doctor
}

// LooksLikeName reports whether s is plausibly a person's full name: two to
// four capitalized words, none of them a heading or navigation word.
func LooksLikeName(s string) bool {
	toks := strings.Fields(s)
	if len(toks) < 2 || len(toks) > 4 {
		return false
	}
	initials := 0
	for _, t := range toks {
		if !nameTokenRe.MatchString(t) {
			return false
		}
		w := strings.ToLower(strings.Trim(t, "."))
		if notNameWords[w] || titleWordSet[w] {
			return false
		}
		if strings.HasSuffix(t, ".") {
			initials++
		}
	}
	// First and last words must be real words, not initials.
	return initials < len(toks)-1 && !strings.HasSuffix(toks[len(toks)-1], ".")
}

// genericLocalParts are mailbox names that do not identify a person.
var genericLocalParts = map[string]bool{
	"info": true, "contact": true, "admin": true, "sales": true, "support": true,
	"hello": true, "office": true, "team": true, "mail": true, "email": true,
	"enquiries": true, "inquiries": true, "help": true, "billing": true, "marketing": true,
	"noreply": true, "no": true, "reply": true, "webmaster": true, "hr": true, "jobs": true,
	"careers": true, "service": true, "accounts": true, "press": true, "media": true,
	"hi": true, "general": true, "frontdesk": true, "reception": true, "appointments": true,
}

var localSplitRe = regexp.MustCompile(`[._\-+]+`)

// NameFromEmail derives a display name from an address's local part:
// digits are removed, the rest is split on separators, mailbox words like
// "info" are dropped and the remaining tokens are title-cased (at most
// three). Returns "" when nothing person-like remains.
func NameFromEmail(email string) string {
	local := strings.ToLower(strings.TrimSpace(email))
	if i := strings.LastIndex(local, "@"); i >= 0 {
		local = local[:i]
	}
	local = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, local)

	var toks []string
	for _, t := range localSplitRe.Split(local, -1) {
		if t == "" || genericLocalParts[t] {
			continue
		}
		toks = append(toks, titleCaser.String(t))
		if len(toks) == 3 {
			break
		}
	}
	return strings.Join(toks, " ")
}

// CompanyFromDomain title-cases a domain's first label: "acme-widgets.co.uk"
// becomes "Acme Widgets".
func CompanyFromDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "www.")
	if i := strings.Index(d, "."); i >= 0 {
		d = d[:i]
	}
	d = strings.NewReplacer("-", " ", "_", " ").Replace(d)
	return titleCaser.String(strings.Join(strings.Fields(d), " "))
}
