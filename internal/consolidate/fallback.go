package consolidate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/sells-group/lead-enrich/internal/model"
)

// titleRanks orders titles by seniority; earlier entries outrank later ones.
// Matching is by word on the lower-cased title.
var titleRanks = [][]string{
	{"ceo", "chief executive"},
	{"owner"},
	{"founder", "co-founder", "cofounder"},
	{"president"},
	{"director", "vp"},
	{"manager"},
	{"lead"},
	{"senior", "sr"},
	{"doctor", "dentist", "dr", "dds", "dmd", "md", "physician"},
}

var titleRankRes = func() [][]*regexp.Regexp {
	out := make([][]*regexp.Regexp, len(titleRanks))
	for i, words := range titleRanks {
		for _, w := range words {
			out[i] = append(out[i], regexp.MustCompile(`(?:^|[^a-z])`+regexp.QuoteMeta(w)+`(?:$|[^a-z])`))
		}
	}
	return out
}()

// TitleRank scores a title's seniority: higher is more senior, 0 for titles
// outside the list. "Vice President" ranks with directors, not presidents.
func TitleRank(title string) int {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return 0
	}
	if strings.Contains(t, "vice president") {
		return len(titleRanks) - 4
	}
	for i, res := range titleRankRes {
		for _, re := range res {
			if re.MatchString(t) {
				return len(titleRanks) - i
			}
		}
	}
	return 0
}

// better reports whether b should replace a. Non-empty always beats empty;
// ties keep a so earlier leads win.
type better func(a, b string) bool

func pick(values []string, prefer better) string {
	best := ""
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if best == "" || prefer(best, v) {
			best = v
		}
	}
	return best
}

func longer(a, b string) bool { return len([]rune(b)) > len([]rune(a)) }

func shorter(a, b string) bool { return len([]rune(b)) < len([]rune(a)) }

// isProperCase reports whether every word starts upper-case and continues
// with at least one lower-case letter ("John Smith", "Mary-Kate O'Neil").
func isProperCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		rs := []rune(w)
		if !unicode.IsUpper(rs[0]) {
			return false
		}
		hasLower := false
		for _, r := range rs[1:] {
			if unicode.IsLower(r) {
				hasLower = true
				break
			}
		}
		if len(rs) > 1 && !hasLower && !strings.HasSuffix(w, ".") {
			return false
		}
	}
	return true
}

func betterName(a, b string) bool {
	pa, pb := isProperCase(a), isProperCase(b)
	if pa != pb {
		return pb
	}
	return longer(a, b)
}

func betterTitle(a, b string) bool {
	ra, rb := TitleRank(a), TitleRank(b)
	if ra != rb {
		return rb > ra
	}
	return longer(a, b)
}

var areaCodeRe = regexp.MustCompile(`\(\d{3}\)`)

func betterPhone(a, b string) bool {
	fa, fb := areaCodeRe.MatchString(a), areaCodeRe.MatchString(b)
	if fa != fb {
		return fb
	}
	return longer(a, b)
}

func firstNonEmpty(values []string) string {
	return pick(values, func(string, string) bool { return false })
}

type fields struct {
	names, companies, titles, phones, emails, secondary, specialties []string
	sources, stages, zips, statuses                                  []string
}

func collect(group []model.Lead) fields {
	var f fields
	for _, l := range group {
		f.names = append(f.names, l.Name)
		f.companies = append(f.companies, l.Company)
		f.titles = append(f.titles, l.Title)
		f.phones = append(f.phones, l.Phone)
		f.emails = append(f.emails, strings.ToLower(l.Email))
		f.secondary = append(f.secondary, strings.ToLower(l.SecondaryEmail))
		f.specialties = append(f.specialties, l.Specialty)
		f.sources = append(f.sources, l.Source)
		f.stages = append(f.stages, l.LifecycleStage)
		f.zips = append(f.zips, l.ZipCode)
		f.statuses = append(f.statuses, l.SalesStatus)
	}
	return f
}

// choice is the per-field selection made for a group.
type choice struct {
	Name      string `json:"name"`
	Company   string `json:"company"`
	Title     string `json:"title"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
}

// ruleChoice applies the deterministic preferences: proper-case then longer
// name, longer company, more senior then longer title, area-code formatted
// then longer phone, shorter email, longer specialty.
func ruleChoice(f fields) choice {
	return choice{
		Name:      pick(f.names, betterName),
		Company:   pick(f.companies, longer),
		Title:     pick(f.titles, betterTitle),
		Phone:     pick(f.phones, betterPhone),
		Email:     pick(f.emails, shorter),
		Specialty: pick(f.specialties, longer),
	}
}

// Fallback merges a group with the deterministic rules alone.
func Fallback(group []model.Lead) model.Lead {
	if len(group) == 0 {
		return model.Lead{}
	}
	if len(group) == 1 {
		return single(group[0])
	}
	f := collect(group)
	return build(group, f, ruleChoice(f))
}

func single(l model.Lead) model.Lead {
	out := l.Clean()
	zero := 0
	out.DuplicatesFound = &zero
	return out
}

// build assembles the consolidated record from a per-field choice.
func build(group []model.Lead, f fields, c choice) model.Lead {
	out := model.NewLead(c.Name, model.DataSourceConsolidated, model.MethodCSVDeduplicated)
	out.Company = c.Company
	out.Title = c.Title
	out.Phone = c.Phone
	out.Email = c.Email
	out.Specialty = c.Specialty
	out.Source = firstNonEmpty(f.sources)
	out.LifecycleStage = firstNonEmpty(f.stages)
	out.ZipCode = firstNonEmpty(f.zips)
	out.SalesStatus = firstNonEmpty(f.statuses)

	// Another distinct address from the group becomes the secondary email.
	for _, e := range append(append([]string(nil), f.secondary...), f.emails...) {
		if e != "" && e != out.Email {
			out.SecondaryEmail = e
			break
		}
	}

	n := len(group) - 1
	out.DuplicatesFound = &n
	for _, l := range group {
		if l.ID != "" {
			out.ConsolidatedFrom = append(out.ConsolidatedFrom, l.ID)
		}
	}
	return out.Clean()
}
