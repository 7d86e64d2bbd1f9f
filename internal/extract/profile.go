package extract

import (
	"strings"

	"github.com/sells-group/lead-enrich/internal/model"
)

// DefaultTitle is reported when no title can be read from the evidence.
const DefaultTitle = "Professional"

// Profile is what rules alone can say about a person.
type Profile struct {
	Title     string
	Phone     string
	Specialty string
}

// RuleBasedProfile reads a title, phone and specialty for name from the
// search snippets that mention the person by last name. Snippets about
// anyone else are ignored, so with no mention the title is DefaultTitle and
// the phone stays empty.
func RuleBasedProfile(name string, snippets []string) Profile {
	evidence := mentioning(name, snippets)
	joined := strings.Join(evidence, "\n")

	p := Profile{
		Title:     ExecutiveTitle(joined),
		Specialty: model.SpecialtyFromText(evidence...),
	}
	if m := phoneRe.FindString(joined); m != "" {
		p.Phone = model.FormatPhone(m)
	}
	if p.Title == "" {
		p.Title = DefaultTitle
	}
	return p
}

func mentioning(name string, snippets []string) []string {
	toks := strings.Fields(strings.ToLower(name))
	if len(toks) == 0 {
		return nil
	}
	last := toks[len(toks)-1]
	var out []string
	for _, s := range snippets {
		if strings.Contains(strings.ToLower(s), last) {
			out = append(out, s)
		}
	}
	return out
}
