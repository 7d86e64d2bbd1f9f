package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-enrich/internal/model"
)

var (
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe  = regexp.MustCompile(`(?:\+?1[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]\d{4}\b`)
	mdLinkRe = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdMarkRe = regexp.MustCompile("[*`]+")
	listRe   = regexp.MustCompile(`^(?:[#>\-+]+|\d+[.)])\s*`)

	// "Jane Doe, CEO" / "Jane Doe - Founder" / "Jane Doe | Owner"
	nameSepTitleRe = regexp.MustCompile(`^(.{3,60}?)\s*(?:,|\s[-–—|]\s|:)\s*(.{2,80})$`)
	// "Jane Doe is the Chief Executive Officer of Acme"
	isTheRe = regexp.MustCompile(`((?:Dr\.?\s+)?[A-Z][A-Za-z'’.\-]+(?:\s+[A-Z][A-Za-z'’.\-]+){1,3})\s+(?:is|serves as)\s+(?:the|our|a|an)\s+([A-Za-z][A-Za-z &/\-]{1,60}?)\s+(?:of|at|for)\b`)
	// "Dr. Jane Doe" / "Dr Jane Q. Doe"
	doctorRe = regexp.MustCompile(`\bDr\.?\s+([A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][A-Za-z'’\-]+){1,2})`)
)

// textLines splits text into trimmed lines with markdown decoration removed.
func textLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = mdLinkRe.ReplaceAllString(line, "$1")
		line = mdMarkRe.ReplaceAllString(line, "")
		line = listRe.ReplaceAllString(strings.TrimSpace(line), "")
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

type candidate struct {
	name   string
	title  string
	line   int
	doctor bool
}

// LeadsFromText finds people in free text. It recognizes "Name, Title",
// "Name - Title", a name line followed by a title line, "Name is the Title
// of ..." sentences and "Dr. Name" mentions. Emails and phones on the lines
// that follow a name (up to the next person) are attached to that lead.
func LeadsFromText(text string) []model.Lead {
	lines := textLines(text)
	var cands []candidate
	seen := map[string]int{}
	add := func(c candidate) {
		key := strings.ToLower(c.name)
		if i, ok := seen[key]; ok {
			if cands[i].title == "" {
				cands[i].title = c.title
			}
			return
		}
		seen[key] = len(cands)
		cands = append(cands, c)
	}

	for i, line := range lines {
		if m := nameSepTitleRe.FindStringSubmatch(line); m != nil {
			name, dr := CleanName(m[1])
			if LooksLikeName(name) && LooksLikeTitle(m[2]) && !LooksLikeName(m[2]) {
				add(candidate{name: name, title: cleanTitle(m[2]), line: i, doctor: dr})
				continue
			}
		}
		if name, dr := CleanName(line); LooksLikeName(name) && i+1 < len(lines) {
			next := lines[i+1]
			if LooksLikeTitle(next) && !LooksLikeName(next) {
				add(candidate{name: name, title: cleanTitle(next), line: i, doctor: dr})
				continue
			}
		}
		for _, m := range isTheRe.FindAllStringSubmatch(line, -1) {
			name, dr := CleanName(m[1])
			if LooksLikeName(name) && LooksLikeTitle(m[2]) {
				add(candidate{name: name, title: cleanTitle(m[2]), line: i, doctor: dr})
			}
		}
		for _, m := range doctorRe.FindAllStringSubmatch(line, -1) {
			name, _ := CleanName(m[1])
			if LooksLikeName(name) {
				add(candidate{name: name, line: i, doctor: true})
			}
		}
	}

	leads := make([]model.Lead, 0, len(cands))
	for ci, c := range cands {
		end := len(lines)
		for _, other := range cands[ci+1:] {
			if other.line > c.line && other.line < end {
				end = other.line
			}
		}
		if end > c.line+4 {
			end = c.line + 4
		}
		l := model.NewLead(c.name, model.DataSourceScraped, model.MethodDomain)
		l.Title = c.title
		if l.Title == "" && c.doctor {
			l.Title = "Doctor"
		}
		l.Email, l.Phone = contactIn(lines[c.line:end], c.name)
		leads = append(leads, l.Clean())
	}
	return leads
}

// contactIn returns the first personal email and phone found in lines.
// An email whose local part names someone else is ignored.
func contactIn(lines []string, name string) (email, phone string) {
	for _, line := range lines {
		if email == "" {
			for _, e := range emailRe.FindAllString(line, -1) {
				if personalEmailFor(e, name) {
					email = strings.ToLower(e)
					break
				}
			}
		}
		if phone == "" {
			phone = phoneRe.FindString(line)
		}
	}
	return email, phone
}

// personalEmailFor reports whether e is a non-generic address that could
// belong to name: the local part mentions the first or last name, or is the
// first initial plus last name.
func personalEmailFor(e, name string) bool {
	local := strings.ToLower(e[:strings.LastIndex(e, "@")])
	if genericLocalParts[local] {
		return false
	}
	toks := strings.Fields(strings.ToLower(name))
	if len(toks) < 2 {
		return false
	}
	first, last := toks[0], toks[len(toks)-1]
	return strings.Contains(local, first) || strings.Contains(local, last) ||
		strings.HasPrefix(local, first[:1]+last)
}
