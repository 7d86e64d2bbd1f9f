package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/lead-enrich/internal/model"
)

// cardClassRe matches class or id values of elements that wrap one person.
var cardClassRe = regexp.MustCompile(`(?i)(team|member|staff|person|people|profile|bio|leader|doctor|provider|employee|executive|vcard)`)

var skippedTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Svg: true,
	atom.Template: true, atom.Head: true,
}

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Li: true, atom.Tr: true, atom.Br: true, atom.H1: true, atom.H2: true,
	atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Td: true, atom.Dd: true, atom.Dt: true, atom.Figcaption: true,
}

// LeadsFromHTML extracts people from a crawled page. Person "cards" (team,
// staff and leadership blocks) are read first, picking up mailto and tel
// links; a text pass over the whole page follows. Pages without HTML fall
// back to the text pass alone.
func LeadsFromHTML(page model.CrawledPage) []model.Lead {
	if strings.TrimSpace(page.HTML) == "" {
		return LeadsFromText(page.Text())
	}
	root, err := html.Parse(strings.NewReader(page.HTML))
	if err != nil {
		return LeadsFromText(page.Text())
	}

	var leads []model.Lead
	for _, card := range findCards(root) {
		if l, ok := leadFromCard(card); ok {
			leads = append(leads, l)
		}
	}
	leads = append(leads, LeadsFromText(nodeText(root))...)
	return MergeByName(leads)
}

func isCard(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.Li, atom.Article, atom.Section, atom.Figure, atom.Td:
	default:
		return false
	}
	return cardClassRe.MatchString(attr(n, "class")) || cardClassRe.MatchString(attr(n, "id"))
}

// findCards returns the innermost card elements under n.
func findCards(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node) bool
	// walk reports whether n or a descendant is a card.
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && skippedTags[n.DataAtom] {
			return false
		}
		nested := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				nested = true
			}
		}
		if isCard(n) {
			if !nested {
				out = append(out, n)
			}
			return true
		}
		return nested
	}
	walk(n)
	return out
}

func leadFromCard(n *html.Node) (model.Lead, bool) {
	lines := textLines(nodeText(n))
	var name, title string
	doctor := false
	for _, line := range lines {
		if name == "" {
			if c, dr := CleanName(line); LooksLikeName(c) {
				name, doctor = c, dr
				continue
			}
			if m := nameSepTitleRe.FindStringSubmatch(line); m != nil {
				if c, dr := CleanName(m[1]); LooksLikeName(c) && LooksLikeTitle(m[2]) {
					name, doctor, title = c, dr, cleanTitle(m[2])
					continue
				}
			}
		}
		if title == "" && LooksLikeTitle(line) && !LooksLikeName(line) {
			title = cleanTitle(line)
		}
	}
	if name == "" {
		return model.Lead{}, false
	}

	l := model.NewLead(name, model.DataSourceScraped, model.MethodDomain)
	l.Title = title
	if l.Title == "" && doctor {
		l.Title = "Doctor"
	}
	for _, href := range links(n) {
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:") && l.Email == "":
			addr := href[len("mailto:"):]
			if i := strings.Index(addr, "?"); i >= 0 {
				addr = addr[:i]
			}
			l.Email = strings.TrimSpace(addr)
		case strings.HasPrefix(lower, "tel:") && l.Phone == "":
			l.Phone = strings.TrimSpace(href[len("tel:"):])
		}
	}
	if l.Email == "" || l.Phone == "" {
		email, phone := contactIn(lines, name)
		if l.Email == "" {
			l.Email = email
		}
		if l.Phone == "" {
			l.Phone = phone
		}
	}
	return l.Clean(), true
}

// MergeByName keeps the first lead per name and fills its empty contact
// fields from later sightings of the same person.
func MergeByName(leads []model.Lead) []model.Lead {
	idx := map[string]int{}
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		key := strings.ToLower(l.Name)
		i, ok := idx[key]
		if !ok {
			idx[key] = len(out)
			out = append(out, l)
			continue
		}
		m := &out[i]
		if m.Title == "" || (m.Title == "Doctor" && l.Title != "") {
			m.Title = l.Title
			m.Seniority = l.Seniority
		}
		if m.Email == "" {
			m.Email = l.Email
		}
		if m.Phone == "" {
			m.Phone = l.Phone
		}
	}
	return out
}

// nodeText renders n as text with one line per block element.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedTags[n.DataAtom] {
				return
			}
			if blockTags[n.DataAtom] {
				b.WriteByte('\n')
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.DataAtom] {
			b.WriteByte('\n')
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func links(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href := strings.TrimSpace(attr(n, "href")); href != "" {
				out = append(out, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// genericTitleParts are <title> segments that never name the company.
var genericTitleParts = map[string]bool{
	"home": true, "homepage": true, "about": true, "about us": true, "welcome": true,
	"contact": true, "contact us": true, "team": true, "our team": true, "meet the team": true,
	"leadership": true, "our leadership": true, "staff": true, "our staff": true,
}

var (
	titleSplitRe = regexp.MustCompile(`\s+[|\-–—:·]\s+`)
	cityStateRe  = regexp.MustCompile(`\b([A-Z][a-zA-Z.]+(?: [A-Z][a-zA-Z.]+)*),\s*([A-Z]{2})\s+\d{5}(?:-\d{4})?\b`)
)

// CompanyFromHTML builds a company profile from a page's <title>, meta
// description and og:site_name. Missing attributes are left empty; callers
// normalize to "Unknown".
func CompanyFromHTML(page model.CrawledPage, domain string) model.CompanyInfo {
	info := model.CompanyInfo{Domain: domain}
	title := page.Title
	text := page.Text()

	if strings.TrimSpace(page.HTML) != "" {
		if root, err := html.Parse(strings.NewReader(page.HTML)); err == nil {
			metas := metaTags(root)
			info.Name = metas["og:site_name"]
			info.Description = firstNonEmpty(metas["description"], metas["og:description"])
			if title == "" {
				title = firstNonEmpty(metas["og:title"], docTitle(root))
			}
			text = nodeText(root)
		}
	}

	if info.Name == "" {
		info.Name = nameFromTitle(title)
	}
	if info.Name == "" && domain != "" {
		info.Name = CompanyFromDomain(domain)
	}
	sample := text
	if len(sample) > 4000 {
		sample = sample[:4000]
	}
	info.Industry = model.SpecialtyFromText(title, info.Description, sample)
	if m := cityStateRe.FindStringSubmatch(text); m != nil {
		info.Location = m[1] + ", " + m[2]
	}
	return info
}

// nameFromTitle picks the first non-generic segment of a page title:
// "About Us | Acme Dental" gives "Acme Dental".
func nameFromTitle(title string) string {
	for _, part := range titleSplitRe.Split(strings.TrimSpace(title), -1) {
		part = strings.TrimSpace(part)
		if part != "" && !genericTitleParts[strings.ToLower(part)] {
			return part
		}
	}
	return ""
}

// metaTags maps meta name/property values to their content.
func metaTags(n *html.Node) map[string]string {
	out := map[string]string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			key := strings.ToLower(firstNonEmpty(attr(n, "property"), attr(n, "name")))
			if key != "" {
				if _, dup := out[key]; !dup {
					out[key] = strings.TrimSpace(attr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func docTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title && n.FirstChild != nil {
		return strings.TrimSpace(n.FirstChild.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := docTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
