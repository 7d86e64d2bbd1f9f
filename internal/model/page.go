package model

// CrawledPage is a single fetched page. HTML is kept alongside the markdown
// rendering so the extractor can walk the DOM.
type CrawledPage struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Markdown   string `json:"markdown"`
	HTML       string `json:"html,omitempty"`
	StatusCode int    `json:"status_code"`
}

// Text returns the best available textual rendering of the page.
func (p CrawledPage) Text() string {
	if p.Markdown != "" {
		return p.Markdown
	}
	return p.HTML
}
