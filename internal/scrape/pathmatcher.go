package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultExcludePatterns skip sections that rarely name people and assets
// that cannot be parsed as pages.
var defaultExcludePatterns = []string{
	"/blog/*",
	"/news/*",
	"/press/*",
	"/careers/*",
	"/cart/*",
	"/wp-content/*",
	"*.pdf",
	"*.jpg",
	"*.png",
	"*.zip",
}

// PathMatcher filters URLs with glob-style path patterns. A pattern ending
// in "/*" matches the whole subtree; a pattern starting with "*" matches the
// last path segment at any depth.
type PathMatcher struct {
	patterns []string
}

// NewPathMatcher creates a PathMatcher. Empty patterns select the defaults.
func NewPathMatcher(patterns []string) *PathMatcher {
	if len(patterns) == 0 {
		patterns = defaultExcludePatterns
	}
	lowered := make([]string, len(patterns))
	for i, p := range patterns {
		lowered[i] = strings.ToLower(p)
	}
	return &PathMatcher{patterns: lowered}
}

// Patterns returns the configured patterns.
func (m *PathMatcher) Patterns() []string {
	return m.patterns
}

// IsExcluded reports whether rawURL is unparseable or matches a pattern.
func (m *PathMatcher) IsExcluded(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	p := strings.ToLower(u.Path)
	for _, pattern := range m.patterns {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, urlPath string) bool {
	if strings.HasPrefix(pattern, "*") {
		ok, _ := path.Match(pattern, path.Base(urlPath))
		return ok
	}
	if ok, _ := path.Match(pattern, urlPath); ok {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	return false
}
