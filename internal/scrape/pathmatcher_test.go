package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathMatcher_IsExcluded(t *testing.T) {
	t.Parallel()
	m := NewPathMatcher([]string{"/blog/*", "/news/*", "*.pdf", "/Careers/*"})

	tests := []struct {
		name     string
		url      string
		excluded bool
	}{
		{"blog post", "https://acme.com/blog/post1", true},
		{"blog root", "https://acme.com/blog", true},
		{"blog deep path", "https://acme.com/blog/2024/01/post", true},
		{"news article", "https://acme.com/news/article", true},
		{"careers mixed case", "https://acme.com/CAREERS/job1", true},
		{"root pdf", "https://acme.com/report.pdf", true},
		{"nested pdf", "https://acme.com/docs/team.pdf", true},
		{"about page", "https://acme.com/about", false},
		{"homepage", "https://acme.com", false},
		{"team", "https://acme.com/team", false},
		{"blogger is not blog", "https://acme.com/blogger", false},
		{"invalid url", "://invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.excluded, m.IsExcluded(tt.url))
		})
	}
}

func TestPathMatcher_DefaultPatterns(t *testing.T) {
	m := NewPathMatcher(nil)

	assert.True(t, m.IsExcluded("https://acme.com/press/release"))
	assert.True(t, m.IsExcluded("https://acme.com/wp-content/uploads/logo.png"))
	assert.True(t, m.IsExcluded("https://acme.com/images/headshot.jpg"))
	assert.False(t, m.IsExcluded("https://acme.com/leadership"))
	assert.False(t, m.IsExcluded("https://acme.com/contact"))
	assert.Equal(t, defaultExcludePatterns, m.Patterns())
}

func TestLeadPageURLs(t *testing.T) {
	urls := LeadPageURLs("acme.com/")
	assert.Equal(t, "https://acme.com", urls[0])
	assert.Contains(t, urls, "https://acme.com/team")
	assert.Contains(t, urls, "https://acme.com/leadership")
	assert.Contains(t, urls, "https://acme.com/contact")
	assert.Contains(t, urls, "https://acme.com/about")
}
