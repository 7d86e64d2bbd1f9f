package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const teamPage = `<html><head><title>Acme Corp | Team</title><style>body{color:red}</style></head>
<body><nav>Menu Home About</nav>
<h1>Our Team</h1>
<div class="member"><h3>Jane Doe</h3><p>Chief Executive Officer</p><a href="mailto:jane@acme.com">Email</a></div>
<p>Widgets &amp; gadgets since 1999.</p>
<script>alert('hi')</script>
<footer>Copyright 2024</footer></body></html>`

func TestLocalScraper_KeepsHTMLAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "LeadEnrichBot")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(teamPage))
	}))
	defer srv.Close()

	s := NewLocalScraper(5 * time.Second)
	result, err := s.Scrape(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "local_http", result.Source)
	assert.Equal(t, "Acme Corp | Team", result.Page.Title)
	assert.Equal(t, 200, result.Page.StatusCode)
	assert.Equal(t, teamPage, result.Page.HTML)

	text := result.Page.Markdown
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Chief Executive Officer")
	assert.Contains(t, text, "Widgets & gadgets")
	assert.NotContains(t, text, "Menu")
	assert.NotContains(t, text, "Copyright 2024")
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
}

func TestLocalScraper_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		header  map[string]string
		body    string
		wantErr string
	}{
		{"cloudflare", 403, map[string]string{"Cf-Ray": "abc"}, `<html><body>Access denied</body></html>`, "blocked"},
		{"captcha", 200, nil, `<html><body>Please complete the reCAPTCHA to continue</body></html>`, "blocked"},
		{"empty", 200, nil, `<html></html>`, "empty"},
		{"not found", 404, nil, `<html><body>` + strings.Repeat("Not found. ", 20) + `</body></html>`, "status 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewLocalScraper(time.Second).Scrape(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocalScraper_NameAndSupports(t *testing.T) {
	s := NewLocalScraper(0)
	assert.Equal(t, "local_http", s.Name())
	assert.True(t, s.Supports("https://example.com"))
}

func TestHTMLToText(t *testing.T) {
	title, text := htmlToText("<html><head><title> My Page </title></head><body><h1>Hello</h1><p>World   &amp;\n friends</p><ul><li>One</li><li>Two</li></ul></body></html>")
	assert.Equal(t, "My Page", title)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World & friends")
	assert.NotContains(t, text, "  ")
	assert.NotContains(t, text, "\n\n\n")

	lines := strings.Split(text, "\n")
	assert.Contains(t, lines, "One")
	assert.Contains(t, lines, "Two")
}

func TestHTMLToText_NoTitle(t *testing.T) {
	title, text := htmlToText("<p>no title here</p>")
	assert.Empty(t, title)
	assert.Equal(t, "no title here", text)
}
