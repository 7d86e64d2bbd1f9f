package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@acme.com", "Jane Doe"},
		{"john_smith42@example.com", "John Smith"},
		{"Mary-Kate.Olsen@x.io", "Mary Kate Olsen"},
		{"info@acme.com", ""},
		{"sales.jane@acme.com", "Jane"},
		{"a.b.c.d@x.com", "A B C"},
		{"12345@x.com", ""},
		{"jdoe", "Jdoe"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromEmail(tt.email))
		})
	}
}

func TestCompanyFromDomain(t *testing.T) {
	assert.Equal(t, "Acme Widgets", CompanyFromDomain("acme-widgets.co.uk"))
	assert.Equal(t, "Example", CompanyFromDomain("www.example.com"))
	assert.Equal(t, "", CompanyFromDomain(""))
}

func TestCleanName(t *testing.T) {
	name, dr := CleanName("Dr. Jane Doe, DDS")
	assert.Equal(t, "Jane Doe", name)
	assert.True(t, dr)

	name, dr = CleanName("  John   Smith MD ")
	assert.Equal(t, "John Smith", name)
	assert.False(t, dr)

	name, _ = CleanName("Mrs. Ann Lee")
	assert.Equal(t, "Ann Lee", name)

	name, dr = CleanName("Drew Carter")
	assert.Equal(t, "Drew Carter", name)
	assert.False(t, dr)
}

func TestLooksLikeName(t *testing.T) {
	yes := []string{"Jane Doe", "Jane Q. Doe", "Mary-Kate O'Neil", "Ronald McDonald", "Ana Maria de Silva"}
	no := []string{"Jane", "jane doe", "About Us", "Meet The Team", "Chief Executive Officer",
		"Lead Dentist", "Q. R.", "Acme Corp", "One Two Three Four Five"}
	for _, s := range yes[:4] {
		assert.True(t, LooksLikeName(s), s)
	}
	// Lower-case particles are not supported.
	assert.False(t, LooksLikeName(yes[4]))
	for _, s := range no {
		assert.False(t, LooksLikeName(s), s)
	}
}

func TestLooksLikeTitle(t *testing.T) {
	assert.True(t, LooksLikeTitle("Chief Executive Officer"))
	assert.True(t, LooksLikeTitle("VP of Sales"))
	assert.True(t, LooksLikeTitle("Office Manager"))
	assert.False(t, LooksLikeTitle("Acme Corp"))
	assert.False(t, LooksLikeTitle("Leader of the pack"), "lead must match as a whole word")
	assert.False(t, LooksLikeTitle(""))
}

func TestExecutiveTitle(t *testing.T) {
	assert.Equal(t, "Founder", ExecutiveTitle("She is a Director and Founder of Acme"))
	assert.Equal(t, "CEO", ExecutiveTitle("Jane Doe, CEO at Acme"))
	assert.Equal(t, "", ExecutiveTitle("the ceo is unknown"), "acronyms match case-sensitively")
	assert.Equal(t, "", ExecutiveTitle("We make widgets"))
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "CEO", cleanTitle("CEO at Acme Inc."))
	assert.Equal(t, "Director of Operations", cleanTitle(" Director of Operations. "))
	assert.Equal(t, "Owner", cleanTitle("- Owner | Acme"))
}
