package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/apperr"
)

func TestValidateDomain(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"acme.com":                   "acme.com",
		"Acme.COM":                   "acme.com",
		"https://www.acme.com/about": "acme.com",
		"http://acme.com:8080":       "acme.com",
		"acme.co.uk":                 "acme.co.uk",
		"loja.com.br":                "loja.com.br",
		"my-company.io":              "my-company.io",
		"acme-unknown-xyz.com":       "acme-unknown-xyz.com",
	}
	for raw, want := range valid {
		got, err := ValidateDomain(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	invalid := []string{"", "acme", "acme.c", "-acme.com", "acme-.com", "acme..com", "acme.c0m", "ac me.com"}
	for _, raw := range invalid {
		_, err := ValidateDomain(raw)
		require.Error(t, err, raw)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), raw)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	got, err := ValidateEmail(" Jane.Doe@Acme.com ")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@acme.com", got)

	for _, raw := range []string{"", "jane", "jane@", "@acme.com", "jane doe@acme.com"} {
		_, err := ValidateEmail(raw)
		require.Error(t, err, raw)
		assert.True(t, apperr.Is(err, apperr.KindValidation), raw)
	}
}

func TestEmailDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme.com", EmailDomain("jane@ACME.com"))
	assert.Empty(t, EmailDomain("no-at-sign"))
}

func TestFormatPhone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(202) 456-1111", FormatPhone("2024561111"))
	assert.Equal(t, "(202) 456-1111", FormatPhone("+1 202-456-1111"))
	assert.Equal(t, "+44 20 7946 0958", FormatPhone("+44 20 7946 0958"))
	assert.Equal(t, "ext. unknown", FormatPhone("  ext. unknown "))
	assert.Empty(t, FormatPhone(""))
}

func TestPhoneDigits(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "2024561111", PhoneDigits("(202) 456-1111"))
}

func TestSpecialtyFromText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Technology", SpecialtyFromText("Acme builds cloud software"))
	assert.Equal(t, "Dental", SpecialtyFromText("Smile Family Dentistry", "dental care"))
	assert.Equal(t, "Legal", SpecialtyFromText("Smith & Jones Law Firm"))
	assert.Empty(t, SpecialtyFromText(""))
	assert.Empty(t, SpecialtyFromText("xyz"))
}

func TestParseConfidence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ConfidenceHigh, ParseConfidence(" HIGH "))
	assert.Equal(t, ConfidenceMedium, ParseConfidence("medium"))
	assert.Equal(t, ConfidenceLow, ParseConfidence("certain"))
}
