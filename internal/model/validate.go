package model

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sells-group/lead-enrich/internal/apperr"
)

// domainRe accepts hostnames made of 1-63 char labels ending in an alphabetic
// TLD of 2+ letters. Multi-part suffixes like .co.uk and .com.br fall out of
// the repeated label group.
var domainRe = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("leaddomain", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) <= 253 && domainRe.MatchString(s)
	})
	return v
}

// NormalizeDomain strips scheme, credentials, "www.", port and path from raw
// and lower-cases the host. "https://www.Acme.com/about" becomes "acme.com".
func NormalizeDomain(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			s = u.Host
		}
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, ".")
}

// ValidateDomain normalizes raw and checks it is a syntactically valid
// domain. The returned error is a validation-kind apperr.
func ValidateDomain(raw string) (string, error) {
	d := NormalizeDomain(raw)
	if d == "" {
		return "", apperr.Validation("model: validate domain", "domain is required")
	}
	if err := validate.Var(d, "leaddomain"); err != nil {
		return "", apperr.Validation("model: validate domain", "invalid domain format: "+raw)
	}
	return d, nil
}

// ValidateEmail trims and lower-cases raw and checks basic email syntax.
func ValidateEmail(raw string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(raw))
	if e == "" {
		return "", apperr.Validation("model: validate email", "email is required")
	}
	if err := validate.Var(e, "email"); err != nil {
		return "", apperr.Validation("model: validate email", "invalid email format: "+raw)
	}
	return e, nil
}

// EmailDomain returns the lower-cased domain part of an address.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[i+1:]))
}
