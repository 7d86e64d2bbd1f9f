// Package similarity scores how likely two leads describe the same person.
package similarity

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
	"golang.org/x/net/publicsuffix"

	"github.com/sells-group/lead-enrich/internal/model"
)

// Threshold is the score above which two leads are duplicates.
const Threshold = 0.70

const (
	weightName    = 0.4
	weightCompany = 0.3
	weightPhone   = 0.2
	weightEmail   = 0.1
)

// Breakdown holds the per-field sub-scores behind a Score. A field only
// counts when both leads carry it.
type Breakdown struct {
	Name       float64 `json:"name"`
	Company    float64 `json:"company"`
	Phone      float64 `json:"phone"`
	Email      float64 `json:"email"`
	HasName    bool    `json:"has_name"`
	HasCompany bool    `json:"has_company"`
	HasPhone   bool    `json:"has_phone"`
	HasEmail   bool    `json:"has_email"`
	Weighted   float64 `json:"weighted"`
	Score      float64 `json:"score"`
}

// Compare computes the sub-scores, the weighted average renormalized over
// the present fields, and the final score after the boost floors.
func Compare(a, b model.Lead) Breakdown {
	var bd Breakdown
	var sum, weight float64

	if na, nb := normalizeName(a.Name), normalizeName(b.Name); na != "" && nb != "" {
		bd.HasName = true
		bd.Name = Strings(na, nb)
		sum += weightName * bd.Name
		weight += weightName
	}
	if ca, cb := NormalizeCompany(a.Company), NormalizeCompany(b.Company); ca != "" && cb != "" {
		bd.HasCompany = true
		bd.Company = Strings(ca, cb)
		sum += weightCompany * bd.Company
		weight += weightCompany
	}
	if pa, pb := strings.TrimSpace(a.Phone), strings.TrimSpace(b.Phone); pa != "" && pb != "" {
		bd.HasPhone = true
		bd.Phone = Phone(pa, pb)
		sum += weightPhone * bd.Phone
		weight += weightPhone
	}
	if ea, eb := strings.TrimSpace(a.Email), strings.TrimSpace(b.Email); ea != "" && eb != "" {
		bd.HasEmail = true
		bd.Email = Email(ea, eb)
		sum += weightEmail * bd.Email
		weight += weightEmail
	}

	if weight == 0 {
		return bd
	}
	bd.Weighted = sum / weight
	bd.Score = bd.Weighted

	// Near-identical name and company is strong evidence on its own.
	if bd.HasName && bd.HasCompany && bd.Name >= 0.9 && bd.Company >= 0.9 {
		floor := 0.85
		if bd.Name >= 0.99 && bd.Company >= 0.99 {
			floor = 0.90
		}
		bd.Score = max(bd.Score, floor)
	}
	if bd.HasName && bd.HasEmail && bd.Name >= 0.9 && bd.Email >= 0.6 {
		bd.Score = max(bd.Score, 0.82)
	}
	return bd
}

// Score returns the similarity of two leads in [0,1]. It is symmetric.
func Score(a, b model.Lead) float64 {
	return Compare(a, b).Score
}

// IsDuplicate reports whether two leads score above Threshold.
func IsDuplicate(a, b model.Lead) bool {
	return Score(a, b) > Threshold
}

// Strings returns 1 - levenshtein(a,b)/len(longer), comparing runes.
func Strings(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longer := max(la, lb)
	if longer == 0 {
		return 1
	}
	d := levenshtein.Distance(a, b, nil)
	return 1 - float64(d)/float64(longer)
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// companySuffixes are dropped before comparing company names.
var companySuffixes = map[string]bool{
	"llc": true, "l.l.c": true, "inc": true, "incorporated": true, "corp": true,
	"corporation": true, "ltd": true, "limited": true, "co": true, "company": true,
	"group": true, "clinic": true, "pllc": true, "llp": true, "lp": true, "pc": true,
	"pa": true, "holdings": true, "partners": true, "plc": true, "gmbh": true,
	"associates": true, "the": true,
}

var companyPunctRe = regexp.MustCompile(`[,.&()]+`)

// NormalizeCompany lower-cases a company name and strips corporate suffixes
// and punctuation. "Acme, Inc." and "ACME Corporation" both become "acme".
func NormalizeCompany(s string) string {
	s = companyPunctRe.ReplaceAllString(strings.ToLower(s), " ")
	var kept []string
	for _, tok := range strings.Fields(s) {
		if !companySuffixes[tok] {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		// A name made only of suffix words ("The Group") is kept whole.
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(kept, " ")
}

// Phone compares two phone numbers by their digits.
func Phone(a, b string) float64 {
	da, db := model.PhoneDigits(a), model.PhoneDigits(b)
	if da == "" || db == "" {
		return 0
	}
	if da == db {
		return 1
	}
	if len(da) >= 7 && len(db) >= 7 && da[len(da)-7:] == db[len(db)-7:] {
		return 0.9
	}
	if len(da) >= 4 && len(db) >= 4 && da[len(da)-4:] == db[len(db)-4:] {
		return 0.7
	}
	return min(0.6, 0.6*Strings(da, db))
}

// Email compares two addresses: exact 1.0, same domain 0.7, same domain
// name under a different suffix 0.6.
func Email(a, b string) float64 {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	da, db := model.EmailDomain(a), model.EmailDomain(b)
	if da == "" || db == "" {
		return 0
	}
	if da == db {
		return 0.7
	}
	if ba, bb := domainBase(da), domainBase(db); ba != "" && ba == bb {
		return 0.6
	}
	return 0
}

// domainBase returns the registrable label of a domain: "acme" for
// "mail.acme.co.uk".
func domainBase(domain string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return ""
	}
	suffix, _ := publicsuffix.PublicSuffix(etld1)
	return strings.TrimSuffix(strings.TrimSuffix(etld1, suffix), ".")
}
