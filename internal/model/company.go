package model

import "strings"

// Unknown is the placeholder for undiscovered company attributes.
const Unknown = "Unknown"

// CompanyInfo describes the organization behind a domain.
type CompanyInfo struct {
	Name        string `json:"name"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Size        string `json:"size"`
	Location    string `json:"location"`
}

// Normalize returns a copy with every empty attribute set to "Unknown" and
// the size bucketed.
func (c CompanyInfo) Normalize() CompanyInfo {
	out := CompanyInfo{
		Name:        orUnknown(c.Name),
		Domain:      strings.TrimSpace(c.Domain),
		Description: orUnknown(c.Description),
		Industry:    orUnknown(c.Industry),
		Size:        NormalizeSize(c.Size),
		Location:    orUnknown(c.Location),
	}
	return out
}

// Merge fills empty or unknown attributes of c from other.
func (c CompanyInfo) Merge(other CompanyInfo) CompanyInfo {
	pick := func(a, b string) string {
		if strings.TrimSpace(a) == "" || a == Unknown {
			return b
		}
		return a
	}
	return CompanyInfo{
		Name:        pick(c.Name, other.Name),
		Domain:      pick(c.Domain, other.Domain),
		Description: pick(c.Description, other.Description),
		Industry:    pick(c.Industry, other.Industry),
		Size:        pick(c.Size, other.Size),
		Location:    pick(c.Location, other.Location),
	}
}

func orUnknown(s string) string {
	s = collapse(s)
	if s == "" {
		return Unknown
	}
	return s
}

// SizeFromEmployees buckets a headcount: <50 Small, <500 Medium, else Large.
func SizeFromEmployees(n int) string {
	switch {
	case n <= 0:
		return Unknown
	case n < 50:
		return "Small"
	case n < 500:
		return "Medium"
	default:
		return "Large"
	}
}

// NormalizeSize coerces provider size strings ("51-200", "1000+", "medium")
// into Small/Medium/Large/Unknown.
func NormalizeSize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "":
		return Unknown
	case "small", "medium", "large":
		return strings.ToUpper(s[:1]) + s[1:]
	}
	// Take the first number in a range like "51-200" or "1,001-5,000".
	digits := strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if r == ',' {
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return Unknown
	}
	n := 0
	for _, r := range digits.String() {
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			break
		}
	}
	return SizeFromEmployees(n)
}
