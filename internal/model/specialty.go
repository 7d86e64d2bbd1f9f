package model

import "strings"

// specialtyKeywords maps a specialty to the keywords that indicate it.
// Order matters: more specific specialties come first.
var specialtyKeywords = []struct {
	specialty string
	keywords  []string
}{
	{"Dental", []string{"dental", "dentist", "orthodont", "periodont", "endodont"}},
	{"Veterinary", []string{"veterinar", "animal hospital", "pet clinic"}},
	{"Healthcare", []string{"health", "medical", "clinic", "hospital", "physician", "doctor", "nurse", "therapy", "pharma", "chiropract", "surgery"}},
	{"Legal", []string{"law firm", "attorney", "lawyer", "legal", "paralegal"}},
	{"Finance", []string{"financ", "bank", "accounting", "cpa", "wealth", "investment", "insurance", "capital"}},
	{"Real Estate", []string{"real estate", "realtor", "property", "mortgage", "realty"}},
	{"Marketing", []string{"marketing", "advertising", "seo", "brand", "agency"}},
	{"Education", []string{"school", "education", "university", "college", "academy", "tutor"}},
	{"Construction", []string{"construction", "contractor", "roofing", "plumbing", "hvac", "electrical", "builder"}},
	{"Manufacturing", []string{"manufactur", "industrial", "factory", "fabrication"}},
	{"Retail", []string{"retail", "store", "shop", "e-commerce", "ecommerce"}},
	{"Consulting", []string{"consult", "advisory", "advisors"}},
	{"Technology", []string{"software", "technology", "saas", "cloud", "developer", "engineering", "it services", "data", "ai ", "platform", "tech"}},
}

// SpecialtyFromText picks the first specialty whose keywords occur in any of
// the given texts. Returns "" when nothing matches.
func SpecialtyFromText(texts ...string) string {
	joined := strings.ToLower(strings.Join(texts, " ")) + " "
	if strings.TrimSpace(joined) == "" {
		return ""
	}
	for _, sk := range specialtyKeywords {
		for _, kw := range sk.keywords {
			if strings.Contains(joined, kw) {
				return sk.specialty
			}
		}
	}
	return ""
}
