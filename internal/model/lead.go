package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DataSource records which kind of process produced a lead.
type DataSource string

const (
	DataSourceAI           DataSource = "ai-generated"
	DataSourceMock         DataSource = "mock"
	DataSourceRuleBased    DataSource = "rule-based"
	DataSourceOriginal     DataSource = "original"
	DataSourceScraped      DataSource = "scraped"
	DataSourceConsolidated DataSource = "consolidated"
)

// EnrichmentMethod records which entry point produced a lead.
type EnrichmentMethod string

const (
	MethodDomain          EnrichmentMethod = "domain"
	MethodEmail           EnrichmentMethod = "email"
	MethodCSVBatch        EnrichmentMethod = "csv-batch"
	MethodCSVDeduplicated EnrichmentMethod = "csv-deduplicated"
	MethodManual          EnrichmentMethod = "manual"
)

// Lead is a single enriched contact record.
type Lead struct {
	ID             string `json:"id,omitempty" csv:"id,omitempty"`
	Name           string `json:"name" csv:"name"`
	Company        string `json:"company" csv:"company"`
	Title          string `json:"title" csv:"title"`
	Phone          string `json:"phone" csv:"phone"`
	Email          string `json:"email" csv:"email"`
	SecondaryEmail string `json:"secondaryEmail" csv:"secondary_email"`
	Specialty      string `json:"specialty" csv:"specialty"`
	Seniority      string `json:"seniority" csv:"seniority"`

	// Marketing/CRM pass-through.
	Source         string `json:"source" csv:"source"`
	LifecycleStage string `json:"lifecycleStage" csv:"lifecycle_stage"`
	ZipCode        string `json:"zipCode" csv:"zip_code"`
	SalesStatus    string `json:"salesStatus" csv:"sales_status"`

	// Provenance.
	DataSource       DataSource       `json:"dataSource" csv:"data_source"`
	EnrichmentMethod EnrichmentMethod `json:"enrichmentMethod" csv:"enrichment_method"`
	ProcessedAt      time.Time        `json:"processedAt" csv:"processed_at"`
	DuplicatesFound  *int             `json:"duplicatesFound,omitempty" csv:"duplicates_found,omitempty"`
	ConsolidatedFrom []string         `json:"consolidatedFrom,omitempty" csv:"-"`
}

// NewLead creates a lead with a fresh id and processing timestamp.
func NewLead(name string, source DataSource, method EnrichmentMethod) Lead {
	return Lead{
		ID:               uuid.NewString(),
		Name:             name,
		DataSource:       source,
		EnrichmentMethod: method,
		ProcessedAt:      time.Now().UTC(),
	}
}

var spaceRe = regexp.MustCompile(`\s+`)

// collapse trims s and collapses internal whitespace runs.
func collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Clean returns a copy with normalized string fields: whitespace collapsed,
// emails lower-cased, phones formatted, and seniority derived from the title
// when missing.
func (l Lead) Clean() Lead {
	out := l
	out.Name = collapse(l.Name)
	out.Company = collapse(l.Company)
	out.Title = collapse(l.Title)
	out.Phone = FormatPhone(l.Phone)
	out.Email = strings.ToLower(strings.TrimSpace(l.Email))
	out.SecondaryEmail = strings.ToLower(strings.TrimSpace(l.SecondaryEmail))
	out.Specialty = collapse(l.Specialty)
	out.Seniority = collapse(l.Seniority)
	out.Source = collapse(l.Source)
	out.LifecycleStage = collapse(l.LifecycleStage)
	out.ZipCode = strings.TrimSpace(l.ZipCode)
	out.SalesStatus = collapse(l.SalesStatus)
	if out.Seniority == "" {
		out.Seniority = string(SeniorityFromTitle(out.Title))
	}
	if out.SecondaryEmail == out.Email {
		out.SecondaryEmail = ""
	}
	if len(l.ConsolidatedFrom) > 0 {
		out.ConsolidatedFrom = append([]string(nil), l.ConsolidatedFrom...)
	}
	if l.DuplicatesFound != nil {
		n := *l.DuplicatesFound
		out.DuplicatesFound = &n
	}
	return out
}

// HasContact reports whether the lead names a person and carries at least
// one piece of person-level contact or role data.
func (l Lead) HasContact() bool {
	if strings.TrimSpace(l.Name) == "" {
		return false
	}
	return l.Email != "" || l.Phone != "" || l.Title != ""
}

// Key returns a case-insensitive identity used to drop exact repeats within
// a single provider response.
func (l Lead) Key() string {
	return strings.ToLower(collapse(l.Name)) + "|" + strings.ToLower(strings.TrimSpace(l.Email))
}

// UniqueLeads drops leads with an empty name and exact repeats, keeping the
// first occurrence so discovery order is preserved.
func UniqueLeads(leads []Lead) []Lead {
	seen := make(map[string]bool, len(leads))
	out := make([]Lead, 0, len(leads))
	for _, l := range leads {
		if strings.TrimSpace(l.Name) == "" {
			continue
		}
		k := l.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}

func collapseLower(s string) string {
	return strings.ToLower(collapse(s))
}
