package waterfall

import "github.com/sells-group/lead-enrich/internal/model"

// Result is the outcome of running the cascade for one domain.
type Result struct {
	// Winner names the provider whose leads were accepted; empty when none.
	Winner   string               `json:"winner,omitempty"`
	Leads    []model.Lead         `json:"leads"`
	Company  *model.CompanyInfo   `json:"company_info,omitempty"`
	Attempts []model.StageAttempt `json:"attempts"`
}

// Found reports whether a provider supplied person-level leads.
func (r *Result) Found() bool {
	return r != nil && r.Winner != "" && len(r.Leads) > 0
}
