// Package provider defines the interface and implementations for contact
// database providers queried by the waterfall.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/lead-enrich/internal/model"
)

// DefaultLimit caps how many people a provider is asked for.
const DefaultLimit = 10

// Result is a provider's normalized answer for one domain.
type Result struct {
	Provider string             `json:"provider"`
	Leads    []model.Lead       `json:"leads"`
	Company  *model.CompanyInfo `json:"company_info,omitempty"`
}

// ContactLeads returns the leads that name a person and carry contact or
// role data. A result with none of these is a company-only response.
func (r *Result) ContactLeads() []model.Lead {
	if r == nil {
		return nil
	}
	var out []model.Lead
	for _, l := range r.Leads {
		if l.HasContact() {
			out = append(out, l)
		}
	}
	return out
}

// Provider is a third-party contact database.
type Provider interface {
	// Name returns the provider identifier (matches source name in waterfall config).
	Name() string
	// Configured reports whether credentials are present.
	Configured() bool
	// Lookup fetches people and company data for a domain.
	Lookup(ctx context.Context, domain string) (*Result, error)
}

// Registry manages available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry. Nil providers are ignored.
func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newLead builds a database-sourced lead.
func newLead(provider, name string) model.Lead {
	l := model.NewLead(name, model.DataSourceScraped, model.MethodDomain)
	l.Source = provider
	return l
}
