package provider

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/pkg/hunter"
)

// Hunter adapts the Hunter domain search. Only personal addresses with an
// owner name become leads; generic mailboxes are ignored.
type Hunter struct {
	client hunter.Client
	limit  int
}

// NewHunter wraps client. A nil client yields an unconfigured provider.
func NewHunter(client hunter.Client) *Hunter {
	return &Hunter{client: client, limit: DefaultLimit}
}

func (h *Hunter) Name() string     { return "hunter" }
func (h *Hunter) Configured() bool { return h.client != nil }

// Lookup runs a domain search.
func (h *Hunter) Lookup(ctx context.Context, domain string) (*Result, error) {
	resp, err := h.client.DomainSearch(ctx, domain, h.limit)
	if err != nil {
		return nil, eris.Wrapf(err, "hunter: lookup %s", domain)
	}
	d := resp.Data

	res := &Result{Provider: h.Name()}
	if d.Organization != "" || d.Description != "" || d.Industry != "" {
		res.Company = &model.CompanyInfo{
			Name:        d.Organization,
			Domain:      domain,
			Description: d.Description,
			Industry:    d.Industry,
			Size:        model.NormalizeSize(d.Headcount),
			Location:    d.Location(),
		}
	}
	for _, e := range d.Emails {
		if !strings.EqualFold(e.Type, "personal") || e.FullName() == "" {
			continue
		}
		l := newLead(h.Name(), e.FullName())
		l.Title = e.Position
		l.Email = e.Value
		l.Phone = e.PhoneNumber
		l.Company = d.Organization
		res.Leads = append(res.Leads, l.Clean())
	}
	res.Leads = model.UniqueLeads(res.Leads)
	return res, nil
}
