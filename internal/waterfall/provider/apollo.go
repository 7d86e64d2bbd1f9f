package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/pkg/apollo"
)

// Apollo adapts the Apollo people search.
type Apollo struct {
	client apollo.Client
	limit  int
}

// NewApollo wraps client. A nil client yields an unconfigured provider.
func NewApollo(client apollo.Client) *Apollo {
	return &Apollo{client: client, limit: DefaultLimit}
}

func (a *Apollo) Name() string     { return "apollo" }
func (a *Apollo) Configured() bool { return a.client != nil }

// Lookup lists people at the domain. Firmographics come from the first
// person's organization, or from an organization enrich call when people
// were found without one.
func (a *Apollo) Lookup(ctx context.Context, domain string) (*Result, error) {
	resp, err := a.client.SearchPeople(ctx, apollo.PeopleSearchRequest{
		Domains: []string{domain},
		PerPage: a.limit,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "apollo: lookup %s", domain)
	}

	res := &Result{Provider: a.Name()}
	for _, p := range resp.People {
		l := newLead(a.Name(), p.FullName())
		l.Title = p.Title
		l.Email = p.Email
		l.Phone = p.Phone()
		if p.Organization != nil {
			l.Company = p.Organization.Name
			if res.Company == nil {
				res.Company = apolloCompany(p.Organization, domain)
			}
		}
		res.Leads = append(res.Leads, l.Clean())
	}
	res.Leads = model.UniqueLeads(res.Leads)

	if len(res.Leads) > 0 && res.Company == nil {
		org, err := a.client.EnrichOrganization(ctx, domain)
		if err != nil {
			zap.L().Debug("apollo: organization enrich failed", zap.String("domain", domain), zap.Error(err))
		} else if org != nil {
			res.Company = apolloCompany(org, domain)
		}
	}
	if res.Company != nil {
		for i := range res.Leads {
			if res.Leads[i].Company == "" {
				res.Leads[i].Company = res.Company.Name
			}
		}
	}
	return res, nil
}

func apolloCompany(o *apollo.Organization, domain string) *model.CompanyInfo {
	d := o.PrimaryDomain
	if d == "" {
		d = domain
	}
	return &model.CompanyInfo{
		Name:        o.Name,
		Domain:      d,
		Description: o.ShortDescription,
		Industry:    o.Industry,
		Size:        model.SizeFromEmployees(o.EstimatedNumEmployees),
		Location:    o.Location(),
	}
}
