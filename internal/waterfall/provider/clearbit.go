package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/pkg/clearbit"
)

// Clearbit adapts the Clearbit company and prospector APIs.
type Clearbit struct {
	client clearbit.Client
	limit  int
}

// NewClearbit wraps client. A nil client yields an unconfigured provider.
func NewClearbit(client clearbit.Client) *Clearbit {
	return &Clearbit{client: client, limit: DefaultLimit}
}

func (c *Clearbit) Name() string     { return "clearbit" }
func (c *Clearbit) Configured() bool { return c.client != nil }

// Lookup finds the company and then its prospects. A prospector failure
// after a company hit still returns the company.
func (c *Clearbit) Lookup(ctx context.Context, domain string) (*Result, error) {
	co, err := c.client.FindCompany(ctx, domain)
	if err != nil {
		return nil, eris.Wrapf(err, "clearbit: lookup %s", domain)
	}
	res := &Result{Provider: c.Name()}
	if co != nil {
		size := model.SizeFromEmployees(co.Metrics.Employees)
		if size == model.Unknown {
			size = model.NormalizeSize(co.Metrics.EmployeesRange)
		}
		res.Company = &model.CompanyInfo{
			Name:        co.Name,
			Domain:      domain,
			Description: co.Description,
			Industry:    co.Category.Industry,
			Size:        size,
			Location:    co.Location,
		}
	}

	people, err := c.client.SearchPeople(ctx, domain, c.limit)
	if err != nil {
		if res.Company == nil {
			return nil, eris.Wrapf(err, "clearbit: prospect %s", domain)
		}
		zap.L().Warn("clearbit: prospector failed, returning company only",
			zap.String("domain", domain), zap.Error(err))
		return res, nil
	}
	for _, p := range people {
		l := newLead(c.Name(), p.Name.Full())
		l.Title = p.Title
		l.Email = p.Email
		l.Phone = p.Phone
		if res.Company != nil {
			l.Company = res.Company.Name
		}
		res.Leads = append(res.Leads, l.Clean())
	}
	res.Leads = model.UniqueLeads(res.Leads)
	return res, nil
}
