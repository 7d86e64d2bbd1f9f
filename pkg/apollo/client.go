// Package apollo provides a client for the Apollo.io people and
// organization APIs.
package apollo

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/pkg/httpjson"
)

const defaultBaseURL = "https://api.apollo.io"

// Client defines the Apollo operations used for contact lookup.
type Client interface {
	// SearchPeople lists people employed at the organization owning a domain.
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
	// EnrichOrganization returns firmographics for a domain.
	EnrichOrganization(ctx context.Context, domain string) (*Organization, error)
}

// PeopleSearchRequest is the body of POST /api/v1/mixed_people/search.
type PeopleSearchRequest struct {
	Domains     []string `json:"q_organization_domains_list"`
	Seniorities []string `json:"person_seniorities,omitempty"`
	Page        int      `json:"page,omitempty"`
	PerPage     int      `json:"per_page,omitempty"`
}

// PeopleSearchResponse holds matched people.
type PeopleSearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the result page.
type Pagination struct {
	Page         int `json:"page"`
	PerPage      int `json:"per_page"`
	TotalEntries int `json:"total_entries"`
}

// Person is an Apollo contact record.
type Person struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Name         string        `json:"name"`
	Title        string        `json:"title"`
	Email        string        `json:"email"`
	EmailStatus  string        `json:"email_status"`
	Seniority    string        `json:"seniority"`
	LinkedInURL  string        `json:"linkedin_url"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
	Organization *Organization `json:"organization,omitempty"`
}

// FullName returns Name, or the joined first and last names.
func (p Person) FullName() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Phone returns the first sanitized phone number, if any.
func (p Person) Phone() string {
	for _, ph := range p.PhoneNumbers {
		if ph.SanitizedNumber != "" {
			return ph.SanitizedNumber
		}
		if ph.RawNumber != "" {
			return ph.RawNumber
		}
	}
	return ""
}

// PhoneNumber is one phone entry on a person.
type PhoneNumber struct {
	RawNumber       string `json:"raw_number"`
	SanitizedNumber string `json:"sanitized_number"`
	Type            string `json:"type"`
}

// Organization is an Apollo company record.
type Organization struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	WebsiteURL            string `json:"website_url"`
	PrimaryDomain         string `json:"primary_domain"`
	Industry              string `json:"industry"`
	EstimatedNumEmployees int    `json:"estimated_num_employees"`
	ShortDescription      string `json:"short_description"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Country               string `json:"country"`
	Phone                 string `json:"phone"`
}

// Location joins the non-empty city, state and country.
func (o Organization) Location() string {
	var parts []string
	for _, p := range []string{o.City, o.State, o.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type organizationEnvelope struct {
	Organization *Organization `json:"organization"`
}

// Option configures the Apollo client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Apollo client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    httpjson.NewHTTPClient(20 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) header() http.Header {
	h := http.Header{}
	h.Set("X-Api-Key", c.apiKey)
	h.Set("Cache-Control", "no-cache")
	return h
}

func (c *httpClient) SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	if len(req.Domains) == 0 {
		return nil, eris.New("apollo: search people: no domains")
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PerPage == 0 {
		req.PerPage = 10
	}

	var resp PeopleSearchResponse
	err := httpjson.DoJSON(ctx, c.http, httpjson.Request{
		Service: "apollo",
		Method:  http.MethodPost,
		URL:     c.baseURL + "/api/v1/mixed_people/search",
		Header:  c.header(),
		Body:    req,
	}, &resp)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: search people")
	}
	return &resp, nil
}

func (c *httpClient) EnrichOrganization(ctx context.Context, domain string) (*Organization, error) {
	var env organizationEnvelope
	err := httpjson.DoJSON(ctx, c.http, httpjson.Request{
		Service: "apollo",
		URL:     c.baseURL + "/api/v1/organizations/enrich?domain=" + url.QueryEscape(domain),
		Header:  c.header(),
	}, &env)
	if err != nil {
		return nil, eris.Wrap(err, "apollo: enrich organization")
	}
	if env.Organization == nil {
		return nil, nil
	}
	return env.Organization, nil
}
