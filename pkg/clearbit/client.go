// Package clearbit provides a client for the Clearbit company and
// prospector APIs. Requests authenticate with HTTP basic auth using the API
// key as the username.
package clearbit

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/pkg/httpjson"
)

const (
	defaultCompanyBaseURL    = "https://company.clearbit.com"
	defaultProspectorBaseURL = "https://prospector.clearbit.com"
)

// Client defines the Clearbit operations.
type Client interface {
	// FindCompany looks up a company by domain. A nil company with a nil
	// error means Clearbit has no record (404) or is still researching (202).
	FindCompany(ctx context.Context, domain string) (*Company, error)
	// SearchPeople lists prospects at a domain.
	SearchPeople(ctx context.Context, domain string, limit int) ([]Person, error)
}

// Company is the subset of the Clearbit company record used for enrichment.
type Company struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Domain      string   `json:"domain"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Phone       string   `json:"phone"`
	Category    Category `json:"category"`
	Metrics     Metrics  `json:"metrics"`
	Geo         Geo      `json:"geo"`
}

// Category holds industry classification.
type Category struct {
	Sector        string `json:"sector"`
	IndustryGroup string `json:"industryGroup"`
	Industry      string `json:"industry"`
}

// Metrics holds size estimates.
type Metrics struct {
	Employees      int    `json:"employees"`
	EmployeesRange string `json:"employeesRange"`
}

// Geo is the company's headquarters.
type Geo struct {
	City      string `json:"city"`
	State     string `json:"state"`
	StateCode string `json:"stateCode"`
	Country   string `json:"country"`
}

// Person is a Clearbit prospector record.
type Person struct {
	ID        string     `json:"id"`
	Name      PersonName `json:"name"`
	Title     string     `json:"title"`
	Role      string     `json:"role"`
	Seniority string     `json:"seniority"`
	Email     string     `json:"email"`
	Verified  bool       `json:"verified"`
	Phone     string     `json:"phone"`
}

// PersonName splits a prospect's name.
type PersonName struct {
	FullName   string `json:"fullName"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// Full returns FullName, or the joined given and family names.
func (n PersonName) Full() string {
	if f := strings.TrimSpace(n.FullName); f != "" {
		return f
	}
	return strings.TrimSpace(n.GivenName + " " + n.FamilyName)
}

// Option configures the Clearbit client.
type Option func(*httpClient)

// WithBaseURL points both the company and prospector endpoints at u (for
// testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.companyBaseURL = u
		c.prospectorBaseURL = u
	}
}

// WithProspectorBaseURL overrides only the prospector endpoint.
func WithProspectorBaseURL(u string) Option {
	return func(c *httpClient) { c.prospectorBaseURL = u }
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

type httpClient struct {
	apiKey            string
	companyBaseURL    string
	prospectorBaseURL string
	http              *http.Client
}

// NewClient creates a new Clearbit client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:            apiKey,
		companyBaseURL:    defaultCompanyBaseURL,
		prospectorBaseURL: defaultProspectorBaseURL,
		http:              httpjson.NewHTTPClient(20 * time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.apiKey+":")))
	return h
}

func (c *httpClient) FindCompany(ctx context.Context, domain string) (*Company, error) {
	body, err := httpjson.Do(ctx, c.http, httpjson.Request{
		Service: "clearbit",
		URL:     c.companyBaseURL + "/v2/companies/find?domain=" + url.QueryEscape(domain),
		Header:  c.header(),
	})
	if err != nil {
		if httpjson.StatusCode(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, eris.Wrap(err, "clearbit: find company")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var co Company
	if err := json.Unmarshal(body, &co); err != nil {
		return nil, eris.Wrap(err, "clearbit: find company: unmarshal")
	}
	if co.Name == "" && co.Domain == "" {
		return nil, nil
	}
	return &co, nil
}

func (c *httpClient) SearchPeople(ctx context.Context, domain string, limit int) ([]Person, error) {
	q := url.Values{}
	q.Set("domain", domain)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var people []Person
	err := httpjson.DoJSON(ctx, c.http, httpjson.Request{
		Service: "clearbit",
		URL:     c.prospectorBaseURL + "/v1/people/search?" + q.Encode(),
		Header:  c.header(),
	}, &people)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: search people")
	}
	return people, nil
}
