// Package hunter provides a client for the Hunter.io domain search API.
package hunter

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-enrich/pkg/httpjson"
)

const defaultBaseURL = "https://api.hunter.io"

// Client defines the Hunter operations.
type Client interface {
	// DomainSearch returns the email addresses Hunter knows for a domain.
	DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearchResponse, error)
}

// DomainSearchResponse is the /v2/domain-search envelope.
type DomainSearchResponse struct {
	Data DomainData `json:"data"`
	Meta Meta       `json:"meta"`
}

// DomainData describes the organization and its known addresses.
type DomainData struct {
	Domain       string  `json:"domain"`
	Organization string  `json:"organization"`
	Description  string  `json:"description"`
	Industry     string  `json:"industry"`
	Headcount    string  `json:"headcount"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Country      string  `json:"country"`
	Pattern      string  `json:"pattern"`
	Emails       []Email `json:"emails"`
}

// Location joins the non-empty city, state and country.
func (d DomainData) Location() string {
	var parts []string
	for _, p := range []string{d.City, d.State, d.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Email is one address found for the domain. Type is "personal" or
// "generic"; generic addresses (info@, sales@) have no owner name.
type Email struct {
	Value       string `json:"value"`
	Type        string `json:"type"`
	Confidence  int    `json:"confidence"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Position    string `json:"position"`
	Seniority   string `json:"seniority"`
	Department  string `json:"department"`
	PhoneNumber string `json:"phone_number"`
	LinkedIn    string `json:"linkedin"`
}

// FullName joins the first and last names.
func (e Email) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Meta carries result counts.
type Meta struct {
	Results int `json:"results"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}

// Option configures the Hunter client.
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

// NewClient creates a new Hunter client.
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

func (c *httpClient) DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearchResponse, error) {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("api_key", c.apiKey)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp DomainSearchResponse
	err := httpjson.DoJSON(ctx, c.http, httpjson.Request{
		Service: "hunter",
		URL:     c.baseURL + "/v2/domain-search?" + q.Encode(),
	}, &resp)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: domain search")
	}
	return &resp, nil
}
