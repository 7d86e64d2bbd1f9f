package apollo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/pkg/httpjson"
)

func TestSearchPeople(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/mixed_people/search", r.URL.Path)
		assert.Equal(t, "apollo-key", r.Header.Get("X-Api-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"acme.com"}, body["q_organization_domains_list"])
		assert.EqualValues(t, 1, body["page"])
		assert.EqualValues(t, 10, body["per_page"])

		_, _ = w.Write([]byte(`{
			"people": [{
				"id": "p1",
				"first_name": "Jane",
				"last_name": "Doe",
				"title": "Chief Executive Officer",
				"email": "jane@acme.com",
				"seniority": "c_suite",
				"phone_numbers": [{"raw_number": "+1 555-123-4567", "sanitized_number": "+15551234567"}],
				"organization": {"name": "Acme", "industry": "software", "estimated_num_employees": 40, "city": "Austin", "state": "Texas"}
			}],
			"pagination": {"page": 1, "per_page": 10, "total_entries": 1}
		}`))
	}))
	defer srv.Close()

	client := NewClient("apollo-key", WithBaseURL(srv.URL))
	resp, err := client.SearchPeople(context.Background(), PeopleSearchRequest{Domains: []string{"acme.com"}})
	require.NoError(t, err)
	require.Len(t, resp.People, 1)

	p := resp.People[0]
	assert.Equal(t, "Jane Doe", p.FullName())
	assert.Equal(t, "+15551234567", p.Phone())
	require.NotNil(t, p.Organization)
	assert.Equal(t, "Austin, Texas", p.Organization.Location())
	assert.Equal(t, 1, resp.Pagination.TotalEntries)
}

func TestSearchPeople_NoDomains(t *testing.T) {
	_, err := NewClient("k").SearchPeople(context.Background(), PeopleSearchRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no domains")
}

func TestSearchPeople_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit"}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).SearchPeople(context.Background(), PeopleSearchRequest{Domains: []string{"acme.com"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, httpjson.StatusCode(err))
	assert.Contains(t, err.Error(), "apollo: search people")
}

func TestEnrichOrganization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/organizations/enrich", r.URL.Path)
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		_, _ = w.Write([]byte(`{"organization": {"name": "Acme", "short_description": "Widgets", "estimated_num_employees": 250}}`))
	}))
	defer srv.Close()

	org, err := NewClient("k", WithBaseURL(srv.URL)).EnrichOrganization(context.Background(), "acme.com")
	require.NoError(t, err)
	require.NotNil(t, org)
	assert.Equal(t, "Acme", org.Name)
	assert.Equal(t, 250, org.EstimatedNumEmployees)
}

func TestEnrichOrganization_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	org, err := NewClient("k", WithBaseURL(srv.URL)).EnrichOrganization(context.Background(), "nope.example")
	require.NoError(t, err)
	assert.Nil(t, org)
}

func TestPersonFullName(t *testing.T) {
	assert.Equal(t, "Jane Q. Doe", Person{Name: " Jane Q. Doe ", FirstName: "Jane"}.FullName())
	assert.Equal(t, "Jane", Person{FirstName: "Jane"}.FullName())
	assert.Empty(t, Person{}.FullName())
	assert.Equal(t, "555-0100", Person{PhoneNumbers: []PhoneNumber{{RawNumber: "555-0100"}}}.Phone())
}
