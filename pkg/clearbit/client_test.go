package clearbit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/pkg/httpjson"
)

func TestFindCompany(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/companies/find", r.URL.Path)
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "cb-key", user)
		assert.Empty(t, pass)

		_, _ = w.Write([]byte(`{
			"name": "Acme",
			"domain": "acme.com",
			"description": "Widgets for everyone",
			"category": {"industry": "Internet Software & Services"},
			"metrics": {"employees": 120, "employeesRange": "51-250"},
			"geo": {"city": "Austin", "state": "Texas", "country": "United States"},
			"location": "Austin, TX, USA"
		}`))
	}))
	defer srv.Close()

	co, err := NewClient("cb-key", WithBaseURL(srv.URL)).FindCompany(context.Background(), "acme.com")
	require.NoError(t, err)
	require.NotNil(t, co)
	assert.Equal(t, "Acme", co.Name)
	assert.Equal(t, "Internet Software & Services", co.Category.Industry)
	assert.Equal(t, 120, co.Metrics.Employees)
	assert.Equal(t, "Austin, TX, USA", co.Location)
}

func TestFindCompany_NotFoundAndQueued(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, `{"error":{"type":"unknown_record"}}`},
		{"queued", http.StatusAccepted, ``},
		{"empty record", http.StatusOK, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			co, err := NewClient("k", WithBaseURL(srv.URL)).FindCompany(context.Background(), "acme.com")
			require.NoError(t, err)
			assert.Nil(t, co)
		})
	}
}

func TestFindCompany_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).FindCompany(context.Background(), "acme.com")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, httpjson.StatusCode(err))
}

func TestSearchPeople(t *testing.T) {
	var companyHits int
	company := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		companyHits++
	}))
	defer company.Close()

	prospector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/people/search", r.URL.Path)
		assert.Equal(t, "acme.com", r.URL.Query().Get("domain"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"id": "c1", "name": {"givenName": "Sam", "familyName": "Lee"}, "title": "VP Sales", "email": "sam@acme.com", "verified": true},
			{"id": "c2", "name": {"fullName": "Ana Ruiz"}, "title": "Office Manager"}
		]`))
	}))
	defer prospector.Close()

	client := NewClient("k", WithBaseURL(company.URL), WithProspectorBaseURL(prospector.URL))
	people, err := client.SearchPeople(context.Background(), "acme.com", 3)
	require.NoError(t, err)
	require.Len(t, people, 2)
	assert.Equal(t, "Sam Lee", people[0].Name.Full())
	assert.Equal(t, "Ana Ruiz", people[1].Name.Full())
	assert.True(t, people[0].Verified)
	assert.Zero(t, companyHits)
}
