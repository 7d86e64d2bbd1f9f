package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/resilience"
	"github.com/sells-group/lead-enrich/pkg/jina"
	jinamocks "github.com/sells-group/lead-enrich/pkg/jina/mocks"
)

var longContent = "# Acme Corp\n\nWe build things and do stuff for people around the world. " +
	"Our leadership team has decades of combined experience in widgets."

func TestJinaAdapter_Scrape_Success(t *testing.T) {
	m := jinamocks.NewMockClient(t)
	m.On("Read", mock.Anything, "https://acme.com").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{URL: "https://acme.com", Title: "Acme Corp", Content: longContent},
	}, nil)

	adapter := NewJinaAdapter(m)
	assert.Equal(t, "jina", adapter.Name())
	assert.True(t, adapter.Supports("https://acme.com"))

	result, err := adapter.Scrape(context.Background(), "https://acme.com")
	require.NoError(t, err)
	assert.Equal(t, "jina", result.Source)
	assert.Equal(t, "Acme Corp", result.Page.Title)
	assert.Equal(t, longContent, result.Page.Markdown)
	assert.Empty(t, result.Page.HTML)
}

func TestJinaAdapter_Scrape_ClientError(t *testing.T) {
	m := jinamocks.NewMockClient(t)
	m.On("Read", mock.Anything, "https://fail.com").Return(nil, errors.New("connection refused"))

	_, err := NewJinaAdapter(m).Scrape(context.Background(), "https://fail.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestJinaAdapter_CircuitOpensAfterThreeFailures(t *testing.T) {
	m := jinamocks.NewMockClient(t)
	m.On("Read", mock.Anything, mock.Anything).Return(&jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "short"}}, nil).Times(3)

	adapter := NewJinaAdapter(m)
	for i := 0; i < 3; i++ {
		_, err := adapter.Scrape(context.Background(), "https://acme.com")
		require.Error(t, err)
	}

	assert.False(t, adapter.Supports("https://acme.com"))
	_, err := adapter.Scrape(context.Background(), "https://acme.com")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	m.AssertNumberOfCalls(t, "Read", 3)
}

func TestNeedsFallback(t *testing.T) {
	tests := []struct {
		name string
		resp *jina.ReadResponse
		want bool
	}{
		{"nil", nil, true},
		{"error code", &jina.ReadResponse{Code: 451, Data: jina.ReadData{Content: longContent}}, true},
		{"too short", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "hi"}}, true},
		{"challenge", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "Just a moment... checking your browser before accessing acme.com. This can take a few seconds, please wait."}}, true},
		{"long page mentioning javascript", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: strings.Repeat("enable javascript for the full experience. ", 30)}}, false},
		{"good", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: longContent}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsFallback(tt.resp))
		})
	}
}
