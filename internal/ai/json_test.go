package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/apperr"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n[1,2]\n```", `[1,2]`},
		{"prose around", "Here you go:\n{\"a\":{\"b\":2}}\nHope that helps.", `{"a":{"b":2}}`},
		{"array with prose", `Result: [{"name":"Jane"}] done`, `[{"name":"Jane"}]`},
		{"no json", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Leads []struct {
			Name string `json:"name"`
		} `json:"leads"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"leads\":[{\"name\":\"Jane Doe\"}]}\n```", &out))
	require.Len(t, out.Leads, 1)
	assert.Equal(t, "Jane Doe", out.Leads[0].Name)
}

func TestDecodeJSON_ParseKind(t *testing.T) {
	var out map[string]any
	err := DecodeJSON(`{"leads": [`, &out)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindParse))

	err = DecodeJSON("   ", &out)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindParse))
}
