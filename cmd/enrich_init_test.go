package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/internal/enrich"
	"github.com/sells-group/lead-enrich/internal/model"
)

// testConfig returns a config with defaults, no provider keys and caching off.
func testConfig() *config.Config {
	c := &config.Config{}
	c.AI.Provider = "none"
	c.Cache.Driver = "none"
	c.Server.Port = 8080
	c.Jina.BaseURL = "https://r.jina.ai"
	c.Enrich = config.EnrichConfig{
		DeadlineSecs:        120,
		HybridTimeoutSecs:   100,
		AIDirectTimeoutSecs: 8,
		DatabaseTimeoutSecs: 8,
		SearchRatePerSec:    2,
		SearchLimit:         10,
		ScrapeConcurrency:   3,
	}
	return c
}

func TestInitEnricher_Minimal(t *testing.T) {
	env, err := initEnricher(context.Background(), testConfig(), "serve", nil)
	require.NoError(t, err)
	defer env.Close()

	assert.NotNil(t, env.Enricher)
	assert.NotNil(t, env.Consolidator)
	assert.Nil(t, env.AI)
	assert.Empty(t, env.closers)
}

func TestInitEnricher_InvalidConfig(t *testing.T) {
	c := testConfig()
	c.Enrich.ScrapeConcurrency = 0
	_, err := initEnricher(context.Background(), c, "serve", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape_concurrency")
}

func TestInitEnricher_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig()
	c.Cache.Driver = "redis"
	c.Cache.RedisURL = "redis://" + mr.Addr() + "/0"

	env, err := initEnricher(context.Background(), c, "enrich", nil)
	require.NoError(t, err)
	require.Len(t, env.closers, 1)
	env.Close()
}

func TestInitEnricher_BadWaterfallConfig(t *testing.T) {
	c := testConfig()
	c.Apollo.Key = "k"
	c.Waterfall.ConfigPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := initEnricher(context.Background(), c, "enrich", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waterfall")
}

func TestBuildDatabases(t *testing.T) {
	c := testConfig()
	exec, err := buildDatabases(c)
	require.NoError(t, err)
	assert.Nil(t, exec, "no keys means no database stage")

	c.Hunter.Key = "hunter-key"
	c.Hunter.BaseURL = "https://api.hunter.io"
	exec, err = buildDatabases(c)
	require.NoError(t, err)
	require.NotNil(t, exec)
	assert.True(t, exec.Configured())
}

func TestBuildDatabases_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waterfall.yaml")
	yaml := `
waterfall:
  defaults:
    timeout_secs: 5
    max_attempts: 1
  sources:
    - name: clearbit
    - name: apollo
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	c := testConfig()
	c.Clearbit.Key = "cb"
	c.Waterfall.ConfigPath = path
	exec, err := buildDatabases(c)
	require.NoError(t, err)
	require.NotNil(t, exec)
}

func TestBuildSearch(t *testing.T) {
	c := testConfig()
	assert.Nil(t, buildSearch(c, nil))

	c.SerpAPI.Key = "serp"
	c.SerpAPI.BaseURL = "https://serpapi.com"
	s := buildSearch(c, nil)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "chain(serpapi)", s.Name())
}

func TestRunOneShot_InvalidDomainPrintsEnvelope(t *testing.T) {
	cfg = testConfig()
	t.Cleanup(func() { cfg = nil })

	var out bytes.Buffer
	err := runOneShot(context.Background(), &out, func(ctx context.Context, e *enrich.Enricher) (any, bool, error) {
		res, err := e.EnrichDomain(ctx, "not a domain")
		if res == nil {
			return nil, false, err
		}
		return res, res.Success, err
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	var res model.EnrichmentResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Empty(t, res.Leads)
}
