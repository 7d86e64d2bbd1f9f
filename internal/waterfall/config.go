package waterfall

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config is the top-level waterfall configuration.
type Config struct {
	Defaults Defaults       `yaml:"defaults"`
	Sources  []SourceConfig `yaml:"sources"`
}

// Defaults holds per-source settings applied when a source leaves them unset.
type Defaults struct {
	TimeoutSecs int `yaml:"timeout_secs"`
	MaxAttempts int `yaml:"max_attempts"`
}

// SourceConfig defines one provider in the cascade, in priority order.
type SourceConfig struct {
	Name        string `yaml:"name"`
	TimeoutSecs int    `yaml:"timeout_secs,omitempty"`
	MaxAttempts int    `yaml:"max_attempts,omitempty"`
	Disabled    bool   `yaml:"disabled,omitempty"`
}

// Timeout returns the per-call budget.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// DefaultConfig is apollo, then hunter, then clearbit, each with an 8s
// budget and two attempts.
func DefaultConfig() *Config {
	cfg := &Config{
		Defaults: Defaults{TimeoutSecs: 8, MaxAttempts: 2},
		Sources: []SourceConfig{
			{Name: "apollo"},
			{Name: "hunter"},
			{Name: "clearbit"},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads waterfall config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "waterfall: read config %s", path)
	}

	// The YAML has a top-level "waterfall" key
	var wrapper struct {
		Waterfall Config `yaml:"waterfall"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "waterfall: parse config")
	}

	cfg := &wrapper.Waterfall
	if len(cfg.Sources) == 0 {
		return nil, eris.Errorf("waterfall: config %s lists no sources", path)
	}
	seen := make(map[string]bool, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if s.Name == "" {
			return nil, eris.Errorf("waterfall: config %s has a source without a name", path)
		}
		if seen[s.Name] {
			return nil, eris.Errorf("waterfall: config %s lists %q twice", path, s.Name)
		}
		seen[s.Name] = true
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills unset source values from Defaults, and Defaults from
// the built-in values.
func (c *Config) applyDefaults() {
	if c.Defaults.TimeoutSecs <= 0 {
		c.Defaults.TimeoutSecs = 8
	}
	if c.Defaults.MaxAttempts <= 0 {
		c.Defaults.MaxAttempts = 2
	}
	for i, s := range c.Sources {
		if s.TimeoutSecs <= 0 {
			s.TimeoutSecs = c.Defaults.TimeoutSecs
		}
		if s.MaxAttempts <= 0 {
			s.MaxAttempts = c.Defaults.MaxAttempts
		}
		c.Sources[i] = s
	}
}

// WithTimeout returns a copy whose sources all use the given budget.
func (c *Config) WithTimeout(d time.Duration) *Config {
	secs := int(d / time.Second)
	if secs <= 0 {
		return c
	}
	out := &Config{Defaults: c.Defaults, Sources: append([]SourceConfig(nil), c.Sources...)}
	out.Defaults.TimeoutSecs = secs
	for i := range out.Sources {
		out.Sources[i].TimeoutSecs = secs
	}
	return out
}
