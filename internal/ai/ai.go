// Package ai adapts the text generation providers (Anthropic, Gemini,
// Perplexity) behind a single Generator interface.
package ai

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sells-group/lead-enrich/internal/config"
	"github.com/sells-group/lead-enrich/pkg/anthropic"
	"github.com/sells-group/lead-enrich/pkg/perplexity"
)

// Generator produces text from a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is one generation call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
	// JSON asks the provider for a bare JSON document where it supports it.
	JSON bool
	// Purpose labels the call in usage logs.
	Purpose string
}

const defaultMaxTokens = 2048

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

// New builds the generator selected by cfg.AI.Provider. It returns a nil
// Generator when the provider is "none" or its key is missing; callers treat
// that as an unavailable stage.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	switch provider {
	case "", "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, nil
		}
		return NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key, anthropic.WithMaxRetries(0)), cfg.Anthropic.Model), nil
	case "gemini":
		if cfg.Gemini.Key == "" {
			return nil, nil
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Gemini.Key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, eris.Wrap(err, "ai: create gemini client")
		}
		return NewGemini(client.Models, cfg.Gemini.Model), nil
	case "perplexity":
		if cfg.Perplexity.Key == "" {
			return nil, nil
		}
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		return NewPerplexity(client, cfg.Perplexity.Model), nil
	case "none":
		return nil, nil
	default:
		return nil, eris.Errorf("ai: unknown provider %q", cfg.AI.Provider)
	}
}

// LogSelected logs which generator is active.
func LogSelected(g Generator) {
	if g == nil {
		zap.L().Info("ai: no text generation provider configured")
		return
	}
	zap.L().Info("ai: text generation provider selected", zap.String("provider", g.Name()))
}
