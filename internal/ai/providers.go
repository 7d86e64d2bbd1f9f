package ai

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/resilience"
	"github.com/sells-group/lead-enrich/pkg/anthropic"
	"github.com/sells-group/lead-enrich/pkg/perplexity"
)

// Anthropic generates text with Claude.
type Anthropic struct {
	client anthropic.Client
	model  string
	retry  resilience.RetryConfig
}

// NewAnthropic wraps an Anthropic client.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model, retry: resilience.DefaultRetryConfig()}
}

// Name implements Generator.
func (a *Anthropic) Name() string { return "anthropic" }

// Generate implements Generator.
func (a *Anthropic) Generate(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	msgReq := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(req.maxTokens()),
		System:      req.System,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	}

	cfg := a.retry
	cfg.OnRetry = resilience.RetryLogger("anthropic", "generate")
	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return a.client.CreateMessage(ctx, msgReq)
	})
	if err != nil {
		return "", eris.Wrap(err, "ai: anthropic generate")
	}
	resp.Usage.LogCost(a.model, req.Purpose)

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperr.Empty("ai: anthropic generate")
	}
	return text, nil
}

// GeminiModels is the subset of *genai.Models used by the Gemini adapter.
type GeminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates text with Google Gemini.
type Gemini struct {
	models GeminiModels
	model  string
	retry  resilience.RetryConfig
}

// NewGemini wraps a Gemini models service.
func NewGemini(models GeminiModels, model string) *Gemini {
	return &Gemini{models: models, model: model, retry: resilience.DefaultRetryConfig()}
}

// Name implements Generator.
func (g *Gemini) Name() string { return "gemini" }

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: int32(req.maxTokens()),
		Temperature:     genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	retry := g.retry
	retry.OnRetry = resilience.RetryLogger("gemini", "generate")
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return g.models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	})
	if err != nil {
		return "", eris.Wrap(err, "ai: gemini generate")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", apperr.Empty("ai: gemini generate")
	}
	return text, nil
}

// Perplexity generates search-grounded text with Perplexity.
type Perplexity struct {
	client perplexity.Client
	model  string
	retry  resilience.RetryConfig
}

// NewPerplexity wraps a Perplexity client.
func NewPerplexity(client perplexity.Client, model string) *Perplexity {
	return &Perplexity{client: client, model: model, retry: resilience.DefaultRetryConfig()}
}

// Name implements Generator.
func (p *Perplexity) Name() string { return "perplexity" }

// Generate implements Generator.
func (p *Perplexity) Generate(ctx context.Context, req Request) (string, error) {
	var msgs []perplexity.Message
	if req.System != "" {
		msgs = append(msgs, perplexity.Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, perplexity.Message{Role: "user", Content: req.Prompt})

	temp := req.Temperature
	maxTokens := req.maxTokens()
	chatReq := perplexity.ChatCompletionRequest{
		Model:       p.model,
		Messages:    msgs,
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}

	retry := p.retry
	retry.OnRetry = resilience.RetryLogger("perplexity", "generate")
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		return p.client.ChatCompletion(ctx, chatReq)
	})
	if err != nil {
		return "", eris.Wrap(err, "ai: perplexity generate")
	}

	text := strings.TrimSpace(resp.Content())
	if text == "" {
		return "", apperr.Empty("ai: perplexity generate")
	}
	return text, nil
}
