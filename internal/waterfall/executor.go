package waterfall

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/resilience"
	"github.com/sells-group/lead-enrich/internal/waterfall/provider"
)

// Executor runs the contact-database cascade for a domain.
type Executor struct {
	cfg      *Config
	registry *provider.Registry
	breakers *resilience.Breakers
	retry    func(src SourceConfig) resilience.RetryConfig
}

// NewExecutor creates a waterfall executor. A nil cfg uses DefaultConfig.
func NewExecutor(cfg *Config, registry *provider.Registry) *Executor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if registry == nil {
		registry = provider.NewRegistry()
	}
	return &Executor{
		cfg:      cfg,
		registry: registry,
		breakers: resilience.NewBreakers(resilience.DefaultCircuitBreakerConfig()),
		retry: func(src SourceConfig) resilience.RetryConfig {
			rc := resilience.Attempts(src.MaxAttempts)
			rc.OnRetry = resilience.RetryLogger(src.Name, "lookup")
			return rc
		},
	}
}

// WithBreakers shares a breaker registry, so a provider that keeps failing
// is skipped across requests.
func (e *Executor) WithBreakers(b *resilience.Breakers) *Executor {
	if b != nil {
		e.breakers = b
	}
	return e
}

// Configured reports whether at least one source has a configured provider.
func (e *Executor) Configured() bool {
	for _, src := range e.cfg.Sources {
		if p := e.registry.Get(src.Name); p != nil && p.Configured() && !src.Disabled {
			return true
		}
	}
	return false
}

// Run queries providers in configured order. Unconfigured providers are
// skipped; each call runs under its own budget with transient retries. The
// first provider returning at least one lead with person-level contact wins.
// Company-only responses do not win, but the first company profile seen is
// kept for a winner that lacks one.
//
// The error is unavailable-kind when no provider is configured and
// empty-kind when none produced leads. The attempt log is always returned.
func (e *Executor) Run(ctx context.Context, domain string) (*Result, error) {
	result := &Result{}
	var company *model.CompanyInfo
	configured := 0

	for _, src := range e.cfg.Sources {
		p := e.registry.Get(src.Name)
		if p == nil || !p.Configured() || src.Disabled {
			result.Attempts = append(result.Attempts, model.StageAttempt{
				Stage:   stageName(src.Name),
				Outcome: model.OutcomeUnavailable,
			})
			continue
		}
		configured++

		if err := ctx.Err(); err != nil {
			result.Attempts = append(result.Attempts, model.StageAttempt{
				Stage:   stageName(src.Name),
				Outcome: model.OutcomeSkipped,
				Error:   err.Error(),
			})
			continue
		}

		start := time.Now()
		res, err := e.lookup(ctx, p, src, domain)
		attempt := model.StageAttempt{
			Stage:      stageName(src.Name),
			DurationMs: time.Since(start).Milliseconds(),
		}

		if err != nil {
			attempt.Outcome = OutcomeOf(err)
			attempt.Error = err.Error()
			result.Attempts = append(result.Attempts, attempt)
			zap.L().Warn("waterfall: provider failed",
				zap.String("provider", src.Name),
				zap.String("domain", domain),
				zap.String("outcome", string(attempt.Outcome)),
				zap.Error(err),
			)
			continue
		}

		if company == nil && res != nil && res.Company != nil {
			company = res.Company
		}
		leads := res.ContactLeads()
		attempt.Leads = len(leads)
		if len(leads) == 0 {
			attempt.Outcome = model.OutcomeEmpty
			result.Attempts = append(result.Attempts, attempt)
			zap.L().Debug("waterfall: provider returned no contacts",
				zap.String("provider", src.Name),
				zap.String("domain", domain),
				zap.Bool("company_only", res != nil && res.Company != nil),
			)
			continue
		}

		attempt.Outcome = model.OutcomeFound
		result.Attempts = append(result.Attempts, attempt)
		result.Winner = src.Name
		result.Leads = leads
		result.Company = res.Company
		if result.Company == nil {
			result.Company = company
		}
		zap.L().Info("waterfall: provider matched",
			zap.String("provider", src.Name),
			zap.String("domain", domain),
			zap.Int("leads", len(leads)),
		)
		return result, nil
	}

	result.Company = company
	if configured == 0 {
		return result, apperr.New(apperr.KindUnavailable, "waterfall: run", "no contact database is configured")
	}
	return result, apperr.New(apperr.KindEmpty, "waterfall: run", "no provider returned contacts for "+domain)
}

// lookup races one provider call, with retries inside the breaker, against
// the source budget.
func (e *Executor) lookup(ctx context.Context, p provider.Provider, src SourceConfig, domain string) (*provider.Result, error) {
	cb := e.breakers.Get(src.Name)
	rc := e.retry(src)
	return resilience.Race(ctx, "waterfall: "+src.Name, src.Timeout(), func(ctx context.Context) (*provider.Result, error) {
		return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (*provider.Result, error) {
			return resilience.DoVal(ctx, rc, func(ctx context.Context) (*provider.Result, error) {
				return p.Lookup(ctx, domain)
			})
		})
	})
}

func stageName(provider string) string {
	return "database:" + provider
}

// OutcomeOf classifies a failed call for the attempt log.
func OutcomeOf(err error) model.StageOutcome {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return model.OutcomeUnavailable
	case apperr.Is(err, apperr.KindTimeout):
		return model.OutcomeTimeout
	case apperr.Is(err, apperr.KindUnavailable):
		return model.OutcomeUnavailable
	case apperr.Is(err, apperr.KindEmpty):
		return model.OutcomeEmpty
	default:
		return model.OutcomeFailed
	}
}
