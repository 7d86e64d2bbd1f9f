package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/model"
	"github.com/sells-group/lead-enrich/internal/resilience"
	"github.com/sells-group/lead-enrich/internal/waterfall"
)

// stageOutput is what a stage produced. nested holds the attempts of
// sub-calls (one per contact database) and is kept even on failure.
type stageOutput struct {
	source     string
	leads      []model.Lead
	company    *model.CompanyInfo
	nested     []model.StageAttempt
	confidence model.Confidence // email synthesis only
}

type stage struct {
	name      string
	budget    time.Duration
	available func() bool
	run       func(ctx context.Context) (*stageOutput, error)
}

// runStage races st against its budget and appends the attempt to log. It
// returns the output only when the stage found at least one lead; a result
// that arrives after the budget is dropped.
func (e *Enricher) runStage(ctx context.Context, subject string, st stage, log *[]model.StageAttempt) *stageOutput {
	if st.available != nil && !st.available() {
		*log = append(*log, model.StageAttempt{Stage: st.name, Outcome: model.OutcomeUnavailable})
		zap.L().Debug("enrich: stage unavailable", zap.String("subject", subject), zap.String("stage", st.name))
		return nil
	}

	e.emit(Event{Type: EventStageStarted, Subject: subject, Stage: st.name})
	start := time.Now()
	out, err := resilience.Race(ctx, "enrich: "+st.name, st.budget, st.run)

	attempt := model.StageAttempt{Stage: st.name, DurationMs: elapsedMs(start)}
	switch {
	case err != nil:
		attempt.Outcome = waterfall.OutcomeOf(err)
		attempt.Error = err.Error()
	case out == nil || len(out.leads) == 0:
		attempt.Outcome = model.OutcomeEmpty
	default:
		attempt.Outcome = model.OutcomeFound
		attempt.Leads = len(out.leads)
	}
	*log = append(*log, attempt)
	if out != nil {
		*log = append(*log, out.nested...)
	}

	fields := []zap.Field{
		zap.String("subject", subject),
		zap.String("stage", st.name),
		zap.String("outcome", string(attempt.Outcome)),
		zap.Int64("duration_ms", attempt.DurationMs),
		zap.Int("leads", attempt.Leads),
	}
	if err != nil {
		zap.L().Warn("enrich: stage failed", append(fields, zap.Error(err))...)
	} else {
		zap.L().Info("enrich: stage finished", fields...)
	}
	e.emit(Event{
		Type:    EventStageFinished,
		Subject: subject,
		Stage:   st.name,
		Outcome: attempt.Outcome,
		Leads:   attempt.Leads,
	})

	if attempt.Outcome != model.OutcomeFound {
		return nil
	}
	return out
}
