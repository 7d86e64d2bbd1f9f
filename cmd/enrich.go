package main

import (
	"context"
	"encoding/json"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich a single domain or email address",
}

var enrichDomainCmd = &cobra.Command{
	Use:   "domain <domain>",
	Short: "Find decision makers for a company domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, e *enrich.Enricher) (any, bool, error) {
			res, err := e.EnrichDomain(ctx, args[0])
			if res == nil {
				return nil, false, err
			}
			return res, res.Success, err
		})
	},
}

var enrichEmailCmd = &cobra.Command{
	Use:   "email <email>",
	Short: "Build a lead profile from an email address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), cmd.OutOrStdout(), func(ctx context.Context, e *enrich.Enricher) (any, bool, error) {
			res, err := e.EnrichByEmail(ctx, args[0])
			if res == nil {
				return nil, false, err
			}
			return res, res.Success, err
		})
	},
}

func init() {
	enrichCmd.AddCommand(enrichDomainCmd, enrichEmailCmd)
	rootCmd.AddCommand(enrichCmd)
}

type oneShot func(ctx context.Context, e *enrich.Enricher) (result any, success bool, err error)

// runOneShot builds an enricher, logs its progress events while run
// executes, and prints the structured result as JSON. A result that found
// nothing is still printed; only validation and internal failures return
// an error.
func runOneShot(ctx context.Context, out io.Writer, run oneShot) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := make(chan enrich.Event, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progress {
			logEvent(ev)
		}
	}()

	env, err := initEnricher(ctx, cfg, "enrich", progress)
	if err != nil {
		close(progress)
		<-done
		return err
	}
	defer env.Close()

	res, success, runErr := run(ctx, env.Enricher)
	close(progress)
	<-done

	if res != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "encode result")
		}
	}

	switch {
	case runErr == nil:
	case apperr.Is(runErr, apperr.KindExhausted), apperr.Is(runErr, apperr.KindTimeout):
		zap.L().Warn("enrichment found nothing", zap.Error(runErr))
	default:
		return runErr
	}
	if !success {
		zap.L().Info("no leads found")
	}
	return nil
}

func logEvent(ev enrich.Event) {
	fields := []zap.Field{
		zap.String("event", string(ev.Type)),
		zap.String("subject", ev.Subject),
	}
	if ev.Stage != "" {
		fields = append(fields, zap.String("stage", ev.Stage))
	}
	if ev.Outcome != "" {
		fields = append(fields, zap.String("outcome", string(ev.Outcome)))
	}
	if ev.Type == enrich.EventStageFinished || ev.Type == enrich.EventCompleted {
		fields = append(fields, zap.Int("leads", ev.Leads))
	}
	zap.L().Info("progress", fields...)
}
