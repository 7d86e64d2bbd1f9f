package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/apperr"
	"github.com/sells-group/lead-enrich/internal/export"
	"github.com/sells-group/lead-enrich/internal/model"
)

const maxBodyBytes = 10 << 20

var servePort int

// leadEnricher is the part of enrich.Enricher the HTTP API calls.
type leadEnricher interface {
	EnrichDomain(ctx context.Context, domain string) (*model.EnrichmentResult, error)
	EnrichByEmail(ctx context.Context, email string) (*model.EmailEnrichmentResult, error)
}

// deduplicator merges duplicate leads.
type deduplicator interface {
	Deduplicate(ctx context.Context, leads []model.Lead) model.DedupeResult
}

// api serves the enrichment endpoints. withAI adjudicates duplicate groups
// with the model; rules uses the deterministic merge only.
type api struct {
	enricher leadEnricher
	withAI   deduplicator
	rules    deduplicator
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enrichment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnricher(ctx, cfg, "serve", nil)
		if err != nil {
			return err
		}
		defer env.Close()

		a := &api{
			enricher: env.Enricher,
			withAI:   env.Consolidator,
			rules:    rulesOnly(),
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(a, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.Enrich.Deadline() + 15*time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter mounts the API on a chi router with CORS for origins.
func newRouter(a *api, origins []string) chi.Router {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/enrich/domain", a.enrichDomain)
		r.Post("/enrich/email", a.enrichEmail)
		r.Post("/leads/dedupe", a.dedupe)
	})
	return r
}

func (a *api) enrichDomain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := a.enricher.EnrichDomain(r.Context(), req.Domain)
	if err != nil {
		status := apperr.StatusOf(err)
		logFailure(r, status, err)
		if res == nil {
			writeError(w, status, err)
			return
		}
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *api) enrichEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := a.enricher.EnrichByEmail(r.Context(), req.Email)
	switch {
	case err != nil:
		status := apperr.StatusOf(err)
		logFailure(r, status, err)
		if res == nil {
			writeError(w, status, err)
			return
		}
		writeJSON(w, status, res)
	case !res.Success:
		writeJSON(w, http.StatusNotFound, res)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (a *api) dedupe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Leads []model.Lead `json:"leads"`
		UseAI bool         `json:"useAI"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Leads) == 0 {
		writeError(w, http.StatusBadRequest, apperr.Validation("api: dedupe", "leads are required"))
		return
	}

	leads := make([]model.Lead, 0, len(req.Leads))
	for _, l := range req.Leads {
		if l, ok := export.Prepare(l); ok {
			leads = append(leads, l)
		}
	}

	d := a.rules
	if req.UseAI && a.withAI != nil {
		d = a.withAI
	}
	writeJSON(w, http.StatusOK, d.Deduplicate(r.Context(), leads))
}

// decodeBody reads a JSON request body into dst, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, apperr.Validation("api: decode body", "invalid request body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// writeError answers with the envelope callers expect from a failed
// enrichment: success false, no leads and a message.
func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	if status >= http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]any{
		"success": false,
		"leads":   []model.Lead{},
		"error":   msg,
	})
}

func logFailure(r *http.Request, status int, err error) {
	log := zap.L().With(
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	if status >= http.StatusInternalServerError {
		log.Error("api: request failed", zap.Error(err))
		return
	}
	log.Info("api: no result", zap.Error(err))
}

// requestLogger logs one line per request with zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
