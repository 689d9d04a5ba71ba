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

	"github.com/sells-group/leadfinder/internal/metrics"
	"github.com/sells-group/leadfinder/internal/model"
	"github.com/sells-group/leadfinder/internal/pipeline"
	"github.com/sells-group/leadfinder/internal/templates"
)

// maxDomainNames caps one /v1/domain request; each name costs two WHOIS
// lookups.
const maxDomainNames = 50

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve template matching, domain checks and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		matcher, err := initMatcher(cfg)
		if err != nil {
			return err
		}
		m := metrics.New()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(matcher, initDomainChecker(cfg, m), m),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type matchRequest struct {
	Name     string  `json:"name"`
	Keyword  string  `json:"keyword"`
	Template string  `json:"template"`
	City     *string `json:"city"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
}

type matchResponse struct {
	Slug string `json:"slug"`
	Link string `json:"link"`
}

type domainRequest struct {
	Names []string `json:"names"`
}

type domainResult struct {
	Name      string `json:"name"`
	Candidate string `json:"candidate"`
	PL        string `json:"pl"`
	COM       string `json:"com"`
}

func newRouter(matcher *templates.Matcher, domains pipeline.DomainChecker, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/match", func(w http.ResponseWriter, req *http.Request) {
			var body matchRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.Name == "" && body.Keyword == "" && body.Template == "" {
				writeError(w, http.StatusBadRequest, "name, keyword or template is required")
				return
			}

			warnUnknownTemplate(matcher, body.Template)
			slug, link := matcher.Match(templates.MatchInput{
				BusinessName:   model.Some(body.Name),
				SearchKeyword:  body.Keyword,
				ForcedTemplate: body.Template,
				City:           optionalField(body.City),
				Address:        optionalField(body.Address),
				Phone:          optionalField(body.Phone),
			})
			writeJSON(w, http.StatusOK, matchResponse{Slug: slug, Link: link})
		})

		r.Post("/domain", func(w http.ResponseWriter, req *http.Request) {
			var body domainRequest
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if len(body.Names) == 0 || len(body.Names) > maxDomainNames {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("names must hold 1 to %d entries", maxDomainNames))
				return
			}

			results, err := domains.CheckAll(req.Context(), body.Names)
			if err != nil {
				zap.L().Warn("serve: domain check failed", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "domain check failed")
				return
			}
			out := make([]domainResult, len(results))
			for i, res := range results {
				out[i] = domainResult{
					Name:      body.Names[i],
					Candidate: res.Candidate,
					PL:        res.PL.Label(),
					COM:       res.COM.Label(),
				}
			}
			writeJSON(w, http.StatusOK, out)
		})
	})

	return r
}

func optionalField(v *string) model.Field {
	if v == nil {
		return model.None()
	}
	return model.Some(*v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
