// Package api exposes an on-demand report endpoint over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"StockPicker/internal/model"
	"StockPicker/internal/report"
)

// Runner executes one screening run.
type Runner interface {
	Run(ctx context.Context, etfs []string) (*model.Report, error)
}

type reportRequest struct {
	ETFs []string `json:"etfs"`
}

// NewRouter builds the HTTP routes.
func NewRouter(runner Runner, log zerolog.Logger) http.Handler {
	h := &handler{runner: runner, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/reports", h.createReport)
	})
	return r
}

type handler struct {
	runner Runner
	log    zerolog.Logger
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// createReport runs a screen synchronously and returns the rendered text.
// An empty body screens the configured ETFs.
func (h *handler) createReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	rep, err := h.runner.Run(r.Context(), req.ETFs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrFatalConfiguration) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Run-ID", rep.RunID)
	_, _ = io.WriteString(w, report.Render(rep))
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

// Server wraps http.Server with the report routes.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

func NewServer(addr string, runner Runner, log zerolog.Logger) *Server {
	log = log.With().Str("component", "api").Logger()
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(runner, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start serves until Shutdown; it returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
