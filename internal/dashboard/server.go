// Package dashboard serves the metrics over HTTP: a JSON API, a downloadable
// report and a small HTML page.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/emilianohg/aimetrics/internal/query"
)

//go:embed templates/index.html
var templates embed.FS

type MetricsSource interface {
	Metrics(ctx context.Context, opts query.Options) (*query.Metrics, error)
	Report(ctx context.Context, timelineDays int) (*query.Report, error)
}

type Server struct {
	router chi.Router
	src    MetricsSource
	opts   query.Options
	logger *zap.SugaredLogger
	page   *template.Template
}

// NewServer builds the router. opts carries the timeline window and the
// recent-items limit; its filter is replaced per request.
func NewServer(src MetricsSource, opts query.Options, logger *zap.SugaredLogger) (*Server, error) {
	if src == nil {
		return nil, fmt.Errorf("metrics source required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	page, err := template.New("index.html").Funcs(template.FuncMap{
		"minutes": func(v *float64) string {
			if v == nil {
				return "N/A"
			}
			return fmt.Sprintf("%.0f min", *v)
		},
		"deref": func(s *string) string {
			if s == nil {
				return "-"
			}
			return *s
		},
	}).ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		src:    src,
		opts:   opts,
		logger: logger,
		page:   page,
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debugw("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/", s.handleIndex)
	s.router.Get("/api/metrics", s.handleMetrics)
	s.router.Get("/export", s.handleExport)
}

func (s *Server) options(r *http.Request) query.Options {
	opts := s.opts
	opts.Filter = query.Filter{Developer: r.URL.Query().Get("developer")}
	return opts
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.src.Metrics(r.Context(), s.options(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch metrics", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	report, err := s.src.Report(r.Context(), s.opts.TimelineDays)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}

	filename := fmt.Sprintf("ai-metrics-report-%s.json", report.GeneratedAt.UTC().Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, report)
}

type pageData struct {
	Developer string
	Metrics   *query.Metrics
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	opts := s.options(r)
	m, err := s.src.Metrics(r.Context(), opts)
	if err != nil {
		s.logger.Errorw("dashboard: render failed", "error", err)
		http.Error(w, "Failed to fetch metrics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, pageData{Developer: opts.Filter.Developer, Metrics: m}); err != nil {
		s.logger.Errorw("dashboard: template failed", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Errorw("request failed", "status", status, "error", err)
	} else {
		s.logger.Warnw("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": message})
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *zap.SugaredLogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("dashboard: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
