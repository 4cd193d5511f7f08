package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/pingboard/internal/directory"
	"github.com/hamed0406/pingboard/internal/domain"
	"github.com/hamed0406/pingboard/internal/engine"
	apimw "github.com/hamed0406/pingboard/internal/httpapi/middleware"
	"github.com/hamed0406/pingboard/internal/report"
)

// Engine is what the API needs from the assessment engine.
type Engine interface {
	Probe(ctx context.Context, ep *domain.Endpoint) (domain.ResultEntry, error)
	SweepAll(ctx context.Context, endpoints []domain.Endpoint, progress engine.ProgressFunc) (report.Report, error)
	ResolveCustom(ctx context.Context, target string) (domain.ResultEntry, error)
	Report(ctx context.Context) (report.Report, error)
	Progress() engine.Progress
	Trend(id domain.EndpointID) (float64, bool)
}

type Server struct {
	Logger    *zap.Logger
	Engine    Engine
	Directory directory.Service
	Gatherer  prometheus.Gatherer
}

func NewServer(l *zap.Logger, eng Engine, dir directory.Service, g prometheus.Gatherer) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &Server{Logger: l, Engine: eng, Directory: dir, Gatherer: g}
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAny(keys), apimw.RateLimit(pubRPM, pubBurst))
			r.Get("/endpoints", s.handleListEndpoints)
			r.Get("/endpoints/{id}/trend", s.handleTrend)
			r.Get("/report", s.handleReport)
			r.Get("/sweep/progress", s.handleProgress)
		})
		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAdmin(keys), apimw.RateLimit(admRPM, admBurst))
			r.Post("/endpoints/refresh", s.handleRefresh)
			r.Post("/endpoints/{id}/probe", s.handleProbe)
			r.Post("/sweep", s.handleSweep)
			r.Get("/sweep/stream", s.handleSweepStream)
			r.Post("/custom", s.handleCustom)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// directoryError maps a directory failure to a response.
func (s *Server) directoryError(w http.ResponseWriter, err error) {
	s.Logger.Warn("directory_error", zap.Error(err))
	if errors.Is(err, directory.ErrNoEndpoints) {
		writeError(w, http.StatusServiceUnavailable, "no endpoints")
		return
	}
	writeError(w, http.StatusBadGateway, "endpoint directory unavailable")
}

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	all, err := s.Directory.List(r.Context())
	if err != nil {
		s.directoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directory.Sorted(all))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	all, err := s.Directory.Refresh(r.Context())
	if err != nil {
		s.directoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, directory.Sorted(all))
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(chi.URLParam(r, "id"))
	ep, err := directory.Lookup(r.Context(), s.Directory, id)
	if err != nil {
		s.directoryError(w, err)
		return
	}

	entry, err := s.Engine.Probe(r.Context(), ep)
	switch {
	case errors.Is(err, engine.ErrEndpointNotFound):
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	case errors.Is(err, engine.ErrMissingAddress):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "probe failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	all, err := s.Directory.List(r.Context())
	if err != nil {
		s.directoryError(w, err)
		return
	}

	// the sweep replaces the cache, so it finishes even if the caller leaves
	ctx := context.WithoutCancel(r.Context())
	rep, err := s.Engine.SweepAll(ctx, directory.Sorted(all), nil)
	if errors.Is(err, engine.ErrSweepInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Progress())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Engine.Report(r.Context())
	if err != nil {
		s.Logger.Warn("report_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type customPayload struct {
	Target string `json:"target"`
}

func (s *Server) handleCustom(w http.ResponseWriter, r *http.Request) {
	var p customPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "bad payload")
		return
	}
	entry, err := s.Engine.ResolveCustom(r.Context(), p.Target)
	if errors.Is(err, engine.ErrEmptyTarget) {
		writeError(w, http.StatusBadRequest, "please enter a valid IP address")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "custom check failed")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	id := domain.EndpointID(strings.TrimSpace(chi.URLParam(r, "id")))
	v, ok := s.Engine.Trend(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no latency samples for endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "trend_ms": v})
}
