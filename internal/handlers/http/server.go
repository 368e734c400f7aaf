package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
	"github.com/KirkDiggler/bot-stage/internal/services/provisioning"
	"github.com/KirkDiggler/bot-stage/internal/services/roster"
	"github.com/KirkDiggler/bot-stage/internal/services/stage"
)

// maxSnapshotBytes caps a PUT /roster body
const maxSnapshotBytes = 1 << 20

// Server exposes stage state for the HUD and for debugging
type Server struct {
	stage        stage.Service
	roster       roster.Service
	provisioning provisioning.Service
	gatherer     prometheus.Gatherer
	logger       *slog.Logger
}

// ServerConfig holds the services the handlers read from
type ServerConfig struct {
	Stage        stage.Service // Required
	Roster       roster.Service
	Provisioning provisioning.Service
	// Gatherer serves /metrics when set
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewHandler creates the debug router
func NewHandler(cfg *ServerConfig) http.Handler {
	if cfg == nil || cfg.Stage == nil {
		panic("stage service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		stage:        cfg.Stage,
		roster:       cfg.Roster,
		provisioning: cfg.Provisioning,
		gatherer:     cfg.Gatherer,
		logger:       logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.Health)
	r.Get("/avatars", s.ListAvatars)
	r.Get("/avatars/{name}", s.GetAvatar)

	if s.roster != nil {
		r.Get("/roster", s.GetRoster)
		r.Put("/roster", s.PutRoster)
	}
	if s.provisioning != nil {
		r.Get("/provisioning", s.GetProvisioning)
	}
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Health handles GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListAvatars handles GET /avatars
func (s *Server) ListAvatars(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stage.Views())
}

// GetAvatar handles GET /avatars/{name}
func (s *Server) GetAvatar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	view, ok := s.stage.View(name)
	if !ok {
		s.writeError(w, apperr.NotFoundf("avatar %s not found", name))
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetRoster handles GET /roster
func (s *Server) GetRoster(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.roster.Current())
}

// PutRoster handles PUT /roster. The body is a YAML or JSON snapshot.
func (s *Server) PutRoster(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBytes))
	if err != nil {
		s.writeError(w, apperr.WrapWithCode(err, apperr.CodeInvalidArgument, "read body"))
		return
	}

	snap, err := roster.ParseSnapshot(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.roster.Apply(r.Context(), snap); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, snap)
}

// GetProvisioning handles GET /provisioning
func (s *Server) GetProvisioning(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.provisioning.Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.GetCode(err) {
	case apperr.CodeNotFound:
		status = http.StatusNotFound
	case apperr.CodeInvalidArgument:
		status = http.StatusBadRequest
	case apperr.CodeUnavailable:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
