package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weather-globe-service/internal/domain"
	"github.com/couchcryptid/weather-globe-service/internal/globe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller is the globe state the API reads and mutates.
type Controller interface {
	sharedobs.ReadinessChecker
	Snapshot(ctx context.Context) (globe.Snapshot, error)
	Toggle(ctx context.Context, c domain.Category) (domain.CategorySet, error)
	SetActiveCategories(ctx context.Context, set domain.CategorySet) error
	Show(ctx context.Context, id domain.RecordID) (bool, error)
	Hide(ctx context.Context) error
	Load(ctx context.Context) error
}

// Options are the optional parts of the server.
type Options struct {
	// Websocket serves GET /ws when set.
	Websocket http.Handler
	// WebDir is served at / when set.
	WebDir string
}

// Server exposes health, readiness, metrics, and the globe view API.
type Server struct {
	httpServer *http.Server
	ctrl       Controller
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the health, metrics and API routes.
func NewServer(addr string, ctrl Controller, opts Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ctrl:   ctrl,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ctrl))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/records", s.handleRecords)
	mux.HandleFunc("PUT /api/categories", s.handleSetCategories)
	mux.HandleFunc("POST /api/categories/{category}/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/records/{id}/show", s.handleShow)
	mux.HandleFunc("POST /api/detail/hide", s.handleHide)
	mux.HandleFunc("POST /api/reload", s.handleReload)

	if opts.Websocket != nil {
		mux.Handle("GET /ws", opts.Websocket)
	}
	if opts.WebDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(opts.WebDir)))
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type categoriesRequest struct {
	Active []domain.Category `json:"active"`
}

type categoriesResponse struct {
	Active []domain.Category `json:"active"`
	// Changed is false when the tag was not one of the known categories.
	Changed bool `json:"changed"`
}

type showResponse struct {
	ID    domain.RecordID `json:"id"`
	Shown bool            `json:"shown"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctrl.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ctrl.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	records := snap.Visible
	if records == nil {
		records = []domain.WeatherRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, records)
}

// handleToggle flips one category. Unknown tags are a no-op, not an error.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	cat, ok := domain.ParseCategory(r.PathValue("category"))
	if !ok {
		snap, err := s.ctrl.Snapshot(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, categoriesResponse{Active: snap.Active})
		return
	}

	active, err := s.ctrl.Toggle(r.Context(), cat)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, categoriesResponse{Active: active.Slice(), Changed: true})
}

func (s *Server) handleSetCategories(w http.ResponseWriter, r *http.Request) {
	var req categoriesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	set := domain.NewCategorySet(req.Active...)
	if err := s.ctrl.SetActiveCategories(r.Context(), set); err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, categoriesResponse{Active: set.Slice(), Changed: true})
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	id := domain.RecordID(r.PathValue("id"))
	shown, err := s.ctrl.Show(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, showResponse{ID: id, Shown: shown})
}

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Hide(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReload loads the source again. A failed load is reported in the body;
// the view has already been updated to reflect it.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := s.ctrl.Load(r.Context())
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, globe.ErrStopped)) {
		s.writeError(w, err)
		return
	}
	snap, snapErr := s.ctrl.Snapshot(r.Context())
	if snapErr != nil {
		s.writeError(w, snapErr)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, snap)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, globe.ErrStopped) {
		status = http.StatusServiceUnavailable
	}
	s.logger.Warn("api request failed", "error", err)
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
