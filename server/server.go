// Package server exposes the bridge's sensors over a small local HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/hassbridge/sonarrbridge/coordinator"
	"github.com/hassbridge/sonarrbridge/sensor"
)

const shutdownTimeout = 5 * time.Second

// Snapshotter is the slice of the coordinator the API reads from.
type Snapshotter interface {
	Snapshot() *coordinator.Data
	LastUpdateSuccess() bool
	EnabledDatapoints() map[coordinator.Datapoint]int
}

// Server serves sensor states and bridge health.
type Server struct {
	listen   string
	registry *sensor.Registry
	coord    Snapshotter
	logger   zerolog.Logger
}

// New creates a server.
func New(listen string, registry *sensor.Registry, coord Snapshotter, logger zerolog.Logger) *Server {
	return &Server{
		listen:   listen,
		registry: registry,
		coord:    coord,
		logger:   logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sensors", s.handleListSensors)
		r.Get("/sensors/{key}", s.handleGetSensor)
		r.Get("/datapoints", s.handleDatapoints)
	})

	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.listen,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info().Str("listen", s.listen).Msg("HTTP API listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

type sensorPayload struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Icon       string            `json:"icon,omitempty"`
	Unit       string            `json:"unit,omitempty"`
	State      any               `json:"state"`
	Attributes map[string]string `json:"attributes"`
}

type healthPayload struct {
	Status      string     `json:"status"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{Status: "ok"}

	if !s.coord.LastUpdateSuccess() {
		payload.Status = "degraded"
	}

	if data := s.coord.Snapshot(); data != nil {
		payload.LastUpdated = &data.Updated
	}

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	data := s.coord.Snapshot()

	payloads := make([]sensorPayload, 0, s.registry.Len())
	for _, def := range s.registry.All() {
		payloads = append(payloads, projectSensor(def, data))
	}

	s.writeJSON(w, http.StatusOK, payloads)
}

func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	def, ok := s.registry.Get(key)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown sensor: " + key})
		return
	}

	s.writeJSON(w, http.StatusOK, projectSensor(def, s.coord.Snapshot()))
}

func (s *Server) handleDatapoints(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.coord.EnabledDatapoints())
}

func projectSensor(def *sensor.Definition, data *coordinator.Data) sensorPayload {
	payload := sensorPayload{
		Key:        def.Key,
		Name:       def.Name,
		Icon:       def.Icon,
		Unit:       def.Unit,
		Attributes: def.Attributes(data),
	}

	if value, ok := def.State(data); ok {
		payload.State = value
	}

	return payload
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

// requestLogger logs each request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
