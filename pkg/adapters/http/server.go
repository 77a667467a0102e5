package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/session"
	"github.com/aretw0/formwork/pkg/tools"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// Engine is the part of formwork.Engine served over HTTP.
type Engine interface {
	StartFlowFor(ctx context.Context, featureID, target string) (formwork.FlowSchema, error)
	GetFlowSchema(id string) (formwork.FlowSchema, error)
	GetFlowState(id string) (flow.Snapshot, error)
	UpdateFlowState(ctx context.Context, id, key string, value any, version *int) (formwork.FlowSchema, error)
	CompleteFlow(ctx context.Context, id string) (session.Completion, error)
	CancelFlow(ctx context.Context, id string) error
	Resources(ctx context.Context, scope, filter string) ([]resource.Summary, error)
	Features(resourceType string) []registry.Feature
	RunFeature(ctx context.Context, featureID, target string) (formwork.FeatureResult, error)
}

// ToolSource hands over spawned tools for streaming.
type ToolSource interface {
	Take(id string) (*tools.SpawnedTool, error)
}

// Server serves an Engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	tools   ToolSource
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams uses sm for /events. The same manager's Hooks must be
// registered on the engine for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithTools enables /ws/{toolID}.
func WithTools(src ToolSource) Option {
	return func(s *Server) {
		s.tools = src
	}
}

// WithMetrics serves h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/resources", s.GetResources)
	r.Get("/features", s.GetFeatures)
	r.Get("/events", s.SubscribeEvents)
	r.Post("/rpc/{method}", s.Call)
	if s.tools != nil {
		r.Get("/ws/{toolID}", s.AttachTool)
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":         "formwork-http",
		"version":     formwork.Version,
		"api_version": apiVersion,
	})
}

// GetResources handles the GET /resources request.
func (s *Server) GetResources(w http.ResponseWriter, r *http.Request) {
	var scope, filter string
	if err := bindQuery(r, "scope", &scope); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := bindQuery(r, "filter", &filter); err != nil {
		writeError(w, s.logger, err)
		return
	}

	items, err := s.Engine.Resources(r.Context(), scope, filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, nonNil(items))
}

// GetFeatures handles the GET /features request.
func (s *Server) GetFeatures(w http.ResponseWriter, r *http.Request) {
	var resourceType string
	if err := bindQuery(r, "resource_type", &resourceType); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, nonNil(s.Engine.Features(resourceType)))
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var flowID string
	if err := bindQuery(r, "flow_id", &flowID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if flowID != "" {
		if _, err := s.Engine.GetFlowSchema(flowID); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(flowID)
	defer cancel()
	s.logger.Info("SSE: Client subscribed", "flow_id", flowID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "flow_id", flowID)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
			// A single flow's stream ends with the flow.
			if flowID != "" && (ev.Name == "completed" || ev.Name == "cancelled") {
				s.logger.Info("SSE: Flow ended, closing stream", "flow_id", flowID)
				return
			}
		}
	}
}

// bindQuery binds an optional form-style query parameter.
func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
