package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowsURI is the resource listing live flows.
const FlowsURI = "formwork://flows"

// Engine defines the part of formwork.Engine exposed over MCP.
type Engine interface {
	StartFlowFor(ctx context.Context, featureID, target string) (formwork.FlowSchema, error)
	GetFlowSchema(id string) (formwork.FlowSchema, error)
	UpdateFlowState(ctx context.Context, id, key string, value any, version *int) (formwork.FlowSchema, error)
	CompleteFlow(ctx context.Context, id string) (session.Completion, error)
	CancelFlow(ctx context.Context, id string) error
	Resources(ctx context.Context, scope, filter string) ([]resource.Summary, error)
	Features(resourceType string) []registry.Feature
	Flows() []session.Entry
}

// Server exposes an Engine as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine: engine,
		mcpServer: server.NewMCPServer("formwork-mcp", formwork.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, false),
		),
		logger: logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_flow",
		mcp.WithDescription("Start a flow from a create feature. Returns the flow id, the first schema and its version."),
		mcp.WithString("feature_id", mcp.Required(), mcp.Description("Create feature id, see list_features")),
		mcp.WithString("target", mcp.Description("Resource IRI the feature runs against (optional)")),
	), s.HandleStartFlow)

	s.mcpServer.AddTool(mcp.NewTool("get_flow_schema",
		mcp.WithDescription("Get the fields a live flow currently offers."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow id")),
	), s.HandleGetFlowSchema)

	s.mcpServer.AddTool(mcp.NewTool("update_flow_state",
		mcp.WithDescription("Answer one field of a live flow. Returns the recomputed schema."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow id")),
		mcp.WithString("key", mcp.Required(), mcp.Description("Field key offered by the current schema")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value; JSON objects and arrays are decoded")),
		mcp.WithNumber("version", mcp.Description("Schema version the answer was computed from (optional)")),
	), s.HandleUpdateFlowState)

	s.mcpServer.AddTool(mcp.NewTool("complete_flow",
		mcp.WithDescription("Complete a flow and run its handler. Returns the handler result."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow id")),
	), s.HandleCompleteFlow)

	s.mcpServer.AddTool(mcp.NewTool("cancel_flow",
		mcp.WithDescription("Discard a live flow without completing it."),
		mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow id")),
	), s.HandleCancelFlow)

	s.mcpServer.AddTool(mcp.NewTool("list_features",
		mcp.WithDescription("List the features offered for a resource type. Omit the type for global features."),
		mcp.WithString("resource_type", mcp.Description("Resource type, e.g. EC2")),
	), s.HandleListFeatures)

	s.mcpServer.AddTool(mcp.NewTool("list_resources",
		mcp.WithDescription("List resources under a scope, or the root services when scope is omitted."),
		mcp.WithString("scope", mcp.Description("Scope IRI, e.g. aws:ec2")),
		mcp.WithString("filter", mcp.Description(`Boolean filter, e.g. name startsWith "i-"`)),
	), s.HandleListResources)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowsURI, "Live flows",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Flows())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: FlowsURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
