package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/formwork"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandleStartFlow implements the start_flow tool.
func (s *Server) HandleStartFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	featureID, err := req.RequireString("feature_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.engine.StartFlowFor(ctx, featureID, req.GetString("target", ""))
	return s.result("start_flow", out, err)
}

// HandleGetFlowSchema implements the get_flow_schema tool.
func (s *Server) HandleGetFlowSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.engine.GetFlowSchema(id)
	return s.result("get_flow_schema", out, err)
}

// HandleUpdateFlowState implements the update_flow_state tool.
func (s *Server) HandleUpdateFlowState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var value any
	switch v := req.GetArguments()["value"].(type) {
	case string:
		value = formwork.DecodeValue(v)
	case nil:
		return mcp.NewToolResultError(`required argument "value" not found`), nil
	default:
		value = v
	}

	var version *int
	if v, ok := req.GetArguments()["version"].(float64); ok {
		n := int(v)
		version = &n
	}

	out, err := s.engine.UpdateFlowState(ctx, id, key, value, version)
	return s.result("update_flow_state", out, err)
}

// HandleCompleteFlow implements the complete_flow tool.
func (s *Server) HandleCompleteFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.engine.CompleteFlow(ctx, id)
	return s.result("complete_flow", out, err)
}

// HandleCancelFlow implements the cancel_flow tool.
func (s *Server) HandleCancelFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("flow_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.CancelFlow(ctx, id); err != nil {
		return s.result("cancel_flow", nil, err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("flow %s cancelled", id)), nil
}

// HandleListFeatures implements the list_features tool.
func (s *Server) HandleListFeatures(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result("list_features", s.engine.Features(req.GetString("resource_type", "")), nil)
}

// HandleListResources implements the list_resources tool.
func (s *Server) HandleListResources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.engine.Resources(ctx, req.GetString("scope", ""), req.GetString("filter", ""))
	return s.result("list_resources", items, err)
}

// result turns engine errors into tool errors. Only encoding failures fail
// the call itself.
func (s *Server) result(tool string, v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		s.logger.Debug("MCP tool failed", "tool", tool, "err", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%s: encode result: %w", tool, err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
