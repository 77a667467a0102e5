package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mitchellh/mapstructure"
)

// maxBodySize bounds RPC request bodies.
const maxBodySize = 1 << 20

type (
	startFlowParams struct {
		FeatureID string `mapstructure:"feature_id"`
		Target    string `mapstructure:"target"`
	}

	flowParams struct {
		FlowID string `mapstructure:"flow_id"`
	}

	updateParams struct {
		FlowID  string `mapstructure:"flow_id"`
		Key     string `mapstructure:"key"`
		Value   any    `mapstructure:"value"`
		Version *int   `mapstructure:"version"`
	}

	resourcesParams struct {
		Scope  string `mapstructure:"scope"`
		Filter string `mapstructure:"filter"`
	}

	featuresParams struct {
		ResourceType string `mapstructure:"resource_type"`
	}

	runFeatureParams struct {
		FeatureID string `mapstructure:"feature_id"`
		Target    string `mapstructure:"target"`
	}
)

// rpcMethod binds a method name to the component schema its params are
// validated against and the call it makes.
type rpcMethod struct {
	params string
	call   func(ctx context.Context, e Engine, params map[string]any) (any, error)
}

var methods = map[string]rpcMethod{
	"startFlow": {"StartFlowParams", func(ctx context.Context, e Engine, in map[string]any) (any, error) {
		var p startFlowParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		return e.StartFlowFor(ctx, p.FeatureID, p.Target)
	}},
	"getFlowSchema": {"FlowParams", func(_ context.Context, e Engine, in map[string]any) (any, error) {
		var p flowParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		return e.GetFlowSchema(p.FlowID)
	}},
	"getFlowState": {"FlowParams", func(_ context.Context, e Engine, in map[string]any) (any, error) {
		var p flowParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		return e.GetFlowState(p.FlowID)
	}},
	"updateFlowState": {"UpdateFlowStateParams", func(ctx context.Context, e Engine, in map[string]any) (any, error) {
		var p updateParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		return e.UpdateFlowState(ctx, p.FlowID, p.Key, p.Value, p.Version)
	}},
	"completeFlow": {"FlowParams", func(ctx context.Context, e Engine, in map[string]any) (any, error) {
		var p flowParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		return e.CompleteFlow(ctx, p.FlowID)
	}},
	"cancelFlow": {"FlowParams", func(ctx context.Context, e Engine, in map[string]any) (any, error) {
		var p flowParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		if err := e.CancelFlow(ctx, p.FlowID); err != nil {
			return nil, err
		}
		return map[string]any{"flow_id": p.FlowID, "cancelled": true}, nil
	}},
	"getResources": {"ResourcesParams", func(ctx context.Context, e Engine, in map[string]any) (any, error) {
		var p resourcesParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		items, err := e.Resources(ctx, p.Scope, p.Filter)
		return nonNil(items), err
	}},
	"getFeatures": {"FeaturesParams", func(_ context.Context, e Engine, in map[string]any) (any, error) {
		var p featuresParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		return nonNil(e.Features(p.ResourceType)), nil
	}},
	"runFeature": {"RunFeatureParams", func(ctx context.Context, e Engine, in map[string]any) (any, error) {
		var p runFeatureParams
		if err := decode(in, &p); err != nil {
			return nil, err
		}
		return e.RunFeature(ctx, p.FeatureID, p.Target)
	}},
}

var aliases = map[string]string{
	"create": "startFlow",
	"get":    "getFlowState",
	"update": "updateFlowState",
}

// Call handles the POST /rpc/{method} request.
func (s *Server) Call(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "method")
	if target, ok := aliases[name]; ok {
		name = target
	}
	m, ok := methods[name]
	if !ok {
		writeJSON(w, s.logger, http.StatusNotFound, errorBody{Error: "unknown method " + name, Code: "not_found"})
		return
	}

	params, err := readParams(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := validateParams(m.params, params); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %s: %w", errBadRequest, name, err))
		return
	}

	out, err := m.call(r.Context(), s.Engine, params)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, out)
}

// readParams decodes the JSON object body. An empty body is an empty
// params object.
func readParams(r *http.Request) (map[string]any, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBodySize)
	}

	params := map[string]any{}
	if len(body) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(body, &params); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if params == nil {
		return nil, fmt.Errorf("%w: params must be an object", errBadRequest)
	}
	return params, nil
}

func decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
