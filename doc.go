/*
Package formwork drives multi-step data-collection flows whose next questions depend on earlier answers.

A client starts a flow from a feature, receives a schema describing the fields it may fill next, and answers one field at a time. After every answer the engine recomputes the schema from the accumulated state and bumps its version. When the client is done, completing the flow hands the state to a domain handler (launching an instance, running a tool, bootstrapping a pipeline stage) and returns the handler's result.

# Concept

Flows come in two shapes:

  - Static flows offer a fixed schema built with pkg/dsl or loaded from a definition document.
  - Manifest flows generate their schema from a question manifest (pkg/manifest): each question is kept while it is unanswered and its condition holds, with prompts and defaults resolved from answers given so far (pkg/expression).

Every state change is guarded: the key must be offered by the current schema, and callers may pass the version they rendered so concurrent edits fail with ErrStale instead of writing against an outdated schema.

# Usage

	reg := registry.NewRegistry()
	_ = reg.Register(registry.Entry{
		Feature: registry.Feature{ID: "create-note", Name: "Create note", Type: registry.FeatureCreate},
		Create: func(context.Context, string) (*flow.Flow, error) {
			return flow.New(dsl.New().Add("title").Required().MustBuild()), nil
		},
	})

	engine := formwork.New(reg)
	started, _ := engine.StartFlow(ctx, "create-note")
	next, _ := engine.UpdateFlowState(ctx, started.FlowID, "title", "Hello", &started.Version)
	done, _ := engine.CompleteFlow(ctx, next.FlowID)

# Transports

The same engine is served over HTTP (pkg/adapters/http), the Model Context Protocol (pkg/adapters/mcp) and an interactive terminal wizard (cmd/formwork).
*/
package formwork
