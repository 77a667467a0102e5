// Package definitions turns static flow definitions into create features.
// A definition naming an allow-listed tool is completed by running that
// tool with the flow state in its environment.
package definitions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/tools"
)

// FeaturePrefix prefixes the feature id of every definition.
const FeaturePrefix = "create-"

// ToolRunner resolves allow-listed tools and runs them to exit.
type ToolRunner interface {
	Resolve(name string, inputs map[string]any) (tools.Request, error)
	Wait(ctx context.Context, req tools.Request) (tools.Output, error)
}

// Domain registers one create feature per definition.
type Domain struct {
	source ports.DefinitionSource
	runner ToolRunner
	logger *slog.Logger

	mu         sync.Mutex
	registered map[string]bool
}

// Option configures a Domain.
type Option func(*Domain)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Domain) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates the definitions domain.
func New(source ports.DefinitionSource, runner ToolRunner, opts ...Option) *Domain {
	d := &Domain{
		source:     source,
		runner:     runner,
		logger:     logging.NewNop(),
		registered: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FeatureID returns the create feature id of a definition.
func FeatureID(def ports.Definition) string { return FeaturePrefix + def.ID }

// NewFlow starts a flow for def.
func (d *Domain) NewFlow(def ports.Definition) *flow.Flow {
	var opts []flow.Option
	if def.Tool != "" {
		opts = append(opts, flow.WithCompleter(d.completer(def)))
	}
	return flow.New(def.Fields, opts...)
}

func (d *Domain) completer(def ports.Definition) flow.Completer {
	contract := schema.ContractFor(def.Fields)
	return flow.CompleteFunc(func(ctx context.Context, state flow.State) (string, error) {
		if err := schema.Validate(contract, state); err != nil {
			return "", err
		}
		req, err := d.runner.Resolve(def.Tool, state)
		if err != nil {
			return "", err
		}
		out, err := d.runner.Wait(ctx, req)
		if err != nil {
			return "", fmt.Errorf("run %s: %w", def.Tool, err)
		}
		return strings.TrimSpace(out.Stdout), nil
	})
}

// Register loads every definition and registers its feature. It is safe
// to call again: changed definitions replace their feature and removed
// ones are unregistered. Definitions naming an unknown tool are skipped.
func (d *Domain) Register(ctx context.Context, reg *registry.Registry) error {
	defs, err := d.source.Definitions(ctx)
	if err != nil {
		return fmt.Errorf("load definitions: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.Tool != "" {
			if _, err := d.runner.Resolve(def.Tool, nil); err != nil {
				d.logger.Warn("Skipping definition", "definition", def.ID, "error", err)
				continue
			}
		}

		var targets []string
		if def.ResourceType != "" {
			targets = []string{def.ResourceType}
		}
		entry := registry.Entry{
			Feature: registry.Feature{
				ID:          FeatureID(def),
				Name:        def.Name,
				Type:        registry.FeatureCreate,
				Description: def.Description,
				Targets:     targets,
			},
			Create: func(context.Context, string) (*flow.Flow, error) {
				return d.NewFlow(def), nil
			},
		}
		if err := reg.Replace(entry); err != nil {
			d.logger.Warn("Skipping definition", "definition", def.ID, "error", err)
			continue
		}
		seen[entry.ID] = true
	}

	for id := range d.registered {
		if !seen[id] {
			reg.Unregister(id)
			d.logger.Info("Definition removed", "feature", id)
		}
	}
	d.registered = seen
	return nil
}

// Watch re-registers definitions whenever w reports a change, until ctx
// is done.
func (d *Domain) Watch(ctx context.Context, reg *registry.Registry, w ports.Watchable) error {
	events, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for id := range events {
			d.logger.Debug("Definition changed", "document", id)
			if err := d.Register(ctx, reg); err != nil {
				d.logger.Error("Failed to reload definitions", "error", err)
			}
		}
	}()
	return nil
}
