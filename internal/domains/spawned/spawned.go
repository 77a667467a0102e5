// Package spawned exposes the processes started by the tool controller as
// browsable resources.
package spawned

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/formwork/internal/domains"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/tools"
)

const (
	Scope        = "tools"
	ResourceType = "Tools"

	FeatureList = "list-spawned-tools"
)

// Controller is the part of the tool controller the domain uses.
type Controller interface {
	resource.Lister[*tools.SpawnedTool]
	resource.Registry[*tools.SpawnedTool]
	resource.Deleter
}

// Summary describes the spawned tools scope.
func Summary() resource.Summary {
	return resource.Summary{
		Name:         "Tools",
		IRI:          Scope,
		ResourceType: ResourceType,
		Description:  "Processes started by completed flows",
	}
}

// Register adds the tools scope and list feature to reg, and contributes
// the process facet and deleter to shared.
func Register(reg *registry.Registry, shared *domains.Shared, c Controller) error {
	list := domains.List[*tools.SpawnedTool](c)

	if err := reg.RegisterScope(Summary(), list); err != nil {
		return err
	}
	if err := reg.Register(registry.Entry{
		Feature: registry.Feature{
			ID:      FeatureList,
			Name:    "List spawned tools",
			Type:    registry.FeatureList,
			Targets: []string{ResourceType},
		},
		List: list,
	}); err != nil {
		return err
	}

	shared.AddStateful(tools.ResourceType, domains.LookupOf[*tools.SpawnedTool](c))
	shared.AddDeleter(tools.ResourceType, "", deleter{c})
	return nil
}

type deleter struct{ c Controller }

func (d deleter) Delete(ctx context.Context, iri string) error {
	if _, err := tools.ParseID(iri); err != nil {
		return fmt.Errorf("%w: %s", resource.ErrNotFound, iri)
	}
	err := d.c.Delete(ctx, iri)
	if errors.Is(err, tools.ErrNotFound) {
		return fmt.Errorf("%w: %w", resource.ErrNotFound, err)
	}
	return err
}
