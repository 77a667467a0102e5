// Package compute offers EC2 instances: browsing, launching through a
// one-field flow, state facets and termination.
package compute

import (
	"context"
	"fmt"

	"github.com/aretw0/formwork/internal/catalog"
	"github.com/aretw0/formwork/internal/domains"
	"github.com/aretw0/formwork/pkg/adapters/aws"
	"github.com/aretw0/formwork/pkg/dsl"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/schema"
)

const (
	Scope        = "aws:ec2"
	ResourceType = "EC2"

	FeatureListInstances  = "list-ec2-instances"
	FeatureListImages     = "list-ec2-images"
	FeatureCreateInstance = "create-ec2-instance"

	// ImageField is the state key holding the chosen image.
	ImageField = "image_id"
)

// Instance is what the domain needs from an instance.
type Instance interface {
	resource.Resource
	resource.Stateful
}

// Instances is the instance adapter contract.
type Instances[T Instance] interface {
	resource.Lister[T]
	resource.Creator[T]
	resource.Registry[T]
	resource.Deleter
}

// Domain wires instance and image adapters into the registry.
type Domain[T Instance, I resource.Resource] struct {
	instances Instances[T]
	images    resource.Lister[I]
}

// New creates the compute domain.
func New[T Instance, I resource.Resource](instances Instances[T], images resource.Lister[I]) *Domain[T, I] {
	return &Domain[T, I]{instances: instances, images: images}
}

// Summary describes the EC2 service scope.
func Summary() resource.Summary {
	return resource.Summary{
		Name:         "EC2",
		IRI:          Scope,
		ResourceType: ResourceType,
		Description:  "Amazon Elastic Compute Cloud",
	}
}

// Schema is the schema of the create-instance flow.
func Schema() schema.Schema {
	return dsl.New().
		Add(ImageField).
		Name("Image").
		Type(aws.ImageResourceType).
		Describe("The image used to launch the instance").
		Required().
		MustBuild()
}

func contract() schema.Contract {
	return schema.Contract{
		ImageField: schema.Reference(aws.ImageResourceType, ""),
	}
}

// NewFlow starts a create-instance flow.
func (d *Domain[T, I]) NewFlow() *flow.Flow {
	return flow.New(Schema(), flow.WithCompleter(flow.CompleteFunc(d.complete)))
}

func (d *Domain[T, I]) complete(ctx context.Context, state flow.State) (string, error) {
	if err := schema.Validate(contract(), state); err != nil {
		return "", err
	}
	inst, err := d.instances.Create(ctx, state.Strings())
	if err != nil {
		return "", fmt.Errorf("create instance: %w", err)
	}
	return inst.Summary().IRI, nil
}

// Register adds the EC2 scope and features to reg, and contributes the
// instance facet and deleter to shared.
func (d *Domain[T, I]) Register(reg *registry.Registry, shared *domains.Shared) error {
	listInstances := domains.List[T](d.instances)

	if err := reg.RegisterScope(Summary(), listInstances); err != nil {
		return err
	}

	entries := []registry.Entry{
		{
			Feature: registry.Feature{
				ID:      FeatureListInstances,
				Name:    "List EC2 instances",
				Type:    registry.FeatureList,
				Targets: []string{ResourceType},
			},
			List: listInstances,
		},
		{
			Feature: registry.Feature{
				ID:      FeatureCreateInstance,
				Name:    "Create EC2 instance",
				Type:    registry.FeatureCreate,
				Targets: []string{ResourceType},
			},
			Create: func(context.Context, string) (*flow.Flow, error) {
				return d.NewFlow(), nil
			},
			Invalidates: []string{Scope, catalog.FeatureScope(FeatureListInstances, "")},
		},
		{
			Feature: registry.Feature{
				ID:      FeatureListImages,
				Name:    "List EC2 images",
				Type:    registry.FeatureList,
				Targets: []string{ResourceType},
			},
			List: domains.List[I](d.images),
		},
	}
	for _, e := range entries {
		if err := reg.Register(e); err != nil {
			return err
		}
	}

	shared.AddStateful(aws.InstanceResourceType, domains.LookupOf[T](d.instances))
	shared.AddDeleter(aws.InstanceResourceType, aws.InstanceIRIPrefix, d.instances)
	return nil
}
