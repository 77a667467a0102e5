package compute_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/formwork/internal/catalog"
	"github.com/aretw0/formwork/internal/domains"
	"github.com/aretw0/formwork/internal/domains/compute"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instance struct {
	id    string
	state string
}

func (i *instance) Summary() resource.Summary {
	return resource.Summary{Name: i.id, IRI: "aws:ec2/instance/" + i.id, ResourceType: "EC2Instance"}
}
func (i *instance) State() string     { return i.state }
func (i *instance) IsTransient() bool { return i.state == "Pending" }

type fakeInstances struct {
	items   map[string]*instance
	created []map[string]string
	deleted []string
	err     error
}

func newFake() *fakeInstances {
	return &fakeInstances{items: map[string]*instance{
		"aws:ec2/instance/i-1": {id: "i-1", state: "Running"},
	}}
}

func (f *fakeInstances) List(context.Context) ([]*instance, error) {
	out := make([]*instance, 0, len(f.items))
	for _, i := range f.items {
		out = append(out, i)
	}
	return out, nil
}

func (f *fakeInstances) Create(_ context.Context, input map[string]string) (*instance, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, input)
	inst := &instance{id: "i-new", state: "Pending"}
	f.items[inst.Summary().IRI] = inst
	return inst, nil
}

func (f *fakeInstances) GetResource(_ context.Context, iri string) (*instance, bool) {
	i, ok := f.items[iri]
	return i, ok
}

func (f *fakeInstances) Delete(_ context.Context, iri string) error {
	f.deleted = append(f.deleted, iri)
	delete(f.items, iri)
	return nil
}

type image struct{ id string }

func (i image) Summary() resource.Summary {
	return resource.Summary{Name: i.id, IRI: "aws:ec2/image/" + i.id, ResourceType: "EC2Image"}
}

func images() resource.Lister[image] {
	return resource.ListerFunc[image](func(context.Context) ([]image, error) {
		return []image{{id: "ami-1"}}, nil
	})
}

func setup(t *testing.T, fake *fakeInstances) *catalog.Catalog {
	t.Helper()
	reg := registry.NewRegistry()
	shared := domains.NewShared()
	require.NoError(t, compute.New[*instance, image](fake, images()).Register(reg, shared))
	require.NoError(t, shared.Register(reg))
	return catalog.New(reg)
}

func TestCompute_Features(t *testing.T) {
	c := setup(t, newFake())

	var ids []string
	for _, f := range c.Features(compute.ResourceType) {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"create-ec2-instance", "list-ec2-images", "list-ec2-instances"}, ids)

	roots, err := c.Resources(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, compute.Scope, roots[0].IRI)

	res, err := c.RunFeature(context.Background(), compute.FeatureListImages, "")
	require.NoError(t, err)
	require.Len(t, res.Resources, 1)
	assert.Equal(t, "aws:ec2/image/ami-1", res.Resources[0].IRI)
}

func TestCompute_CreateFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Happy path", func(t *testing.T) {
		fake := newFake()
		c := setup(t, fake)

		res, err := c.RunFeature(ctx, compute.FeatureCreateInstance, "")
		require.NoError(t, err)
		f := res.Flow

		s := f.Schema()
		require.True(t, s.Has(compute.ImageField))
		assert.True(t, s[compute.ImageField].Required)
		assert.Equal(t, "EC2Image", s[compute.ImageField].ResourceType)

		require.NoError(t, f.UpdateState(compute.ImageField, "aws:ec2/image/ami-1"))
		result, ok, err := f.Complete(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "aws:ec2/instance/i-new", result)
		assert.Equal(t, "aws:ec2/image/ami-1", fake.created[0][compute.ImageField])
	})

	t.Run("Missing image fails the contract", func(t *testing.T) {
		fake := newFake()
		c := setup(t, fake)

		res, err := c.RunFeature(ctx, compute.FeatureCreateInstance, "")
		require.NoError(t, err)

		_, _, err = res.Flow.Complete(ctx)
		require.Error(t, err)
		assert.Len(t, schema.ValidationErrors(err), 1)
		assert.Empty(t, fake.created)
	})

	t.Run("Adapter failure is wrapped", func(t *testing.T) {
		fake := newFake()
		fake.err = errors.New("InsufficientInstanceCapacity")
		c := setup(t, fake)

		res, err := c.RunFeature(ctx, compute.FeatureCreateInstance, "")
		require.NoError(t, err)
		require.NoError(t, res.Flow.UpdateState(compute.ImageField, "ami-1"))

		_, _, err = res.Flow.Complete(ctx)
		assert.ErrorIs(t, err, fake.err)
	})

	t.Run("Non-string image is rejected", func(t *testing.T) {
		f := compute.New[*instance, image](newFake(), images()).NewFlow()
		require.NoError(t, f.UpdateState(compute.ImageField, 42.0))
		_, _, err := f.Complete(ctx)
		var verr *schema.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, compute.ImageField, verr.Key)
	})
}

func TestCompute_StatefulAndDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	c := setup(t, fake)

	res, err := c.RunFeature(ctx, domains.FeatureStateful, "aws:ec2/instance/i-1")
	require.NoError(t, err)
	assert.Equal(t, &resource.Facet{State: "Running"}, res.Facet)

	_, err = c.RunFeature(ctx, domains.FeatureStateful, "aws:ec2/instance/i-404")
	assert.ErrorIs(t, err, resource.ErrNotFound)

	_, err = c.RunFeature(ctx, domains.FeatureDelete, "aws:ec2/instance/i-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"aws:ec2/instance/i-1"}, fake.deleted)

	_, err = c.RunFeature(ctx, domains.FeatureDelete, "arn:aws:s3:::bucket")
	assert.ErrorIs(t, err, resource.ErrNotFound)
}
