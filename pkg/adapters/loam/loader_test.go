package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/formwork/internal/testutils"
	adapter "github.com/aretw0/formwork/pkg/adapters/loam"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, files map[string]string) *adapter.Loader {
	t.Helper()
	_, repo := testutils.SetupDefinitions(t, files)
	return adapter.New(loam.NewTypedRepository[adapter.DefinitionMetadata](repo))
}

func TestLoader_Definitions(t *testing.T) {
	loader := seed(t, map[string]string{
		"bucket.md": `---
name: Create bucket
resource_type: S3Bucket
tool: make-bucket
fields:
  bucket_name:
    name: Bucket name
    required: true
    order: 1
  region:
    name: Region
    resource_type: Region
    options: [us-east-1, eu-west-1]
    default: us-east-1
    order: 2
---
Creates an S3 bucket with the given name.`,
		"note.json": `{
  "id": "note.json",
  "name": "Note",
  "fields": {"text": {"name": "Text"}}
}`,
	})

	defs, err := loader.Definitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)

	bucket := defs[0]
	assert.Equal(t, "bucket", bucket.ID, "ids are normalized from file names")
	assert.Equal(t, "Create bucket", bucket.Name)
	assert.Equal(t, "make-bucket", bucket.Tool)
	assert.Equal(t, "Creates an S3 bucket with the given name.", bucket.Description)

	name := bucket.Fields["bucket_name"]
	assert.True(t, name.Required)
	assert.Equal(t, schema.TypeString, name.ResourceType)
	assert.Equal(t, 1, *name.RelativeOrder)

	region := bucket.Fields["region"]
	assert.Equal(t, "Region", region.ResourceType)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, region.ValidOptions)
	require.NotNil(t, region.DefaultValue)
	assert.Equal(t, "us-east-1", *region.DefaultValue)

	note := defs[1]
	assert.Equal(t, "note", note.ID)
	assert.True(t, note.Fields.Has("text"))
}

func TestLoader_Definitions_DetectsCollisions(t *testing.T) {
	loader := seed(t, map[string]string{
		"foo.md": `---
id: foo
name: Foo
---
Explicit ID`,
		"foo.json": `{
  "id": "foo",
  "name": "Foo again"
}`,
	})

	_, err := loader.Definitions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}
