package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/formwork/pkg/adapters/blob"
	"github.com/aretw0/formwork/pkg/ports"
	contract "github.com/aretw0/formwork/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func TestBlobSource_Contract(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)

	data := map[string][]byte{
		"manifest.yaml":            []byte("providers: []\n"),
		"two-stage/questions.json": []byte(`{"questions":[]}`),
	}
	for k, v := range data {
		require.NoError(t, bucket.WriteAll(ctx, "templates/"+k, v, nil))
	}

	source := blob.New(bucket, "templates")
	defer source.Close()

	contract.DocumentSourceContractTest(t, source, data)
}

func TestBlobSource_File(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte("templates: []\n"), 0o644))

	source, err := blob.Open(ctx, "file://"+filepath.ToSlash(dir), "")
	require.NoError(t, err)
	defer source.Close()

	got, err := source.ReadDocument(ctx, "manifest.yaml")
	require.NoError(t, err)
	assert.Equal(t, "templates: []\n", string(got))

	_, err = source.ReadDocument(ctx, "missing.yaml")
	assert.ErrorIs(t, err, ports.ErrDocumentNotFound)
}

func TestBlobSource_OpenUnknownScheme(t *testing.T) {
	_, err := blob.Open(context.Background(), "nope://bucket", "")
	assert.Error(t, err)
}
