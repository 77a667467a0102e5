// Package blob serves documents from a gocloud.dev bucket, supporting S3,
// GCS, Azure Blob Storage, local directories (file://) and memory (mem://).
package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/formwork/pkg/ports"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Source implements ports.DocumentSource over a bucket.
type Source struct {
	bucket *blob.Bucket
	prefix string
}

var _ ports.DocumentSource = (*Source)(nil)

// Open opens the bucket at bucketURL. Keys are resolved under prefix.
func Open(ctx context.Context, bucketURL, prefix string) (*Source, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucketURL, err)
	}
	return New(bucket, prefix), nil
}

// New wraps an already opened bucket.
func New(bucket *blob.Bucket, prefix string) *Source {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Source{bucket: bucket, prefix: prefix}
}

// ReadDocument reads the object stored under key.
func (s *Source) ReadDocument(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.ReadAll(ctx, s.prefix+strings.TrimPrefix(key, "/"))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ports.ErrDocumentNotFound, key)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Close closes the bucket.
func (s *Source) Close() error {
	return s.bucket.Close()
}
