package ports

import (
	"context"
	"errors"

	"github.com/aretw0/formwork/pkg/schema"
)

// ErrDocumentNotFound is returned when a document key does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentSource retrieves raw documents by key.
// This allows template storage (bucket, local directory, memory) to be decoupled.
type DocumentSource interface {
	// ReadDocument returns the raw bytes stored under key.
	// Returns ErrDocumentNotFound if the key does not exist.
	ReadDocument(ctx context.Context, key string) ([]byte, error)
}

// Definition describes a static flow: a fixed schema and an optional tool
// that completes it.
type Definition struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	ResourceType string        `json:"resource_type,omitempty"`
	Tool         string        `json:"tool,omitempty"`
	Fields       schema.Schema `json:"fields"`
}

// DefinitionSource lists static flow definitions.
type DefinitionSource interface {
	Definitions(ctx context.Context) ([]Definition, error)
}

// Watchable defines an interface for sources that can notify about backend changes.
// This is typically used for hot-reload of definitions while serving.
type Watchable interface {
	// Watch returns a channel that receives the id of each changed document.
	Watch(ctx context.Context) (<-chan string, error)
}
