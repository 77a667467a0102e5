package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/formwork/pkg/ports"
)

// Loader implements ports.DocumentSource and ports.DefinitionSource using
// in-memory maps.
type Loader struct {
	docs        map[string][]byte
	definitions []ports.Definition
}

// NewLoader creates a new Loader with the provided raw documents.
func NewLoader(data map[string]string) *Loader {
	docs := make(map[string][]byte)
	for k, v := range data {
		docs[k] = []byte(v)
	}
	return &Loader{
		docs: docs,
	}
}

// NewFromDefinitions creates a Loader serving static definitions. Each
// definition is also stored as a JSON document keyed by its id.
func NewFromDefinitions(defs ...ports.Definition) (*Loader, error) {
	l := &Loader{docs: make(map[string][]byte)}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("definition missing ID")
		}
		bytes, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal definition %s: %w", d.ID, err)
		}
		l.docs[d.ID] = bytes
		l.definitions = append(l.definitions, d)
	}
	return l, nil
}

// ReadDocument retrieves a raw document by key.
func (l *Loader) ReadDocument(ctx context.Context, key string) ([]byte, error) {
	content, ok := l.docs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrDocumentNotFound, key)
	}
	return append([]byte(nil), content...), nil
}

// Keys returns all document keys.
func (l *Loader) Keys() []string {
	keys := make([]string, 0, len(l.docs))
	for k := range l.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys
}

// Definitions returns the static definitions ordered by id.
func (l *Loader) Definitions(ctx context.Context) ([]ports.Definition, error) {
	out := make([]ports.Definition, len(l.definitions))
	for i, d := range l.definitions {
		d.Fields = d.Fields.Clone()
		out[i] = d
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
