package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts a Loam repository to ports.DefinitionSource.
type Loader struct {
	Repo *loam.TypedRepository[DefinitionMetadata]
}

var (
	_ ports.DefinitionSource = (*Loader)(nil)
	_ ports.Watchable        = (*Loader)(nil)
)

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DefinitionMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only repository rooted at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve definitions dir: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open definitions repository: %w", err)
	}
	return New(loam.NewTypedRepository[DefinitionMetadata](repo)), nil
}

// Definitions lists every document in the repository as a definition,
// ordered by id. Two documents resolving to the same id are an error.
func (l *Loader) Definitions(ctx context.Context) ([]ports.Definition, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	defs := make([]ports.Definition, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		def, err := buildDefinition(id, doc.Data, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", id, err)
		}
		defs = append(defs, def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

func buildDefinition(id string, meta DefinitionMetadata, content string) (ports.Definition, error) {
	def := ports.Definition{
		ID:           id,
		Name:         meta.Name,
		Description:  meta.Description,
		ResourceType: meta.ResourceType,
		Tool:         meta.Tool,
		Fields:       make(schema.Schema, len(meta.Fields)),
	}
	if def.Name == "" {
		def.Name = id
	}
	// The document body doubles as the description.
	if def.Description == "" {
		def.Description = strings.TrimSpace(content)
	}

	for key, raw := range meta.Fields {
		var spec FieldSpec
		if err := mapstructure.Decode(raw, &spec); err != nil {
			return ports.Definition{}, fmt.Errorf("fields.%s: %w", key, err)
		}
		def.Fields[key] = spec.element(key)
	}
	return def, nil
}

func (s FieldSpec) element(key string) schema.Element {
	el := schema.Element{
		Name:         s.Name,
		ResourceType: s.ResourceType,
		Description:  s.Description,
		Required:     s.Required,
	}
	if el.Name == "" {
		el.Name = key
	}
	if el.ResourceType == "" {
		el.ResourceType = schema.TypeString
	}
	if s.Default != "" {
		el.DefaultValue = schema.Default(s.Default)
	}
	if len(s.Options) > 0 {
		el.ValidOptions = append([]string(nil), s.Options...)
	}
	if s.Order > 0 {
		el.RelativeOrder = schema.Order(s.Order)
	}
	return el
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
