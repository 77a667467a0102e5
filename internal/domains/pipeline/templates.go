package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/formwork/pkg/manifest"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/resource"
	"gopkg.in/yaml.v3"
)

const (
	// IndexKey is the document listing providers and templates.
	IndexKey = "manifest.yaml"
	// QuestionsFile is read from each template location.
	QuestionsFile = "questions.json"

	TemplateIRIPrefix    = "aws:sam/pipeline/template/"
	TemplateResourceType = "SAMPipelineTemplate"
)

// ErrUnknownTemplate is returned when a template id is not loaded.
var ErrUnknownTemplate = errors.New("unknown pipeline template")

type templateIndex struct {
	Providers []struct {
		ID          string `yaml:"id"`
		DisplayName string `yaml:"displayName"`
	} `yaml:"providers"`
	Templates []struct {
		Provider    string `yaml:"provider"`
		Location    string `yaml:"location"`
		DisplayName string `yaml:"displayName"`
	} `yaml:"templates"`
}

// Template is one pipeline init template. Its id is its location.
type Template struct {
	ID           string
	Name         string
	Provider     string
	ProviderName string
}

// Summary implements resource.Resource.
func (t Template) Summary() resource.Summary {
	desc := ""
	if t.ProviderName != "" {
		desc = "Pipeline template for " + t.ProviderName
	}
	return resource.Summary{
		Name:         t.Name,
		IRI:          TemplateIRIPrefix + t.ID,
		ResourceType: TemplateResourceType,
		Description:  desc,
		Detail:       map[string]string{"provider": t.Provider},
	}
}

// Templates holds the loaded templates and their question manifests.
// It is immutable after LoadTemplates returns.
type Templates struct {
	list      []Template
	manifests map[string]*manifest.Manifest
}

var _ resource.Lister[Template] = (*Templates)(nil)

// LoadTemplates reads the index from src and parses every template's
// questions. Templates whose questions cannot be read or parsed are
// skipped and logged; only a missing or broken index is an error.
func LoadTemplates(ctx context.Context, src ports.DocumentSource, logger *slog.Logger) (*Templates, error) {
	data, err := src.ReadDocument(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("read template index: %w", err)
	}

	var index templateIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse template index: %w", err)
	}

	providers := make(map[string]string, len(index.Providers))
	for _, p := range index.Providers {
		providers[p.ID] = p.DisplayName
	}

	out := &Templates{manifests: make(map[string]*manifest.Manifest)}
	for _, t := range index.Templates {
		id := strings.Trim(t.Location, "/")
		if id == "" {
			logger.Warn("Skipping pipeline template without location", "name", t.DisplayName)
			continue
		}
		if _, dup := out.manifests[id]; dup {
			logger.Warn("Skipping duplicate pipeline template", "template", id)
			continue
		}

		key := path.Join(id, QuestionsFile)
		raw, err := src.ReadDocument(ctx, key)
		if err != nil {
			logger.Warn("Skipping pipeline template", "template", id, "error", err)
			continue
		}
		m, err := manifest.Parse(key, raw, manifest.FormatJSON)
		if err != nil {
			logger.Warn("Skipping pipeline template", "template", id, "error", err)
			continue
		}

		name := t.DisplayName
		if name == "" {
			name = id
		}
		out.list = append(out.list, Template{
			ID:           id,
			Name:         name,
			Provider:     t.Provider,
			ProviderName: providers[t.Provider],
		})
		out.manifests[id] = m
	}

	sort.Slice(out.list, func(i, j int) bool { return out.list[i].ID < out.list[j].ID })
	logger.Debug("Pipeline templates loaded", "count", len(out.list))
	return out, nil
}

// NewTemplates builds a set from manifests already in memory, keyed by
// template id.
func NewTemplates(manifests map[string]*manifest.Manifest) *Templates {
	out := &Templates{manifests: make(map[string]*manifest.Manifest, len(manifests))}
	for id, m := range manifests {
		out.manifests[id] = m
		out.list = append(out.list, Template{ID: id, Name: id})
	}
	sort.Slice(out.list, func(i, j int) bool { return out.list[i].ID < out.list[j].ID })
	return out
}

// List implements resource.Lister.
func (t *Templates) List(context.Context) ([]Template, error) {
	return append([]Template(nil), t.list...), nil
}

// Len returns the number of loaded templates.
func (t *Templates) Len() int { return len(t.list) }

// Manifest returns the questions of a template. Both the bare id and the
// template IRI are accepted.
func (t *Templates) Manifest(id string) (*manifest.Manifest, error) {
	m, ok := t.manifests[strings.TrimPrefix(id, TemplateIRIPrefix)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}
	return m, nil
}

// Options returns the IRIs of every template.
func (t *Templates) Options() []string {
	out := make([]string, 0, len(t.list))
	for _, tpl := range t.list {
		out = append(out, TemplateIRIPrefix+tpl.ID)
	}
	return out
}
