package schema

import (
	"github.com/aretw0/formwork/pkg/expression"
	"github.com/aretw0/formwork/pkg/manifest"
)

// Generate projects a manifest onto the current state.
//
// Answered questions and info entries are skipped. A question whose prompt
// cannot be resolved yet is omitted entirely; its default is resolved
// best-effort. Each element's relative order is its manifest position.
func Generate(m *manifest.Manifest, state map[string]any) Schema {
	out := make(Schema)
	if m == nil {
		return out
	}

	for _, q := range m.Pending(state) {
		if q.EffectiveKind() == manifest.KindInfo {
			continue
		}

		prompt, ok := expression.Resolve(q.Prompt, state)
		if !ok {
			continue
		}

		el := Element{
			Name:          prompt,
			ResourceType:  TypeString,
			Required:      q.IsRequired,
			RelativeOrder: Order(m.Position(q.Key)),
		}
		if q.Options != nil {
			el.ValidOptions = append([]string(nil), q.Options...)
		}
		if q.Default != nil {
			if v, ok := expression.Resolve(*q.Default, state); ok {
				el.DefaultValue = Default(v)
			}
		}
		out[q.Key] = el
	}

	return out
}
