package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/formwork/pkg/expression"
	"gopkg.in/yaml.v3"
)

// Kind classifies a question.
type Kind string

const (
	KindInfo     Kind = "info"
	KindChoice   Kind = "choice"
	KindConfirm  Kind = "confirm"
	KindQuestion Kind = "question"
)

// Question is one manifest entry.
type Question struct {
	Kind Kind   `json:"kind,omitempty"`
	Key  string `json:"key"`
	// Prompt is the user-facing text. It may depend on earlier answers.
	Prompt  expression.Expression  `json:"question"`
	Default *expression.Expression `json:"default,omitempty"`
	Options []string               `json:"options,omitempty"`

	// NextQuestion maps an answer to the key of the question that follows it.
	// It is validated and carried through, never evaluated.
	NextQuestion        map[string]string `json:"nextQuestion,omitempty"`
	DefaultNextQuestion string            `json:"defaultNextQuestion,omitempty"`

	IsRequired    bool `json:"isRequired,omitempty"`
	AllowAutofill bool `json:"allowAutofill,omitempty"`
}

// EffectiveKind returns the question kind, defaulting to KindQuestion.
func (q Question) EffectiveKind() Kind {
	if q.Kind == "" {
		return KindQuestion
	}
	return q.Kind
}

// Manifest is a named, ordered list of questions. It is immutable once
// parsed and safe to share between flows.
type Manifest struct {
	Name      string     `json:"name,omitempty"`
	Questions []Question `json:"questions"`

	index map[string]int
}

// Len returns the number of questions.
func (m *Manifest) Len() int { return len(m.Questions) }

// Question looks up a question by key.
func (m *Manifest) Question(key string) (Question, bool) {
	i, ok := m.index[key]
	if !ok {
		return Question{}, false
	}
	return m.Questions[i], true
}

// Position returns the 1-based manifest position of key, or 0 if absent.
func (m *Manifest) Position(key string) int {
	i, ok := m.index[key]
	if !ok {
		return 0
	}
	return i + 1
}

// Pending returns the questions whose key is not bound in state, in manifest order.
func (m *Manifest) Pending(state map[string]any) []Question {
	out := make([]Question, 0, len(m.Questions))
	for _, q := range m.Questions {
		if _, answered := state[q.Key]; answered {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Format selects the document encoding for Parse.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the encoding from a file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates a questions document.
// Every failure is reported as a *ParseError.
func Parse(name string, data []byte, format Format) (*Manifest, error) {
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &ParseError{Source: name, Err: err}
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, &ParseError{Source: name, Err: err}
		}
		data = converted
	}

	if err := validateDocument(data); err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}
	if m.Name == "" {
		m.Name = name
	}

	if err := m.link(); err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}
	return &m, nil
}

// Load reads and parses a questions file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(path, data, FormatFromPath(path))
}

// New builds a manifest from questions already in memory.
func New(name string, questions ...Question) (*Manifest, error) {
	m := &Manifest{Name: name, Questions: questions}
	if err := m.link(); err != nil {
		return nil, &ParseError{Source: name, Err: err}
	}
	return m, nil
}

// link builds the key index and checks cross references between questions.
func (m *Manifest) link() error {
	m.index = make(map[string]int, len(m.Questions))
	for i, q := range m.Questions {
		if q.Key == "" {
			return fmt.Errorf("question %d: %w", i, ErrMissingKey)
		}
		switch q.EffectiveKind() {
		case KindInfo, KindChoice, KindConfirm, KindQuestion:
		default:
			return fmt.Errorf("question %q: %w: %s", q.Key, ErrUnknownKind, q.Kind)
		}
		if _, dup := m.index[q.Key]; dup {
			return fmt.Errorf("question %q: %w", q.Key, ErrDuplicateKey)
		}
		m.index[q.Key] = i
	}

	for _, q := range m.Questions {
		for answer, target := range q.NextQuestion {
			if _, ok := m.index[target]; !ok {
				return fmt.Errorf("question %q: nextQuestion[%q] -> %q: %w", q.Key, answer, target, ErrUnknownTarget)
			}
		}
		if q.DefaultNextQuestion != "" {
			if _, ok := m.index[q.DefaultNextQuestion]; !ok {
				return fmt.Errorf("question %q: defaultNextQuestion -> %q: %w", q.Key, q.DefaultNextQuestion, ErrUnknownTarget)
			}
		}
	}
	return nil
}
