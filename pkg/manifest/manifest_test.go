package manifest_test

import (
	"errors"
	"testing"

	"github.com/aretw0/formwork/pkg/expression"
	"github.com/aretw0/formwork/pkg/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_JSON(t *testing.T) {
	m, err := manifest.Load("testdata/questions.json")
	require.NoError(t, err)

	assert.Equal(t, 7, m.Len())
	assert.Equal(t, "testdata/questions.json", m.Name)

	intro, ok := m.Question("intro")
	require.True(t, ok)
	assert.Equal(t, manifest.KindInfo, intro.EffectiveKind())

	provider, ok := m.Question("git_provider")
	require.True(t, ok)
	assert.Equal(t, manifest.KindChoice, provider.EffectiveKind())
	assert.Equal(t, []string{"Bitbucket", "CodeCommit", "GitHub"}, provider.Options)
	assert.Equal(t, "codecommit_repository_name", provider.NextQuestion["CodeCommit"])
	assert.Equal(t, "main_git_branch", provider.DefaultNextQuestion)
	assert.True(t, provider.IsRequired)

	role, ok := m.Question("testing_pipeline_execution_role")
	require.True(t, ok)
	assert.Equal(t, manifest.KindQuestion, role.EffectiveKind())
	assert.True(t, role.AllowAutofill)
	require.NotNil(t, role.Default)
	assert.True(t, role.Default.IsReference())
	assert.Equal(t, []string{"testing_stage_name"}, expression.Dependencies(*role.Default))

	assert.Equal(t, 1, m.Position("intro"))
	assert.Equal(t, 7, m.Position("testing_pipeline_execution_role"))
	assert.Equal(t, 0, m.Position("missing"))
}

func TestLoad_YAML(t *testing.T) {
	m, err := manifest.Load("testdata/questions.yaml")
	require.NoError(t, err)

	assert.Equal(t, "single-stage", m.Name)
	region, ok := m.Question("stage_region")
	require.True(t, ok)
	assert.Equal(t, []string{"us-east-1", "eu-west-1"}, region.Options)
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target error
	}{
		{
			name: "not json",
			doc:  `{"questions": [`,
		},
		{
			name: "missing questions",
			doc:  `{}`,
		},
		{
			name: "question without prompt",
			doc:  `{"questions": [{"key": "a"}]}`,
		},
		{
			name: "unknown kind",
			doc:  `{"questions": [{"key": "a", "question": "A?", "kind": "essay"}]}`,
		},
		{
			name: "bad key path element",
			doc:  `{"questions": [{"key": "a", "question": {"keyPath": [{"ref": "b"}]}}]}`,
		},
		{
			name:   "duplicate keys",
			doc:    `{"questions": [{"key": "a", "question": "A?"}, {"key": "a", "question": "again"}]}`,
			target: manifest.ErrDuplicateKey,
		},
		{
			name:   "dangling branch target",
			doc:    `{"questions": [{"key": "a", "question": "A?", "nextQuestion": {"yes": "b"}}]}`,
			target: manifest.ErrUnknownTarget,
		},
		{
			name:   "dangling default branch",
			doc:    `{"questions": [{"key": "a", "question": "A?", "defaultNextQuestion": "b"}]}`,
			target: manifest.ErrUnknownTarget,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manifest.Parse("doc.json", []byte(tt.doc), manifest.FormatJSON)
			require.Error(t, err)

			var perr *manifest.ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
			assert.Equal(t, "doc.json", perr.Source)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestParse_ReportsViolations(t *testing.T) {
	_, err := manifest.Parse("doc.json", []byte(`{"questions": [{"key": "", "question": "A?"}]}`), manifest.FormatJSON)
	require.Error(t, err)

	var derr *manifest.DocumentError
	require.True(t, errors.As(err, &derr))
	require.NotEmpty(t, derr.Violations)
	assert.Contains(t, derr.Violations[0].Path, "questions")
}

func TestNew(t *testing.T) {
	m, err := manifest.New("inline",
		manifest.Question{Key: "name", Prompt: expression.Literal("What is your name?"), IsRequired: true},
	)
	require.NoError(t, err)

	q, ok := m.Question("name")
	require.True(t, ok)
	assert.True(t, q.IsRequired)

	_, err = manifest.New("inline", manifest.Question{Prompt: expression.Literal("no key")})
	assert.ErrorIs(t, err, manifest.ErrMissingKey)
}

func TestPending(t *testing.T) {
	m, err := manifest.Load("testdata/questions.json")
	require.NoError(t, err)

	pending := m.Pending(map[string]any{"intro": true, "git_provider": "GitHub"})
	require.Len(t, pending, 5)
	assert.Equal(t, "codecommit_repository_name", pending[0].Key)
}
