package manifest

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed questions.schema.json
var questionsSchema []byte

const questionsSchemaURL = "questions.schema.json"

var (
	compileOnce sync.Once
	compiled    *sjsonschema.Schema
	compileErr  error
)

// DocumentSchema returns the JSON Schema questions documents are validated against.
func DocumentSchema() []byte {
	out := make([]byte, len(questionsSchema))
	copy(out, questionsSchema)
	return out
}

func documentValidator() (*sjsonschema.Schema, error) {
	compileOnce.Do(func() {
		var schemaDoc any
		if err := json.Unmarshal(questionsSchema, &schemaDoc); err != nil {
			compileErr = fmt.Errorf("unmarshal schema: %w", err)
			return
		}
		c := sjsonschema.NewCompiler()
		if err := c.AddResource(questionsSchemaURL, schemaDoc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(questionsSchemaURL)
	})
	return compiled, compileErr
}

func validateDocument(data []byte) error {
	sch, err := documentValidator()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return err
		}
		out := &DocumentError{}
		for _, cause := range flattenValidationErrors(ve) {
			out.Violations = append(out.Violations, SchemaViolation{
				Path:    strings.Join(cause.InstanceLocation, "/"),
				Message: fmt.Sprintf("%v", cause.ErrorKind),
			})
		}
		return out
	}
	return nil
}

func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}
