package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// ExportJSONSchema produces a JSON Schema document describing the schema
// payload returned to clients (a map of field keys to elements).
func ExportJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Schema{})
	s.ID = "https://github.com/aretw0/formwork/schemas/flow-schema.json"
	s.Title = "Flow schema"
	s.Description = "Fields a client may or must supply to advance a flow"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
