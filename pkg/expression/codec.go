package expression

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned when an encoded expression has neither the string
// nor the key path form.
var ErrMalformed = errors.New("malformed expression")

type elementRef struct {
	ValueOf *string `json:"valueOf"`
}

type referenceForm struct {
	KeyPath []Element `json:"keyPath"`
}

// MarshalJSON encodes a segment as a JSON string and a reference as
// {"valueOf": key}.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.isRef {
		return json.Marshal(map[string]string{"valueOf": e.valueOf})
	}
	return json.Marshal(e.text)
}

// UnmarshalJSON accepts "text" or {"valueOf": "key"}.
func (e *Element) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = Segment(s)
		return nil
	}

	var ref elementRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("%w: key path element: %v", ErrMalformed, err)
	}
	if ref.ValueOf == nil {
		return fmt.Errorf("%w: key path element needs a string or valueOf", ErrMalformed)
	}
	*e = ValueOf(*ref.ValueOf)
	return nil
}

// MarshalJSON encodes a literal as a JSON string and a reference as
// {"keyPath": [...]}.
func (x Expression) MarshalJSON() ([]byte, error) {
	if !x.isRef {
		return json.Marshal(x.literal)
	}
	return json.Marshal(referenceForm{KeyPath: x.path})
}

// UnmarshalJSON accepts "text" or {"keyPath": ["seg", {"valueOf": "key"}]}.
func (x *Expression) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*x = Literal(s)
		return nil
	}

	var ref referenceForm
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(ref.KeyPath) == 0 {
		return fmt.Errorf("%w: keyPath must not be empty", ErrMalformed)
	}
	*x = Reference(ref.KeyPath...)
	return nil
}
