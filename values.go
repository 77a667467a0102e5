package formwork

import (
	"strings"

	"github.com/tidwall/gjson"
)

// DecodeValue turns a raw client string into a state value. JSON objects
// and arrays are decoded; anything else, including JSON scalars, stays a
// string so "42" and "true" reach flow state verbatim.
func DecodeValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return raw
	}
	if !gjson.Valid(trimmed) {
		return raw
	}
	return gjson.Parse(trimmed).Value()
}
