package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingKey    = errors.New("missing key")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrUnknownKind   = errors.New("unknown question kind")
	ErrUnknownTarget = errors.New("branch target is not a question in this manifest")
)

// ParseError reports a manifest that could not be loaded. Callers registering
// flows treat it as fatal to that manifest only.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaViolation is one failed document constraint.
type SchemaViolation struct {
	Path    string
	Message string
}

// DocumentError lists every constraint a questions document violates.
type DocumentError struct {
	Violations []SchemaViolation
}

func (e *DocumentError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		return fmt.Sprintf("/%s: %s", v.Path, v.Message)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d schema violations:", len(e.Violations))
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n  /%s: %s", v.Path, v.Message)
	}
	return b.String()
}
