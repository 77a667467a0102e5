// Package sanitize cleans client-supplied strings before they enter flow state.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "FORMWORK_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer enforces a size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
type Sanitizer struct {
	limit int
}

// New creates a Sanitizer. A non-positive limit falls back to the
// environment override, then DefaultMaxInputSize.
func New(limit int) *Sanitizer {
	if limit <= 0 {
		limit = maxInputSize()
	}
	return &Sanitizer{limit: limit}
}

// Limit returns the maximum accepted input size in bytes.
func (s *Sanitizer) Limit() int { return s.limit }

// String cleans a single string.
func (s *Sanitizer) String(input string) (string, error) {
	// Reject rather than truncate so state stays deterministic.
	if len(input) > s.limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), s.limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// Value cleans every string nested in v: map keys are left alone, values
// and list elements are sanitized recursively. Other types pass through.
func (s *Sanitizer) Value(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return s.String(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			clean, err := s.Value(vv)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			clean, err := s.Value(vv)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = clean
		}
		return out, nil
	default:
		return v, nil
	}
}

// Input cleans a string using the default limit.
func Input(input string) (string, error) {
	return New(0).String(input)
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
