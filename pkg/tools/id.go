package tools

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidID is returned when a string is not a well-formed tool ID.
var ErrInvalidID = errors.New("invalid spawned tool id")

const idSeparator = ":"

// ID identifies a spawned process. PIDs are not used since they are reused
// by the operating system.
type ID struct {
	Tool    string
	Version string
	Unid    string
}

// String formats the ID as tool:version:unid.
func (id ID) String() string {
	return id.Tool + idSeparator + id.Version + idSeparator + id.Unid
}

// ParseID parses tool:version:unid. Exactly three non-empty parts are
// required.
func ParseID(s string) (ID, error) {
	parts := strings.Split(s, idSeparator)
	if len(parts) != 3 {
		return ID{}, fmt.Errorf("%w: %q has %d parts, want 3", ErrInvalidID, s, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return ID{}, fmt.Errorf("%w: %q has an empty part", ErrInvalidID, s)
		}
	}
	return ID{Tool: parts[0], Version: parts[1], Unid: parts[2]}, nil
}
