package schema

import (
	"reflect"
	"sort"
)

// Delta describes how a flow's schema changed after an update.
// It is serialized to JSON for clients following a flow over a stream.
type Delta struct {
	FlowID  string `json:"flow_id"`
	Version int    `json:"version"`

	// Added holds fields offered for the first time.
	Added map[string]Element `json:"added,omitempty"`
	// Changed holds fields whose descriptor differs from the previous schema.
	Changed map[string]Element `json:"changed,omitempty"`
	// Removed lists keys no longer offered (answered or withdrawn).
	Removed []string `json:"removed,omitempty"`
}

// Diff compares two schemas. It returns nil when nothing changed.
// A nil previous schema yields every field as Added.
func Diff(previous, next Schema) *Delta {
	d := &Delta{}

	for k, el := range next {
		old, ok := previous[k]
		switch {
		case !ok:
			if d.Added == nil {
				d.Added = make(map[string]Element)
			}
			d.Added[k] = el.Clone()
		case !reflect.DeepEqual(old, el):
			if d.Changed == nil {
				d.Changed = make(map[string]Element)
			}
			d.Changed[k] = el.Clone()
		}
	}

	for k := range previous {
		if _, ok := next[k]; !ok {
			d.Removed = append(d.Removed, k)
		}
	}
	sort.Strings(d.Removed)

	if d.IsEmpty() {
		return nil
	}
	return d
}

// IsEmpty reports whether the delta carries any change.
func (d *Delta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}
