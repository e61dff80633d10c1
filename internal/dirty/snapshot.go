// Package dirty tracks unsaved edits of one editable section by comparing its
// live field values against the last saved snapshot.
package dirty

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// Values maps field names to field values.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Snapshot holds the saved and live values of one section. It is owned by a
// single flow and is not safe for concurrent use.
type Snapshot struct {
	saved Values
	live  Values
}

// New creates a snapshot whose live values start equal to saved.
func New(saved Values) *Snapshot {
	if saved == nil {
		saved = Values{}
	}
	return &Snapshot{saved: saved.Clone(), live: saved.Clone()}
}

// Set records a field edit.
func (s *Snapshot) Set(field string, value any) {
	s.live[field] = value
}

// Get returns the live value of a field.
func (s *Snapshot) Get(field string) any {
	return s.live[field]
}

// GetString returns the live value of a field as a string.
func (s *Snapshot) GetString(field string) string {
	if str, ok := s.live[field].(string); ok {
		return str
	}
	return ""
}

// GetBool returns the live value of a field as a bool.
func (s *Snapshot) GetBool(field string) bool {
	b, _ := s.live[field].(bool)
	return b
}

// IsDirty reports whether any live field differs from its saved value.
// It is recomputed on every call.
func (s *Snapshot) IsDirty() bool {
	for field, v := range s.live {
		if !equal(s.saved[field], v) {
			return true
		}
	}
	return false
}

// DirtyFields returns the sorted names of fields whose live value differs.
func (s *Snapshot) DirtyFields() []string {
	var fields []string
	for field, v := range s.live {
		if !equal(s.saved[field], v) {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	return fields
}

// Commit makes the live values the new saved snapshot.
func (s *Snapshot) Commit() {
	s.saved = s.live.Clone()
}

// Discard resets the live values to the saved snapshot.
func (s *Snapshot) Discard() {
	s.live = s.saved.Clone()
}

// Reset replaces both snapshots, e.g. when a section is reopened with fresh
// values from its owner.
func (s *Snapshot) Reset(saved Values) {
	if saved == nil {
		saved = Values{}
	}
	s.saved = saved.Clone()
	s.live = saved.Clone()
}

// Saved returns a copy of the saved values.
func (s *Snapshot) Saved() Values { return s.saved.Clone() }

// Live returns a copy of the live values.
func (s *Snapshot) Live() Values { return s.live.Clone() }

// Diff renders a unified diff of saved against live values, one
// "field: value" line per field. It is empty when the snapshot is clean.
func (s *Snapshot) Diff() string {
	if !s.IsDirty() {
		return ""
	}
	return udiff.Unified("saved", "unsaved", render(s.saved, s.live), render(s.live, s.saved))
}

// render prints v as sorted "field: value" lines, including fields that only
// exist in other so both sides of the diff line up.
func render(v, other Values) string {
	keys := make(map[string]struct{}, len(v)+len(other))
	for k := range v {
		keys[k] = struct{}{}
	}
	for k := range other {
		keys[k] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		val, ok := v[name]
		if !ok || val == nil {
			fmt.Fprintf(&b, "%s:\n", name)
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", name, val)
	}
	return b.String()
}

// equal compares by value. A missing or nil value on either side equals the
// zero value of the other side, so toggling an unsaved checkbox on and off or
// clearing a saved empty field does not dirty the section.
func equal(saved, live any) bool {
	switch {
	case saved == nil:
		return zero(live)
	case live == nil:
		return zero(saved)
	}
	return reflect.DeepEqual(saved, live)
}

func zero(v any) bool {
	return v == nil || reflect.ValueOf(v).IsZero()
}
