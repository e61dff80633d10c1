package wizard

import (
	"fmt"
	"sort"
	"strconv"
)

// StepData is the opaque form data owned by one step.
type StepData map[string]any

// Get returns the raw value for key.
func (d StepData) Get(key string) any {
	return d[key]
}

// GetString returns the value for key as a string. Missing keys yield "".
func (d StepData) GetString(key string) string {
	switch v := d[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// GetBool returns the value for key as a bool. Strings are parsed.
func (d StepData) GetBool(key string) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// GetInt returns the value for key as an int. Strings are parsed.
func (d StepData) GetInt(key string) int {
	switch v := d[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// Keys returns the keys in sorted order.
func (d StepData) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy.
func (d StepData) Clone() StepData {
	out := make(StepData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// FlowData is the per-step data of a whole flow, keyed by step id.
type FlowData map[string]StepData

// Clone returns a copy with every step cloned.
func (f FlowData) Clone() FlowData {
	out := make(FlowData, len(f))
	for id, d := range f {
		out[id] = d.Clone()
	}
	return out
}

// Predicate decides whether a step's data allows advancing.
type Predicate func(StepData) bool

// All combines predicates; every one must hold.
func All(preds ...Predicate) Predicate {
	return func(d StepData) bool {
		for _, p := range preds {
			if !p(d) {
				return false
			}
		}
		return true
	}
}

// Checked requires each key to hold true.
func Checked(keys ...string) Predicate {
	return func(d StepData) bool {
		for _, k := range keys {
			if !d.GetBool(k) {
				return false
			}
		}
		return true
	}
}

// Filled requires each key to hold a non-empty string.
func Filled(keys ...string) Predicate {
	return func(d StepData) bool {
		for _, k := range keys {
			if d.GetString(k) == "" {
				return false
			}
		}
		return true
	}
}
