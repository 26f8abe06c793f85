package replay

import (
	"encoding/json"
	"fmt"

	"github.com/kurral/kurral/artifact"
)

// Diff partitions field-level differences between an artifact's original
// outputs and its replayed outputs, keyed by output field name.
type Diff struct {
	Added    map[string]any           `json:"added,omitempty"`
	Removed  map[string]any           `json:"removed,omitempty"`
	Modified map[string]ModifiedValue `json:"modified,omitempty"`
}

// ModifiedValue holds both sides of a field that changed between the
// original and replayed outputs.
type ModifiedValue struct {
	Original any `json:"original"`
	Replayed any `json:"replayed"`
}

func (d Diff) isEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// computeDiff partitions the differences between original and replayed
// into added (present only in replayed), removed (present only in
// original), and modified (present in both but not canonically equal). It
// returns a nil Diff when the two are identical.
func computeDiff(original, replayed artifact.Outputs) (*Diff, error) {
	a, err := toFieldMap(original)
	if err != nil {
		return nil, fmt.Errorf("diff original outputs: %w", err)
	}
	b, err := toFieldMap(replayed)
	if err != nil {
		return nil, fmt.Errorf("diff replayed outputs: %w", err)
	}

	d := Diff{
		Added:    map[string]any{},
		Removed:  map[string]any{},
		Modified: map[string]ModifiedValue{},
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			d.Removed[k] = av
			continue
		}
		if !canonicalEqual(av, bv) {
			d.Modified[k] = ModifiedValue{Original: av, Replayed: bv}
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			d.Added[k] = bv
		}
	}
	if d.isEmpty() {
		return nil, nil
	}
	return &d, nil
}

func toFieldMap(o artifact.Outputs) (map[string]any, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func canonicalEqual(a, b any) bool {
	ca, errA := artifact.Canonicalize(a)
	cb, errB := artifact.Canonicalize(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ca) == string(cb)
}

// structuralMatch reports whether original and replayed share the same
// shape: objects match when they carry the same keys with matching value
// types, lists match in length and per-index element type, and null
// matches only null. Values may still differ: this is deliberately weaker
// than hash equality, used to distinguish a value-level divergence from a
// genuine shape change once hash_match is false.
func structuralMatch(original, replayed artifact.Outputs) (bool, error) {
	a, err := toAny(original)
	if err != nil {
		return false, err
	}
	b, err := toAny(replayed)
	if err != nil {
		return false, err
	}
	return structuralMatchValue(a, b), nil
}

func toAny(o artifact.Outputs) (any, error) {
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func structuralMatchValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, aval := range av {
			bval, ok := bv[k]
			if !ok || !structuralMatchValue(aval, bval) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !structuralMatchValue(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return sameScalarType(a, b)
	}
}

func sameScalarType(a, b any) bool {
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	case float64:
		_, ok := b.(float64)
		return ok
	default:
		return false
	}
}
