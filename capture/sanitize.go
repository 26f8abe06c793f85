package capture

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// maxSanitizeDepth bounds how deep Sanitize descends into nested
// maps/slices/structs before cutting the branch off, to guard against
// cycles in caller-supplied argument graphs. This bound is local to input
// sanitization; the wire-format canonical encoder in package artifact has
// no such bound since it never sees caller-constructed cyclic values.
const maxSanitizeDepth = 3

// Sanitize snapshots v into a JSON-safe value suitable for
// artifact.Artifact's Inputs field: callables, channels, and other types
// with no meaningful JSON representation are replaced with a stable
// "<Type@addr>" placeholder, and recursion is cut at maxSanitizeDepth to
// guard against cycles in caller-supplied argument graphs.
func Sanitize(v any) (json.RawMessage, error) {
	seen := make(map[uintptr]bool)
	sanitized := sanitizeValue(reflect.ValueOf(v), 0, seen)
	data, err := json.Marshal(sanitized)
	if err != nil {
		return nil, fmt.Errorf("capture: sanitize: %w", err)
	}
	return data, nil
}

func sanitizeValue(v reflect.Value, depth int, seen map[uintptr]bool) any {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return placeholder(v)
	}

	if depth >= maxSanitizeDepth {
		switch v.Kind() {
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			return placeholder(v)
		}
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Ptr {
			addr := v.Pointer()
			if seen[addr] {
				return placeholder(v)
			}
			seen[addr] = true
			defer delete(seen, addr)
		}
		return sanitizeValue(v.Elem(), depth, seen)

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		for _, key := range v.MapKeys() {
			out[fmt.Sprint(key.Interface())] = sanitizeValue(v.MapIndex(key), depth+1, seen)
		}
		return out

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = sanitizeValue(v.Index(i), depth+1, seen)
		}
		return out

	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			out[field.Name] = sanitizeValue(v.Field(i), depth+1, seen)
		}
		return out

	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	default:
		return placeholder(v)
	}
}

// placeholder stringifies v as "<Type@addr>", the stable stand-in used for
// callables, channels, and any other type with no JSON representation.
func placeholder(v reflect.Value) string {
	typeName := "unknown"
	if v.IsValid() {
		typeName = v.Type().String()
	}
	var addr uintptr
	switch v.Kind() {
	case reflect.Func, reflect.Chan, reflect.Ptr, reflect.UnsafePointer, reflect.Map, reflect.Slice:
		addr = v.Pointer()
	}
	return fmt.Sprintf("<%s@%#x>", typeName, addr)
}
