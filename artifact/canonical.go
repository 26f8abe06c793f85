package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Canonicalize re-encodes v as canonical JSON: UTF-8, object keys sorted
// lexicographically at every level, and no insignificant whitespace.
// Numbers are written exactly as they appear in the marshaled document:
// values marshaled from Go numbers are already in shortest round-trip
// form, but number literals inside a json.RawMessage (e.g. 1.50 or 1e2)
// are not rewritten. v must already be JSON-marshalable (struct, map,
// slice, or json.RawMessage).
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("artifact: canonicalize: marshal: %w", err)
	}
	return CanonicalizeRaw(raw)
}

// CanonicalizeRaw re-encodes an already-marshaled JSON document into
// canonical form.
func CanonicalizeRaw(raw json.RawMessage) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte("null"), nil
	}
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("artifact: canonicalize: decode: %w", err)
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, decoded); err != nil {
		return nil, fmt.Errorf("artifact: canonicalize: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Hash returns the lowercase hex SHA-256 digest of v's canonical JSON
// encoding.
func Hash(v any) (string, error) {
	c, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return HashBytes(c), nil
}

// HashBytes returns the lowercase hex SHA-256 digest of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashString is a convenience wrapper for hashing a single string field
// (e.g. ResolvedPrompt.Template) as canonical JSON, per invariant I3's
// "SHA-256(canonical_json(x))" convention applied uniformly across the
// schema's derived hashes.
func HashString(s string) (string, error) {
	return Hash(s)
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case json.Number:
		buf.WriteString(t.String())
		return nil
	case string:
		enc, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kenc, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kenc)
			buf.WriteByte(':')
			if err := writeCanonical(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		return fmt.Errorf("artifact: canonicalize: unsupported type %T", v)
	}
}
