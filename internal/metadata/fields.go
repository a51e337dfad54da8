package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Canonical metadata keys, in the order they are emitted.
const (
	FieldShutterSpeed    = "shutterSpeed"
	FieldAperture        = "aperture"
	FieldISO             = "iso"
	FieldCreatedDateTime = "createdDateTime"
	FieldCameraModel     = "cameraModel"
	FieldLensModel       = "lensModel"
)

var errNotObject = errors.New("metadata is not a JSON object")

// Fields is a string map that remembers insertion order, so that a catalog
// read from disk is written back with its keys in the same order.
// The zero value is an empty map ready to use.
type Fields struct {
	keys   []string
	values map[string]string
}

// NewFields builds Fields from alternating key/value pairs.
func NewFields(pairs ...string) Fields {
	var f Fields
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Set(pairs[i], pairs[i+1])
	}
	return f
}

// Set stores value under key. New keys are appended; existing keys keep
// their position.
func (f *Fields) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f Fields) Len() int {
	return len(f.keys)
}

// Clone returns an independent copy.
func (f Fields) Clone() Fields {
	var c Fields
	for _, k := range f.keys {
		c.Set(k, f.values[k])
	}
	return c
}

// Map returns the fields as a plain map.
func (f Fields) Map() map[string]string {
	m := make(map[string]string, len(f.keys))
	for _, k := range f.keys {
		m[k] = f.values[k]
	}
	return m
}

// Equal reports whether both hold the same pairs in the same order.
func (f Fields) Equal(other Fields) bool {
	if len(f.keys) != len(other.keys) {
		return false
	}
	for i, k := range f.keys {
		if other.keys[i] != k || other.values[k] != f.values[k] {
			return false
		}
	}
	return true
}

// Merge layers incoming on top of existing without overwriting data: a key
// that already holds a non-blank value keeps it, and blank incoming values
// are never written.
func Merge(existing, incoming Fields) Fields {
	merged := existing.Clone()
	for _, key := range incoming.keys {
		value := incoming.values[key]
		if isBlank(value) {
			continue
		}
		if current, ok := merged.Get(key); ok && !isBlank(current) {
			continue
		}
		merged.Set(key, value)
	}
	return merged
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MarshalJSON writes the pairs in insertion order without HTML escaping.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, f.values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(KeepLineSeparators(bytes.TrimRight(tmp.Bytes(), "\n")))
	return nil
}

// KeepLineSeparators turns the \u2028 and \u2029 escapes that encoding/json
// always emits back into literal runes. Other escapes are left alone.
func KeepLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = utf8.AppendRune(out, '\u2028')
				i += 5
				continue
			case "2029":
				out = utf8.AppendRune(out, '\u2029')
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// UnmarshalJSON reads a JSON object, preserving key order. Values are
// coerced to the canonical string shape: blank strings are dropped,
// numbers keep their literal spelling, and any other value is dropped.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errNotObject
	}

	var out Fields
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected metadata key %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}

		switch v := value.(type) {
		case string:
			if isBlank(v) {
				continue
			}
			out.Set(key, v)
		case json.Number:
			out.Set(key, v.String())
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return nil
}
