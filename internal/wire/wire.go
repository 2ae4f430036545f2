// Package wire decodes JSON objects returned by the backend.
//
// The same logical field may arrive capitalized (ID, CategoryName) or in
// snake_case (id, category_name). Object looks every field up under both
// spellings and prefers the capitalized one.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// initialisms are upper-cased as a whole when building Go-style keys.
var initialisms = map[string]bool{
	"id":   true,
	"url":  true,
	"api":  true,
	"uuid": true,
}

// GoName converts a snake_case key to its capitalized Go-style spelling:
// "id" -> "ID", "category_name" -> "CategoryName", "user_id" -> "UserID".
func GoName(key string) string {
	var b strings.Builder
	for _, part := range strings.Split(key, "_") {
		if part == "" {
			continue
		}
		if initialisms[part] {
			b.WriteString(strings.ToUpper(part))
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Object is a decoded JSON object keyed by the names the server sent.
type Object map[string]json.RawMessage

// Decode parses data as a JSON object.
func Decode(data []byte) (Object, error) {
	var o Object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, err
	}
	if o == nil {
		o = Object{}
	}
	return o, nil
}

// Raw returns the raw value stored for the logical snake_case key. The
// capitalized spelling wins when both are present. Null is treated as
// absent, and an empty string only counts when no spelling has anything
// better.
func (o Object) Raw(key string) (json.RawMessage, bool) {
	var empty json.RawMessage
	for _, k := range [...]string{GoName(key), key} {
		v, ok := o[k]
		switch {
		case !ok || isNull(v):
		case isEmptyString(v):
			if empty == nil {
				empty = v
			}
		default:
			return v, true
		}
	}
	return empty, empty != nil
}

// Get unmarshals the value for key into dst. It reports whether the key was
// present; dst is left untouched when it was not.
func (o Object) Get(key string, dst any) (bool, error) {
	raw, ok := o.Raw(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("field %q: %w", key, err)
	}
	return true, nil
}

// String returns the string value for key, or "" when it is absent or not a string.
func (o Object) String(key string) string {
	var s string
	if _, err := o.Get(key, &s); err != nil {
		return ""
	}
	return s
}

// Field binds a logical key to a destination for Fields.
type Field struct {
	Key string
	Dst any
}

// Fields decodes every listed field, stopping at the first malformed value.
func (o Object) Fields(fields ...Field) error {
	for _, f := range fields {
		if _, err := o.Get(f.Key, f.Dst); err != nil {
			return err
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isEmptyString(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte(`""`))
}
