package domain

import (
	"bytes"
	"encoding/json"
)

// Optional is a nullable field of a partial update. It tells apart a key
// that was absent from the body, a key sent as null, and a key with a value.
type Optional[T any] struct {
	// Present is true when the key appeared in the body, even as null.
	Present bool
	// Value is nil when the key was sent as null.
	Value *T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: &v}
}

// Null returns a present Optional that clears the field it is applied to.
func Null[T any]() Optional[T] {
	return Optional[T]{Present: true}
}

// IsNull reports whether the key was sent as null.
func (o Optional[T]) IsNull() bool {
	return o.Present && o.Value == nil
}

// UnmarshalJSON records presence. encoding/json only calls it for keys that
// appear in the document, null included.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	o.Value = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON writes the value, or null when absent or cleared.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
