package types

import "encoding/json"

// Nullable is a patch field for a nullable column. It tells an absent key
// apart from an explicit null: Set is false when the key was absent, and
// Value is nil when the key was null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Apply writes the patched value into dst when the key was present.
func (n Nullable[T]) Apply(dst **T) bool {
	if !n.Set {
		return false
	}
	*dst = n.Value
	return true
}

// Some builds a Nullable holding v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null builds a Nullable that clears the column.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}
