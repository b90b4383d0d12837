package types

import "encoding/json"

// Optional is a JSON field that remembers whether it was present in the
// body. Set with a nil Value means the client sent null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Present returns an Optional that is set to v (nil meaning null).
func Present[T any](v *T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON is only called for keys present in the body, null included.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON writes the value or null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

// Ptr returns the value for validation: nil when unset or null.
func (o Optional[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	return o.Value
}
