package babik

import (
	"context"
	"reflect"

	js "github.com/reoring/babik/jsonschema"
)

// FieldSpec describes one named attribute: how raw input is coerced, how the
// coerced value is validated, and which values count as blank. Specs are
// immutable once constructed and are shared by every record of a shape.
type FieldSpec interface {
	Name() string
	Kind() Kind
	// StorageKey is the key used inside the attrs blob. Usually Name().
	StorageKey() string

	// Coerce converts caller input into the spec's logical value.
	// Failures are returned as Issues rooted at "/".
	Coerce(raw any) (any, error)
	// Decode converts a value read from the attrs blob (possibly produced
	// by the attribute codec) back into the logical value.
	Decode(raw any) (any, error)
	// Validate checks a coerced value against the spec's constraints.
	Validate(ctx context.Context, v any) error

	AllowBlank() bool
	// IsBlank reports membership in the spec's blank sentinel set.
	IsBlank(v any) bool
	// Empty is the value reported for an absent attribute.
	Empty() any

	JSONSchema() (*js.Schema, error)
}

// IsEmptyValue reports whether v belongs to the default blank sentinel set:
// nil, the empty string, and empty slices or maps.
func IsEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// placeholderSpec stands in for names that may become shape attributes once
// an unsaved record picks its discriminator.
type placeholderSpec struct{ name string }

func (p placeholderSpec) Name() string { return p.name }
func (p placeholderSpec) Kind() Kind { return KindAny }
func (p placeholderSpec) StorageKey() string { return p.name }
func (p placeholderSpec) Coerce(raw any) (any, error) { return raw, nil }
func (p placeholderSpec) Decode(raw any) (any, error) { return raw, nil }
func (p placeholderSpec) Validate(context.Context, any) error { return nil }
func (p placeholderSpec) AllowBlank() bool { return true }
func (p placeholderSpec) IsBlank(v any) bool { return IsEmptyValue(v) }
func (p placeholderSpec) Empty() any { return nil }
func (p placeholderSpec) JSONSchema() (*js.Schema, error) { return &js.Schema{}, nil }
