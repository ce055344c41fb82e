package babik

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Registry maps discriminator values to shapes. It is immutable once built
// and safe for concurrent use.
type Registry struct {
	shapes map[string]*Shape
}

// RegistryBuilder accumulates shape registrations. The zero value is not
// usable; call NewRegistry.
type RegistryBuilder struct {
	shapes map[string]*Shape
	errs   []error
}

// NewRegistry starts a registry definition.
func NewRegistry() *RegistryBuilder {
	return &RegistryBuilder{shapes: map[string]*Shape{}}
}

// Register adds shape under value, replacing any previous registration.
func (b *RegistryBuilder) Register(value string, shape *Shape) *RegistryBuilder {
	if shape == nil {
		b.errs = append(b.errs, fmt.Errorf("babik: nil shape registered for %q", value))
		return b
	}
	b.shapes[value] = shape
	return b
}

// Define builds a shape from specs and registers it under value.
func (b *RegistryBuilder) Define(value string, specs ...FieldSpec) *RegistryBuilder {
	s, err := NewShape(value, specs...)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	return b.Register(value, s)
}

// Build freezes the registrations. Later calls on the builder do not affect
// the returned Registry.
func (b *RegistryBuilder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	r := &Registry{shapes: make(map[string]*Shape, len(b.shapes))}
	for k, v := range b.shapes {
		r.shapes[k] = v
	}
	return r, nil
}

// MustBuild is like Build but panics on error.
func (b *RegistryBuilder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the shape registered for a discriminator value. nil, an
// unset value, and unknown values yield no shape.
func (r *Registry) Resolve(value any) (*Shape, bool) {
	if r == nil {
		return nil, false
	}
	key, ok := DiscriminatorKey(value)
	if !ok {
		return nil, false
	}
	s, ok := r.shapes[key]
	return s, ok
}

// Discriminators returns the registered values, sorted.
func (r *Registry) Discriminators() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.shapes))
	for k := range r.shapes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.shapes)
}

// DiscriminatorKey returns the canonical registry key for a discriminator
// value, or false when the value counts as unset (nil or "").
func DiscriminatorKey(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case json.Number:
		return t.String(), t != ""
	case fmt.Stringer:
		s := t.String()
		return s, s != ""
	default:
		return fmt.Sprint(t), true
	}
}
