package babik

import (
	"fmt"

	js "github.com/reoring/babik/jsonschema"
)

// Shape is the ordered set of field specs that applies to records whose
// discriminator equals Discriminator(). A Shape is read-only once built and
// shared across all records of that shape.
type Shape struct {
	value  string
	fields []FieldSpec
	byName map[string]int
}

// NewShape builds a shape. Names and storage keys must be unique.
func NewShape(value string, specs ...FieldSpec) (*Shape, error) {
	s := &Shape{
		value:  value,
		fields: make([]FieldSpec, 0, len(specs)),
		byName: make(map[string]int, len(specs)),
	}
	keys := make(map[string]string, len(specs))
	for _, f := range specs {
		if f == nil {
			return nil, fmt.Errorf("babik: shape %q: nil field spec", value)
		}
		name := f.Name()
		if name == "" {
			return nil, fmt.Errorf("babik: shape %q: field spec without a name", value)
		}
		if _, dup := s.byName[name]; dup {
			return nil, fmt.Errorf("babik: shape %q: duplicate field %q", value, name)
		}
		if other, dup := keys[f.StorageKey()]; dup {
			return nil, fmt.Errorf("babik: shape %q: fields %q and %q share storage key %q", value, other, name, f.StorageKey())
		}
		keys[f.StorageKey()] = name
		s.byName[name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

// MustShape is like NewShape but panics on error.
func MustShape(value string, specs ...FieldSpec) *Shape {
	s, err := NewShape(value, specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Discriminator returns the value this shape was declared for.
func (s *Shape) Discriminator() string { return s.value }

// Field looks up a field spec by attribute name.
func (s *Shape) Field(name string) (FieldSpec, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// Fields returns the specs in declaration order.
func (s *Shape) Fields() []FieldSpec { return append([]FieldSpec(nil), s.fields...) }

// Names returns attribute names in declaration order.
func (s *Shape) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name()
	}
	return out
}

func (s *Shape) Len() int { return len(s.fields) }

// JSONSchema describes the attrs blob of this shape: one property per
// storage key plus the type key pinned to the discriminator.
func (s *Shape) JSONSchema(typeKey string) (*js.Schema, error) {
	out := &js.Schema{
		Type:       "object",
		Properties: make(map[string]*js.Schema, len(s.fields)+1),
	}
	for _, f := range s.fields {
		fs, err := f.JSONSchema()
		if err != nil {
			return nil, fmt.Errorf("babik: shape %q field %q: %w", s.value, f.Name(), err)
		}
		out.Properties[f.StorageKey()] = fs
		if !f.AllowBlank() {
			out.Required = append(out.Required, f.StorageKey())
		}
	}
	if typeKey != "" {
		out.Properties[typeKey] = &js.Schema{Type: "string", Const: s.value}
	}
	return out, nil
}
