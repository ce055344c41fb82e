package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Type        any    `json:"type,omitempty"` // string, or []string when nullable
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Const       any    `json:"const,omitempty"`
	Enum        []any  `json:"enum,omitempty"`

	// String
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`
}

// Nullable widens a single type name to also accept null.
func (s *Schema) Nullable() *Schema {
	if t, ok := s.Type.(string); ok && t != "" {
		s.Type = []string{t, "null"}
	}
	return s
}

// Int returns a pointer to n, for MaxLength.
func Int(n int) *int { return &n }

// Float returns a pointer to f, for Minimum/Maximum.
func Float(f float64) *float64 { return &f }
