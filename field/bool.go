package field

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/reoring/babik"
	js "github.com/reoring/babik/jsonschema"
)

// BoolSpec is a boolean attribute. Bool specs allow blank by default;
// NullBool additionally allows nil.
type BoolSpec struct{ base }

func Bool(name string, opts ...Option) *BoolSpec {
	return &BoolSpec{base: newBase(babik.KindBool, name, append([]Option{Blank()}, opts...))}
}

func NullBool(name string, opts ...Option) *BoolSpec {
	return &BoolSpec{base: newBase(babik.KindNullBool, name, append([]Option{Blank(), Null()}, opts...))}
}

func (s *BoolSpec) Coerce(raw any) (any, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case int:
		if t == 0 || t == 1 {
			return t == 1, nil
		}
	case int64:
		if t == 0 || t == 1 {
			return t == 1, nil
		}
	case json.Number:
		return s.Coerce(t.String())
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "t", "true", "1", "yes", "on":
			return true, nil
		case "f", "false", "0", "no", "off":
			return false, nil
		case "", "none", "null":
			if s.null {
				return nil, nil
			}
		}
	}
	return nil, invalidType("boolean", raw)
}

func (s *BoolSpec) Decode(raw any) (any, error) { return s.Coerce(raw) }

// IsBlank treats only nil as blank; false is a value.
func (s *BoolSpec) IsBlank(v any) bool { return v == nil }

func (s *BoolSpec) Validate(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v == nil {
		if s.null {
			return nil
		}
		return babik.NewIssues(babik.CodeNull, nil)
	}
	if _, ok := v.(bool); !ok {
		return invalidType("boolean", v)
	}
	return s.checkChoices(v)
}

func (s *BoolSpec) JSONSchema() (*js.Schema, error) {
	return s.decorate(&js.Schema{Type: "boolean"}), nil
}
