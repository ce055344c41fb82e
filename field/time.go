package field

import (
	"context"
	"strings"
	"time"

	"github.com/reoring/babik"
	js "github.com/reoring/babik/jsonschema"
)

// TimeSpec is a timestamp attribute. Strings are parsed as RFC3339 with
// optional fractional seconds; values are kept in UTC.
type TimeSpec struct{ base }

func Time(name string, opts ...Option) *TimeSpec {
	return &TimeSpec{base: newBase(babik.KindTime, name, opts)}
}

func (s *TimeSpec) Coerce(raw any) (any, error) {
	if s.IsBlank(raw) {
		return s.blankValue(raw), nil
	}
	switch t := raw.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		return t.UTC(), nil
	case string:
		v, err := parseRFC3339(strings.TrimSpace(t))
		if err != nil {
			it := babik.IssueAt("/", babik.CodeInvalidFormat, map[string]any{"format": "RFC3339 time"})
			it.Cause = err
			return nil, babik.Issues{it}
		}
		return v.UTC(), nil
	}
	return nil, invalidType("time", raw)
}

func (s *TimeSpec) Decode(raw any) (any, error) { return s.Coerce(raw) }

func (s *TimeSpec) Validate(ctx context.Context, v any) error { return validate(ctx, &s.base, s, v) }

func (s *TimeSpec) validateValue(_ context.Context, v any) error {
	if _, ok := v.(time.Time); !ok {
		return invalidType("time", v)
	}
	return nil
}

func (s *TimeSpec) JSONSchema() (*js.Schema, error) {
	return s.decorate(&js.Schema{Type: "string", Format: "date-time"}), nil
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}
