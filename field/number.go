package field

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/reoring/babik"
	js "github.com/reoring/babik/jsonschema"
	"github.com/shopspring/decimal"
)

// IntSpec is an integer attribute held as int64. Each kind carries its own
// range; Min and Max narrow it further.
type IntSpec struct {
	base
	lo, hi int64
}

func newInt(kind babik.Kind, name string, lo, hi int64, opts []Option) *IntSpec {
	return &IntSpec{base: newBase(kind, name, opts), lo: lo, hi: hi}
}

func Int(name string, opts ...Option) *IntSpec {
	return newInt(babik.KindInt, name, math.MinInt32, math.MaxInt32, opts)
}

func BigInt(name string, opts ...Option) *IntSpec {
	return newInt(babik.KindBigInt, name, math.MinInt64, math.MaxInt64, opts)
}

func SmallInt(name string, opts ...Option) *IntSpec {
	return newInt(babik.KindSmallInt, name, math.MinInt16, math.MaxInt16, opts)
}

func PositiveInt(name string, opts ...Option) *IntSpec {
	return newInt(babik.KindPositiveInt, name, 0, math.MaxInt32, opts)
}

func PositiveSmallInt(name string, opts ...Option) *IntSpec {
	return newInt(babik.KindPositiveSmallInt, name, 0, math.MaxInt16, opts)
}

func (s *IntSpec) Coerce(raw any) (any, error) {
	if s.IsBlank(raw) {
		return s.blankValue(raw), nil
	}
	switch t := raw.(type) {
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return nil, s.overflow()
		}
		return int64(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, s.overflow()
		}
		return int64(t), nil
	case float32:
		return s.fromFloat(float64(t), raw)
	case float64:
		return s.fromFloat(t, raw)
	case json.Number:
		return s.fromString(t.String(), raw)
	case string:
		return s.fromString(t, raw)
	case decimal.Decimal:
		return s.fromDecimal(t, raw)
	case *big.Int:
		if t == nil || !t.IsInt64() {
			return nil, s.overflow()
		}
		return t.Int64(), nil
	}
	return nil, invalidType("integer", raw)
}

func (s *IntSpec) fromFloat(f float64, raw any) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, invalidType("integer", raw)
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, s.overflow()
	}
	return int64(f), nil
}

// fromDecimal checks the magnitude before truncating; d is never rescaled
// beyond its own digit count.
func (s *IntSpec) fromDecimal(d decimal.Decimal, raw any) (any, error) {
	if d.Sign() == 0 {
		return int64(0), nil
	}
	switch m := magnitude(d); {
	case m > 19:
		return nil, s.overflow()
	case m <= 0:
		return nil, invalidType("integer", raw)
	}
	if !d.Equal(d.Truncate(0)) {
		return nil, invalidType("integer", raw)
	}
	bi := d.BigInt()
	if !bi.IsInt64() {
		return nil, s.overflow()
	}
	return bi.Int64(), nil
}

func (s *IntSpec) fromString(str string, raw any) (any, error) {
	str = strings.TrimSpace(str)
	n, err := strconv.ParseInt(str, 10, 64)
	if err == nil {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return nil, s.overflow()
	}
	// "12.0" and "1e3" are accepted when integral.
	if d, derr := decimal.NewFromString(str); derr == nil {
		return s.Coerce(d)
	}
	return nil, invalidType("integer", raw)
}

func (s *IntSpec) overflow() error {
	return babik.NewIssues(babik.CodeOverflow, map[string]any{"kind": string(s.kind)})
}

func (s *IntSpec) Decode(raw any) (any, error) { return s.Coerce(raw) }

func (s *IntSpec) Validate(ctx context.Context, v any) error { return validate(ctx, &s.base, s, v) }

func (s *IntSpec) validateValue(_ context.Context, v any) error {
	n, ok := v.(int64)
	if !ok {
		return invalidType("int64", v)
	}
	lo, hi := decimal.NewFromInt(s.lo), decimal.NewFromInt(s.hi)
	if s.min != nil && s.min.GreaterThan(lo) {
		lo = *s.min
	}
	if s.max != nil && s.max.LessThan(hi) {
		hi = *s.max
	}
	return checkRange(decimal.NewFromInt(n), lo, hi)
}

func (s *IntSpec) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "integer"}
	if s.kind != babik.KindBigInt {
		out.Minimum, out.Maximum = js.Float(float64(s.lo)), js.Float(float64(s.hi))
	}
	if s.min != nil {
		f, _ := s.min.Float64()
		out.Minimum = js.Float(f)
	}
	if s.max != nil {
		f, _ := s.max.Float64()
		out.Maximum = js.Float(f)
	}
	return s.decorate(out), nil
}

func checkRange(d, lo, hi decimal.Decimal) error {
	if d.LessThan(lo) {
		return babik.NewIssues(babik.CodeTooSmall, map[string]any{"min": lo.String()})
	}
	if d.GreaterThan(hi) {
		return babik.NewIssues(babik.CodeTooBig, map[string]any{"max": hi.String()})
	}
	return nil
}

// FloatSpec is a float64 attribute. NaN and infinities are rejected.
type FloatSpec struct{ base }

func Float(name string, opts ...Option) *FloatSpec {
	return &FloatSpec{base: newBase(babik.KindFloat, name, opts)}
}

func (s *FloatSpec) Coerce(raw any) (any, error) {
	if s.IsBlank(raw) {
		return s.blankValue(raw), nil
	}
	var f float64
	switch t := raw.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		var err error
		if f, err = t.Float64(); err != nil {
			return nil, invalidType("number", raw)
		}
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
			return nil, invalidType("number", raw)
		}
	case decimal.Decimal:
		switch m := magnitude(t); {
		case t.Sign() == 0 || m < -400:
			f = 0
		case m > 310:
			return nil, invalidType("finite number", raw)
		default:
			f, _ = t.Float64()
		}
	default:
		return nil, invalidType("number", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalidType("finite number", raw)
	}
	return f, nil
}

func (s *FloatSpec) Decode(raw any) (any, error) { return s.Coerce(raw) }

func (s *FloatSpec) Validate(ctx context.Context, v any) error { return validate(ctx, &s.base, s, v) }

func (s *FloatSpec) validateValue(_ context.Context, v any) error {
	f, ok := v.(float64)
	if !ok {
		return invalidType("float64", v)
	}
	d := decimal.NewFromFloat(f)
	if s.min != nil && d.LessThan(*s.min) {
		return babik.NewIssues(babik.CodeTooSmall, map[string]any{"min": s.min.String()})
	}
	if s.max != nil && d.GreaterThan(*s.max) {
		return babik.NewIssues(babik.CodeTooBig, map[string]any{"max": s.max.String()})
	}
	return nil
}

func (s *FloatSpec) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "number"}
	if s.min != nil {
		f, _ := s.min.Float64()
		out.Minimum = js.Float(f)
	}
	if s.max != nil {
		f, _ := s.max.Float64()
		out.Maximum = js.Float(f)
	}
	return s.decorate(out), nil
}
