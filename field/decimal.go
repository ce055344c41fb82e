package field

import (
	"context"
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/reoring/babik"
	js "github.com/reoring/babik/jsonschema"
	"github.com/shopspring/decimal"
)

// DecimalSpec is an exact decimal attribute backed by decimal.Decimal. The
// value keeps the exponent it was given, so "1.10" stays "1.10" through
// storage.
type DecimalSpec struct{ base }

// Decimal builds a decimal spec; see MaxDigits and DecimalPlaces.
func Decimal(name string, opts ...Option) *DecimalSpec {
	return &DecimalSpec{base: newBase(babik.KindDecimal, name, opts)}
}

func (s *DecimalSpec) Coerce(raw any) (any, error) {
	if s.IsBlank(raw) {
		return s.blankValue(raw), nil
	}
	switch t := raw.(type) {
	case decimal.Decimal:
		return t, nil
	case *decimal.Decimal:
		return *t, nil
	case string:
		return s.parse(strings.TrimSpace(t), raw)
	case json.Number:
		return s.parse(t.String(), raw)
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int32:
		return decimal.NewFromInt32(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float32:
		return s.fromFloat(float64(t), raw)
	case float64:
		return s.fromFloat(t, raw)
	case *big.Int:
		return decimal.NewFromBigInt(t, 0), nil
	}
	return nil, invalidType("decimal", raw)
}

func (s *DecimalSpec) parse(str string, raw any) (any, error) {
	d, err := decimal.NewFromString(str)
	if err != nil {
		return nil, invalidType("decimal", raw)
	}
	return d, nil
}

func (s *DecimalSpec) fromFloat(f float64, raw any) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, invalidType("finite number", raw)
	}
	return decimal.NewFromFloat(f), nil
}

func (s *DecimalSpec) Decode(raw any) (any, error) { return s.Coerce(raw) }

func (s *DecimalSpec) Validate(ctx context.Context, v any) error { return validate(ctx, &s.base, s, v) }

func (s *DecimalSpec) validateValue(_ context.Context, v any) error {
	d, ok := v.(decimal.Decimal)
	if !ok {
		return invalidType("decimal", v)
	}
	var iss babik.Issues
	if s.min != nil && compareDecimal(d, *s.min) < 0 {
		iss = append(iss, babik.IssueAt("/", babik.CodeTooSmall, map[string]any{"min": s.min.String()}))
	}
	if s.max != nil && compareDecimal(d, *s.max) > 0 {
		iss = append(iss, babik.IssueAt("/", babik.CodeTooBig, map[string]any{"max": s.max.String()}))
	}
	digits, decimals := digitCounts(d)
	whole := digits - decimals
	switch {
	case s.maxDigits >= 0 && digits > s.maxDigits:
		iss = append(iss, babik.IssueAt("/", babik.CodeMaxDigits, map[string]any{"max": s.maxDigits}))
	case s.decimalPlaces >= 0 && decimals > s.decimalPlaces:
		iss = append(iss, babik.IssueAt("/", babik.CodeMaxDecimalPlaces, map[string]any{"max": s.decimalPlaces}))
	case s.maxDigits >= 0 && s.decimalPlaces >= 0 && whole > s.maxDigits-s.decimalPlaces:
		iss = append(iss, babik.IssueAt("/", babik.CodeMaxWholeDigits, map[string]any{"max": s.maxDigits - s.decimalPlaces}))
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

// magnitude is the position of the leading digit of a non-zero d relative
// to the decimal point: 3 for 123.4, 0 for 0.5, -2 for 0.005.
func magnitude(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent())
}

// compareDecimal orders a and b like Cmp. Sign and magnitude decide first,
// so operands whose exponents are far apart are never rescaled.
func compareDecimal(a, b decimal.Decimal) int {
	sa, sb := a.Sign(), b.Sign()
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	case sa == 0:
		return 0
	}
	if ma, mb := magnitude(a), magnitude(b); ma != mb {
		if (ma > mb) == (sa > 0) {
			return 1
		}
		return -1
	}
	return a.Cmp(b)
}

// digitCounts returns the total digits and fractional digits of d as
// written, counting leading fractional zeros ("0.001" has 3 and 3).
func digitCounts(d decimal.Decimal) (digits, decimals int) {
	coef := d.Coefficient()
	n := len(strings.TrimPrefix(coef.String(), "-"))
	exp := int(d.Exponent())
	if exp >= 0 {
		if coef.Sign() != 0 {
			n += exp
		}
		return n, 0
	}
	if -exp > n {
		return -exp, -exp
	}
	return n, -exp
}

func (s *DecimalSpec) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "number"}
	if s.min != nil {
		f, _ := s.min.Float64()
		out.Minimum = js.Float(f)
	}
	if s.max != nil {
		f, _ := s.max.Float64()
		out.Maximum = js.Float(f)
	}
	out = s.decorate(out)
	if s.maxDigits >= 0 {
		out.Description = strings.TrimSpace(out.Description + " (max digits " + strconv.Itoa(s.maxDigits) + ")")
	}
	return out, nil
}
