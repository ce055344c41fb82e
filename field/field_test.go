package field_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reoring/babik"
	"github.com/reoring/babik/field"
)

func codes(err error) []string {
	iss, ok := babik.AsIssues(err)
	if !ok {
		return nil
	}
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

// clean mirrors the save pass for a single value.
func clean(t *testing.T, s babik.FieldSpec, raw any) (any, error) {
	t.Helper()
	v, err := s.Coerce(raw)
	if err != nil {
		return nil, err
	}
	return v, s.Validate(context.Background(), v)
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	got := codes(err)
	if len(got) == 0 || got[0] != code {
		t.Fatalf("codes = %v (err %v), want %s", got, err, code)
	}
}

func TestStringPolicy(t *testing.T) {
	s := field.String("name", field.MaxLength(3))
	if v, _ := s.Coerce(nil); v != "" {
		t.Fatalf("blank coerces to %#v", v)
	}
	if v, _ := s.Coerce(42); v != "42" {
		t.Fatalf("42 coerces to %#v", v)
	}
	_, err := clean(t, s, "")
	expectCode(t, err, babik.CodeRequired)
	expectCode(t, s.Validate(context.Background(), nil), babik.CodeNull)

	_, err = clean(t, s, "abcd")
	expectCode(t, err, babik.CodeTooLong)
	if iss, _ := babik.AsIssues(err); !strings.Contains(iss[0].Message, "at most 3") {
		t.Fatalf("message = %q", iss[0].Message)
	}
	if _, err := clean(t, s, "日本語"); err != nil {
		t.Fatalf("length counts characters, not bytes: %v", err)
	}

	blank := field.String("note", field.Blank())
	if _, err := clean(t, blank, ""); err != nil {
		t.Fatalf("blank allowed: %v", err)
	}
	null := field.String("note", field.Null())
	if v, _ := null.Coerce(nil); v != nil {
		t.Fatalf("null string coerces nil to %#v", v)
	}
	if _, err := null.Coerce(struct{}{}); err == nil {
		t.Fatal("struct should not coerce to a string")
	}
}

func TestStringFormats(t *testing.T) {
	cases := []struct {
		spec babik.FieldSpec
		ok   []string
		bad  []string
	}{
		{field.Email("e"), []string{"user@example.com"}, []string{"nope", "Bob <b@example.com>", "a@"}},
		{field.URL("u"), []string{"https://example.com/x", "ftp://files.example.com"}, []string{"example.com", "mailto:a@b.c", "gopher://x.org"}},
		{field.Slug("s"), []string{"hello-world_1"}, []string{"hello world", "ümlaut"}},
		{field.IP("ip"), []string{"10.0.0.1", "2001:db8::1"}, []string{"1.2.3", "example.com"}},
		{field.CommaSeparatedInts("c"), []string{"1", "1,2,30"}, []string{"1,,2", "a,b", "1,2,"}},
	}
	for _, c := range cases {
		for _, v := range c.ok {
			if _, err := clean(t, c.spec, v); err != nil {
				t.Errorf("%s(%q): %v", c.spec.Kind(), v, err)
			}
		}
		for _, v := range c.bad {
			_, err := clean(t, c.spec, v)
			if got := codes(err); len(got) == 0 || got[len(got)-1] != babik.CodeInvalidFormat {
				t.Errorf("%s(%q): codes %v", c.spec.Kind(), v, got)
			}
		}
	}
}

func TestIPCanonicalForm(t *testing.T) {
	v, err := field.IP("ip").Coerce(" 2001:DB8:0::1 ")
	if err != nil || v != "2001:db8::1" {
		t.Fatalf("got %#v, %v", v, err)
	}
}

func TestCommaSeparatedIntsFromSlice(t *testing.T) {
	s := field.CommaSeparatedInts("c")
	if v, _ := s.Coerce([]int{1, 2, 3}); v != "1,2,3" {
		t.Fatalf("got %#v", v)
	}
	if v, _ := s.Coerce([]int{}); v != "" {
		t.Fatalf("empty slice coerces to %#v", v)
	}
	if _, err := s.Coerce([]any{1.5}); err == nil {
		t.Fatal("expected error for float element")
	}
}

func TestIntCoercion(t *testing.T) {
	s := field.Int("n")
	ok := map[any]int64{"12": 12, " 7 ": 7, "12.0": 12, 3.0: 3, int32(5): 5, uint8(9): 9}
	for in, want := range ok {
		v, err := s.Coerce(in)
		if err != nil || v != want {
			t.Errorf("Coerce(%#v) = %#v, %v", in, v, err)
		}
	}
	if v, _ := s.Coerce(decimal.RequireFromString("4.00")); v != int64(4) {
		t.Errorf("decimal 4.00 -> %#v", v)
	}
	for _, in := range []any{"1.5", "x", 2.5, true} {
		if _, err := s.Coerce(in); !reflect.DeepEqual(codes(err), []string{babik.CodeInvalidType}) {
			t.Errorf("Coerce(%#v) codes %v", in, codes(err))
		}
	}
	for _, in := range []any{"99999999999999999999", "1e1000000000", "-1e1000000000", decimal.New(1, 1<<30)} {
		_, err := s.Coerce(in)
		expectCode(t, err, babik.CodeOverflow)
	}
	_, err := s.Coerce("1e-1000000000")
	expectCode(t, err, babik.CodeInvalidType)
	if v, _ := s.Coerce(nil); v != nil {
		t.Errorf("nil coerces to %#v", v)
	}
}

func TestIntRanges(t *testing.T) {
	ctx := context.Background()
	expectCode(t, field.Int("n").Validate(ctx, int64(1)<<31), babik.CodeTooBig)
	expectCode(t, field.SmallInt("n").Validate(ctx, int64(-40000)), babik.CodeTooSmall)
	expectCode(t, field.PositiveInt("n").Validate(ctx, int64(-1)), babik.CodeTooSmall)
	expectCode(t, field.PositiveSmallInt("n").Validate(ctx, int64(40000)), babik.CodeTooBig)
	if err := field.BigInt("n").Validate(ctx, int64(1)<<40); err != nil {
		t.Fatalf("bigint: %v", err)
	}
	bounded := field.Int("n", field.Min(5), field.Max(10))
	expectCode(t, bounded.Validate(ctx, int64(4)), babik.CodeTooSmall)
	expectCode(t, bounded.Validate(ctx, int64(11)), babik.CodeTooBig)
	if err := bounded.Validate(ctx, int64(10)); err != nil {
		t.Fatalf("upper bound is inclusive: %v", err)
	}
}

func TestFloat(t *testing.T) {
	s := field.Float("f", field.Max(1))
	if v, _ := s.Coerce("0.25"); v != 0.25 {
		t.Fatalf("got %#v", v)
	}
	for _, in := range []any{"NaN", "+Inf", "abc"} {
		if _, err := s.Coerce(in); err == nil {
			t.Errorf("Coerce(%q) accepted", in)
		}
	}
	expectCode(t, s.Validate(context.Background(), 1.5), babik.CodeTooBig)
}

func TestDecimalDigits(t *testing.T) {
	s := field.Decimal("price", field.MaxDigits(6), field.DecimalPlaces(2))
	cases := []struct {
		in   string
		code string
	}{
		{"1234.56", ""},
		{"0.01", ""},
		{"-9999.99", ""},
		{"1234567", babik.CodeMaxDigits},
		{"1.234", babik.CodeMaxDecimalPlaces},
		{"12345.6", babik.CodeMaxWholeDigits},
		{"0.001", babik.CodeMaxDecimalPlaces},
	}
	for _, c := range cases {
		_, err := clean(t, s, c.in)
		if c.code == "" {
			if err != nil {
				t.Errorf("%s: %v", c.in, err)
			}
			continue
		}
		if got := codes(err); len(got) != 1 || got[0] != c.code {
			t.Errorf("%s: codes %v, want %s", c.in, got, c.code)
		}
	}
}

func TestDecimalExtremeExponents(t *testing.T) {
	ctx := context.Background()
	s := field.Decimal("price", field.Min(-100), field.Max(100))
	cases := map[string]string{
		"1e1000000000":   babik.CodeTooBig,
		"-1e1000000000":  babik.CodeTooSmall,
		"1e-1000000000":  "",
		"-1e-1000000000": "",
	}
	for in, want := range cases {
		v, err := s.Coerce(in)
		if err != nil {
			t.Fatalf("coerce %s: %v", in, err)
		}
		err = s.Validate(ctx, v)
		if want == "" {
			if err != nil {
				t.Errorf("%s: %v", in, err)
			}
			continue
		}
		expectCode(t, err, want)
	}

	f := field.Float("f")
	if _, err := f.Coerce(decimal.RequireFromString("1e1000000000")); err == nil {
		t.Fatal("huge decimal accepted as float")
	}
	if v, err := f.Coerce(decimal.RequireFromString("1e-1000000000")); err != nil || v != 0.0 {
		t.Fatalf("tiny decimal = %#v, %v", v, err)
	}
}

func TestDecimalKeepsExponent(t *testing.T) {
	v, err := field.Decimal("p").Coerce("1.10")
	if err != nil {
		t.Fatal(err)
	}
	d := v.(decimal.Decimal)
	if d.Exponent() != -2 || d.String() != "1.1" || d.StringFixed(2) != "1.10" {
		t.Fatalf("decimal = %s exp %d", d, d.Exponent())
	}
	if _, err := field.Decimal("p").Coerce("1.2.3"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestBool(t *testing.T) {
	ctx := context.Background()
	b := field.Bool("on")
	if !b.AllowBlank() {
		t.Fatal("bool allows blank by default")
	}
	for in, want := range map[any]bool{"yes": true, "off": false, 1: true, int64(0): false, true: true} {
		if v, err := b.Coerce(in); err != nil || v != want {
			t.Errorf("Coerce(%#v) = %#v, %v", in, v, err)
		}
	}
	if _, err := b.Coerce("maybe"); err == nil {
		t.Fatal("maybe accepted")
	}
	if b.IsBlank(false) {
		t.Fatal("false is a value, not blank")
	}
	expectCode(t, b.Validate(ctx, nil), babik.CodeNull)

	nb := field.NullBool("maybe")
	if v, err := nb.Coerce("null"); err != nil || v != nil {
		t.Fatalf("null bool: %#v, %v", v, err)
	}
	if err := nb.Validate(ctx, nil); err != nil {
		t.Fatalf("null bool accepts nil: %v", err)
	}
}

func TestTime(t *testing.T) {
	s := field.Time("at")
	v, err := s.Coerce("2024-01-02T03:04:05+09:00")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 1, 1, 18, 4, 5, 0, time.UTC)
	if got := v.(time.Time); !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %v", got)
	}
	if _, err := s.Coerce("2024-01-02T03:04:05.123456Z"); err != nil {
		t.Fatalf("fractional seconds: %v", err)
	}
	_, err = s.Coerce("yesterday")
	expectCode(t, err, babik.CodeInvalidFormat)
}

func TestChoicesDefaultsAndKeys(t *testing.T) {
	ctx := context.Background()
	s := field.Int("size", field.Choices(1, 2), field.Default(2), field.StoredAs("sz"))
	expectCode(t, s.Validate(ctx, int64(3)), babik.CodeInvalidChoice)
	if err := s.Validate(ctx, int64(2)); err != nil {
		t.Fatalf("choice 2: %v", err)
	}
	if s.Empty() != 2 {
		t.Fatalf("empty = %#v", s.Empty())
	}
	if s.StorageKey() != "sz" || s.Name() != "size" {
		t.Fatalf("key %q name %q", s.StorageKey(), s.Name())
	}
	if field.Int("x").Empty() != nil || field.String("x").Empty() != "" || field.String("x", field.Null()).Empty() != nil {
		t.Fatal("natural empty values")
	}
}

func TestValidateHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := field.String("s").Validate(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestNew(t *testing.T) {
	s, err := field.New(babik.KindDecimal, "price", field.MaxDigits(4))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*field.DecimalSpec); !ok || s.Kind() != babik.KindDecimal {
		t.Fatalf("got %T", s)
	}
	if _, err := field.New("uuid", "x"); err == nil {
		t.Fatal("unknown kind accepted")
	}
	if _, err := field.New(babik.KindInt, ""); err == nil {
		t.Fatal("empty name accepted")
	}
}

func TestJSONSchema(t *testing.T) {
	s, _ := field.String("n", field.MaxLength(5), field.Null(), field.Help("short name")).JSONSchema()
	if !reflect.DeepEqual(s.Type, []string{"string", "null"}) || *s.MaxLength != 5 || s.Description != "short name" {
		t.Fatalf("string schema = %+v", s)
	}
	i, _ := field.SmallInt("n").JSONSchema()
	if *i.Minimum != -32768 || *i.Maximum != 32767 {
		t.Fatalf("smallint bounds %v %v", *i.Minimum, *i.Maximum)
	}
	d, _ := field.Decimal("p", field.MaxDigits(6)).JSONSchema()
	if !strings.Contains(d.Description, "max digits 6") {
		t.Fatalf("decimal description %q", d.Description)
	}
	e, _ := field.Email("e").JSONSchema()
	if e.Format != "email" {
		t.Fatalf("email format %q", e.Format)
	}
}
