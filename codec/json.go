// Package codec contains AttrsCodec implementations that turn the attrs blob
// into the single string column a Store persists.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"
	"time"

	j "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/reoring/babik"
)

// NumberMode selects how JSON numbers are represented after decoding.
type NumberMode int

const (
	// NumberJSONNumber keeps numbers as json.Number (exact text). Default.
	NumberJSONNumber NumberMode = iota
	// NumberDecimal decodes numbers into decimal.Decimal.
	NumberDecimal
	// NumberFloat64 decodes numbers into float64. Lossy for decimals.
	NumberFloat64
)

func (m NumberMode) String() string {
	switch m {
	case NumberDecimal:
		return "decimal"
	case NumberFloat64:
		return "float64"
	default:
		return "json"
	}
}

// ParseNumberMode maps "json", "decimal" and "float64" to a NumberMode.
func ParseNumberMode(s string) (NumberMode, error) {
	switch strings.ToLower(s) {
	case "", "json", "json.number":
		return NumberJSONNumber, nil
	case "decimal":
		return NumberDecimal, nil
	case "float", "float64":
		return NumberFloat64, nil
	}
	return 0, fmt.Errorf("codec: unknown number mode %q", s)
}

// DuplicatePolicy decides what Decode does with a repeated object key.
type DuplicatePolicy int

const (
	// DuplicateLastWins keeps the last value at the first key's position.
	DuplicateLastWins DuplicatePolicy = iota
	// DuplicateError fails with a DecodeError.
	DuplicateError
)

type Option func(*jsonCodec)

// WithNumberMode sets the number representation used by Decode.
func WithNumberMode(m NumberMode) Option { return func(c *jsonCodec) { c.numbers = m } }

// WithDuplicateKeys sets the duplicate key policy used by Decode.
func WithDuplicateKeys(p DuplicatePolicy) Option { return func(c *jsonCodec) { c.duplicates = p } }

// WithMaxDepth limits container nesting inside the blob (0 = unlimited).
// The blob itself is depth 1.
func WithMaxDepth(n int) Option { return func(c *jsonCodec) { c.maxDepth = n } }

// WithMaxBytes rejects encoded blobs longer than n bytes (0 = unlimited).
func WithMaxBytes(n int) Option { return func(c *jsonCodec) { c.maxBytes = n } }

// JSON returns the default attrs codec. Top-level key order is preserved,
// decimals are written as exact JSON numbers, and times as canonical
// RFC3339 in UTC.
func JSON(opts ...Option) babik.AttrsCodec {
	c := &jsonCodec{}
	for _, o := range opts {
		o(c)
	}
	return c
}

type jsonCodec struct {
	numbers    NumberMode
	duplicates DuplicatePolicy
	maxDepth   int
	maxBytes   int
}

func (c *jsonCodec) Encode(a *babik.Attrs) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.Keys() {
		v, _ := a.Get(k)
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, k); err != nil {
			return "", &babik.EncodeError{Key: k, Cause: err}
		}
		buf.WriteByte(':')
		if err := writeValue(&buf, v); err != nil {
			return "", &babik.EncodeError{Key: k, Cause: err}
		}
	}
	buf.WriteByte('}')
	if c.maxBytes > 0 && buf.Len() > c.maxBytes {
		return "", &babik.EncodeError{Cause: fmt.Errorf("encoded attrs are %d bytes, limit %d", buf.Len(), c.maxBytes)}
	}
	return buf.String(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := j.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

var errUnsupported = errors.New("value cannot be represented in JSON")

func writeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case decimal.Decimal:
		buf.WriteString(DecimalLiteral(t))
		return nil
	case *decimal.Decimal:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(DecimalLiteral(*t))
		return nil
	case j.Number:
		if _, err := decimal.NewFromString(t.String()); err != nil {
			return fmt.Errorf("invalid number %q", t.String())
		}
		buf.WriteString(t.String())
		return nil
	case *big.Int:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(t.String())
		return nil
	case float64:
		return writeFloat(buf, t)
	case float32:
		return writeFloat(buf, float64(t))
	case time.Time:
		return writeString(buf, t.UTC().Format(time.RFC3339Nano))
	case *babik.Attrs:
		return writeObject(buf, t.Map(), t.Keys())
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return writeObject(buf, t, keys)
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, e); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case complex64, complex128:
		return fmt.Errorf("%w: %T", errUnsupported, v)
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Errorf("%w: %T", errUnsupported, v)
	}
	b, err := j.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", errUnsupported, f)
	}
	b, err := j.Marshal(f)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeObject(buf *bytes.Buffer, m map[string]any, keys []string) error {
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, m[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// maxFixedPlaces bounds the positional form; smaller exponents are written
// in exponent notation.
const maxFixedPlaces = 64

// DecimalLiteral renders d as a JSON number that decodes back to the same
// coefficient and exponent: "1.10" stays "1.10", 12e3 stays "12e3".
func DecimalLiteral(d decimal.Decimal) string {
	exp := d.Exponent()
	switch {
	case exp < -maxFixedPlaces:
		return fmt.Sprintf("%se%d", d.Coefficient().String(), exp)
	case exp < 0:
		return d.StringFixed(-exp)
	case exp == 0:
		return d.Coefficient().String()
	default:
		return fmt.Sprintf("%se%d", d.Coefficient().String(), exp)
	}
}

func (c *jsonCodec) Decode(s string) (*babik.Attrs, error) {
	out := babik.NewAttrs()
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	if c.maxBytes > 0 && len(s) > c.maxBytes {
		return nil, &babik.DecodeError{Cause: fmt.Errorf("attrs are %d bytes, limit %d", len(s), c.maxBytes)}
	}
	dec := j.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, &babik.DecodeError{Cause: err}
	}
	if d, ok := tok.(j.Delim); !ok || d != '{' {
		return nil, &babik.DecodeError{Cause: fmt.Errorf("top level is %v, want an object", tok)}
	}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, &babik.DecodeError{Cause: err}
		}
		key, ok := kt.(string)
		if !ok {
			return nil, &babik.DecodeError{Cause: fmt.Errorf("object key %v is not a string", kt)}
		}
		if _, dup := out.Get(key); dup && c.duplicates == DuplicateError {
			return nil, &babik.DecodeError{Key: key, Cause: errDuplicateKey}
		}
		v, err := c.readValue(dec, 2)
		if err != nil {
			return nil, &babik.DecodeError{Key: key, Cause: err}
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, &babik.DecodeError{Cause: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("trailing data after object")
		}
		return nil, &babik.DecodeError{Cause: err}
	}
	return out, nil
}

var errDuplicateKey = errors.New("duplicate key")

// readValue consumes one complete value from the token stream. depth is the
// nesting level a container starting here would have.
func (c *jsonCodec) readValue(dec *j.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case j.Delim:
		if c.maxDepth > 0 && depth > c.maxDepth {
			return nil, fmt.Errorf("nesting depth exceeds %d", c.maxDepth)
		}
		switch t {
		case '{':
			m := map[string]any{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", kt)
				}
				if _, dup := m[key]; dup && c.duplicates == DuplicateError {
					return nil, fmt.Errorf("%s: %w", key, errDuplicateKey)
				}
				v, err := c.readValue(dec, depth+1)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				m[key] = v
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := c.readValue(dec, depth+1)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", len(arr), err)
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case j.Number:
		return c.number(t)
	default:
		return tok, nil
	}
}

func (c *jsonCodec) number(n j.Number) (any, error) {
	switch c.numbers {
	case NumberDecimal:
		return decimal.NewFromString(n.String())
	case NumberFloat64:
		return n.Float64()
	default:
		return n, nil
	}
}
