// Package field provides the built-in FieldSpec implementations: strings
// (plain, text, slug, email, URL, IP, file path), integers of several
// ranges, floats, exact decimals, booleans, comma-separated integer lists
// and RFC3339 timestamps.
//
// Every spec is built with functional options:
//
//	price := field.Decimal("price", field.MaxDigits(10), field.DecimalPlaces(2))
//	isbn := field.String("isbn", field.MaxLength(13), field.StoredAs("i"))
//
// Coerce turns caller input into the kind's logical value and treats blank
// input (nil, "", empty collections) as the spec's empty value. Validate
// enforces null/blank policy, choices and the kind's own constraints. All
// failures are babik.Issues rooted at "/".
package field

import (
	"context"
	"fmt"

	"github.com/reoring/babik"
	js "github.com/reoring/babik/jsonschema"
	"github.com/shopspring/decimal"
)

// Option configures a spec at construction time.
type Option func(*base)

// Blank allows blank values; blank attributes are skipped on save.
func Blank() Option { return func(b *base) { b.blank = true } }

// Null allows nil as a stored value.
func Null() Option { return func(b *base) { b.null = true } }

// Default sets the value reported for an absent attribute.
func Default(v any) Option {
	return func(b *base) { b.def, b.hasDefault = v, true }
}

// StoredAs sets the key used inside the attrs blob.
func StoredAs(key string) Option { return func(b *base) { b.storedAs = key } }

// Choices restricts values to the given set (compared after coercion).
func Choices(values ...any) Option {
	return func(b *base) { b.choices = append(b.choices, values...) }
}

func Help(text string) Option { return func(b *base) { b.help = text } }

// MaxLength limits string length in characters.
func MaxLength(n int) Option { return func(b *base) { b.maxLength = n } }

// Min sets an inclusive lower bound for numeric kinds.
func Min(v float64) Option {
	return func(b *base) { d := decimal.NewFromFloat(v); b.min = &d }
}

// Max sets an inclusive upper bound for numeric kinds.
func Max(v float64) Option {
	return func(b *base) { d := decimal.NewFromFloat(v); b.max = &d }
}

// MaxDigits limits the total number of digits of a decimal.
func MaxDigits(n int) Option { return func(b *base) { b.maxDigits = n } }

// DecimalPlaces limits the number of fractional digits of a decimal.
func DecimalPlaces(n int) Option { return func(b *base) { b.decimalPlaces = n } }

// base carries the options shared by every kind.
type base struct {
	name     string
	kind     babik.Kind
	storedAs string

	blank, null bool
	def         any
	hasDefault  bool
	choices     []any
	help        string

	maxLength     int
	min, max      *decimal.Decimal
	maxDigits     int
	decimalPlaces int

	// emptyString marks kinds whose natural empty value is "" rather than nil.
	emptyString bool
}

func newBase(kind babik.Kind, name string, opts []Option) base {
	b := base{name: name, kind: kind, maxDigits: -1, decimalPlaces: -1}
	for _, o := range opts {
		if o != nil {
			o(&b)
		}
	}
	return b
}

func (b *base) Name() string     { return b.name }
func (b *base) Kind() babik.Kind { return b.kind }
func (b *base) AllowBlank() bool { return b.blank }
func (b *base) Help() string     { return b.help }

func (b *base) StorageKey() string {
	if b.storedAs != "" {
		return b.storedAs
	}
	return b.name
}

func (b *base) IsBlank(v any) bool { return babik.IsEmptyValue(v) }

func (b *base) Empty() any {
	if b.hasDefault {
		return b.def
	}
	if b.null || !b.emptyString {
		return nil
	}
	return ""
}

// blankValue is what Coerce returns for blank input.
func (b *base) blankValue(raw any) any {
	if raw == nil && (b.null || !b.emptyString) {
		return nil
	}
	if b.emptyString {
		return ""
	}
	return nil
}

// checkPolicy applies null and blank rules. done reports that v is blank and
// no further checks apply.
func (b *base) checkPolicy(v any) (done bool, err error) {
	if v == nil && !b.null {
		return true, babik.NewIssues(babik.CodeNull, nil)
	}
	if !b.IsBlank(v) {
		return false, nil
	}
	if !b.blank {
		return true, babik.NewIssues(babik.CodeRequired, nil)
	}
	return true, nil
}

func (b *base) checkChoices(v any) error {
	if len(b.choices) == 0 {
		return nil
	}
	for _, c := range b.choices {
		if babik.ValuesEqual(c, v) || fmt.Sprint(c) == fmt.Sprint(v) {
			return nil
		}
	}
	return babik.NewIssues(babik.CodeInvalidChoice, map[string]any{"value": fmt.Sprintf("%q", fmt.Sprint(v))})
}

// decorate fills the schema attributes common to all kinds.
func (b *base) decorate(s *js.Schema) *js.Schema {
	s.Description = b.help
	if b.hasDefault {
		s.Default = b.def
	}
	if len(b.choices) > 0 {
		s.Enum = append([]any(nil), b.choices...)
	}
	if b.null {
		s.Nullable()
	}
	return s
}

func invalidType(want string, got any) error {
	return babik.Issues{babik.IssueAt("/", babik.CodeInvalidType, map[string]any{"expected": want, "got": fmt.Sprintf("%T", got)})}
}

// validator is the kind-specific part of Validate, run on non-blank values.
type validator interface {
	validateValue(ctx context.Context, v any) error
}

func validate(ctx context.Context, b *base, vv validator, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if done, err := b.checkPolicy(v); done {
		return err
	}
	if err := b.checkChoices(v); err != nil {
		return err
	}
	return vv.validateValue(ctx, v)
}

// New builds a spec of the given kind. It is the entry point for
// declarative schema sources.
func New(kind babik.Kind, name string, opts ...Option) (babik.FieldSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("field: %s spec without a name", kind)
	}
	switch kind {
	case babik.KindString:
		return String(name, opts...), nil
	case babik.KindText:
		return Text(name, opts...), nil
	case babik.KindSlug:
		return Slug(name, opts...), nil
	case babik.KindEmail:
		return Email(name, opts...), nil
	case babik.KindURL:
		return URL(name, opts...), nil
	case babik.KindIP:
		return IP(name, opts...), nil
	case babik.KindFilePath:
		return FilePath(name, opts...), nil
	case babik.KindInt:
		return Int(name, opts...), nil
	case babik.KindBigInt:
		return BigInt(name, opts...), nil
	case babik.KindSmallInt:
		return SmallInt(name, opts...), nil
	case babik.KindPositiveInt:
		return PositiveInt(name, opts...), nil
	case babik.KindPositiveSmallInt:
		return PositiveSmallInt(name, opts...), nil
	case babik.KindFloat:
		return Float(name, opts...), nil
	case babik.KindDecimal:
		return Decimal(name, opts...), nil
	case babik.KindBool:
		return Bool(name, opts...), nil
	case babik.KindNullBool:
		return NullBool(name, opts...), nil
	case babik.KindCommaSeparatedInt:
		return CommaSeparatedInts(name, opts...), nil
	case babik.KindTime:
		return Time(name, opts...), nil
	default:
		return nil, fmt.Errorf("field: unknown kind %q for %q", kind, name)
	}
}

// MustNew is like New but panics on error.
func MustNew(kind babik.Kind, name string, opts ...Option) babik.FieldSpec {
	f, err := New(kind, name, opts...)
	if err != nil {
		panic(err)
	}
	return f
}
