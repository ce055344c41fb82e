package babik

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType      = "invalid_type"
	CodeRequired         = "required"
	CodeNull             = "null"
	CodeTooSmall         = "too_small"
	CodeTooBig           = "too_big"
	CodeTooLong          = "too_long"
	CodeInvalidChoice    = "invalid_choice"
	CodeInvalidFormat    = "invalid_format"
	CodeMaxDigits        = "max_digits"
	CodeMaxDecimalPlaces = "max_decimal_places"
	CodeMaxWholeDigits   = "max_whole_digits"
	CodeOverflow         = "overflow"
)

// Sentinel errors matched with errors.Is. The concrete error kinds below wrap
// exactly one of them.
var (
	ErrNotFound   = errors.New("babik: not found")
	ErrNotLoaded  = errors.New("babik: attrs not loaded")
	ErrValidation = errors.New("babik: validation failed")
	ErrEncode     = errors.New("babik: encode failed")
	ErrDecode     = errors.New("babik: decode failed")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer (for example: /price).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints, format names, etc.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"max": 10, "got": 42})
	// for i18n and observability.
	Params map[string]any
}

// Field returns the attribute name addressed by the issue path.
func (it Issue) Field() string {
	p := strings.TrimPrefix(it.Path, "/")
	return strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// ResolutionError reports a name that is neither an ordinary field nor an
// attribute of the record's active shape.
type ResolutionError struct {
	Name          string
	Discriminator any
}

func (e *ResolutionError) Error() string {
	if e.Discriminator == nil {
		return fmt.Sprintf("babik: field %q does not exist", e.Name)
	}
	return fmt.Sprintf("babik: field %q does not exist for shape %v", e.Name, e.Discriminator)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrNotFound }

// NotLoadedError reports access to a shape attribute before the attrs blob
// has been populated.
type NotLoadedError struct {
	AttrsField string
	Name       string
}

func (e *NotLoadedError) Error() string {
	return fmt.Sprintf("babik: underwritten field %q has not been loaded (reading %q)", e.AttrsField, e.Name)
}

func (e *NotLoadedError) Is(target error) bool { return target == ErrNotLoaded }

// ValidationError is a single-field coercion or validation failure.
type ValidationError struct {
	Field  string
	Issues Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("babik: invalid value for %q: %s", e.Field, strings.Join(e.Messages(), "; "))
}

// Messages returns the human-readable messages in issue order.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Issues))
	for _, it := range e.Issues {
		out = append(out, it.Message)
	}
	return out
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) Unwrap() error        { return e.Issues }

// AggregatedValidationError collects every per-field failure found by a
// single validation pass. Issues keep the order in which fields were checked.
type AggregatedValidationError struct {
	Issues Issues
}

func (e *AggregatedValidationError) Error() string {
	return "babik: validation failed: " + e.Issues.Error()
}

// Fields maps attribute names to their error messages.
func (e *AggregatedValidationError) Fields() map[string][]string {
	out := make(map[string][]string)
	for _, it := range e.Issues {
		name := it.Field()
		out[name] = append(out[name], it.Message)
	}
	return out
}

// FieldNames returns the failing attribute names in first-failure order.
func (e *AggregatedValidationError) FieldNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, it := range e.Issues {
		name := it.Field()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

func (e *AggregatedValidationError) Is(target error) bool { return target == ErrValidation }
func (e *AggregatedValidationError) Unwrap() error        { return e.Issues }

// EncodeError reports an attrs value that cannot be represented durably.
type EncodeError struct {
	Key   string
	Cause error
}

func (e *EncodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("babik: encode attrs: %v", e.Cause)
	}
	return fmt.Sprintf("babik: encode attrs key %q: %v", e.Key, e.Cause)
}

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }
func (e *EncodeError) Unwrap() error        { return e.Cause }

// DecodeError reports malformed durable attrs, or a stored value that its
// field spec cannot read back.
type DecodeError struct {
	Key   string
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("babik: decode attrs: %v", e.Cause)
	}
	return fmt.Sprintf("babik: decode attrs key %q: %v", e.Key, e.Cause)
}

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
func (e *DecodeError) Unwrap() error        { return e.Cause }
