package field

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/reoring/babik"
	js "github.com/reoring/babik/jsonschema"
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// StringSpec is a text attribute. The variants differ in their default
// maximum length and in the format check applied to non-blank values.
type StringSpec struct {
	base
	format  string
	pattern string
	check   func(s string) bool
	ip      bool
}

func newString(kind babik.Kind, name string, defMax int, opts []Option) *StringSpec {
	s := &StringSpec{base: newBase(kind, name, append([]Option{MaxLength(defMax)}, opts...))}
	s.emptyString = true
	return s
}

// String is a plain character attribute (unbounded unless MaxLength is set).
func String(name string, opts ...Option) *StringSpec {
	return newString(babik.KindString, name, 0, opts)
}

// Text is a long-form string attribute.
func Text(name string, opts ...Option) *StringSpec {
	return newString(babik.KindText, name, 0, opts)
}

// Slug accepts letters, digits, hyphens and underscores.
func Slug(name string, opts ...Option) *StringSpec {
	s := newString(babik.KindSlug, name, 50, opts)
	s.format, s.pattern = "slug", slugRe.String()
	s.check = slugRe.MatchString
	return s
}

// Email accepts a bare address such as "user@example.com".
func Email(name string, opts ...Option) *StringSpec {
	s := newString(babik.KindEmail, name, 254, opts)
	s.format = "email"
	s.check = func(v string) bool {
		a, err := mail.ParseAddress(v)
		if err != nil || a.Name != "" || a.Address != v {
			return false
		}
		at := strings.LastIndexByte(v, '@')
		return at > 0 && at < len(v)-1
	}
	return s
}

// URL accepts absolute http, https, ftp and ftps URLs.
func URL(name string, opts ...Option) *StringSpec {
	s := newString(babik.KindURL, name, 200, opts)
	s.format = "uri"
	s.check = func(v string) bool {
		u, err := url.Parse(v)
		if err != nil || u.Host == "" {
			return false
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "ftp", "ftps":
			return true
		}
		return false
	}
	return s
}

// IP accepts IPv4 and IPv6 addresses and stores their canonical form.
func IP(name string, opts ...Option) *StringSpec {
	s := newString(babik.KindIP, name, 39, opts)
	s.format = "ip"
	s.ip = true
	s.check = func(v string) bool {
		_, err := netip.ParseAddr(v)
		return err == nil
	}
	return s
}

// FilePath is a path string.
func FilePath(name string, opts ...Option) *StringSpec {
	return newString(babik.KindFilePath, name, 100, opts)
}

func (s *StringSpec) Coerce(raw any) (any, error) {
	if s.IsBlank(raw) {
		return s.blankValue(raw), nil
	}
	var out string
	switch t := raw.(type) {
	case string:
		out = t
	case []byte:
		out = string(t)
	case json.Number:
		out = t.String()
	case fmt.Stringer:
		out = t.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		out = fmt.Sprint(t)
	default:
		return nil, invalidType("string", raw)
	}
	if s.ip {
		out = strings.TrimSpace(out)
		if a, err := netip.ParseAddr(out); err == nil {
			out = a.String()
		}
	}
	return out, nil
}

func (s *StringSpec) Decode(raw any) (any, error) { return s.Coerce(raw) }

func (s *StringSpec) Validate(ctx context.Context, v any) error { return validate(ctx, &s.base, s, v) }

func (s *StringSpec) validateValue(_ context.Context, v any) error {
	str, ok := v.(string)
	if !ok {
		return invalidType("string", v)
	}
	var iss babik.Issues
	if n := utf8.RuneCountInString(str); s.maxLength > 0 && n > s.maxLength {
		iss = append(iss, babik.IssueAt("/", babik.CodeTooLong, map[string]any{"max": s.maxLength, "got": n}))
	}
	if s.check != nil && !s.check(str) {
		it := babik.IssueAt("/", babik.CodeInvalidFormat, map[string]any{"format": s.formatName()})
		it.Hint = s.format
		iss = append(iss, it)
	}
	if len(iss) > 0 {
		return iss
	}
	return nil
}

func (s *StringSpec) formatName() string {
	switch s.kind {
	case babik.KindEmail:
		return "email address"
	case babik.KindURL:
		return "URL"
	case babik.KindIP:
		return "IPv4 or IPv6 address"
	}
	return string(s.kind)
}

func (s *StringSpec) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "string", Format: s.format, Pattern: s.pattern}
	if s.maxLength > 0 {
		out.MaxLength = js.Int(s.maxLength)
	}
	return s.decorate(out), nil
}

var csIntsRe = regexp.MustCompile(`^\d+(?:,\d+)*$`)

// CommaSeparatedIntsSpec stores a list of non-negative integers as a
// comma-separated string such as "1,2,3".
type CommaSeparatedIntsSpec struct{ StringSpec }

func CommaSeparatedInts(name string, opts ...Option) *CommaSeparatedIntsSpec {
	s := &CommaSeparatedIntsSpec{StringSpec: *newString(babik.KindCommaSeparatedInt, name, 0, opts)}
	s.format, s.pattern = "comma-separated integers", csIntsRe.String()
	s.check = csIntsRe.MatchString
	return s
}

// Coerce additionally accepts integer slices.
func (s *CommaSeparatedIntsSpec) Coerce(raw any) (any, error) {
	var parts []string
	switch t := raw.(type) {
	case []int:
		for _, n := range t {
			parts = append(parts, fmt.Sprint(n))
		}
	case []int64:
		for _, n := range t {
			parts = append(parts, fmt.Sprint(n))
		}
	case []any:
		for _, n := range t {
			switch n.(type) {
			case int, int64, int32, json.Number, string:
				parts = append(parts, fmt.Sprint(n))
			default:
				return nil, invalidType("integer list", raw)
			}
		}
	default:
		return s.StringSpec.Coerce(raw)
	}
	if len(parts) == 0 {
		return s.blankValue(raw), nil
	}
	return strings.Join(parts, ","), nil
}

func (s *CommaSeparatedIntsSpec) Decode(raw any) (any, error) { return s.Coerce(raw) }

func (s *CommaSeparatedIntsSpec) Validate(ctx context.Context, v any) error {
	return validate(ctx, &s.base, &s.StringSpec, v)
}
