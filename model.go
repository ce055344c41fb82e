package babik

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Model is a base record kind: the resolved Options plus the factory for its
// records. A Model is immutable and may be shared between goroutines;
// records it produces may not.
type Model struct {
	opts     Options
	ordinary []FieldSpec
	byName   map[string]FieldSpec
	logger   zerolog.Logger
}

// NewModel validates opts and builds a Model. Shape attribute names may not
// collide with ordinary fields, the discriminator field or the attrs field,
// and no storage key may equal the type key.
func NewModel(opts Options) (*Model, error) {
	opts = opts.withDefaults()
	if opts.Codec == nil {
		return nil, errors.New("babik: options: Codec is required")
	}
	if opts.DiscriminatorField == opts.AttrsField {
		return nil, fmt.Errorf("babik: options: discriminator and attrs field are both %q", opts.AttrsField)
	}
	m := &Model{
		opts:     opts,
		ordinary: make([]FieldSpec, 0, len(opts.Fields)),
		byName:   make(map[string]FieldSpec, len(opts.Fields)),
		logger:   *opts.Logger,
	}
	for _, f := range opts.Fields {
		if f == nil {
			return nil, errors.New("babik: options: nil ordinary field spec")
		}
		if f.Name() == opts.AttrsField {
			return nil, fmt.Errorf("babik: options: ordinary field %q shadows the attrs field", f.Name())
		}
		if _, dup := m.byName[f.Name()]; dup {
			return nil, fmt.Errorf("babik: options: duplicate ordinary field %q", f.Name())
		}
		m.byName[f.Name()] = f
		m.ordinary = append(m.ordinary, f)
	}
	for _, d := range opts.Registry.Discriminators() {
		s, _ := opts.Registry.Resolve(d)
		for _, f := range s.fields {
			if f.Name() == opts.DiscriminatorField || f.Name() == opts.AttrsField {
				return nil, fmt.Errorf("babik: shape %q: field %q collides with a reserved field", d, f.Name())
			}
			if _, ok := m.byName[f.Name()]; ok {
				return nil, fmt.Errorf("babik: shape %q: field %q collides with an ordinary field", d, f.Name())
			}
			if f.StorageKey() == opts.TypeKey {
				return nil, fmt.Errorf("babik: shape %q: field %q is stored under the type key %q", d, f.Name(), opts.TypeKey)
			}
		}
	}
	return m, nil
}

// MustNewModel is like NewModel but panics on error.
func MustNewModel(opts Options) *Model {
	m, err := NewModel(opts)
	if err != nil {
		panic(err)
	}
	return m
}

// Options returns the resolved options (defaults applied).
func (m *Model) Options() Options { return m.opts }

func (m *Model) Registry() *Registry { return m.opts.Registry }

// Field returns the ordinary field spec declared under name.
func (m *Model) Field(name string) (FieldSpec, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Fields returns ordinary field specs in declaration order.
func (m *Model) Fields() []FieldSpec { return append([]FieldSpec(nil), m.ordinary...) }

func (m *Model) newRecord() *Record {
	r := &Record{model: m, values: map[string]any{}}
	r.desc = &Descriptor{model: m, rec: r}
	return r
}

// New returns an unsaved record with an empty attrs blob and no
// discriminator.
func (m *Model) New() *Record {
	r := m.newRecord()
	r.attrs = NewAttrs()
	return r
}

// NewFrom returns an unsaved record populated through the accessor. The
// discriminator is assigned first, then the attrs field, then the remaining
// names in sorted order, so shape attributes resolve against the final
// shape. Field-level failures are aggregated.
func (m *Model) NewFrom(values map[string]any) (*Record, error) {
	r := m.New()
	var names, rest []string
	for _, k := range []string{m.opts.DiscriminatorField, m.opts.AttrsField} {
		if _, ok := values[k]; ok {
			names = append(names, k)
		}
	}
	for k := range values {
		if k != m.opts.DiscriminatorField && k != m.opts.AttrsField {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	var iss Issues
	for _, k := range names {
		if err := r.Set(k, values[k]); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				iss = AppendIssues(iss, ve.Issues...)
				continue
			}
			return nil, err
		}
	}
	if len(iss) > 0 {
		return nil, &AggregatedValidationError{Issues: iss}
	}
	return r, nil
}

// Materialize turns a storage-level record into a live Record with its own
// descriptor. Ordinary values are decoded through their specs. A record with
// an ID counts as persisted.
func (m *Model) Materialize(raw RawRecord) (*Record, error) {
	r := m.newRecord()
	r.id = raw.ID
	r.persisted = raw.ID != ""
	for k, v := range raw.Fields {
		if f, ok := m.byName[k]; ok && v != nil {
			dv, err := f.Decode(v)
			if err != nil {
				return nil, &DecodeError{Key: k, Cause: err}
			}
			v = dv
		}
		r.values[k] = v
	}
	if !raw.AttrsDeferred {
		if err := r.LoadAttrs(raw.Attrs); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Load fetches id from st and materializes it.
func (m *Model) Load(ctx context.Context, st Store, id string) (*Record, error) {
	if st == nil {
		return nil, errors.New("babik: load: nil store")
	}
	raw, err := st.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("babik: load record %q: %w", id, err)
	}
	if raw.ID == "" {
		raw.ID = id
	}
	r, err := m.Materialize(raw)
	if err != nil {
		return nil, err
	}
	m.logger.Debug().Str("id", id).Bool("attrs_deferred", raw.AttrsDeferred).Msg("record loaded")
	return r, nil
}

func (m *Model) decodeAttrs(encoded string) (*Attrs, error) {
	a, err := m.opts.Codec.Decode(encoded)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, err
		}
		return nil, &DecodeError{Cause: err}
	}
	if a == nil {
		a = NewAttrs()
	}
	return a, nil
}
