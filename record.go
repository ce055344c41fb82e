package babik

import (
	"context"
	"fmt"
	"sort"
)

// Record is one stored row: an identity, ordinary field values (including
// the discriminator) and the attrs blob. All reads and writes go through
// Get/Set/Delete, which route shape attributes into the blob.
//
// A Record is not safe for concurrent mutation.
type Record struct {
	model     *Model
	desc      *Descriptor
	id        string
	persisted bool
	values    map[string]any
	attrs     *Attrs // nil until loaded
}

func (r *Record) ID() string { return r.id }
func (r *Record) Persisted() bool { return r.persisted }
func (r *Record) Model() *Model { return r.model }
func (r *Record) Descriptor() *Descriptor { return r.desc }
func (r *Record) Discriminator() any { return r.desc.discriminator() }
func (r *Record) Shape() (*Shape, bool) { return r.desc.ActiveShape() }
func (r *Record) AttrsLoaded() bool { return r.attrs != nil }

// Attrs returns a copy of the blob, or nil when it has not been loaded.
func (r *Record) Attrs() *Attrs { return r.attrs.Clone() }

// TypeKey returns the discriminator copy held in the blob.
func (r *Record) TypeKey() (any, bool) { return r.attrs.Get(r.model.opts.TypeKey) }

// LoadAttrs installs a codec-encoded blob, e.g. after loading a record whose
// attrs column was deferred.
func (r *Record) LoadAttrs(encoded string) error {
	a, err := r.model.decodeAttrs(encoded)
	if err != nil {
		return err
	}
	r.attrs = a
	return nil
}

func (r *Record) notLoaded(name string) error {
	return &NotLoadedError{AttrsField: r.model.opts.AttrsField, Name: name}
}

// Get reads name. Shape attributes are read from the blob (absent keys
// report the spec's empty value) and decoded by their spec.
func (r *Record) Get(name string) (any, error) {
	spec, origin, err := r.desc.Resolve(name)
	if err != nil {
		return nil, err
	}
	switch origin {
	case OriginShape:
		if r.attrs == nil {
			return nil, r.notLoaded(name)
		}
		raw, ok := r.attrs.Get(spec.StorageKey())
		if !ok {
			raw = spec.Empty()
		}
		v, err := spec.Decode(raw)
		if err != nil {
			return nil, &DecodeError{Key: spec.StorageKey(), Cause: err}
		}
		return v, nil
	case OriginPlaceholder:
		v, _ := r.attrs.Get(name)
		return v, nil
	}
	if name == r.model.opts.AttrsField {
		if r.attrs == nil {
			return nil, r.notLoaded(name)
		}
		return r.attrs.Clone(), nil
	}
	if v, ok := r.values[name]; ok {
		return v, nil
	}
	if spec != nil {
		return spec.Empty(), nil
	}
	return nil, nil
}

// Set writes name. Shape attributes are coerced by their spec and stored in
// the blob; a coercion failure returns a *ValidationError and leaves the
// record unchanged. Writing the discriminator also copies the value into the
// blob's type key, whether or not a shape is registered for it.
func (r *Record) Set(name string, value any) error {
	spec, origin, err := r.desc.Resolve(name)
	if err != nil {
		return err
	}
	switch origin {
	case OriginShape:
		if r.attrs == nil {
			return r.notLoaded(name)
		}
		v, err := spec.Coerce(value)
		if err != nil {
			return &ValidationError{Field: name, Issues: rebaseIssues(err, name)}
		}
		r.attrs.Set(spec.StorageKey(), v)
		return nil
	case OriginPlaceholder:
		if r.attrs == nil {
			r.attrs = NewAttrs()
		}
		r.attrs.Set(name, value)
		return nil
	}

	opts := r.model.opts
	if name == opts.AttrsField {
		return r.replaceAttrs(value)
	}
	isDisc := name == opts.DiscriminatorField
	if isDisc && r.attrs == nil && r.persisted {
		return r.notLoaded(opts.TypeKey)
	}
	v := value
	if spec != nil {
		if v, err = spec.Coerce(value); err != nil {
			return &ValidationError{Field: name, Issues: rebaseIssues(err, name)}
		}
	}
	if !isDisc {
		r.values[name] = v
		return nil
	}

	_, hadShape := r.desc.ActiveShape()
	if r.attrs == nil {
		r.attrs = NewAttrs()
	}
	r.values[name] = v
	r.attrs.Set(opts.TypeKey, v)
	if !hadShape && !r.persisted {
		r.relocateParked()
	}
	return nil
}

// relocateParked moves values parked under an attribute name to that
// attribute's storage key once a shape becomes active. A value already
// present under the storage key wins.
func (r *Record) relocateParked() {
	shape, ok := r.desc.ActiveShape()
	if !ok {
		return
	}
	for _, f := range shape.fields {
		key := f.StorageKey()
		if key == f.Name() {
			continue
		}
		v, parked := r.attrs.Get(f.Name())
		if !parked {
			continue
		}
		if _, taken := r.attrs.Get(key); !taken {
			r.attrs.Set(key, v)
		}
		r.attrs.Delete(f.Name())
	}
}

// Delete removes name: shape attributes from the blob, anything else from
// ordinary storage. Deleting the discriminator also drops the type key.
func (r *Record) Delete(name string) error {
	spec, origin, err := r.desc.Resolve(name)
	if err != nil {
		return err
	}
	switch origin {
	case OriginShape:
		if r.attrs == nil {
			return r.notLoaded(name)
		}
		r.attrs.Delete(spec.StorageKey())
		return nil
	case OriginPlaceholder:
		if r.attrs != nil {
			r.attrs.Delete(name)
		}
		return nil
	}

	opts := r.model.opts
	if name == opts.AttrsField {
		return r.replaceAttrs(nil)
	}
	delete(r.values, name)
	if name == opts.DiscriminatorField && r.attrs != nil {
		r.attrs.Delete(opts.TypeKey)
	}
	return nil
}

// replaceAttrs swaps the whole blob and re-seeds the type key from the
// current discriminator.
func (r *Record) replaceAttrs(value any) error {
	var next *Attrs
	switch t := value.(type) {
	case nil:
		next = NewAttrs()
	case *Attrs:
		next = t.Clone()
		if next == nil {
			next = NewAttrs()
		}
	case map[string]any:
		next = NewAttrs()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			next.Set(k, t[k])
		}
	case string:
		a, err := r.model.decodeAttrs(t)
		if err != nil {
			return err
		}
		next = a
	default:
		return &ValidationError{
			Field:  r.model.opts.AttrsField,
			Issues: rebaseIssues(NewIssues(CodeInvalidType, map[string]any{"got": fmt.Sprintf("%T", value)}), r.model.opts.AttrsField),
		}
	}
	if d, ok := r.values[r.model.opts.DiscriminatorField]; ok {
		next.Set(r.model.opts.TypeKey, d)
	}
	r.attrs = next
	return nil
}

// Values returns the projected view of the record: ordinary values plus the
// decoded attributes of the active shape, keyed by attribute name.
func (r *Record) Values() (map[string]any, error) {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	shape, ok := r.desc.ActiveShape()
	if !ok {
		return out, nil
	}
	for _, f := range shape.fields {
		v, err := r.Get(f.Name())
		if err != nil {
			return nil, err
		}
		out[f.Name()] = v
	}
	return out, nil
}

// Validate runs the save-time validation without committing.
func (r *Record) Validate(ctx context.Context) error { return r.model.Validate(ctx, r) }

// Save validates r and commits it to st.
func (r *Record) Save(ctx context.Context, st Store) (string, error) { return r.model.Save(ctx, r, st) }
