package babik

// Descriptor is the per-record view of the model: which field holds the
// discriminator, which holds the attrs blob, and a live pointer back to the
// owning record. Every record gets its own Descriptor; nothing resolved
// through it is cached, so a discriminator write is visible to the very next
// lookup.
type Descriptor struct {
	model *Model
	rec   *Record
}

func (d *Descriptor) DiscriminatorField() string { return d.model.opts.DiscriminatorField }
func (d *Descriptor) AttrsField() string { return d.model.opts.AttrsField }
func (d *Descriptor) TypeKey() string { return d.model.opts.TypeKey }
func (d *Descriptor) Registry() *Registry { return d.model.opts.Registry }

// discriminator reads the raw value straight from ordinary storage so that
// resolution never recurses into the accessor.
func (d *Descriptor) discriminator() any {
	return d.rec.values[d.model.opts.DiscriminatorField]
}

// ActiveShape resolves the shape selected by the record's current
// discriminator.
func (d *Descriptor) ActiveShape() (*Shape, bool) {
	return d.model.opts.Registry.Resolve(d.discriminator())
}

// Resolve decides where name lives right now.
//
// The discriminator and attrs fields are always ordinary. Otherwise an
// attribute of the active shape wins, then declared ordinary fields. An
// unknown name on an unsaved record without an active shape resolves to a
// neutral placeholder, since it may become valid once a shape is chosen;
// in every other case, including the reserved type key, it fails with a
// *ResolutionError.
func (d *Descriptor) Resolve(name string) (FieldSpec, Origin, error) {
	m := d.model
	if name == m.opts.DiscriminatorField || name == m.opts.AttrsField {
		return m.byName[name], OriginOrdinary, nil
	}
	disc := d.discriminator()
	shape, active := m.opts.Registry.Resolve(disc)
	if active {
		if f, ok := shape.Field(name); ok {
			return f, OriginShape, nil
		}
	}
	if f, ok := m.byName[name]; ok {
		return f, OriginOrdinary, nil
	}
	if !active && !d.rec.persisted && name != m.opts.TypeKey {
		return placeholderSpec{name: name}, OriginPlaceholder, nil
	}
	return nil, OriginOrdinary, &ResolutionError{Name: name, Discriminator: disc}
}
