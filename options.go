package babik

import "github.com/rs/zerolog"

// Default names used when Options leaves them empty.
const (
	DefaultDiscriminatorField = "type"
	DefaultAttrsField         = "attrs"
	DefaultTypeKey            = "_type"
)

// Options declare a base record kind: which ordinary field selects the shape,
// which field holds the attrs blob, the reserved type key inside the blob and
// the registry of shapes.
type Options struct {
	DiscriminatorField string
	AttrsField         string
	TypeKey            string
	Registry           *Registry

	// Fields are the record's ordinary (non-virtual) fields. A spec named
	// like DiscriminatorField coerces discriminator writes.
	Fields []FieldSpec

	// Codec encodes the attrs blob for the Store. Required.
	Codec AttrsCodec

	// Logger receives save/load diagnostics. nil disables logging.
	Logger *zerolog.Logger
	// Observer is notified once per save attempt. nil disables it.
	Observer Observer
}

func (o Options) withDefaults() Options {
	if o.DiscriminatorField == "" {
		o.DiscriminatorField = DefaultDiscriminatorField
	}
	if o.AttrsField == "" {
		o.AttrsField = DefaultAttrsField
	}
	if o.TypeKey == "" {
		o.TypeKey = DefaultTypeKey
	}
	if o.Registry == nil {
		o.Registry = NewRegistry().MustBuild()
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}
