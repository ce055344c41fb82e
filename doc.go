// Package babik stores records whose extra attributes depend on a
// discriminator value, without a schema migration per variant.
//
// A Model declares the ordinary fields of a record kind plus:
//
//   - a discriminator field whose value selects a Shape from a Registry,
//   - an attrs field holding a schemaless, insertion-ordered blob (Attrs),
//   - a reserved type key inside the blob mirroring the discriminator.
//
// Reads and writes go through Record.Get/Set/Delete. A name that belongs to
// the active shape is routed to the blob under its storage key; ordinary
// names go to the record itself. Resolution happens on every access through
// the record's own Descriptor, so changing the discriminator changes the set
// of valid attributes immediately.
//
// Save validates all ordinary fields and all attributes of the active shape
// and reports every failure at once as an *AggregatedValidationError. Use
// errors.Is with ErrNotFound, ErrNotLoaded, ErrValidation, ErrEncode and
// ErrDecode to classify failures.
//
// Typical usage:
//
//	reg := babik.NewRegistry().
//		Define("book", field.MustNew(babik.KindInt, "pages")).
//		MustBuild()
//	m := babik.MustNewModel(babik.Options{Registry: reg, Codec: codec.JSON()})
//
//	rec := m.New()
//	_ = rec.Set("type", "book")
//	_ = rec.Set("pages", "320")
//	id, err := rec.Save(ctx, memory.New())
package babik
