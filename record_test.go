package babik_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/reoring/babik"
	"github.com/reoring/babik/field"
)

func TestUnknownNameOnUnsavedShapelessRecordIsPlaceholder(t *testing.T) {
	m := catalogModel(t)
	rec := m.New()

	// No discriminator yet: the name may become a shape attribute later.
	mustSet(t, rec, "isbn", "9780441013593")
	if got := mustGet(t, rec, "isbn"); got != "9780441013593" {
		t.Fatalf("placeholder read = %v", got)
	}
	if v, err := rec.Get("never_set"); err != nil || v != nil {
		t.Fatalf("unset placeholder = %v, %v", v, err)
	}
	_, origin, err := rec.Descriptor().Resolve("isbn")
	if err != nil || origin != babik.OriginPlaceholder {
		t.Fatalf("origin = %v, %v", origin, err)
	}

	// Choosing the shape turns the parked value into the real attribute.
	mustSet(t, rec, "type", "book")
	_, origin, _ = rec.Descriptor().Resolve("isbn")
	if origin != babik.OriginShape {
		t.Fatalf("origin after shape = %v", origin)
	}
	if got := mustGet(t, rec, "isbn"); got != "9780441013593" {
		t.Fatalf("shape read = %v", got)
	}
}

func TestUnknownNameFailsWithResolutionError(t *testing.T) {
	m := catalogModel(t)

	cases := map[string]*babik.Record{}
	active := m.New()
	mustSet(t, active, "type", "book")
	cases["unsaved with active shape"] = active

	persisted, err := m.Materialize(babik.RawRecord{ID: "1", Fields: map[string]any{"type": "book"}, Attrs: `{"_type":"book"}`})
	if err != nil {
		t.Fatal(err)
	}
	cases["persisted with shape"] = persisted

	unknown, err := m.Materialize(babik.RawRecord{ID: "2", Fields: map[string]any{"type": "mystery"}, Attrs: `{"_type":"mystery"}`})
	if err != nil {
		t.Fatal(err)
	}
	cases["persisted without shape"] = unknown

	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := rec.Get("bogus")
			if !errors.Is(err, babik.ErrNotFound) {
				t.Fatalf("get: expected ErrNotFound, got %v", err)
			}
			var re *babik.ResolutionError
			if !errors.As(err, &re) || re.Name != "bogus" {
				t.Fatalf("expected ResolutionError for bogus, got %#v", err)
			}
			if err := rec.Set("bogus", 1); !errors.Is(err, babik.ErrNotFound) {
				t.Fatalf("set: expected ErrNotFound, got %v", err)
			}
			if err := rec.Delete("bogus"); !errors.Is(err, babik.ErrNotFound) {
				t.Fatalf("delete: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestShapeAttributesLiveInTheBlob(t *testing.T) {
	m := catalogModel(t)
	rec := m.New()
	mustSet(t, rec, "type", "book")
	mustSet(t, rec, "title", "Dune")
	mustSet(t, rec, "price", "12.50")

	attrs := rec.Attrs()
	price, ok := attrs.Get("price")
	if !ok || !babik.ValuesEqual(price, decimal.RequireFromString("12.50")) {
		t.Fatalf("price not in blob: %v", attrs.Keys())
	}
	if _, ok := attrs.Get("title"); ok {
		t.Fatal("ordinary field leaked into the blob")
	}
	if got := mustGet(t, rec, "title"); got != "Dune" {
		t.Fatalf("title = %v", got)
	}

	// Absent attributes read as the spec's empty value.
	if got := mustGet(t, rec, "isbn"); got != "" {
		t.Fatalf("absent isbn = %#v", got)
	}

	if err := rec.Delete("price"); err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.Attrs().Get("price"); ok {
		t.Fatal("price still in blob after delete")
	}
}

func TestDiscriminatorChangeIsSeenImmediately(t *testing.T) {
	m := catalogModel(t)
	rec := m.New()
	mustSet(t, rec, "type", "book")
	mustSet(t, rec, "isbn", "123")

	mustSet(t, rec, "type", "pair")
	if _, err := rec.Get("isbn"); !errors.Is(err, babik.ErrNotFound) {
		t.Fatalf("isbn after switching to pair: %v", err)
	}
	mustSet(t, rec, "a", "7")
	if got := mustGet(t, rec, "a"); got != int64(7) {
		t.Fatalf("a = %#v", got)
	}
	s, ok := rec.Shape()
	if !ok || s.Discriminator() != "pair" {
		t.Fatalf("active shape = %v, %v", s, ok)
	}

	// Back to book: the old blob entry is still there.
	mustSet(t, rec, "type", "book")
	if got := mustGet(t, rec, "isbn"); got != "123" {
		t.Fatalf("isbn after switching back = %v", got)
	}
}

func TestTypeKeyFollowsDiscriminator(t *testing.T) {
	m := catalogModel(t)
	rec := m.New()

	// Unregistered values are mirrored too.
	mustSet(t, rec, "type", "mystery")
	if v, ok := rec.TypeKey(); !ok || v != "mystery" {
		t.Fatalf("type key = %v, %v", v, ok)
	}
	if _, ok := rec.Shape(); ok {
		t.Fatal("unexpected active shape")
	}

	mustSet(t, rec, "type", "book")
	if v, _ := rec.TypeKey(); v != "book" {
		t.Fatalf("type key = %v", v)
	}

	// Replacing the whole blob keeps the type key in sync.
	mustSet(t, rec, "attrs", map[string]any{"isbn": "1", "_type": "stale"})
	if v, _ := rec.TypeKey(); v != "book" {
		t.Fatalf("type key after blob replace = %v", v)
	}

	if err := rec.Delete("type"); err != nil {
		t.Fatal(err)
	}
	if _, ok := rec.TypeKey(); ok {
		t.Fatal("type key survived discriminator delete")
	}
}

func TestRecordsDoNotShareResolution(t *testing.T) {
	m := catalogModel(t)
	book, pair := m.New(), m.New()
	mustSet(t, book, "type", "book")
	mustSet(t, pair, "type", "pair")

	if book.Descriptor() == pair.Descriptor() {
		t.Fatal("records share a descriptor")
	}
	mustSet(t, book, "isbn", "1")
	if _, err := pair.Get("isbn"); !errors.Is(err, babik.ErrNotFound) {
		t.Fatalf("pair sees book attribute: %v", err)
	}
	if _, err := book.Get("a"); !errors.Is(err, babik.ErrNotFound) {
		t.Fatalf("book sees pair attribute: %v", err)
	}
}

func TestSetCoercionFailureLeavesRecordUnchanged(t *testing.T) {
	m := catalogModel(t)
	rec := m.New()
	mustSet(t, rec, "type", "pair")
	mustSet(t, rec, "a", 1)

	err := rec.Set("a", "not a number")
	var ve *babik.ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, babik.ErrValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "a" || len(ve.Issues) == 0 || ve.Issues[0].Path != "/a" || ve.Issues[0].Code != babik.CodeInvalidType {
		t.Fatalf("unexpected issues: %+v", ve.Issues)
	}
	if got := mustGet(t, rec, "a"); got != int64(1) {
		t.Fatalf("a changed to %#v", got)
	}
}

func TestNotLoadedBlob(t *testing.T) {
	m := catalogModel(t)
	rec, err := m.Materialize(babik.RawRecord{ID: "1", Fields: map[string]any{"type": "book"}, AttrsDeferred: true})
	if err != nil {
		t.Fatal(err)
	}
	if rec.AttrsLoaded() {
		t.Fatal("blob should not be loaded")
	}
	if _, err := rec.Get("isbn"); !errors.Is(err, babik.ErrNotLoaded) {
		t.Fatalf("get: %v", err)
	}
	if err := rec.Set("isbn", "1"); !errors.Is(err, babik.ErrNotLoaded) {
		t.Fatalf("set: %v", err)
	}
	if err := rec.Set("type", "pair"); !errors.Is(err, babik.ErrNotLoaded) {
		t.Fatalf("set discriminator: %v", err)
	}
	if _, err := rec.Get("attrs"); !errors.Is(err, babik.ErrNotLoaded) {
		t.Fatalf("get attrs: %v", err)
	}
	// Ordinary fields stay readable.
	if got := mustGet(t, rec, "type"); got != "book" {
		t.Fatalf("type = %v", got)
	}

	if err := rec.LoadAttrs(`{"isbn":"42","_type":"book"}`); err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, rec, "isbn"); got != "42" {
		t.Fatalf("isbn = %v", got)
	}
}

func TestStoredValueThatCannotBeDecoded(t *testing.T) {
	m := catalogModel(t)
	rec, err := m.Materialize(babik.RawRecord{ID: "1", Fields: map[string]any{"type": "pair"}, Attrs: `{"a":"seven","_type":"pair"}`})
	if err != nil {
		t.Fatal(err)
	}
	_, err = rec.Get("a")
	var de *babik.DecodeError
	if !errors.As(err, &de) || de.Key != "a" || !errors.Is(err, babik.ErrDecode) {
		t.Fatalf("expected DecodeError for a, got %v", err)
	}
}

func TestMaterializeRejectsMalformedBlob(t *testing.T) {
	m := catalogModel(t)
	if _, err := m.Materialize(babik.RawRecord{ID: "1", Attrs: `{"a":`}); !errors.Is(err, babik.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestNewFrom(t *testing.T) {
	m := catalogModel(t)
	rec, err := m.NewFrom(map[string]any{"b": 2, "a": "1", "type": "pair", "title": "x"})
	if err != nil {
		t.Fatalf("new from: %v", err)
	}
	if got := mustGet(t, rec, "a"); got != int64(1) {
		t.Fatalf("a = %#v", got)
	}
	vals, err := rec.Values()
	if err != nil {
		t.Fatal(err)
	}
	if vals["b"] != int64(2) || vals["title"] != "x" || vals["type"] != "pair" {
		t.Fatalf("values = %#v", vals)
	}

	_, err = m.NewFrom(map[string]any{"type": "pair", "a": "x", "b": "y"})
	var agg *babik.AggregatedValidationError
	if !errors.As(err, &agg) {
		t.Fatalf("expected aggregated error, got %v", err)
	}
	if names := agg.FieldNames(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("field names = %v", names)
	}
}

func TestSetAttrsField(t *testing.T) {
	m := catalogModel(t)
	rec := m.New()
	mustSet(t, rec, "type", "book")
	mustSet(t, rec, "attrs", `{"isbn":"9"}`)
	if got := mustGet(t, rec, "isbn"); got != "9" {
		t.Fatalf("isbn = %v", got)
	}
	if err := rec.Set("attrs", `{"isbn":`); !errors.Is(err, babik.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if err := rec.Set("attrs", 42); !errors.Is(err, babik.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := rec.Delete("attrs"); err != nil {
		t.Fatal(err)
	}
	a := rec.Attrs()
	if a.Len() != 1 {
		t.Fatalf("expected only the type key, got %v", a.Keys())
	}
}

func TestParkedValueMovesToStorageKey(t *testing.T) {
	m := catalogModel(t, func(o *babik.Options) {
		o.Registry = babik.NewRegistry().
			Define("book", field.String("isbn", field.StoredAs("i")), field.String("note", field.Blank())).
			MustBuild()
	})
	rec := m.New()
	mustSet(t, rec, "isbn", "123")
	mustSet(t, rec, "note", "kept")
	mustSet(t, rec, "type", "book")

	if got := mustGet(t, rec, "isbn"); got != "123" {
		t.Fatalf("isbn = %#v", got)
	}
	if got := mustGet(t, rec, "note"); got != "kept" {
		t.Fatalf("note = %#v", got)
	}
	a := rec.Attrs()
	if _, ok := a.Get("isbn"); ok {
		t.Fatal("parked key left behind under the attribute name")
	}
	if v, _ := a.Get("i"); v != "123" {
		t.Fatalf("storage key i = %#v", v)
	}
}

func TestTypeKeyIsNotAPlaceholder(t *testing.T) {
	m := catalogModel(t)
	rec := m.New()
	mustSet(t, rec, "type", "zzz")

	err := rec.Set("_type", "book")
	var re *babik.ResolutionError
	if !errors.As(err, &re) || re.Name != "_type" {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if _, err := rec.Get("_type"); !errors.Is(err, babik.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if v, _ := rec.TypeKey(); v != "zzz" {
		t.Fatalf("type key = %v, want the discriminator", v)
	}
}

func TestFailedDiscriminatorWriteLeavesBlobUnloaded(t *testing.T) {
	m := catalogModel(t, func(o *babik.Options) {
		o.Fields = append(o.Fields, field.Int("type"))
	})
	rec, err := m.Materialize(babik.RawRecord{AttrsDeferred: true})
	if err != nil {
		t.Fatal(err)
	}
	var ve *babik.ValidationError
	if err := rec.Set("type", "not a number"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if rec.AttrsLoaded() {
		t.Fatal("failed write created a blob")
	}
	if rec.Discriminator() != nil {
		t.Fatalf("discriminator = %v", rec.Discriminator())
	}
}
