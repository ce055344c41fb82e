package babik_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reoring/babik"
	"github.com/reoring/babik/codec"
	"github.com/reoring/babik/field"
)

// catalogModel is shared by the black-box tests:
//
//	book: isbn (string, max 13), price (decimal 6,2)
//	pair: a (int), b (int)
//	flag: on (bool), note (string, blank)
func catalogModel(t testing.TB, mutate ...func(*babik.Options)) *babik.Model {
	t.Helper()
	reg := babik.NewRegistry().
		Define("book",
			field.String("isbn", field.MaxLength(13)),
			field.Decimal("price", field.MaxDigits(6), field.DecimalPlaces(2)),
		).
		Define("pair", field.Int("a"), field.Int("b")).
		Define("flag", field.Bool("on"), field.String("note", field.Blank())).
		MustBuild()
	opts := babik.Options{
		Registry: reg,
		Codec:    codec.JSON(),
		Fields:   []babik.FieldSpec{field.String("title", field.Blank(), field.MaxLength(20))},
	}
	for _, f := range mutate {
		f(&opts)
	}
	m, err := babik.NewModel(opts)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	return m
}

func mustSet(t testing.TB, r *babik.Record, name string, v any) {
	t.Helper()
	if err := r.Set(name, v); err != nil {
		t.Fatalf("set %s: %v", name, err)
	}
}

func mustGet(t testing.TB, r *babik.Record, name string) any {
	t.Helper()
	v, err := r.Get(name)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return v
}

var errBoom = errors.New("boom")

// failingStore rejects every commit.
type failingStore struct{ calls int }

func (s *failingStore) Commit(context.Context, babik.RawRecord) (string, error) {
	s.calls++
	return "", errBoom
}

func (s *failingStore) Load(_ context.Context, id string) (babik.RawRecord, error) {
	return babik.RawRecord{}, babik.ErrNotFound
}

type saveEvent struct {
	shape   string
	outcome babik.Outcome
}

type recordingObserver struct{ events []saveEvent }

func (o *recordingObserver) ObserveSave(shape string, outcome babik.Outcome, _ time.Duration) {
	o.events = append(o.events, saveEvent{shape: shape, outcome: outcome})
}
