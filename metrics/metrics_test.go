package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/babik"
	"github.com/reoring/babik/codec"
	"github.com/reoring/babik/field"
	"github.com/reoring/babik/metrics"
	"github.com/reoring/babik/store/memory"
)

func counterValue(t *testing.T, reg *prometheus.Registry, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "babik_saves_total" {
			continue
		}
	next:
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestObserveSave(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)

	m.ObserveSave("book", babik.OutcomeCommitted, 3*time.Millisecond)
	m.ObserveSave("book", babik.OutcomeCommitted, 4*time.Millisecond)
	m.ObserveSave("", babik.OutcomeInvalid, time.Millisecond)

	if got := counterValue(t, reg, map[string]string{"shape": "book", "outcome": "committed"}); got != 2 {
		t.Fatalf("book committed = %v, want 2", got)
	}
	if got := counterValue(t, reg, map[string]string{"shape": "none", "outcome": "invalid"}); got != 1 {
		t.Fatalf("none invalid = %v, want 1", got)
	}
}

func TestCollectorAsModelObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := metrics.NewWithRegistry(reg)
	shapes := babik.NewRegistry().Define("book", field.Int("pages")).MustBuild()
	model := babik.MustNewModel(babik.Options{Registry: shapes, Codec: codec.JSON(), Observer: obs})

	ctx := context.Background()
	st := memory.New()
	rec := model.New()
	_ = rec.Set("type", "book")
	if _, err := rec.Save(ctx, st); err == nil {
		t.Fatal("expected validation failure for missing pages")
	}
	_ = rec.Set("pages", 10)
	if _, err := rec.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := counterValue(t, reg, map[string]string{"shape": "book", "outcome": "invalid"}); got != 1 {
		t.Fatalf("invalid = %v, want 1", got)
	}
	if got := counterValue(t, reg, map[string]string{"shape": "book", "outcome": "committed"}); got != 1 {
		t.Fatalf("committed = %v, want 1", got)
	}
}
