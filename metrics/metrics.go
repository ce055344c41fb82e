// Package metrics exports save outcomes to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reoring/babik"
)

// Collector implements babik.Observer.
type Collector struct {
	SavesTotal   *prometheus.CounterVec
	SaveDuration *prometheus.HistogramVec
}

var _ babik.Observer = (*Collector)(nil)

// New creates a collector registered on the default registerer.
func New() *Collector { return NewWithRegistry(prometheus.DefaultRegisterer) }

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		SavesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "babik",
				Name:      "saves_total",
				Help:      "Total number of record save attempts",
			},
			[]string{"shape", "outcome"},
		),
		SaveDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "babik",
				Name:      "save_duration_seconds",
				Help:      "Record save duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"shape"},
		),
	}
}

// ObserveSave records one save attempt. Records without an active shape are
// labeled "none".
func (c *Collector) ObserveSave(shape string, outcome babik.Outcome, elapsed time.Duration) {
	if shape == "" {
		shape = "none"
	}
	c.SavesTotal.WithLabelValues(shape, string(outcome)).Inc()
	c.SaveDuration.WithLabelValues(shape).Observe(elapsed.Seconds())
}
