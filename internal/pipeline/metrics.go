package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	normalizationsTotal *prometheus.CounterVec
	warningsTotal       *prometheus.CounterVec
	duration            *prometheus.HistogramVec
	scaledTotal         prometheus.Counter
	pixelsOutTotal      prometheus.Counter
}

// NewMetrics registers the stage collectors on reg. A nil reg leaves them
// unregistered, which keeps tests free of global state.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		normalizationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upright_normalizations_total",
			Help: "Total normalization attempts by stored orientation and outcome.",
		}, []string{"orientation", "status"}),
		warningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upright_normalization_warnings_total",
			Help: "Total non-fatal normalization warnings by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upright_normalization_duration_seconds",
			Help:    "Decode, normalize and encode duration per request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"status"}),
		scaledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upright_normalizations_scaled_total",
			Help: "Total normalizations that scaled the image down.",
		}),
		pixelsOutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upright_output_pixels_total",
			Help: "Total pixels written to upright outputs.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.normalizationsTotal,
			m.warningsTotal,
			m.duration,
			m.scaledTotal,
			m.pixelsOutTotal,
		)
	}
	return m
}
