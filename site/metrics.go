package site

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus metrics for site builds. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	builds        *prometheus.CounterVec
	files         *prometheus.CounterVec
	buildDuration prometheus.Histogram
}

// NewMetrics registers the build collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csi_builds_total",
				Help: "Total number of site builds by result",
			},
			[]string{"result"},
		),
		files: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "csi_files_total",
				Help: "Total number of files written by action",
			},
			[]string{"action"},
		),
		buildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "csi_build_duration_seconds",
				Help:    "Duration of site builds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) recordBuild(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.builds.WithLabelValues(result).Inc()
	m.buildDuration.Observe(d.Seconds())
}

func (m *Metrics) recordFile(action string) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(action).Inc()
}
