// Package metrics exposes ingestion counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"FeedScanner/internal/domain"
	"FeedScanner/internal/infrastructure/parser"
	"FeedScanner/internal/ports"
)

const (
	// Namespace prefixes every metric name.
	Namespace = "feedscanner"
	// Subsystem groups ingestion metrics.
	Subsystem = "ingestion"
)

// Recorder holds the ingestion metrics. A nil *Recorder is a valid no-op.
type Recorder struct {
	CyclesTotal      prometheus.Counter
	CycleDuration    prometheus.Histogram
	LastCycleSuccess prometheus.Gauge
	ItemsTotal       *prometheus.CounterVec
	SourceErrors     *prometheus.CounterVec
	NotifyFailures   prometheus.Counter
}

var _ ports.CycleObserver = (*Recorder)(nil)

// NewRecorder creates and registers all ingestion metrics.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		CyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "cycles_total",
			Help:      "Total number of completed ingestion cycles",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of ingestion cycles in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		LastCycleSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last ingestion cycle finished",
		}),
		ItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "items_total",
			Help:      "Feed items processed, by source and outcome",
		}, []string{"source", "outcome"}),
		SourceErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "source_errors_total",
			Help:      "Sources that failed to fetch, by source and error type",
		}, []string{"source", "type"}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "notify_failures_total",
			Help:      "Broadcasts of new content that failed",
		}),
	}
}

// ObserveItem counts one processed item.
func (r *Recorder) ObserveItem(source, outcome string) {
	if r == nil {
		return
	}
	r.ItemsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveSourceError counts a failed source, labelled by fetch error type.
func (r *Recorder) ObserveSourceError(source string, err error) {
	if r == nil {
		return
	}
	errType := string(parser.ErrorTypeOf(err))
	if errType == "" {
		errType = "other"
	}
	r.SourceErrors.WithLabelValues(source, errType).Inc()
}

// ObserveNotifyFailure counts one failed new-content broadcast.
func (r *Recorder) ObserveNotifyFailure() {
	if r == nil {
		return
	}
	r.NotifyFailures.Inc()
}

// ObserveCycle records a finished cycle.
func (r *Recorder) ObserveCycle(report domain.CycleReport) {
	if r == nil {
		return
	}
	r.CyclesTotal.Inc()
	r.CycleDuration.Observe(report.Duration().Seconds())
	r.LastCycleSuccess.Set(float64(report.FinishedAt.Unix()))
}
