package transactions

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "transactions"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Submissions counts submission attempts, by kind.
	Submissions metrics.Counter
	// Failures counts failed submissions, by kind.
	Failures metrics.Counter
	// SubmitTime
	SubmitTime metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	labels = append(labels, "kind")
	return &Metrics{
		Submissions: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submissions_total",
			Help:      "Number of submitted transactions.",
		}, labels).With(labelsAndValues...),
		Failures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failures_total",
			Help:      "Number of transactions the full node did not accept.",
		}, labels).With(labelsAndValues...),
		SubmitTime: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submit_time_seconds",
			Help:      "Time spent submitting a transaction.",
			Buckets:   stdprometheus.DefBuckets,
		}, labels[:len(labels)-1]).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Submissions: discard.NewCounter(),
		Failures:    discard.NewCounter(),
		SubmitTime:  discard.NewHistogram(),
	}
}
