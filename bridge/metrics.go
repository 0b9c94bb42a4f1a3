package bridge

import (
	"sync"

	"github.com/rollkit/lightbridge/node"
	"github.com/rollkit/lightbridge/relay"
	"github.com/rollkit/lightbridge/transactions"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "avail_light"

// Metrics groups the metrics of every component driven by the bridge.
type Metrics struct {
	Node         *node.Metrics
	Relay        *relay.Metrics
	Transactions *transactions.Metrics
}

var (
	prometheusOnce    sync.Once
	prometheusMetrics *Metrics
)

// PrometheusMetrics returns the process-wide prometheus metrics. They are
// registered with the default registry on first use.
func PrometheusMetrics() *Metrics {
	prometheusOnce.Do(func() {
		prometheusMetrics = &Metrics{
			Node:         node.PrometheusMetrics(metricsNamespace),
			Relay:        relay.PrometheusMetrics(metricsNamespace),
			Transactions: transactions.PrometheusMetrics(metricsNamespace),
		}
	})
	return prometheusMetrics
}

// NopMetrics returns no-op metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Node:         node.NopMetrics(),
		Relay:        relay.NopMetrics(),
		Transactions: transactions.NopMetrics(),
	}
}

func metricsFor(enabled bool) *Metrics {
	if enabled {
		return PrometheusMetrics()
	}
	return NopMetrics()
}
