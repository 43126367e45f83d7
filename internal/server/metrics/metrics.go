// Package metrics exposes prometheus counters for the transfer layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transfers counts byte-transfer operations by kind, backend and outcome.
var Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "taxdocs",
	Subsystem: "transfer",
	Name:      "operations_total",
	Help:      "Transfer-layer operations by operation, backend and outcome.",
}, []string{"operation", "backend", "outcome"})

// Observe records one finished operation.
func Observe(operation, backend string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	Transfers.WithLabelValues(operation, backend, outcome).Inc()
}
