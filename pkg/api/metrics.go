package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts handled requests.
	// Labels: route (gin full path), method, status
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canon",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests handled",
	}, []string{"route", "method", "status"})

	// requestDuration measures handler latency.
	// Labels: route, method
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "canon",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"route", "method"})

	// snapshotOps counts snapshot operations.
	// Labels: op (create, restore), outcome (ok, conflict, not_found, invalid, error)
	snapshotOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "canon",
		Subsystem: "snapshot",
		Name:      "operations_total",
		Help:      "Snapshot create and restore operations by outcome",
	}, []string{"op", "outcome"})
)
