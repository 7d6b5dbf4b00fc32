// Package metrics defines the Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts inbound requests by endpoint and outcome status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelsproxy_requests_total",
			Help: "Total number of inbound requests processed",
		},
		[]string{"endpoint", "status"},
	)

	// UpstreamResponses counts upstream HTTP responses by status code.
	UpstreamResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelsproxy_upstream_responses_total",
			Help: "Total number of upstream responses by status code",
		},
		[]string{"status"},
	)

	// UpstreamErrors counts upstream calls that failed at the transport level.
	UpstreamErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelsproxy_upstream_errors_total",
			Help: "Total number of upstream transport failures",
		},
	)

	// RequestTruncations counts requests shrunk by the token-budget heuristics.
	RequestTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelsproxy_request_truncations_total",
			Help: "Total number of requests truncated to fit the token budget",
		},
	)

	// StreamFrames counts SSE frames forwarded to clients, excluding [DONE].
	StreamFrames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelsproxy_stream_frames_total",
			Help: "Total number of SSE data frames forwarded to clients",
		},
	)
)
