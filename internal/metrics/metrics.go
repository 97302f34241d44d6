// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "HTTP requests by method, route template and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_chat_requests_total",
			Help: "Chat requests by responder mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_assistant_tool_calls_total",
			Help: "Assistant tool executions by tool name and outcome",
		},
		[]string{"tool", "outcome"},
	)

	KnowledgeSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_knowledge_searches_total",
			Help: "Knowledge searches by path (regex or embedding)",
		},
		[]string{"path"},
	)

	SSESubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_sse_subscribers",
			Help: "Currently connected event stream subscribers",
		},
	)

	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_events_broadcast_total",
			Help: "Events broadcast to subscribers by type",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_events_dropped_total",
			Help: "Event frames dropped because a subscriber buffer was full",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_upstream_breaker_state",
			Help: "Upstream circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)
