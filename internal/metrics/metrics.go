package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "chat_api"

var TotalRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Number of handled HTTP requests.",
	},
	[]string{"path", "code", "method"},
)

var HttpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets: []float64{
			0.005,
			0.01,
			0.05,
			0.1, // 100 ms
			0.25,
			0.5,
			1,
			3,
			10,
			30,
		},
	},
	[]string{"path", "code", "method"},
)

// RuleMatches counts rule-based replies by matched category.
var RuleMatches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rule_matches_total",
		Help:      "Rule-based replies by matched category.",
	},
	[]string{"rule"},
)

// CompletionRequests counts provider calls by requested model and outcome kind.
var CompletionRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_requests_total",
		Help:      "Completion provider calls by model and outcome.",
	},
	[]string{"model", "outcome"},
)

var CompletionTokens = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completion_tokens_total",
		Help:      "Total tokens reported by the completion provider.",
	},
	[]string{"model"},
)
