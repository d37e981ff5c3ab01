package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlchat_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlchat_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	chatTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlchat_chat_turns_total",
			Help: "Total number of chat turns by reply status.",
		},
		[]string{"status"},
	)

	chatTurnLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlchat_chat_turn_latency_ms",
			Help:    "End-to-end chat turn latency in milliseconds, model delay included.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 20000, 60000},
		},
	)

	chatTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlchat_chat_tokens_total",
			Help: "Total model tokens consumed by chat turns.",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		chatTurnsTotal,
		chatTurnLatencyMs,
		chatTokensTotal,
	)
}

// ObserveChatTurn records the outcome of one completed chat turn.
func ObserveChatTurn(status string, latency time.Duration, promptTokens, completionTokens int) {
	chatTurnsTotal.WithLabelValues(status).Inc()
	chatTurnLatencyMs.Observe(float64(latency.Milliseconds()))
	if promptTokens > 0 {
		chatTokensTotal.WithLabelValues("prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		chatTokensTotal.WithLabelValues("completion").Add(float64(completionTokens))
	}
}
