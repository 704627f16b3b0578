package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service-layer Prometheus collectors. All helpers are
// nil-safe so services under test can run without a registry.
type Metrics struct {
	ChatRequests       prometheus.Counter
	ChatRequestLatency prometheus.Histogram
	ChatErrors         *prometheus.CounterVec
	StreamChunks       prometheus.Counter
	ExtractionJobs     *prometheus.CounterVec
	MemoriesExtracted  prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		ChatRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coachd_chat_requests_total",
			Help: "Chat completion requests started.",
		}),
		ChatRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "coachd_chat_request_duration_seconds",
			Help:    "End-to-end chat streaming latency.",
			Buckets: prometheus.DefBuckets,
		}),
		ChatErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coachd_chat_errors_total",
			Help: "Chat requests that ended in an error frame.",
		}, []string{"error_type"}),
		StreamChunks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coachd_stream_chunks_total",
			Help: "SSE chunks delivered to clients.",
		}),
		ExtractionJobs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "coachd_extraction_jobs_total",
			Help: "Memory extraction jobs by terminal status.",
		}, []string{"status"}),
		MemoriesExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "coachd_memories_extracted_total",
			Help: "Memories persisted by the extraction pipeline.",
		}),
	}
}

func (m *Metrics) chatRequest() {
	if m != nil {
		m.ChatRequests.Inc()
	}
}

func (m *Metrics) chatLatency(seconds float64) {
	if m != nil {
		m.ChatRequestLatency.Observe(seconds)
	}
}

func (m *Metrics) chatError(errorType string) {
	if m != nil {
		m.ChatErrors.WithLabelValues(errorType).Inc()
	}
}

func (m *Metrics) streamChunk() {
	if m != nil {
		m.StreamChunks.Inc()
	}
}

func (m *Metrics) extractionJob(status string) {
	if m != nil {
		m.ExtractionJobs.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) memoriesExtracted(count int) {
	if m != nil {
		m.MemoriesExtracted.Add(float64(count))
	}
}
