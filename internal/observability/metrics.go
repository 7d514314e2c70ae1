package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batch pipeline metrics
	transcriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_flow_transcriptions_total",
		Help: "Total number of batch transcription requests",
	}, []string{"origin", "status"})

	transcriptionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "audio_flow_transcription_duration_seconds",
		Help:    "End-to-end batch transcription latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
	}, []string{"origin"})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_flow_retry_attempts_total",
		Help: "Total retry attempts by operation",
	}, []string{"operation"})

	// Streaming session metrics
	activeStreamSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audio_flow_active_stream_sessions",
		Help: "Number of currently open streaming sessions",
	})

	streamSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audio_flow_stream_sessions_total",
		Help: "Total number of streaming sessions accepted",
	})

	streamSessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audio_flow_stream_session_duration_seconds",
		Help:    "Duration of streaming sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	streamMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_flow_stream_messages_total",
		Help: "Total streaming messages by outbound type",
	}, []string{"type"})

	// Store metrics
	storeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_flow_store_operations_total",
		Help: "Total store operations by kind and status",
	}, []string{"operation", "status"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "audio_flow_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})
)

// RecordTranscription records the outcome of one batch transcription request
func RecordTranscription(origin string, success bool, elapsed time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	transcriptionsTotal.WithLabelValues(origin, status).Inc()
	if success {
		transcriptionDuration.WithLabelValues(origin).Observe(elapsed.Seconds())
	}
}

// RecordRetry records one retry attempt for the named operation
func RecordRetry(operation string) {
	retryAttempts.WithLabelValues(operation).Inc()
}

// StreamSessionStarted records a newly accepted streaming session
func StreamSessionStarted() {
	activeStreamSessions.Inc()
	streamSessionsTotal.Inc()
}

// StreamSessionEnded records a streaming session leaving memory
func StreamSessionEnded(elapsed time.Duration) {
	activeStreamSessions.Dec()
	streamSessionDuration.Observe(elapsed.Seconds())
}

// RecordStreamMessage records one outbound streaming message
func RecordStreamMessage(msgType string) {
	streamMessagesTotal.WithLabelValues(msgType).Inc()
}

// RecordStoreOperation records the outcome of one store call
func RecordStoreOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	storeOperations.WithLabelValues(operation, status).Inc()
}

// UpdateCircuitBreakerState updates the circuit breaker state gauge
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}
