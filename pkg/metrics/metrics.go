package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry       *prometheus.Registry
	registryOnce   sync.Once
	metricsEnabled = true

	// Evaluation metrics
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	OverallScores      prometheus.Histogram

	// STT metrics
	STTRequestsTotal *prometheus.CounterVec
	STTLatency       *prometheus.HistogramVec
	STTWordsReturned *prometheus.CounterVec

	// Feedback metrics
	FeedbackRequestsTotal *prometheus.CounterVec
	FeedbackFallbacks     prometheus.Counter

	// AMQP metrics
	AMQPPublishedMessages *prometheus.CounterVec
	AMQPConnectionErrors  prometheus.Counter
)

// EnableMetrics toggles metric recording; tests disable it to avoid
// touching the global registry.
func EnableMetrics(enabled bool) {
	metricsEnabled = enabled
}

// Init initializes all metrics and registers them with Prometheus
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		EvaluationsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speecheval_evaluations_total",
				Help: "Total number of speech evaluations",
			},
			[]string{"mode", "status"},
		)

		EvaluationDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "speecheval_evaluation_duration_seconds",
				Help:    "Time taken to complete one evaluation",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"mode"},
		)

		OverallScores = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "speecheval_overall_score",
				Help:    "Distribution of overall scores on the 0-10 scale",
				Buckets: prometheus.LinearBuckets(0, 1, 11),
			},
		)

		STTRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speecheval_stt_requests_total",
				Help: "Total number of speech-to-text requests",
			},
			[]string{"provider", "status"},
		)

		STTLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "speecheval_stt_latency_seconds",
				Help:    "Latency of speech-to-text recognition",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"provider"},
		)

		STTWordsReturned = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speecheval_stt_words_returned_total",
				Help: "Total number of word records returned by providers",
			},
			[]string{"provider"},
		)

		FeedbackRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speecheval_feedback_requests_total",
				Help: "Total number of feedback generation requests",
			},
			[]string{"status"},
		)

		FeedbackFallbacks = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "speecheval_feedback_fallbacks_total",
				Help: "Total number of deterministic feedback fallbacks served",
			},
		)

		AMQPPublishedMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "speecheval_amqp_published_messages_total",
				Help: "Total number of evaluation results published to AMQP",
			},
			[]string{"queue"},
		)

		AMQPConnectionErrors = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "speecheval_amqp_connection_errors_total",
				Help: "Total number of AMQP connection errors",
			},
		)

		registry.MustRegister(
			EvaluationsTotal,
			EvaluationDuration,
			OverallScores,
			STTRequestsTotal,
			STTLatency,
			STTWordsReturned,
			FeedbackRequestsTotal,
			FeedbackFallbacks,
			AMQPPublishedMessages,
			AMQPConnectionErrors,
		)

		logger.Info("Prometheus metrics initialized")
	})
}

// Handler returns the HTTP handler serving the metrics endpoint
func Handler() http.Handler {
	if registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordEvaluation records one completed evaluation
func RecordEvaluation(mode, status string, seconds, overallScore float64) {
	if !metricsEnabled || EvaluationsTotal == nil {
		return
	}
	EvaluationsTotal.WithLabelValues(mode, status).Inc()
	EvaluationDuration.WithLabelValues(mode).Observe(seconds)
	if status == "success" {
		OverallScores.Observe(overallScore)
	}
}

// RecordSTTRequest records one recognition request
func RecordSTTRequest(provider, status string, seconds float64, words int) {
	if !metricsEnabled || STTRequestsTotal == nil {
		return
	}
	STTRequestsTotal.WithLabelValues(provider, status).Inc()
	STTLatency.WithLabelValues(provider).Observe(seconds)
	if words > 0 {
		STTWordsReturned.WithLabelValues(provider).Add(float64(words))
	}
}

// RecordFeedback records one feedback generation attempt
func RecordFeedback(status string, fallback bool) {
	if !metricsEnabled || FeedbackRequestsTotal == nil {
		return
	}
	FeedbackRequestsTotal.WithLabelValues(status).Inc()
	if fallback {
		FeedbackFallbacks.Inc()
	}
}

// RecordAMQPPublish records one published evaluation message
func RecordAMQPPublish(queue string) {
	if !metricsEnabled || AMQPPublishedMessages == nil {
		return
	}
	AMQPPublishedMessages.WithLabelValues(queue).Inc()
}

// RecordAMQPConnectionError records one failed AMQP connection attempt
func RecordAMQPConnectionError() {
	if !metricsEnabled || AMQPConnectionErrors == nil {
		return
	}
	AMQPConnectionErrors.Inc()
}
