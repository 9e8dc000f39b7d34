package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_http_requests_total",
			Help: "Total number of HTTP requests processed by the partner service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partner_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	llmRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "partner_llm_request_duration_seconds",
			Help:    "Language-model completion latencies in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"outcome"},
	)
	provisionJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_provision_jobs_total",
			Help: "Idle-video provisioning outcomes.",
		},
		[]string{"outcome"},
	)
	provisionPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "partner_provision_polls_total",
			Help: "Total number of video job status polls.",
		},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "partner_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "partner_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "partner_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		llmRequestDuration,
		provisionJobsTotal,
		provisionPollsTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func ObserveLLMRequest(seconds float64, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	llmRequestDuration.WithLabelValues(outcome).Observe(seconds)
}

func IncProvisionSubmitted() {
	provisionJobsTotal.WithLabelValues("submitted").Inc()
}

func IncProvisionCompleted() {
	provisionJobsTotal.WithLabelValues("completed").Inc()
}

func IncProvisionTimeout() {
	provisionJobsTotal.WithLabelValues("timeout").Inc()
}

func IncProvisionCacheHit() {
	provisionJobsTotal.WithLabelValues("cache_hit").Inc()
}

func IncPollAttempt() {
	provisionPollsTotal.Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
