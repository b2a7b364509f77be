package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	AttemptsGraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempts_graded_total",
			Help: "Total number of graded quiz attempts",
		},
		[]string{"passed"},
	)

	GradingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_grading_duration_seconds",
			Help:    "Time spent grading a submission, persistence included",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(AttemptsGraded)
	prometheus.MustRegister(GradingDuration)
}

// ObserveGrading records one graded attempt.
func ObserveGrading(passed bool, elapsed time.Duration) {
	AttemptsGraded.WithLabelValues(strconv.FormatBool(passed)).Inc()
	GradingDuration.Observe(elapsed.Seconds())
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
