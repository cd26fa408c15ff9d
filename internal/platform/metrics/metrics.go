package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Domain metrics
	BallotsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_ballots_submitted_total",
			Help: "Total number of ballots submitted",
		},
	)

	LotteriesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_lotteries_created_total",
			Help: "Total number of lotteries created by source (explicit, ballot)",
		},
		[]string{"source"},
	)

	Draws = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_draws_total",
			Help: "Total number of close-and-draw attempts by outcome",
		},
		[]string{"outcome"},
	)

	LotteriesReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lottery_reconciled_total",
			Help: "Total number of open lotteries closed by the repair pass",
		},
	)

	DatabaseUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lottery_database_up",
			Help: "Whether the database answered the last health check (1 = up, 0 = down)",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lottery_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(BallotsSubmitted)
	prometheus.MustRegister(LotteriesCreated)
	prometheus.MustRegister(Draws)
	prometheus.MustRegister(LotteriesReconciled)
	prometheus.MustRegister(DatabaseUp)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		APIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		APIRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
