// Package metrics provides Prometheus instrumentation for the simulation engine.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panopticon",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "panopticon",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ActionsTotal counts operator actions by type and outcome.
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panopticon",
			Name:      "actions_total",
			Help:      "Total operator actions executed by action type and outcome.",
		},
		[]string{"action_type", "outcome"},
	)

	// BacklashTotal counts actions that triggered backlash.
	BacklashTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "panopticon",
		Name:      "backlash_total",
		Help:      "Total actions that triggered public backlash.",
	})

	// ArticlesPublishedTotal counts news articles by channel stance and type.
	ArticlesPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panopticon",
			Name:      "articles_published_total",
			Help:      "Total news articles published by channel stance and article type.",
		},
		[]string{"stance", "type"},
	)

	// ProtestsTotal counts protests by final status.
	ProtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panopticon",
			Name:      "protests_total",
			Help:      "Total protests by status transition.",
		},
		[]string{"status"},
	)

	// SuppressionGamblesTotal counts suppression attempts by kind and result.
	SuppressionGamblesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panopticon",
			Name:      "suppression_gambles_total",
			Help:      "Total suppression gambles by kind and result.",
		},
		[]string{"kind", "result"},
	)

	// TerminationsTotal counts operator terminations by reason.
	TerminationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panopticon",
			Name:      "terminations_total",
			Help:      "Total operator terminations by reason.",
		},
		[]string{"reason"},
	)

	// RiskScoreComputed observes computed citizen risk scores.
	RiskScoreComputed = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "panopticon",
		Name:      "risk_score",
		Help:      "Distribution of computed citizen risk scores.",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	// RiskCacheHitsTotal counts risk assessment cache hits vs misses.
	RiskCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "panopticon",
			Name:      "risk_cache_hits_total",
			Help:      "Risk assessment cache lookups by result (hit/miss/stale).",
		},
		[]string{"result"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "panopticon",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "panopticon", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "panopticon", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "panopticon", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "panopticon", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ActionsTotal,
		BacklashTotal,
		ArticlesPublishedTotal,
		ProtestsTotal,
		SuppressionGamblesTotal,
		TerminationsTotal,
		RiskScoreComputed,
		RiskCacheHitsTotal,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics endpoint handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups status codes to limit label cardinality.
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
