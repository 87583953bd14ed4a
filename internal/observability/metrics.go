// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	ScansTotal      *prometheus.CounterVec
	ScanDuration    prometheus.Histogram
	ChainFailures   *prometheus.CounterVec
	TokensScanned   *prometheus.CounterVec
	LastScanSuccess prometheus.Gauge

	// Pricing metrics
	PriceResolutions *prometheus.CounterVec
	PriceUnresolved  *prometheus.CounterVec
	ProviderErrors   *prometheus.CounterVec
	PriceCacheHits   *prometheus.CounterVec
	RateLimitWaits   *prometheus.CounterVec

	// Upstream RPC metrics
	RPCCallsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "elutio"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		ScansTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "scans_total",
			Help:      "Total number of wallet scans by status",
		}, []string{"status"}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Wallet scan duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		ChainFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "chain_failures_total",
			Help:      "Chains that failed during a scan",
		}, []string{"chain"}),
		TokensScanned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tokens_total",
			Help:      "Tokens kept in scans by classification",
		}, []string{"classification"}),
		LastScanSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan",
		}),

		PriceResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "resolutions_total",
			Help:      "Token prices resolved by tier",
		}, []string{"chain", "source"}),
		PriceUnresolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "unresolved_total",
			Help:      "Tokens left without a price after every tier",
		}, []string{"chain"}),
		ProviderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "provider_errors_total",
			Help:      "Price provider failures by class",
		}, []string{"source", "class"}),
		PriceCacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "cache_lookups_total",
			Help:      "Price cache lookups by result",
		}, []string{"source", "result"}),
		RateLimitWaits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "rate_limit_waits_total",
			Help:      "Requests delayed by the provider rate limiter",
		}, []string{"source"}),

		RPCCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Upstream RPC calls by chain, method and status",
		}, []string{"chain", "method", "status"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordScan records a finished scan.
func RecordScan(status string, durationSeconds float64) {
	DefaultMetrics.ScansTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
}

// RecordScanSuccess stamps the last successful scan time.
func RecordScanSuccess(unixSeconds int64) {
	DefaultMetrics.LastScanSuccess.Set(float64(unixSeconds))
}

// RecordChainFailure counts a chain dropped from a scan.
func RecordChainFailure(chain string) {
	DefaultMetrics.ChainFailures.WithLabelValues(chain).Inc()
}

// RecordToken counts a kept token by its label.
func RecordToken(classification string) {
	DefaultMetrics.TokensScanned.WithLabelValues(classification).Inc()
}

// RecordPriceResolved counts prices resolved by a tier.
func RecordPriceResolved(chain, source string, n int) {
	if n > 0 {
		DefaultMetrics.PriceResolutions.WithLabelValues(chain, source).Add(float64(n))
	}
}

// RecordPriceUnresolved counts tokens no tier could price.
func RecordPriceUnresolved(chain string, n int) {
	if n > 0 {
		DefaultMetrics.PriceUnresolved.WithLabelValues(chain).Add(float64(n))
	}
}

// RecordProviderError counts a price provider failure.
func RecordProviderError(source string, err error) {
	DefaultMetrics.ProviderErrors.WithLabelValues(source, ClassifyError(err)).Inc()
}

// RecordCacheLookup counts a price cache hit or miss.
func RecordCacheLookup(source string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.PriceCacheHits.WithLabelValues(source, result).Inc()
}

// RecordRateLimitWait counts a request that had to wait for a token.
func RecordRateLimitWait(source string) {
	DefaultMetrics.RateLimitWaits.WithLabelValues(source).Inc()
}

// RecordRPCCall records an upstream RPC call with its status class.
func RecordRPCCall(chain, method string, err error) {
	DefaultMetrics.RPCCallsTotal.WithLabelValues(chain, method, ClassifyError(err)).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// ClassifyError maps an upstream error onto a small label set.
func ClassifyError(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return "timeout"
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429") || strings.Contains(lower, "too many requests"):
		return "rate_limited"
	case strings.Contains(lower, "status 5") || strings.Contains(lower, "internal server error") || strings.Contains(lower, "bad gateway"):
		return "server_error"
	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "eof"):
		return "network_error"
	default:
		return "client_error"
	}
}
