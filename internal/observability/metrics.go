package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	// UpstreamRequests counts BaaS calls by operation and outcome.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "applitrack_upstream_requests_total",
		Help: "Total number of BaaS calls by operation and outcome",
	}, []string{"op", "outcome"})

	// UpstreamDuration records BaaS call latency by operation.
	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "applitrack_upstream_duration_seconds",
		Help:    "BaaS call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "applitrack_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// RateLimited counts requests rejected by the per-route limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "applitrack_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"resource"})
)

// TrackUpstream returns a function that records the outcome and latency of a BaaS call (e.g. defer).
func TrackUpstream(op string) func(err error) {
	start := time.Now()
	return func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		UpstreamRequests.WithLabelValues(op, outcome).Inc()
		UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// RecordRedisError counts a failed Redis command; redis.Nil is not a failure.
func RecordRedisError(command string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		RedisErrors.WithLabelValues(command).Inc()
	}
}
