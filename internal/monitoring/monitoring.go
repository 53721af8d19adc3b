package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storepay"

var (
	sessionsCreatedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_created_total",
		Help:      "Provider sessions created, by provider and result",
	}, []string{"provider", "result"})
	verifyMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verify_total",
		Help:      "Provider verify calls, by provider and normalized status or error kind",
	}, []string{"provider", "result"})
	verifyDurationMetric = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "verify_duration_seconds",
		Help:      "Latency of provider verify calls including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
	reconcileMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_total",
		Help:      "Reconcile outcomes, by provider and outcome",
	}, []string{"provider", "outcome"})
	sideEffectFailedMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "side_effect_failed_total",
		Help:      "Best-effort side effects that failed after an order was paid",
	}, []string{"task"})
	rateLimitedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Session requests denied by the rate limiter",
	})
)

func TickSessionCreated(provider, result string) {
	sessionsCreatedMetric.WithLabelValues(provider, result).Inc()
}

func ObserveVerify(provider, result string, started time.Time) {
	verifyMetric.WithLabelValues(provider, result).Inc()
	verifyDurationMetric.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

func TickReconcile(provider, outcome string) {
	reconcileMetric.WithLabelValues(provider, outcome).Inc()
}

func TickSideEffectFailed(task string) {
	sideEffectFailedMetric.WithLabelValues(task).Inc()
}

func TickRateLimited() {
	rateLimitedMetric.Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
