package providers

import (
	"strconv"
	"time"

	"cinnarito/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncActions(action, outcome string)
	IncStoreRetries()
	IncChroniclePosts(success bool)
	ObservePersistenceDuration(duration time.Duration)
	SetSubredditsTotal(count int)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	actionsTotal        *prometheus.CounterVec
	storeRetries        prometheus.Counter
	chroniclePosts      *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	subredditsTotal     prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncActions(action, outcome string) {
	m.actionsTotal.WithLabelValues(action, outcome).Inc()
}

func (m *MetricsProvider) IncStoreRetries() {
	m.storeRetries.Inc()
}

func (m *MetricsProvider) IncChroniclePosts(success bool) {
	m.chroniclePosts.WithLabelValues(strconv.FormatBool(success)).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) SetSubredditsTotal(count int) {
	m.subredditsTotal.Set(float64(count))
}

// httpStatusBucket groups statuses by class. State revalidations and cooldown
// rejections are frequent enough in normal play to get their own label.
func httpStatusBucket(code int) string {
	switch {
	case code == 304:
		return "not_modified"
	case code == 429:
		return "cooldown"
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

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cinnarito_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinnarito_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cinnarito_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cinnarito_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		actionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cinnarito_actions_total",
			Help: "Player actions by type and outcome",
		}, []string{"action", "outcome"}),

		storeRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cinnarito_store_retries_total",
			Help: "Store operations retried after a failure",
		}),

		chroniclePosts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cinnarito_chronicle_posts_total",
			Help: "Chronicle posts submitted to the platform",
		}, []string{"success"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cinnarito_archive_duration_seconds",
			Help:    "Duration of snapshot archive writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		subredditsTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "cinnarito_subreddits_total",
			Help: "Registered subreddits",
		}),
	}
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncActions(_, _ string)                           {}
func (n *noopMetrics) IncStoreRetries()                                 {}
func (n *noopMetrics) IncChroniclePosts(_ bool)                         {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) SetSubredditsTotal(_ int)                         {}
