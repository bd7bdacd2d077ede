package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiErrors   *Counter

	aggregateOps       *HistogramVec
	aggregateConflicts *CounterVec
	aggregateRetries   *CounterVec

	cacheLookups *CounterVec
	cacheBackend *GaugeVec
	cacheHitRate *Gauge
	eventsSent   *CounterVec

	dbStats    *GaugeVec
	redisUp    *Gauge
	redisPing  *Gauge
	scrapeEach time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

// New builds an unregistered metrics set; Init keeps one process-wide instance.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("taskboard_api_requests_total", "HTTP requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("taskboard_api_request_seconds", "HTTP request latency.", []string{"method", "route"}, nil),
		apiInflight: NewGauge("taskboard_api_inflight", "HTTP requests currently being served."),
		apiErrors:   NewCounter("taskboard_api_server_errors_total", "HTTP responses with a 5xx status."),

		aggregateOps:       NewHistogramVec("taskboard_aggregate_operation_seconds", "Aggregate write latency by operation and outcome.", []string{"operation", "status"}, nil),
		aggregateConflicts: NewCounterVec("taskboard_aggregate_conflicts_total", "Optimistic concurrency conflicts.", []string{"operation"}),
		aggregateRetries:   NewCounterVec("taskboard_aggregate_retryable_total", "Retryable aggregate failures.", []string{"operation"}),

		cacheLookups: NewCounterVec("taskboard_cache_lookups_total", "Report cache lookups by namespace and result.", []string{"namespace", "result"}),
		cacheBackend: NewGaugeVec("taskboard_cache_backend_ops", "Cumulative cache backend counters.", []string{"stat"}),
		cacheHitRate: NewGauge("taskboard_cache_hit_rate_percent", "Share of cache reads answered from the backend."),
		eventsSent:   NewCounterVec("taskboard_events_published_total", "Domain events by type and outcome.", []string{"type", "status"}),

		dbStats:    NewGaugeVec("taskboard_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:    NewGauge("taskboard_redis_up", "1 when the last redis ping succeeded."),
		redisPing:  NewGauge("taskboard_redis_ping_seconds", "Latency of the last redis ping."),
		scrapeEach: 10 * time.Second,
	}
}

// Init returns the shared instance, or nil when metrics are disabled.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() { instance = New() })
	return instance
}

func Current() *Metrics { return instance }

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.aggregateOps, m.aggregateConflicts, m.aggregateRetries,
		m.cacheLookups, m.cacheBackend, m.cacheHitRate, m.eventsSent,
		m.dbStats, m.redisUp, m.redisPing,
	}
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
	if strings.HasPrefix(status, "5") {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m != nil {
		m.aggregateConflicts.Inc(op)
	}
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m != nil {
		m.aggregateRetries.Inc(op)
	}
}

// ObserveCache records a report cache lookup; result is "hit", "miss" or "error".
func (m *Metrics) ObserveCache(namespace, result string) {
	if m != nil {
		m.cacheLookups.Inc(namespace, result)
	}
}

func (m *Metrics) IncEventPublished(eventType string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.eventsSent.Inc(eventType, status)
}

// StartDBCollector samples the connection pool until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		if log != nil {
			log.Warn("metrics: db stats unavailable", "error", err)
		}
		return
	}
	go m.every(ctx, func() {
		stats := sqlDB.Stats()
		m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
		m.dbStats.Set(float64(stats.InUse), "in_use")
		m.dbStats.Set(float64(stats.Idle), "idle")
		m.dbStats.Set(float64(stats.WaitCount), "wait_count")
		m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
	})
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go m.every(ctx, func() {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil && ctx.Err() == nil {
				log.Warn("metrics: redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}

// StartCacheCollector samples the cache backend's own counters once now and then on
// every scrape tick. sample returns counters by stat name and the hit rate in percent.
func (m *Metrics) StartCacheCollector(ctx context.Context, sample func() (map[string]float64, float64)) {
	if m == nil || sample == nil {
		return
	}
	collect := func() {
		counts, hitRate := sample()
		for stat, v := range counts {
			m.cacheBackend.Set(v, stat)
		}
		m.cacheHitRate.Set(hitRate)
	}
	collect()
	go m.every(ctx, collect)
}

func (m *Metrics) every(ctx context.Context, fn func()) {
	ticker := time.NewTicker(m.scrapeEach)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
