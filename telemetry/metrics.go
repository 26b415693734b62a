// Package telemetry provides Prometheus metrics, OpenTelemetry tracing setup,
// and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles         prometheus.Counter
	PollErrors         prometheus.Counter
	MessagesDispatched prometheus.Counter
	HandlerErrors      prometheus.Counter
	MessagesPosted     prometheus.Counter
	PostErrors         prometheus.Counter
	ResolveCalls       prometheus.Counter
	ResolveErrors      prometheus.Counter
	ChannelCacheHits   prometheus.Counter
	QuotaUnitsUsed     *prometheus.CounterVec // labeled by API operation

	// Histograms (seconds)
	FetchDuration prometheus.Observer

	// Gauges
	SleepSeconds         prometheus.Gauge
	BackoffSeconds       prometheus.Gauge
	QuotaIntervalSeconds prometheus.Gauge
	WatchingLive         prometheus.Gauge // 1=polling a live chat, 0=idle
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_poll_cycles_total", Help: "Number of live chat fetch attempts"})
		PollErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_poll_errors_total", Help: "Number of failed live chat fetches"})
		MessagesDispatched = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_messages_dispatched_total", Help: "Number of chat messages dispatched to the handler"})
		HandlerErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_handler_errors_total", Help: "Number of handler errors or panics (isolated per message)"})
		MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_messages_posted_total", Help: "Number of messages inserted into live chat"})
		PostErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_post_errors_total", Help: "Number of failed live chat message inserts"})
		ResolveCalls = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_resolves_total", Help: "Number of live chat discovery attempts (cache misses)"})
		ResolveErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_resolve_errors_total", Help: "Number of failed live chat discovery attempts"})
		ChannelCacheHits = promauto.NewCounter(prometheus.CounterOpts{Name: "livechat_channel_cache_hits_total", Help: "Number of channel id lookups served from cache"})
		QuotaUnitsUsed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "livechat_quota_units_used_total", Help: "Estimated YouTube API quota units spent, by operation"}, []string{"operation"})
		FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "livechat_fetch_duration_seconds", Help: "Live chat page fetch duration seconds", Buckets: prometheus.DefBuckets})
		SleepSeconds = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_sleep_seconds", Help: "Current planned sleep between fetches"})
		BackoffSeconds = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_backoff_seconds", Help: "Current error backoff sleep (0 when healthy)"})
		QuotaIntervalSeconds = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_quota_interval_seconds", Help: "Quota-derived minimum fetch interval"})
		WatchingLive = promauto.NewGauge(prometheus.GaugeOpts{Name: "livechat_watching_live", Help: "Whether a live chat is currently being polled (1) or the watcher is idle (0)"})
	})
}

// SetWatchingLive flips the live-polling gauge.
func SetWatchingLive(live bool) {
	if WatchingLive != nil {
		if live {
			WatchingLive.Set(1)
		} else {
			WatchingLive.Set(0)
		}
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
