package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"stock-master/pkg/types"
)

// Metrics 信号服务的 Prometheus 指标
type Metrics struct {
	registry *prometheus.Registry

	EvaluationsTotal *prometheus.CounterVec // labels: action
	SignalScore      prometheus.Histogram
	SignalChanges    prometheus.Counter
	FetchErrors      prometheus.Counter
	SyncFailures     *prometheus.CounterVec // labels: target=redis|mysql|bitable|notify
	CycleDuration    prometheus.Histogram
	WatchlistSize    prometheus.Gauge
}

// NewMetrics 创建并注册全部指标，每个实例使用独立的 Registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmaster_evaluations_total",
			Help: "Total snapshots scored (by action)",
		}, []string{"action"}),
		SignalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockmaster_signal_score",
			Help:    "Distribution of composite signal scores",
			Buckets: []float64{-12, -8, -5, -3, -1, 0, 1, 3, 5, 8, 12},
		}),
		SignalChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockmaster_signal_changes_total",
			Help: "Signals whose action or stop/take-profit changed",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockmaster_fetch_errors_total",
			Help: "Snapshot fetches that failed after retries",
		}),
		SyncFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmaster_sync_failures_total",
			Help: "Failed writes to downstream collaborators (by target)",
		}, []string{"target"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockmaster_cycle_duration_seconds",
			Help:    "Duration of one fetch-and-analyze cycle",
			Buckets: prometheus.DefBuckets,
		}),
		WatchlistSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockmaster_watchlist_size",
			Help: "Tickers scanned per cycle",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EvaluationsTotal,
		m.SignalScore,
		m.SignalChanges,
		m.FetchErrors,
		m.SyncFailures,
		m.CycleDuration,
		m.WatchlistSize,
	)

	return m
}

// ObserveSignal 记录一次评分结果
func (m *Metrics) ObserveSignal(signal types.TradingSignal, changed bool) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(string(signal.Action)).Inc()
	m.SignalScore.Observe(float64(signal.Score))
	if changed {
		m.SignalChanges.Inc()
	}
}

func (m *Metrics) FetchFailed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.FetchErrors.Add(float64(n))
}

func (m *Metrics) SyncFailed(target string) {
	if m == nil {
		return
	}
	m.SyncFailures.WithLabelValues(target).Inc()
}

func (m *Metrics) ObserveCycle(start time.Time, tickers int) {
	if m == nil {
		return
	}
	m.CycleDuration.Observe(time.Since(start).Seconds())
	m.WatchlistSize.Set(float64(tickers))
}

// Handler /metrics 端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
