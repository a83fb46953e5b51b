package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"stock-master/internal/database"
	"stock-master/pkg/types"
)

// ErrNoStatsStore 未启用数据库，无法查询日统计
var ErrNoStatsStore = errors.New("未启用数据库，没有日统计")

// StatsStore 日统计的数据来源
type StatsStore interface {
	GetDailyStats(ticker string, days int) ([]database.DailySignalStats, error)
}

// PerformanceMonitor 信号统计监控器
type PerformanceMonitor struct {
	store          StatsStore
	reportInterval time.Duration

	mutex   sync.RWMutex
	metrics *PerformanceMetrics
}

// PerformanceMetrics 运行以来的信号统计
type PerformanceMetrics struct {
	StartTime       time.Time                 `json:"start_time"`
	TotalSignals    int64                     `json:"total_signals"`
	BuySignals      int64                     `json:"buy_signals"`
	SellSignals     int64                     `json:"sell_signals"`
	HoldSignals     int64                     `json:"hold_signals"`
	ChangedSignals  int64                     `json:"changed_signals"`
	AvgScore        float64                   `json:"avg_score"`
	SignalFrequency float64                   `json:"signal_frequency"` // 信号/小时
	TickerStats     map[string]*TickerMetrics `json:"ticker_stats"`
	LastUpdateTime  time.Time                 `json:"last_update_time"`
}

// TickerMetrics 单只股票的统计
type TickerMetrics struct {
	Ticker         string       `json:"ticker"`
	TotalSignals   int          `json:"total_signals"`
	BuySignals     int          `json:"buy_signals"`
	SellSignals    int          `json:"sell_signals"`
	HoldSignals    int          `json:"hold_signals"`
	AvgScore       float64      `json:"avg_score"`
	LastSignalTime time.Time    `json:"last_signal_time"`
	LastAction     types.Action `json:"last_action"`
	LastPrice      float64      `json:"last_price"`
}

// DailyReport 日报告
type DailyReport struct {
	Ticker       string    `json:"ticker"`
	Date         time.Time `json:"date"`
	TotalSignals int       `json:"total_signals"`
	BuySignals   int       `json:"buy_signals"`
	SellSignals  int       `json:"sell_signals"`
	HoldSignals  int       `json:"hold_signals"`
	AvgScore     float64   `json:"avg_score"`
	BuyRatio     float64   `json:"buy_ratio"`
	SellRatio    float64   `json:"sell_ratio"`
}

// NewPerformanceMonitor store 可以为 nil
func NewPerformanceMonitor(store StatsStore, reportInterval time.Duration) *PerformanceMonitor {
	if reportInterval <= 0 {
		reportInterval = 5 * time.Minute
	}
	return &PerformanceMonitor{
		store:          store,
		reportInterval: reportInterval,
		metrics: &PerformanceMetrics{
			StartTime:   time.Now(),
			TickerStats: make(map[string]*TickerMetrics),
		},
	}
}

// Record 记录一次评分结果
func (pm *PerformanceMonitor) Record(signal types.TradingSignal, changed bool, at time.Time) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	m := pm.metrics
	m.AvgScore = (m.AvgScore*float64(m.TotalSignals) + float64(signal.Score)) / float64(m.TotalSignals+1)
	m.TotalSignals++
	switch signal.Action {
	case types.ActionBuy:
		m.BuySignals++
	case types.ActionSell:
		m.SellSignals++
	default:
		m.HoldSignals++
	}
	if changed {
		m.ChangedSignals++
	}

	ticker := strings.ToUpper(signal.Ticker)
	ts := m.TickerStats[ticker]
	if ts == nil {
		ts = &TickerMetrics{Ticker: ticker}
		m.TickerStats[ticker] = ts
	}
	ts.AvgScore = (ts.AvgScore*float64(ts.TotalSignals) + float64(signal.Score)) / float64(ts.TotalSignals+1)
	ts.TotalSignals++
	switch signal.Action {
	case types.ActionBuy:
		ts.BuySignals++
	case types.ActionSell:
		ts.SellSignals++
	default:
		ts.HoldSignals++
	}
	ts.LastSignalTime = at
	ts.LastAction = signal.Action
	ts.LastPrice = signal.CurrentPrice

	if runTime := at.Sub(m.StartTime).Hours(); runTime > 0 {
		m.SignalFrequency = float64(m.TotalSignals) / runTime
	}
	m.LastUpdateTime = at
}

// Start 定期输出统计报告，直到 ctx 取消
func (pm *PerformanceMonitor) Start(ctx context.Context) {
	zap.L().Info("📊 启动信号统计监控器", zap.Duration("report_interval", pm.reportInterval))

	ticker := time.NewTicker(pm.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("🛑 停止信号统计监控器")
			return
		case <-ticker.C:
			pm.generateReport()
		}
	}
}

// generateReport 生成统计报告
func (pm *PerformanceMonitor) generateReport() {
	m := pm.GetMetrics()
	if m.TotalSignals == 0 {
		return
	}

	zap.L().Info("📈 信号统计报告",
		zap.Duration("run_time", time.Since(m.StartTime).Truncate(time.Second)),
		zap.Int64("total_signals", m.TotalSignals),
		zap.Int64("buy_signals", m.BuySignals),
		zap.Int64("sell_signals", m.SellSignals),
		zap.Int64("changed_signals", m.ChangedSignals),
		zap.Float64("avg_score", m.AvgScore),
		zap.Float64("signal_frequency", m.SignalFrequency))

	for ticker, ts := range m.TickerStats {
		zap.L().Debug("📊 股票统计",
			zap.String("ticker", ticker),
			zap.Int("total_signals", ts.TotalSignals),
			zap.Float64("avg_score", ts.AvgScore),
			zap.String("last_action", string(ts.LastAction)),
			zap.Float64("last_price", ts.LastPrice),
			zap.Time("last_signal_time", ts.LastSignalTime))
	}
}

// GetMetrics 当前统计的副本
func (pm *PerformanceMonitor) GetMetrics() PerformanceMetrics {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	out := *pm.metrics
	out.TickerStats = make(map[string]*TickerMetrics, len(pm.metrics.TickerStats))
	for k, v := range pm.metrics.TickerStats {
		ts := *v
		out.TickerStats[k] = &ts
	}
	return out
}

// GetDailyReport 当日统计，来自数据库
func (pm *PerformanceMonitor) GetDailyReport(ticker string) (*DailyReport, error) {
	if pm.store == nil {
		return nil, ErrNoStatsStore
	}

	ticker = strings.ToUpper(ticker)
	stats, err := pm.store.GetDailyStats(ticker, 0)
	if err != nil {
		return nil, err
	}

	if len(stats) == 0 {
		now := time.Now()
		return &DailyReport{
			Ticker: ticker,
			Date:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		}, nil
	}

	s := stats[0]
	report := &DailyReport{
		Ticker:       ticker,
		Date:         s.Date,
		TotalSignals: s.TotalSignals,
		BuySignals:   s.BuySignals,
		SellSignals:  s.SellSignals,
		HoldSignals:  s.HoldSignals,
	}
	if s.AvgScore != nil {
		report.AvgScore = *s.AvgScore
	}
	if report.TotalSignals > 0 {
		report.BuyRatio = float64(report.BuySignals) / float64(report.TotalSignals) * 100
		report.SellRatio = float64(report.SellSignals) / float64(report.TotalSignals) * 100
	}
	return report, nil
}
