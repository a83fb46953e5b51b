package analyzer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"stock-master/internal/bitable"
	"stock-master/internal/metrics"
	"stock-master/internal/notifier"
	"stock-master/internal/report"
	"stock-master/internal/storage"
	"stock-master/internal/strategy/interpreter"
	"stock-master/internal/strategy/monitor"
	"stock-master/internal/strategy/signals"
	"stock-master/pkg/types"
)

// SignalRecorder 信号持久化，*database.Manager 实现了该接口
type SignalRecorder interface {
	SaveSignal(signal types.TradingSignal, at time.Time) error
	UpdateDailyStats(signal types.TradingSignal, at time.Time) error
}

// SignalSyncer 信号同步到外部表格，*bitable.Syncer 实现了该接口
type SignalSyncer interface {
	BatchSyncSignals(ctx context.Context, rows []bitable.SignalRow) bitable.BatchResult
}

// Deps 分析引擎的协作组件，除 State 和 Notifier 外都可以为 nil
type Deps struct {
	State    *storage.StateManager
	Notifier notifier.Interface
	Recorder SignalRecorder
	Syncer   SignalSyncer
	Monitor  *monitor.PerformanceMonitor
	Metrics  *metrics.Metrics
}

// Options 分析选项
type Options struct {
	DigestReasons  int  // 推送简报中的理由数
	NotifyOnChange bool // 只推送发生变化的信号
}

// Result 单只股票的分析结果
type Result struct {
	Snapshot *types.Snapshot
	Signal   types.TradingSignal
	Changed  bool
}

// AnalysisEngine 分析引擎
type AnalysisEngine struct {
	deps Deps
	opts Options
	now  func() time.Time
}

func NewAnalysisEngine(deps Deps, opts Options) *AnalysisEngine {
	if deps.Notifier == nil {
		deps.Notifier = notifier.NewConsoleNotifier()
	}
	return &AnalysisEngine{deps: deps, opts: opts, now: time.Now}
}

// Evaluate 评分单个快照：记录价格窗口、补齐近1月价格和支撑阻力位、缓存并持久化信号
func (ae *AnalysisEngine) Evaluate(ctx context.Context, snap *types.Snapshot) Result {
	at := snap.Timestamp
	if at.IsZero() {
		at = ae.now()
	}

	state := ae.deps.State
	state.Store(snap.Ticker, snap.CurrentPrice, at)

	// 复制一份，不修改调用方的快照
	in := *snap
	if len(in.Prices1M) == 0 {
		in.Prices1M = state.Prices(snap.Ticker)
	}
	if in.NearestSupport == nil && in.NearestResistance == nil {
		fillSupportResistance(&in)
	}

	signal := signals.Score(&in)

	changed, err := state.SaveSignal(ctx, signal)
	if err != nil {
		zap.L().Warn("⚠️ 缓存信号失败", zap.String("ticker", signal.Ticker), zap.Error(err))
		ae.deps.Metrics.SyncFailed("redis")
	}

	if rec := ae.deps.Recorder; rec != nil {
		if err := rec.SaveSignal(signal, at); err != nil {
			zap.L().Error("❌ 保存信号失败", zap.String("ticker", signal.Ticker), zap.Error(err))
			ae.deps.Metrics.SyncFailed("mysql")
		} else if err := rec.UpdateDailyStats(signal, at); err != nil {
			zap.L().Warn("⚠️ 更新日统计失败", zap.String("ticker", signal.Ticker), zap.Error(err))
		}
	}

	ae.deps.Metrics.ObserveSignal(signal, changed)
	if ae.deps.Monitor != nil {
		ae.deps.Monitor.Record(signal, changed, at)
	}

	zap.L().Debug("✅ 评分完成",
		zap.String("ticker", signal.Ticker),
		zap.String("action", string(signal.Action)),
		zap.Int("score", signal.Score),
		zap.Bool("changed", changed))

	return Result{Snapshot: &in, Signal: signal, Changed: changed}
}

// fillSupportResistance 上游没给支撑阻力位时，用近20个价格的高低点估算，只保留在现价两侧的价位
func fillSupportResistance(snap *types.Snapshot) {
	levels, ok := interpreter.SupportResistanceLevels(snap.Prices1M, snap.CurrentPrice)
	if !ok {
		return
	}
	if levels.StrongSupport < snap.CurrentPrice {
		snap.NearestSupport = types.Float(levels.StrongSupport)
	}
	if levels.StrongResistance > snap.CurrentPrice {
		snap.NearestResistance = types.Float(levels.StrongResistance)
	}
}

// AnalyzeAll 并发分析全部快照，批量推送信号并同步到表格，结果保持输入顺序
func (ae *AnalysisEngine) AnalyzeAll(ctx context.Context, snapshots []*types.Snapshot) []Result {
	if len(snapshots) == 0 {
		return nil
	}

	zap.L().Info("开始分析股票信号", zap.Int("count", len(snapshots)))

	results := make([]Result, len(snapshots))
	var wg sync.WaitGroup
	for i, snap := range snapshots {
		wg.Add(1)
		go func(idx int, s *types.Snapshot) {
			defer wg.Done()
			results[idx] = ae.Evaluate(ctx, s)
		}(i, snap)
	}
	wg.Wait()

	alerts := ae.collectAlerts(results)
	if len(alerts) > 0 {
		ae.sendBatchAlerts(alerts)
		zap.L().Info("✅ 分析完成", zap.Int("alerts", len(alerts)))
	} else {
		zap.L().Info("✅ 分析完成，信号无变化")
	}

	ae.syncSignals(ctx, results)
	return results
}

func (ae *AnalysisEngine) collectAlerts(results []Result) []*types.SignalAlert {
	alerts := make([]*types.SignalAlert, 0)
	for _, r := range results {
		if ae.opts.NotifyOnChange && !r.Changed {
			continue
		}
		alerts = append(alerts, &types.SignalAlert{
			Ticker:    r.Signal.Ticker,
			Name:      r.Snapshot.Name,
			Signal:    r.Signal,
			Digest:    report.Simple(r.Snapshot, r.Signal, ae.opts.DigestReasons),
			AlertTime: ae.now(),
		})
	}
	return alerts
}

// sendBatchAlerts 批量发送，失败时降级为逐条发送
func (ae *AnalysisEngine) sendBatchAlerts(alerts []*types.SignalAlert) {
	n := ae.deps.Notifier

	if len(alerts) == 1 {
		if err := n.SendSignal(alerts[0]); err != nil {
			zap.L().Error("❌ 发送信号失败", zap.String("ticker", alerts[0].Ticker), zap.Error(err))
			ae.deps.Metrics.SyncFailed("notify")
		}
		return
	}

	if err := n.SendBatchSignals(alerts); err != nil {
		zap.L().Error("❌ 批量发送信号失败，改为逐条发送", zap.Error(err))
		for _, alert := range alerts {
			if singleErr := n.SendSignal(alert); singleErr != nil {
				zap.L().Error("❌ 单条信号发送失败", zap.String("ticker", alert.Ticker), zap.Error(singleErr))
				ae.deps.Metrics.SyncFailed("notify")
			}
		}
	}
}

func (ae *AnalysisEngine) syncSignals(ctx context.Context, results []Result) {
	if ae.deps.Syncer == nil {
		return
	}

	rows := make([]bitable.SignalRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, bitable.NewSignalRow(r.Snapshot, r.Signal, ae.now()))
	}

	result := ae.deps.Syncer.BatchSyncSignals(ctx, rows)
	for _, e := range result.Errors {
		zap.L().Warn("⚠️ 飞书同步失败", zap.String("ticker", e.Ticker), zap.String("error", e.Error))
		ae.deps.Metrics.SyncFailed("bitable")
	}
}
