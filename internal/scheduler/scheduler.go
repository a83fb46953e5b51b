package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"stock-master/internal/analyzer"
	"stock-master/internal/metrics"
	"stock-master/internal/storage"
	"stock-master/pkg/types"
)

// SnapshotFetcher 批量获取指标快照，*fetcher.Client 实现了该接口
type SnapshotFetcher interface {
	FetchAll(ctx context.Context, tickers []string) ([]*types.Snapshot, map[string]error)
}

// Analyzer 批量评分，*analyzer.AnalysisEngine 实现了该接口
type Analyzer interface {
	AnalyzeAll(ctx context.Context, snapshots []*types.Snapshot) []analyzer.Result
}

// Scheduler 调度器
type Scheduler struct {
	dataFetcher    SnapshotFetcher
	analysisEngine Analyzer
	stateManager   *storage.StateManager
	metrics        *metrics.Metrics
	watchlist      []string
	interval       time.Duration // 分析周期
	now            func() time.Time
}

func NewScheduler(dataFetcher SnapshotFetcher, analysisEngine Analyzer, stateManager *storage.StateManager,
	m *metrics.Metrics, watchlist []string, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		dataFetcher:    dataFetcher,
		analysisEngine: analysisEngine,
		stateManager:   stateManager,
		metrics:        m,
		watchlist:      watchlist,
		interval:       interval,
		now:            time.Now,
	}
}

// Start 恢复价格窗口后立即分析一轮，之后对齐到周期整点运行，直到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) {
	zap.L().Info("🚀 调度器启动中...",
		zap.Int("watchlist", len(s.watchlist)),
		zap.Duration("interval", s.interval))

	if err := s.stateManager.Restore(ctx, s.watchlist); err != nil {
		zap.L().Warn("⚠️ 恢复价格窗口失败", zap.Error(err))
	}

	for {
		s.RunOnce(ctx)

		next := s.nextRunTime()
		waitDuration := next.Sub(s.now())
		zap.L().Info("⏰ 下次分析时间",
			zap.String("at", next.Format("15:04:05")),
			zap.Duration("wait", waitDuration))

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			zap.L().Info("📴 调度器已停止")
			return
		case <-timer.C:
		}
	}
}

// RunOnce 执行一轮：获取快照、评分推送、记录指标
func (s *Scheduler) RunOnce(ctx context.Context) []analyzer.Result {
	start := s.now()
	zap.L().Info("--- 信号分析任务 ---", zap.String("time", start.Format("15:04:05")))

	stats := s.stateManager.GetRedisStats()
	fields := []zap.Field{zap.Any("memory_tickers", stats["memory_tickers"])}
	if enabled, _ := stats["redis_enabled"].(bool); enabled {
		fields = append(fields, zap.Any("redis_keys", stats["redis_keys"]))
	} else {
		fields = append(fields, zap.Bool("redis_enabled", false))
	}
	zap.L().Info("📊 存储状态", fields...)

	snapshots, failures := s.dataFetcher.FetchAll(ctx, s.watchlist)
	s.metrics.FetchFailed(len(failures))
	for ticker, err := range failures {
		zap.L().Warn("跳过获取失败的股票", zap.String("ticker", ticker), zap.Error(err))
	}

	results := s.analysisEngine.AnalyzeAll(ctx, snapshots)
	s.metrics.ObserveCycle(start, len(s.watchlist))

	zap.L().Info("--- 分析任务完成 ---",
		zap.Int("analyzed", len(results)),
		zap.Int("failed", len(failures)),
		zap.Duration("elapsed", s.now().Sub(start)))
	return results
}

// nextRunTime 下一个对齐到周期的时间点
func (s *Scheduler) nextRunTime() time.Time {
	now := s.now()
	return now.Truncate(s.interval).Add(s.interval)
}
