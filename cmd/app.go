package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"stock-master/internal/analyzer"
	"stock-master/internal/bitable"
	"stock-master/internal/database"
	"stock-master/internal/fetcher"
	"stock-master/internal/metrics"
	"stock-master/internal/notifier"
	"stock-master/internal/scheduler"
	"stock-master/internal/server"
	"stock-master/internal/storage"
	"stock-master/internal/strategy/monitor"
	"stock-master/pkg/types"
)

const shutdownTimeout = 30 * time.Second

// App 应用程序管理器
type App struct {
	config *types.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stateManager *storage.StateManager
	dbManager    *database.Manager
	monitor      *monitor.PerformanceMonitor
	scheduler    *scheduler.Scheduler
	httpServer   *http.Server
}

// NewApp 创建应用程序实例并装配各模块
func NewApp(config *types.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	app.stateManager = storage.NewStateManager(config.Redis, config.Scoring.PriceWindow)

	var recorder analyzer.SignalRecorder
	var statsStore monitor.StatsStore
	var store server.Store
	if config.Database.MySQL.Enabled {
		db, err := database.NewManager(config.Database.MySQL)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("连接数据库失败: %w", err)
		}
		if err := db.AutoMigrate(); err != nil {
			cancel()
			_ = db.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		app.dbManager = db
		recorder, statsStore, store = db, db, db
	}

	// 通知服务优先级：钉钉 > PushPlus > 控制台
	notifyService := notifier.New(config)

	var signalSyncer analyzer.SignalSyncer
	var portfolioSyncer server.PortfolioSyncer
	if config.Feishu.Enabled {
		client := bitable.NewClient(config.Feishu, bitable.StaticToken(config.Feishu.AccessToken))
		syncer := bitable.NewSyncer(client, config.Feishu)
		signalSyncer, portfolioSyncer = syncer, syncer
		zap.L().Info("✅ 已启用飞书多维表格同步")
	}

	m := metrics.NewMetrics()
	app.monitor = monitor.NewPerformanceMonitor(statsStore, 0)

	analysisEngine := analyzer.NewAnalysisEngine(analyzer.Deps{
		State:    app.stateManager,
		Notifier: notifyService,
		Recorder: recorder,
		Syncer:   signalSyncer,
		Monitor:  app.monitor,
		Metrics:  m,
	}, analyzer.Options{
		DigestReasons:  config.Scoring.DigestReasons,
		NotifyOnChange: config.Scoring.NotifyOnChange,
	})

	if config.Schedule.Enabled {
		if len(config.Watchlist) == 0 {
			zap.L().Warn("⚠️ 自选股列表为空，调度器不会获取数据")
		}
		dataFetcher := fetcher.NewClient(config.Provider, config.Network)
		app.scheduler = scheduler.NewScheduler(dataFetcher, analysisEngine, app.stateManager, m,
			config.Watchlist, config.Schedule.Interval)
	}

	if config.Server.Enabled {
		api := server.NewServer(server.Deps{
			State:   app.stateManager,
			Store:   store,
			Syncer:  portfolioSyncer,
			Monitor: app.monitor,
			Metrics: m,
		}, config.Server, config.Scoring)
		app.httpServer = &http.Server{
			Addr:              config.Server.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	return app, nil
}

// Start 启动应用程序
func (app *App) Start() {
	zap.L().Info("🚀 Stock Master 启动中...")

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.monitor.Start(app.ctx)
	}()

	if app.scheduler != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.scheduler.Start(app.ctx)
		}()
	}

	if app.httpServer != nil {
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			zap.L().Info("🌐 HTTP服务已启动", zap.String("addr", app.httpServer.Addr))
			if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.L().Error("❌ HTTP服务异常退出", zap.Error(err))
			}
		}()
	}

	zap.L().Info("✅ Stock Master 已启动")
}

// Stop 停止应用程序
func (app *App) Stop() {
	zap.L().Info("🛑 收到停止信号，正在优雅关闭...")
	app.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if app.httpServer != nil {
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("⚠️ HTTP服务关闭失败", zap.Error(err))
		}
	}

	// 等待所有goroutine结束，最多等待30秒
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		zap.L().Warn("⚠️ 强制关闭超时")
	}

	if err := app.stateManager.Close(); err != nil {
		zap.L().Warn("⚠️ 关闭Redis连接失败", zap.Error(err))
	}
	if app.dbManager != nil {
		if err := app.dbManager.Close(); err != nil {
			zap.L().Warn("⚠️ 关闭数据库连接失败", zap.Error(err))
		}
	}
	zap.L().Info("✅ Stock Master 已安全关闭")
}

// WaitForShutdown 等待关闭信号
func (app *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
