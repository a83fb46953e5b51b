package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"stock-master/internal/bitable"
	"stock-master/internal/database"
	"stock-master/internal/metrics"
	"stock-master/internal/storage"
	"stock-master/internal/strategy/monitor"
	"stock-master/pkg/types"
)

// Store 数据库能力，*database.Manager 实现了该接口
type Store interface {
	GetSignals(ticker string, limit int) ([]database.SignalRecord, error)
	ListHoldings() ([]types.Holding, error)
	UpsertHolding(h types.Holding) error
	DeleteHolding(ticker string) error
	RecordTrade(t types.Trade) (types.Holding, error)
	ListTrades(ticker string, limit int) ([]types.Trade, error)
	Health() error
}

// PortfolioSyncer 持仓和交易同步到外部表格，*bitable.Syncer 实现了该接口
type PortfolioSyncer interface {
	SyncHolding(ctx context.Context, h types.HoldingValuation) error
	SyncTrade(ctx context.Context, t types.Trade) error
}

var _ PortfolioSyncer = (*bitable.Syncer)(nil)

// Deps 服务依赖，Store、Syncer、Monitor、Metrics 可以为 nil
type Deps struct {
	State   *storage.StateManager
	Store   Store
	Syncer  PortfolioSyncer
	Monitor *monitor.PerformanceMonitor
	Metrics *metrics.Metrics
}

// Server HTTP API
type Server struct {
	deps    Deps
	scoring types.ScoringConfig
	engine  *gin.Engine
	now     func() time.Time
}

func NewServer(deps Deps, cfg types.ServerConfig, scoring types.ScoringConfig) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		deps:    deps,
		scoring: scoring,
		engine:  gin.New(),
		now:     time.Now,
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.registerRoutes()
	return s
}

// Handler 用于 http.Server 或测试
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/healthz", s.health)
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	api := r.Group("/api/v1")
	api.POST("/score", s.score)
	api.POST("/report", s.report)
	api.GET("/signals/:ticker", s.latestSignal)
	api.POST("/rank", s.rank)
	api.GET("/stats", s.stats)
	api.GET("/stats/:ticker/daily", s.dailyStats)

	// 持仓相关接口依赖数据库
	if s.deps.Store != nil {
		api.GET("/holdings", s.listHoldings)
		api.PUT("/holdings", s.upsertHolding)
		api.DELETE("/holdings/:ticker", s.deleteHolding)
		api.GET("/trades", s.listTrades)
		api.POST("/trades", s.recordTrade)
		api.GET("/portfolio/summary", s.portfolioSummary)
	}
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":  "ok",
		"storage": s.deps.State.GetRedisStats(),
	}
	if s.deps.Store != nil {
		if err := s.deps.Store.Health(); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = err.Error()
		} else {
			body["database"] = "ok"
		}
	}
	c.JSON(status, body)
}

const requestIDHeader = "X-Request-ID"

// requestLogger 为每个请求分配请求ID并记录耗时
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			zap.L().Warn("HTTP请求", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		zap.L().Debug("HTTP请求", fields...)
	}
}

func abort(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
