package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"stock-master/internal/portfolio"
	"stock-master/pkg/types"
)

const defaultTradeLimit = 50

type holdingRequest struct {
	Ticker  string    `json:"ticker" binding:"required"`
	Name    string    `json:"name"`
	Market  string    `json:"market"`
	Shares  float64   `json:"shares" binding:"gte=0"`
	AvgCost float64   `json:"avg_cost" binding:"gte=0"`
	BuyDate time.Time `json:"buy_date"`
	Notes   string    `json:"notes"`
}

type tradeRequest struct {
	Ticker    string          `json:"ticker" binding:"required"`
	Type      types.TradeType `json:"trade_type" binding:"required,oneof=买入 卖出 做T"`
	Shares    float64         `json:"shares" binding:"gt=0"`
	Price     float64         `json:"price" binding:"gt=0"`
	Fee       float64         `json:"fee" binding:"gte=0"`
	Signal    string          `json:"signal"`
	Notes     string          `json:"notes"`
	TradeTime time.Time       `json:"trade_time"`
}

// GET /api/v1/holdings
func (s *Server) listHoldings(c *gin.Context) {
	holdings, err := s.deps.Store.ListHoldings()
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

// PUT /api/v1/holdings
func (s *Server) upsertHolding(c *gin.Context) {
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("请求体解析失败: %w", err))
		return
	}

	h := types.Holding{
		Ticker:  strings.ToUpper(req.Ticker),
		Name:    req.Name,
		Market:  req.Market,
		Shares:  req.Shares,
		AvgCost: req.AvgCost,
		BuyDate: req.BuyDate,
		Notes:   req.Notes,
	}
	if err := s.deps.Store.UpsertHolding(h); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, h)
}

// DELETE /api/v1/holdings/:ticker
func (s *Server) deleteHolding(c *gin.Context) {
	if err := s.deps.Store.DeleteHolding(c.Param("ticker")); err != nil {
		abort(c, storeStatus(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/trades?ticker=&limit=
func (s *Server) listTrades(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultTradeLimit)))
	if err != nil || limit <= 0 {
		limit = defaultTradeLimit
	}
	trades, err := s.deps.Store.ListTrades(c.Query("ticker"), limit)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// POST /api/v1/trades 记录成交并更新持仓，启用飞书时同步交易记录
func (s *Server) recordTrade(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("请求体解析失败: %w", err))
		return
	}

	t := types.Trade{
		Ticker:    strings.ToUpper(req.Ticker),
		Type:      req.Type,
		Shares:    req.Shares,
		Price:     req.Price,
		Amount:    req.Shares * req.Price,
		Fee:       req.Fee,
		Signal:    req.Signal,
		Notes:     req.Notes,
		TradeTime: req.TradeTime,
	}
	if t.TradeTime.IsZero() {
		t.TradeTime = s.now()
	}

	holding, err := s.deps.Store.RecordTrade(t)
	if errors.Is(err, portfolio.ErrInsufficientShares) {
		abort(c, http.StatusUnprocessableEntity, err)
		return
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}

	if s.deps.Syncer != nil {
		if err := s.deps.Syncer.SyncTrade(c.Request.Context(), t); err != nil {
			zap.L().Warn("⚠️ 交易记录同步飞书失败", zap.String("ticker", t.Ticker), zap.Error(err))
			s.deps.Metrics.SyncFailed("bitable")
		}
	}

	c.JSON(http.StatusCreated, gin.H{"trade": t, "holding": holding})
}

// GET /api/v1/portfolio/summary?format=text&sync=true
func (s *Server) portfolioSummary(c *gin.Context) {
	holdings, err := s.deps.Store.ListHoldings()
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}

	summary := portfolio.Revalue(holdings, s.currentPrices(c, holdings), s.now())

	if s.deps.Syncer != nil && c.Query("sync") == "true" {
		for _, v := range summary.Holdings {
			if err := s.deps.Syncer.SyncHolding(c.Request.Context(), v); err != nil {
				zap.L().Warn("⚠️ 持仓同步飞书失败", zap.String("ticker", v.Ticker), zap.Error(err))
				s.deps.Metrics.SyncFailed("bitable")
			}
		}
	}

	if c.Query("format") == "text" {
		c.String(http.StatusOK, portfolio.FormatSummary(summary))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// currentPrices 优先用最新信号的价格，其次用价格窗口里最新的价格
func (s *Server) currentPrices(c *gin.Context, holdings []types.Holding) map[string]float64 {
	prices := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		key := strings.ToUpper(h.Ticker)
		if signal, ok := s.deps.State.LatestSignal(c.Request.Context(), h.Ticker); ok && signal.CurrentPrice > 0 {
			prices[key] = signal.CurrentPrice
			continue
		}
		if window := s.deps.State.Prices(h.Ticker); len(window) > 0 {
			prices[key] = window[len(window)-1]
		}
	}
	return prices
}
