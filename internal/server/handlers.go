package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"stock-master/internal/database"
	"stock-master/internal/ranking"
	"stock-master/internal/report"
	"stock-master/internal/strategy/monitor"
	"stock-master/internal/strategy/signals"
	"stock-master/pkg/types"
)

const defaultHistoryLimit = 20

func bindSnapshot(c *gin.Context) (*types.Snapshot, bool) {
	var snap types.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("请求体解析失败: %w", err))
		return nil, false
	}
	if err := snap.Validate(); err != nil {
		abort(c, http.StatusBadRequest, err)
		return nil, false
	}
	return &snap, true
}

// POST /api/v1/score
func (s *Server) score(c *gin.Context) {
	snap, ok := bindSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, signals.Score(snap))
}

// POST /api/v1/report?mode=simple|detailed&format=text
func (s *Server) report(c *gin.Context) {
	raw := c.Query("mode")
	if raw == "" {
		raw = s.scoring.ReportMode
	}
	mode, ok := report.ParseMode(raw)
	if !ok {
		abort(c, http.StatusBadRequest, fmt.Errorf("不支持的报告模式: %q", raw))
		return
	}

	snap, ok := bindSnapshot(c)
	if !ok {
		return
	}
	signal := signals.Score(snap)
	text := report.Render(mode, snap, signal, s.scoring.DigestReasons, s.now())

	if c.Query("format") == "text" {
		c.String(http.StatusOK, text)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ticker": snap.Ticker,
		"mode":   mode,
		"signal": signal,
		"report": text,
	})
}

// GET /api/v1/signals/:ticker?history=N
func (s *Server) latestSignal(c *gin.Context) {
	ticker := c.Param("ticker")
	body := gin.H{"ticker": ticker}

	latest, found := s.deps.State.LatestSignal(c.Request.Context(), ticker)
	if found {
		body["signal"] = latest
	}

	if s.deps.Store != nil && c.Query("history") != "" {
		limit, err := strconv.Atoi(c.Query("history"))
		if err != nil || limit <= 0 {
			limit = defaultHistoryLimit
		}
		records, err := s.deps.Store.GetSignals(ticker, limit)
		if err != nil {
			abort(c, http.StatusInternalServerError, err)
			return
		}
		history := make([]types.TradingSignal, 0, len(records))
		for _, r := range records {
			history = append(history, r.ToSignal())
		}
		body["history"] = history
		found = found || len(history) > 0
	}

	if !found {
		abort(c, http.StatusNotFound, fmt.Errorf("没有 %s 的信号", ticker))
		return
	}
	c.JSON(http.StatusOK, body)
}

type rankRequest struct {
	Method     string          `json:"method"`
	DefaultRSI *float64        `json:"default_rsi"`
	Entries    []ranking.Entry `json:"entries" binding:"required,min=1"`
}

// POST /api/v1/rank
func (s *Server) rank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("请求体解析失败: %w", err))
		return
	}

	raw := req.Method
	if raw == "" {
		raw = s.scoring.RankMethod
	}
	method, err := ranking.ParseMethod(raw)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	opts := ranking.Options{DefaultRSI: s.scoring.DefaultRSI}
	if req.DefaultRSI != nil {
		opts.DefaultRSI = *req.DefaultRSI
	}
	ranked, err := ranking.Rank(req.Entries, method, opts)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"method": method, "ranking": ranked})
}

// GET /api/v1/stats
func (s *Server) stats(c *gin.Context) {
	if s.deps.Monitor == nil {
		abort(c, http.StatusServiceUnavailable, errors.New("未启用信号统计"))
		return
	}
	c.JSON(http.StatusOK, s.deps.Monitor.GetMetrics())
}

// GET /api/v1/stats/:ticker/daily
func (s *Server) dailyStats(c *gin.Context) {
	if s.deps.Monitor == nil {
		abort(c, http.StatusServiceUnavailable, errors.New("未启用信号统计"))
		return
	}
	daily, err := s.deps.Monitor.GetDailyReport(c.Param("ticker"))
	if errors.Is(err, monitor.ErrNoStatsStore) {
		abort(c, http.StatusServiceUnavailable, err)
		return
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, daily)
}

func storeStatus(err error) int {
	if errors.Is(err, database.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
