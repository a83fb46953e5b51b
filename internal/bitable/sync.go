package bitable

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"stock-master/pkg/types"
)

const tickerField = "股票代码"

// SignalRow 同步到信号表的一行
type SignalRow struct {
	Ticker     string
	Name       string
	RSI        float64
	MACDSignal string
	Patterns   []string
	Signal     types.TradingSignal
	UpdatedAt  time.Time
}

// NewSignalRow 由快照和评分结果组装信号行
func NewSignalRow(snap *types.Snapshot, signal types.TradingSignal, at time.Time) SignalRow {
	row := SignalRow{
		Ticker:     strings.ToUpper(snap.Ticker),
		Name:       snap.Name,
		RSI:        snap.RSI,
		MACDSignal: macdText(snap.MACDHistogram, snap.PrevMACDHistogram),
		Signal:     signal,
		UpdatedAt:  at,
	}
	for _, p := range snap.Patterns {
		row.Patterns = append(row.Patterns, p.Kind.DisplayName())
	}
	return row
}

// SyncError 单只股票同步失败
type SyncError struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// BatchResult 批量同步结果，失败的不回滚
type BatchResult struct {
	Success int         `json:"success"`
	Failed  int         `json:"failed"`
	Errors  []SyncError `json:"errors"`
}

// Syncer 把信号、持仓、交易单向同步到多维表格
type Syncer struct {
	client       *Client
	signalTable  string
	holdingTable string
	tradeTable   string
}

func NewSyncer(client *Client, cfg types.FeishuConfig) *Syncer {
	return &Syncer{
		client:       client,
		signalTable:  cfg.SignalTable,
		holdingTable: cfg.HoldingTable,
		tradeTable:   cfg.TradeTable,
	}
}

// upsert 有同代码记录就更新，否则新建
func (s *Syncer) upsert(ctx context.Context, tableID, ticker string, fields Fields) error {
	existing, err := s.client.FindRecord(ctx, tableID, tickerField, ticker)
	if err == nil {
		_, err = s.client.UpdateRecord(ctx, tableID, existing.RecordID, fields)
		return err
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return err
	}
	_, err = s.client.CreateRecord(ctx, tableID, fields)
	return err
}

// SyncSignal 同步一只股票的最新信号
func (s *Syncer) SyncSignal(ctx context.Context, row SignalRow) error {
	return s.upsert(ctx, s.signalTable, row.Ticker, SignalFields(row))
}

// SyncHolding 同步持仓及其按现价的盈亏
func (s *Syncer) SyncHolding(ctx context.Context, h types.HoldingValuation) error {
	return s.upsert(ctx, s.holdingTable, strings.ToUpper(h.Ticker), HoldingFields(h))
}

// SyncTrade 交易记录只追加
func (s *Syncer) SyncTrade(ctx context.Context, t types.Trade) error {
	_, err := s.client.CreateRecord(ctx, s.tradeTable, TradeFields(t))
	return err
}

// BatchSyncSignals 逐只同步，单只失败不影响其他
func (s *Syncer) BatchSyncSignals(ctx context.Context, rows []SignalRow) BatchResult {
	result := BatchResult{Errors: []SyncError{}}

	for _, row := range rows {
		if err := s.SyncSignal(ctx, row); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, SyncError{Ticker: row.Ticker, Error: err.Error()})
			continue
		}
		result.Success++
	}

	zap.L().Info("📤 飞书信号同步完成",
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed))
	return result
}

// SignalFields 信号表字段
func SignalFields(row SignalRow) Fields {
	s := row.Signal
	divergence := s.DivergenceSignal
	if divergence == "" {
		divergence = "无"
	}
	patterns := row.Patterns
	if patterns == nil {
		patterns = []string{}
	}

	return Fields{
		"股票代码":  row.Ticker,
		"股票名称":  row.Name,
		"当前价格":  s.CurrentPrice,
		"综合评分":  s.Score,
		"操作建议":  string(s.Action),
		"RSI":   row.RSI,
		"MACD信号": row.MACDSignal,
		"KDJ信号":  kdjText(s.KDJSignal),
		"背离信号":  divergence,
		"形态信号":  patterns,
		"止损价":   s.StopLoss,
		"止盈价":   s.TakeProfit,
		"分析理由":  strings.Join(s.ReasonTexts(), "\n"),
		"更新时间":  Timestamp(row.UpdatedAt),
	}
}

// HoldingFields 持仓表字段，盈亏比例保留两位小数
func HoldingFields(h types.HoldingValuation) Fields {
	market := h.Market
	if market == "" {
		market = "美股"
	}
	fields := Fields{
		"股票代码": strings.ToUpper(h.Ticker),
		"股票名称": h.Name,
		"持仓数量": h.Shares,
		"成本价":  h.AvgCost,
		"当前价":  h.CurrentPrice,
		"盈亏金额": math.Round(h.ProfitLoss*100) / 100,
		"盈亏比例": math.Round(h.ProfitLossPct*100) / 100,
		"市场":   market,
		"备注":   h.Notes,
	}
	if !h.BuyDate.IsZero() {
		fields["买入日期"] = Timestamp(h.BuyDate)
	}
	return fields
}

// TradeFields 交易表字段
func TradeFields(t types.Trade) Fields {
	amount := t.Amount
	if amount == 0 {
		amount = t.Shares * t.Price
	}
	at := t.TradeTime
	if at.IsZero() {
		at = time.Now()
	}
	return Fields{
		"股票代码": strings.ToUpper(t.Ticker),
		"交易类型": string(t.Type),
		"交易价格": t.Price,
		"交易数量": t.Shares,
		"交易金额": amount,
		"交易时间": Timestamp(at),
		"触发信号": t.Signal,
		"备注":   t.Notes,
	}
}

// Timestamp 多维表格日期字段使用毫秒时间戳
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

func macdText(hist, prev float64) string {
	switch {
	case prev <= 0 && hist > 0:
		return "金叉"
	case prev > 0 && hist <= 0:
		return "死叉"
	case hist > 0:
		return "多头"
	default:
		return "空头"
	}
}

var kdjTexts = map[types.KDJSignal]string{
	types.KDJGoldenCross: "金叉",
	types.KDJDeathCross:  "死叉",
	types.KDJOverbought:  "超买",
	types.KDJOversold:    "超卖",
	types.KDJHighZone:    "高位",
	types.KDJLowZone:     "低位",
	types.KDJNeutral:     "中性",
}

func kdjText(signal types.KDJSignal) string {
	return kdjTexts[signal]
}
