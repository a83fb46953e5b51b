package types

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSnapshot 指标快照缺少必填数据
var ErrInvalidSnapshot = errors.New("指标快照无效")

// PriceDataPoint 价格数据点
type PriceDataPoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot 单个标的在某一时刻的全部指标读数，由行情数据服务提供。
// 指针字段和空字符串枚举表示该指标未提供，评分时跳过。
type Snapshot struct {
	Ticker        string    `json:"ticker"`
	Name          string    `json:"name,omitempty"`
	CurrentPrice  float64   `json:"current_price"`
	ChangePercent float64   `json:"change_percent"` // 今日涨跌幅
	Timestamp     time.Time `json:"timestamp"`

	// 必填指标
	RSI               float64   `json:"rsi"`
	MACDHistogram     float64   `json:"macd_histogram"`
	PrevMACDHistogram float64   `json:"prev_macd_histogram"`
	Bollinger         Bollinger `json:"bollinger"`

	// 报告用的 MACD 两线
	MACDLine       float64 `json:"macd_line,omitempty"`
	MACDSignalLine float64 `json:"macd_signal_line,omitempty"`

	Prices1M []float64 `json:"prices_1m,omitempty"` // 近1月收盘价，从旧到新
	Prices3M []float64 `json:"prices_3m,omitempty"` // 近3月收盘价，从旧到新

	ATR           *float64      `json:"atr,omitempty"`
	ATRPercent    *float64      `json:"atr_percent,omitempty"`
	VolumeRatio   *float64      `json:"volume_ratio,omitempty"`
	VolumeSignal  VolumeSignal  `json:"volume_signal,omitempty"`
	VolumePattern VolumePattern `json:"volume_pattern,omitempty"`

	MAArrangement MAArrangement `json:"ma_arrangement,omitempty"`
	PriceAboveMA  []string      `json:"price_above_ma,omitempty"`
	PriceBelowMA  []string      `json:"price_below_ma,omitempty"`

	KDJ       *KDJ      `json:"kdj,omitempty"`
	KDJSignal KDJSignal `json:"kdj_signal,omitempty"`

	MACDDivergence Divergence `json:"macd_divergence,omitempty"`
	RSIDivergence  Divergence `json:"rsi_divergence,omitempty"`

	OBVSignal OBVSignal `json:"obv_signal,omitempty"`

	WilliamsR      *float64   `json:"williams_r,omitempty"`
	WilliamsSignal ZoneSignal `json:"williams_signal,omitempty"`
	Bias6          *float64   `json:"bias6,omitempty"`
	BiasSignal     ZoneSignal `json:"bias_signal,omitempty"`

	NearestSupport    *float64 `json:"nearest_support,omitempty"`
	NearestResistance *float64 `json:"nearest_resistance,omitempty"`

	Patterns []PatternMatch `json:"patterns,omitempty"`
}

// Validate 校验必填字段，供调用方在进入评分前使用
func (s *Snapshot) Validate() error {
	if s.Ticker == "" {
		return fmt.Errorf("%w: 缺少股票代码", ErrInvalidSnapshot)
	}
	if s.CurrentPrice <= 0 {
		return fmt.Errorf("%w: %s 当前价格必须大于0", ErrInvalidSnapshot, s.Ticker)
	}
	bb := s.Bollinger
	if bb.Upper <= bb.Middle || bb.Middle <= bb.Lower {
		return fmt.Errorf("%w: %s 布林带上中下轨顺序错误 (%.2f/%.2f/%.2f)",
			ErrInvalidSnapshot, s.Ticker, bb.Upper, bb.Middle, bb.Lower)
	}
	return nil
}

// Float 返回指向v的指针，用于填写可选指标
func Float(v float64) *float64 {
	return &v
}
