package types

import "time"

// Action 操作建议
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Confidence 置信度
type Confidence string

const (
	ConfidenceHigh   Confidence = "高"
	ConfidenceMedium Confidence = "中"
	ConfidenceLow    Confidence = "低"
)

// Severity 理由前的提示标记
type Severity string

const (
	SeverityPositive Severity = "✅"
	SeverityWarning  Severity = "⚠️"
	SeverityStrong   Severity = "🔥"
	SeverityNote     Severity = "📍"
	SeverityVolume   Severity = "📊"
	SeverityUp       Severity = "📈"
	SeverityDown     Severity = "📉"
)

// Reason 一条评分理由
type Reason struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

// String 带标记的完整理由文本
func (r Reason) String() string {
	return string(r.Severity) + " " + r.Text
}

// TradingSignal 评分引擎输出的交易信号，生成后不再修改
type TradingSignal struct {
	Ticker       string     `json:"ticker"`
	CurrentPrice float64    `json:"current_price"`
	Action       Action     `json:"action"`
	Confidence   Confidence `json:"confidence"`
	Score        int        `json:"score"`

	BuyPrice   float64 `json:"buy_price"`
	SellPrice  float64 `json:"sell_price"`
	StopLoss   float64 `json:"stop_loss"`
	TakeProfit float64 `json:"take_profit"`

	Reasons []Reason `json:"reasons"`

	ATR                      *float64 `json:"atr,omitempty"`
	ATRPercent               *float64 `json:"atr_percent,omitempty"`
	RiskRewardRatio          *float64 `json:"risk_reward_ratio,omitempty"`
	SuggestedPositionPercent float64  `json:"suggested_position_percent"`

	VolumeSignal     VolumeSignal  `json:"volume_signal,omitempty"`
	MATrend          MAArrangement `json:"ma_trend,omitempty"`
	KDJSignal        KDJSignal     `json:"kdj_signal,omitempty"`
	DivergenceSignal string        `json:"divergence_signal,omitempty"`
	OBVSignal        OBVSignal     `json:"obv_signal,omitempty"`
	SupportPrice     *float64      `json:"support_price,omitempty"`
	ResistancePrice  *float64      `json:"resistance_price,omitempty"`
	PatternsSignal   PatternSignal `json:"patterns_signal,omitempty"`
	PatternsCount    int           `json:"patterns_count"`
}

// ReasonTexts 按评估顺序返回带标记的理由文本
func (s *TradingSignal) ReasonTexts() []string {
	texts := make([]string, 0, len(s.Reasons))
	for _, r := range s.Reasons {
		texts = append(texts, r.String())
	}
	return texts
}

// SignalAlert 推送给通知渠道的信号
type SignalAlert struct {
	Ticker    string        `json:"ticker"`
	Name      string        `json:"name"`
	Signal    TradingSignal `json:"signal"`
	Digest    string        `json:"digest"` // 简洁版报告
	AlertTime time.Time     `json:"alert_time"`
}
