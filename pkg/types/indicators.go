package types

// Bollinger 布林带
type Bollinger struct {
	Upper  float64 `json:"upper"`  // 上轨
	Middle float64 `json:"middle"` // 中轨
	Lower  float64 `json:"lower"`  // 下轨
}

// KDJ 随机指标三线数值
type KDJ struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
	J float64 `json:"j"`
}

// VolumeSignal 成交量方向信号，空值表示未提供
type VolumeSignal string

const (
	VolumeBullish VolumeSignal = "bullish"
	VolumeBearish VolumeSignal = "bearish"
	VolumeNeutral VolumeSignal = "neutral"
)

// VolumePattern 量价形态（报告文字用）
type VolumePattern string

const (
	VolumeRiseOnHighVolume   VolumePattern = "放量上涨"
	VolumeFallOnHighVolume   VolumePattern = "放量下跌"
	VolumeRiseOnLowVolume    VolumePattern = "缩量上涨"
	VolumeFallOnLowVolume    VolumePattern = "缩量下跌"
	VolumeChoppyOnHighVolume VolumePattern = "放量震荡"
	VolumeSteady             VolumePattern = "量价平稳"
)

// MAArrangement 均线排列
type MAArrangement string

const (
	MABullishStack MAArrangement = "多头排列"
	MABearishStack MAArrangement = "空头排列"
	MATangled      MAArrangement = "均线缠绕"
)

// KDJSignal KDJ 信号
type KDJSignal string

const (
	KDJGoldenCross KDJSignal = "golden_cross"
	KDJDeathCross  KDJSignal = "death_cross"
	KDJOverbought  KDJSignal = "overbought"
	KDJOversold    KDJSignal = "oversold"
	KDJHighZone    KDJSignal = "high_zone"
	KDJLowZone     KDJSignal = "low_zone"
	KDJNeutral     KDJSignal = "neutral"
)

// Divergence 背离方向
type Divergence string

const (
	DivergenceBullish Divergence = "bullish"
	DivergenceBearish Divergence = "bearish"
	DivergenceNone    Divergence = "none"
)

// OBVSignal OBV 能量潮信号
type OBVSignal string

const (
	OBVConfirmedUp       OBVSignal = "confirmed_up"
	OBVConfirmedDown     OBVSignal = "confirmed_down"
	OBVBullishDivergence OBVSignal = "bullish_divergence"
	OBVBearishDivergence OBVSignal = "bearish_divergence"
	OBVNeutral           OBVSignal = "neutral"
)

// ZoneSignal 超买超卖区间信号（威廉指标、乖离率共用）
type ZoneSignal string

const (
	ZoneOverbought ZoneSignal = "overbought"
	ZoneOversold   ZoneSignal = "oversold"
	ZoneNeutral    ZoneSignal = "neutral"
)

// PatternSignal 形态方向
type PatternSignal string

const (
	PatternBullish PatternSignal = "bullish"
	PatternBearish PatternSignal = "bearish"
	PatternNeutral PatternSignal = "neutral"
)

// PatternStrength 形态强度
type PatternStrength string

const (
	StrengthWeak       PatternStrength = "weak"
	StrengthMedium     PatternStrength = "medium"
	StrengthStrong     PatternStrength = "strong"
	StrengthVeryStrong PatternStrength = "very_strong"
)

// PatternKind K线形态与趋势形态的种类
type PatternKind string

// K线形态
const (
	PatternDoji               PatternKind = "doji"
	PatternHammer             PatternKind = "hammer"
	PatternHangingMan         PatternKind = "hanging_man"
	PatternBullishEngulfing   PatternKind = "bullish_engulfing"
	PatternBearishEngulfing   PatternKind = "bearish_engulfing"
	PatternMorningStar        PatternKind = "morning_star"
	PatternEveningStar        PatternKind = "evening_star"
	PatternThreeWhiteSoldiers PatternKind = "three_white_soldiers"
	PatternThreeBlackCrows    PatternKind = "three_black_crows"
	PatternShootingStar       PatternKind = "shooting_star"
	PatternInvertedHammer     PatternKind = "inverted_hammer"
)

// 趋势形态
const (
	PatternDoubleBottom           PatternKind = "double_bottom"
	PatternDoubleTop              PatternKind = "double_top"
	PatternHeadAndShouldersTop    PatternKind = "head_and_shoulders_top"
	PatternHeadAndShouldersBottom PatternKind = "head_and_shoulders_bottom"
	PatternAscendingTriangle      PatternKind = "ascending_triangle"
	PatternDescendingTriangle     PatternKind = "descending_triangle"
	PatternSymmetricTriangle      PatternKind = "symmetric_triangle"
)

// CandlestickKinds 全部K线形态，顺序固定
var CandlestickKinds = []PatternKind{
	PatternDoji,
	PatternHammer,
	PatternHangingMan,
	PatternBullishEngulfing,
	PatternBearishEngulfing,
	PatternMorningStar,
	PatternEveningStar,
	PatternThreeWhiteSoldiers,
	PatternThreeBlackCrows,
	PatternShootingStar,
	PatternInvertedHammer,
}

// ChartPatternKinds 全部趋势形态，顺序固定
var ChartPatternKinds = []PatternKind{
	PatternDoubleBottom,
	PatternDoubleTop,
	PatternHeadAndShouldersTop,
	PatternHeadAndShouldersBottom,
	PatternAscendingTriangle,
	PatternDescendingTriangle,
	PatternSymmetricTriangle,
}

// AllPatternStrengths 全部强度等级
var AllPatternStrengths = []PatternStrength{
	StrengthWeak,
	StrengthMedium,
	StrengthStrong,
	StrengthVeryStrong,
}

// IsChartPattern 是否为趋势形态
func (k PatternKind) IsChartPattern() bool {
	for _, c := range ChartPatternKinds {
		if c == k {
			return true
		}
	}
	return false
}

// PatternMatch 上游识别出的一个形态
type PatternMatch struct {
	Kind     PatternKind     `json:"pattern"`
	Signal   PatternSignal   `json:"signal"`
	Strength PatternStrength `json:"strength"`
}

// PatternSummary 形态汇总
type PatternSummary struct {
	Candlestick  []PatternMatch `json:"candlestick_patterns"`
	Chart        []PatternMatch `json:"chart_patterns"`
	Signal       PatternSignal  `json:"signal"`
	BullishCount int            `json:"bullish_count"`
	BearishCount int            `json:"bearish_count"`
}

// SummarizePatterns 按识别顺序拆分K线/趋势形态并统计多空数量，不在趋势形态表中的都归为K线形态
func SummarizePatterns(patterns []PatternMatch) PatternSummary {
	summary := PatternSummary{Signal: PatternNeutral}
	for _, p := range patterns {
		if p.Kind.IsChartPattern() {
			summary.Chart = append(summary.Chart, p)
		} else {
			summary.Candlestick = append(summary.Candlestick, p)
		}

		switch p.Signal {
		case PatternBullish:
			summary.BullishCount++
		case PatternBearish:
			summary.BearishCount++
		}
	}

	if summary.BullishCount > summary.BearishCount {
		summary.Signal = PatternBullish
	} else if summary.BearishCount > summary.BullishCount {
		summary.Signal = PatternBearish
	}
	return summary
}

var patternNames = map[PatternKind]string{
	PatternDoji:                   "十字星",
	PatternHammer:                 "锤子线",
	PatternHangingMan:             "上吊线",
	PatternBullishEngulfing:       "看涨吞没",
	PatternBearishEngulfing:       "看跌吞没",
	PatternMorningStar:            "早晨之星",
	PatternEveningStar:            "黄昏之星",
	PatternThreeWhiteSoldiers:     "三只白兵",
	PatternThreeBlackCrows:        "三只乌鸦",
	PatternShootingStar:           "射击之星",
	PatternInvertedHammer:         "倒锤子",
	PatternDoubleBottom:           "双底",
	PatternDoubleTop:              "双顶",
	PatternHeadAndShouldersTop:    "头肩顶",
	PatternHeadAndShouldersBottom: "头肩底",
	PatternAscendingTriangle:      "上升三角形",
	PatternDescendingTriangle:     "下降三角形",
	PatternSymmetricTriangle:      "对称三角形",
}

// DisplayName 形态中文名，未知形态原样返回
func (k PatternKind) DisplayName() string {
	if name, ok := patternNames[k]; ok {
		return name
	}
	return string(k)
}
