package interpreter

import (
	"fmt"
	"strings"

	"stock-master/pkg/types"
)

// 最多展示的形态数量
const (
	maxCandlestickShown = 3
	maxChartShown       = 2
)

var candlestickExplanations = map[types.PatternKind]string{
	types.PatternDoji:               "⚪ **十字星** - 多空双方势均力敌，就像拔河比赛打成平手。当前趋势可能要变化，要密切观察",
	types.PatternHammer:             "🟢 **锤子线** (看涨) - 像一把锤子倒立，下影线很长说明下方有人接盘。出现在下跌后，是见底信号",
	types.PatternHangingMan:         "🔴 **上吊线** (看跌) - 形状像锤子但出现在上涨后，说明上方卖压开始出现。可能是见顶信号",
	types.PatternBullishEngulfing:   "🟢 **看涨吞没** (强信号) - 大阳线完全包住前一根阴线，像大鱼吃小鱼。买方力量占优，反转信号",
	types.PatternBearishEngulfing:   "🔴 **看跌吞没** (强信号) - 大阴线完全包住前一根阳线，卖方力量压倒买方。下跌信号",
	types.PatternMorningStar:        "🟢 **早晨之星** (强信号) - 三根K线组成，像黎明前的启明星。典型的底部反转形态，买入机会",
	types.PatternEveningStar:        "🔴 **黄昏之星** (强信号) - 三根K线组成，像日落前的昏星。典型的顶部反转形态，卖出信号",
	types.PatternThreeWhiteSoldiers: "🟢 **三只白兵** (非常强) - 连续三根阳线稳步上涨，像士兵列队前进。强烈的上涨信号",
	types.PatternThreeBlackCrows:    "🔴 **三只乌鸦** (非常强) - 连续三根阴线稳步下跌，像乌鸦报丧。强烈的下跌信号",
	types.PatternShootingStar:       "🔴 **射击之星** - 上影线很长，像流星划过。出现在上涨后说明上方抛压重，可能见顶",
	types.PatternInvertedHammer:     "🟢 **倒锤子** - 出现在下跌后的长上影线，买方尝试反攻。如果次日确认，是反转信号",
}

var chartExplanations = map[types.PatternKind]string{
	types.PatternDoubleBottom:           "🟢 **双底形态** (W底) - 股价两次探底后反弹，像字母W。经典的底部反转形态，突破颈线后看涨",
	types.PatternDoubleTop:              "🔴 **双顶形态** (M头) - 股价两次冲高后回落，像字母M。经典的顶部形态，跌破颈线后看跌",
	types.PatternHeadAndShouldersTop:    "🔴 **头肩顶** - 中间高两边低，像人的头和肩膀。是最可靠的顶部反转形态之一",
	types.PatternHeadAndShouldersBottom: "🟢 **头肩底** - 中间低两边高，倒过来的头肩形态。是可靠的底部反转信号",
	types.PatternAscendingTriangle:      "🟢 **上升三角形** - 底部逐步抬高，顶部水平。说明买方逐渐占优，通常向上突破",
	types.PatternDescendingTriangle:     "🔴 **下降三角形** - 顶部逐步降低，底部水平。说明卖方逐渐占优，通常向下突破",
	types.PatternSymmetricTriangle:      "⚪ **对称三角形** - 高点降低、低点抬高，形成收敛。突破方向不确定，等待突破后跟进",
}

// K线形态的信号强度
var candlestickStrength = map[types.PatternStrength]string{
	types.StrengthVeryStrong: "非常强烈",
	types.StrengthStrong:     "强烈",
	types.StrengthMedium:     "中等",
	types.StrengthWeak:       "较弱",
}

// 趋势形态的可靠度
var chartReliability = map[types.PatternStrength]string{
	types.StrengthVeryStrong: "非常可靠",
	types.StrengthStrong:     "比较可靠",
	types.StrengthMedium:     "参考意义",
	types.StrengthWeak:       "需要验证",
}

// CandlestickStrength 强度形容词，未知强度按中等处理
func CandlestickStrength(s types.PatternStrength) string {
	if desc, ok := candlestickStrength[s]; ok {
		return desc
	}
	return candlestickStrength[types.StrengthMedium]
}

// ChartReliability 可靠度形容词，未知强度按中等处理
func ChartReliability(s types.PatternStrength) string {
	if desc, ok := chartReliability[s]; ok {
		return desc
	}
	return chartReliability[types.StrengthMedium]
}

// ExplainCandlestick K线形态解读
func ExplainCandlestick(p types.PatternMatch) string {
	explanation, ok := candlestickExplanations[p.Kind]
	if !ok {
		explanation = fmt.Sprintf("识别到 %s 形态", p.Kind.DisplayName())
	}
	return fmt.Sprintf("%s\n  ⭐ 信号强度: %s", explanation, CandlestickStrength(p.Strength))
}

// ExplainChartPattern 趋势形态解读
func ExplainChartPattern(p types.PatternMatch) string {
	explanation, ok := chartExplanations[p.Kind]
	if !ok {
		explanation = fmt.Sprintf("识别到 %s 形态", p.Kind.DisplayName())
	}
	return fmt.Sprintf("%s\n  ⭐ 可靠度: %s", explanation, ChartReliability(p.Strength))
}

// ExplainPatterns 汇总全部形态，K线形态最多列3个，趋势形态最多列2个
func ExplainPatterns(patterns []types.PatternMatch) string {
	if len(patterns) == 0 {
		return "⚪ 暂未识别到明显形态"
	}
	summary := types.SummarizePatterns(patterns)

	lines := []string{"📊 **形态识别结果**"}
	if len(summary.Candlestick) > 0 {
		lines = append(lines, "\n**K线形态:**")
		for i, p := range summary.Candlestick {
			if i == maxCandlestickShown {
				break
			}
			lines = append(lines, "  • "+ExplainCandlestick(p))
		}
	}
	if len(summary.Chart) > 0 {
		lines = append(lines, "\n**趋势形态:**")
		for i, p := range summary.Chart {
			if i == maxChartShown {
				break
			}
			lines = append(lines, "  • "+ExplainChartPattern(p))
		}
	}

	lines = append(lines, "\n**形态综合判断:**")
	switch summary.Signal {
	case types.PatternBullish:
		lines = append(lines, fmt.Sprintf("  🟢 看涨形态占优 (看涨%d个 vs 看跌%d个)", summary.BullishCount, summary.BearishCount))
	case types.PatternBearish:
		lines = append(lines, fmt.Sprintf("  🔴 看跌形态占优 (看跌%d个 vs 看涨%d个)", summary.BearishCount, summary.BullishCount))
	default:
		lines = append(lines, fmt.Sprintf("  ⚪ 形态信号中性 (看涨%d个 vs 看跌%d个)", summary.BullishCount, summary.BearishCount))
	}
	return strings.Join(lines, "\n")
}

// Levels 由近20个收盘价推算的支撑阻力位
type Levels struct {
	StrongResistance float64 `json:"strong_resistance"`
	WeakResistance   float64 `json:"weak_resistance"`
	WeakSupport      float64 `json:"weak_support"`
	StrongSupport    float64 `json:"strong_support"`
}

// SupportResistanceLevels 用近期高低点和 0.382 斐波那契比例估算关键价位，少于20个价格时返回 false
func SupportResistanceLevels(prices []float64, current float64) (Levels, bool) {
	if len(prices) < 20 {
		return Levels{}, false
	}
	recent := prices[len(prices)-20:]
	high, low := recent[0], recent[0]
	for _, p := range recent[1:] {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	return Levels{
		StrongResistance: high,
		WeakResistance:   current + (high-current)*0.382,
		WeakSupport:      current - (current-low)*0.382,
		StrongSupport:    low,
	}, true
}
