package report

import (
	"fmt"
	"strings"
	"time"

	"stock-master/internal/strategy/interpreter"
	"stock-master/pkg/types"
)

// Mode 报告详细程度
type Mode string

const (
	ModeSimple   Mode = "simple"
	ModeDetailed Mode = "detailed"
)

// DefaultSimpleReasons 简洁版默认展示的理由数
const DefaultSimpleReasons = 4

// ParseMode 解析报告模式，未知值返回 false
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSimple, "":
		return ModeSimple, true
	case ModeDetailed:
		return ModeDetailed, true
	default:
		return "", false
	}
}

// Render 按模式生成报告
func Render(mode Mode, snap *types.Snapshot, signal types.TradingSignal, maxReasons int, at time.Time) string {
	if mode == ModeDetailed {
		return Detailed(snap, signal, at)
	}
	return Simple(snap, signal, maxReasons)
}

// Simple 一屏看完的简洁版报告，maxReasons <= 0 时使用默认值
func Simple(snap *types.Snapshot, signal types.TradingSignal, maxReasons int) string {
	if maxReasons <= 0 {
		maxReasons = DefaultSimpleReasons
	}
	price := snap.CurrentPrice
	bb := snap.Bollinger

	rsiState := "⚪正常"
	if snap.RSI < 30 {
		rsiState = "🟢超卖"
	} else if snap.RSI > 70 {
		rsiState = "🔴超买"
	}
	macdState := "🔴空头"
	if snap.MACDHistogram > 0 {
		macdState = "🟢多头"
	}
	position := "中间"
	if price < bb.Lower {
		position = "下方"
	} else if price > bb.Upper {
		position = "上方"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n## %s (%s) 简易分析\n\n", snap.Ticker, displayName(snap))
	b.WriteString("### 📊 当前状态\n")
	fmt.Fprintf(&b, "- **价格**: $%.2f (%s %+.2f%%)\n", price, changeEmoji(snap.ChangePercent), snap.ChangePercent)
	fmt.Fprintf(&b, "- **RSI**: %.1f %s\n", snap.RSI, rsiState)
	fmt.Fprintf(&b, "- **MACD**: %s\n", macdState)
	fmt.Fprintf(&b, "- **位置**: 在布林带 %s\n\n", position)

	b.WriteString("### 🎯 交易建议\n")
	fmt.Fprintf(&b, "%s (置信度: %s)\n\n", simpleActionText(signal.Action), signal.Confidence)
	b.WriteString("| 操作 | 建议价格 |\n")
	b.WriteString("|------|----------|\n")
	fmt.Fprintf(&b, "| 买入价 | $%.2f |\n", signal.BuyPrice)
	fmt.Fprintf(&b, "| 止损价 | $%.2f |\n", signal.StopLoss)
	fmt.Fprintf(&b, "| 止盈价 | $%.2f |\n\n", signal.TakeProfit)

	b.WriteString("### 📝 理由\n")
	for i, reason := range signal.Reasons {
		if i == maxReasons {
			break
		}
		fmt.Fprintf(&b, "- %s\n", reason)
	}
	return b.String()
}

// Detailed 分章节的详细版报告，at 为报告时间
func Detailed(snap *types.Snapshot, signal types.TradingSignal, at time.Time) string {
	price := snap.CurrentPrice
	bb := snap.Bollinger

	var b strings.Builder
	fmt.Fprintf(&b, "\n# %s (%s) 详细技术分析\n\n---\n\n", snap.Ticker, displayName(snap))

	b.WriteString("## 一、价格概览\n\n")
	b.WriteString("| 指标 | 数值 |\n")
	b.WriteString("|------|------|\n")
	fmt.Fprintf(&b, "| 当前价格 | $%.2f |\n", price)
	fmt.Fprintf(&b, "| 今日涨跌 | %s %+.2f%% |\n", changeEmoji(snap.ChangePercent), snap.ChangePercent)
	fmt.Fprintf(&b, "| 布林带上轨 | $%.2f |\n", bb.Upper)
	fmt.Fprintf(&b, "| 布林带中轨 | $%.2f |\n", bb.Middle)
	fmt.Fprintf(&b, "| 布林带下轨 | $%.2f |\n", bb.Lower)
	b.WriteString("\n---\n\n")

	b.WriteString("## 二、技术指标解读\n\n")
	b.WriteString("### RSI (相对强弱指数)\n")
	b.WriteString(interpreter.ExplainRSI(snap.RSI) + "\n\n")
	b.WriteString("### MACD (指数平滑异同移动平均线)\n")
	b.WriteString(interpreter.ExplainMACD(snap.MACDHistogram, snap.PrevMACDHistogram) + "\n\n")
	b.WriteString("| MACD 数值 | |\n")
	b.WriteString("|-----------|--------|\n")
	fmt.Fprintf(&b, "| MACD 线 | %.4f |\n", snap.MACDLine)
	fmt.Fprintf(&b, "| 信号线 | %.4f |\n", snap.MACDSignalLine)
	fmt.Fprintf(&b, "| 柱状图 | %.4f |\n\n", snap.MACDHistogram)
	b.WriteString("### 布林带位置\n")
	b.WriteString(interpreter.ExplainBollinger(price, bb) + "\n")
	writeExtendedIndicators(&b, snap)
	b.WriteString("\n---\n\n")

	b.WriteString("## 三、趋势分析\n\n")
	b.WriteString("### 近1个月趋势\n")
	b.WriteString(trendText(snap.Prices1M, "近1个月") + "\n\n")
	b.WriteString("### 近3个月趋势\n")
	b.WriteString(trendText(snap.Prices3M, "近3个月") + "\n")
	b.WriteString("\n---\n\n")

	b.WriteString("## 四、交易建议\n\n")
	b.WriteString("### 综合判断\n")
	b.WriteString(detailedActionText(signal.Action) + "\n\n")
	fmt.Fprintf(&b, "**置信度**: %s\n\n", signal.Confidence)
	fmt.Fprintf(&b, "**综合评分**: %d\n\n", signal.Score)
	fmt.Fprintf(&b, "**建议仓位**: %.0f%%\n\n", signal.SuggestedPositionPercent)
	if signal.RiskRewardRatio != nil {
		fmt.Fprintf(&b, "**风险收益比**: 1:%.2f\n\n", *signal.RiskRewardRatio)
	}
	b.WriteString("**分析理由**:\n")
	for i, reason := range signal.Reasons {
		fmt.Fprintf(&b, "%d. %s\n", i+1, reason)
	}

	b.WriteString("\n### 价格建议\n\n")
	b.WriteString("| 操作类型 | 建议价格 | 说明 |\n")
	b.WriteString("|----------|----------|------|\n")
	fmt.Fprintf(&b, "| 🟢 买入价 | $%.2f | 建议在此价格附近分批买入 |\n", signal.BuyPrice)
	fmt.Fprintf(&b, "| 🔴 止损价 | $%.2f | 跌破此价应止损离场 |\n", signal.StopLoss)
	fmt.Fprintf(&b, "| 🎯 止盈价 | $%.2f | 涨到此价可考虑部分止盈 |\n", signal.TakeProfit)
	fmt.Fprintf(&b, "| 💰 卖出价 | $%.2f | 持仓者可在此价格附近减仓 |\n", signal.SellPrice)
	b.WriteString("\n---\n\n")

	b.WriteString("## 五、风险提示\n\n")
	b.WriteString("⚠️ **重要提醒**：\n")
	b.WriteString("1. 以上分析仅供参考，不构成投资建议\n")
	b.WriteString("2. 股市有风险，投资需谨慎\n")
	b.WriteString("3. 建议分批建仓，不要一次性满仓\n")
	b.WriteString("4. 设置好止损，控制风险\n")
	b.WriteString("5. 技术分析有局限性，需结合基本面和市场环境\n")
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "*分析时间: %s*\n", at.Format("2006-01-02 15:04"))
	return b.String()
}

// writeExtendedIndicators 只输出快照里提供了的扩展指标
func writeExtendedIndicators(b *strings.Builder, snap *types.Snapshot) {
	section := func(title, body string) {
		fmt.Fprintf(b, "\n### %s\n%s\n", title, body)
	}

	if snap.ATRPercent != nil {
		section("ATR (波动性)", interpreter.ExplainATR(*snap.ATRPercent))
	}
	if snap.VolumeRatio != nil && snap.VolumePattern != "" {
		section("成交量", interpreter.ExplainVolume(*snap.VolumeRatio, snap.VolumePattern))
	}
	if snap.MAArrangement != "" {
		section("均线排列", interpreter.ExplainMovingAverage(snap.MAArrangement, snap.PriceAboveMA, snap.PriceBelowMA))
	}
	if snap.KDJ != nil {
		section("KDJ (随机指标)", interpreter.ExplainKDJ(*snap.KDJ, snap.KDJSignal))
	}
	if snap.MACDDivergence != "" || snap.RSIDivergence != "" {
		var lines []string
		if snap.MACDDivergence != "" {
			lines = append(lines, interpreter.ExplainDivergence(snap.MACDDivergence, "MACD"))
		}
		if snap.RSIDivergence != "" {
			lines = append(lines, interpreter.ExplainDivergence(snap.RSIDivergence, "RSI"))
		}
		section("背离信号", strings.Join(lines, "\n"))
	}
	if snap.OBVSignal != "" {
		section("OBV (能量潮)", interpreter.ExplainOBV(snap.OBVSignal))
	}
	if snap.WilliamsR != nil {
		section("威廉指标", interpreter.ExplainWilliams(*snap.WilliamsR, snap.WilliamsSignal))
	}
	if snap.Bias6 != nil {
		section("乖离率", interpreter.ExplainBias(*snap.Bias6, snap.BiasSignal))
	}
	if snap.NearestSupport != nil || snap.NearestResistance != nil {
		section("支撑阻力位", interpreter.ExplainSupportResistance(snap.CurrentPrice, snap.NearestSupport, snap.NearestResistance))
	}
	if len(snap.Patterns) > 0 {
		section("形态识别", interpreter.ExplainPatterns(snap.Patterns))
	}
}

func trendText(prices []float64, period string) string {
	if len(prices) == 0 {
		return "数据不足"
	}
	return interpreter.ExplainTrend(prices, period)
}

func displayName(snap *types.Snapshot) string {
	if snap.Name != "" {
		return snap.Name
	}
	return snap.Ticker
}

func changeEmoji(change float64) string {
	if change >= 0 {
		return "🟢"
	}
	return "🔴"
}

func simpleActionText(action types.Action) string {
	switch action {
	case types.ActionBuy:
		return "🟢 **建议买入**"
	case types.ActionSell:
		return "🔴 **建议卖出**"
	default:
		return "⚪ **观望等待**"
	}
}

func detailedActionText(action types.Action) string {
	switch action {
	case types.ActionBuy:
		return "### 🟢 **建议买入**"
	case types.ActionSell:
		return "### 🔴 **建议卖出**"
	default:
		return "### ⚪ **建议观望**"
	}
}
