// Package interpreter 把指标读数翻译成通俗的中文解读，只用于报告展示，不参与评分。
package interpreter

import (
	"fmt"
	"strings"

	"stock-master/pkg/types"
)

// ExplainRSI RSI 解读
func ExplainRSI(rsi float64) string {
	switch {
	case rsi < 30:
		return fmt.Sprintf("🟢 **超卖** (%.1f) - 股票被卖得太多了，就像商场大甩卖，价格可能已经跌过头，是潜在的捡便宜机会", rsi)
	case rsi < 40:
		return fmt.Sprintf("🟡 **偏弱** (%.1f) - 股票有点疲软，买家不太积极，但还没到跌过头的程度", rsi)
	case rsi < 60:
		return fmt.Sprintf("⚪ **中性** (%.1f) - 买卖力量均衡，股票在正常波动，没有明显的超买或超卖", rsi)
	case rsi < 70:
		return fmt.Sprintf("🟡 **偏强** (%.1f) - 买家比较积极，股票走势还不错，但要注意别追高", rsi)
	default:
		return fmt.Sprintf("🔴 **超买** (%.1f) - 股票被买得太多了，就像热门商品被抢购一空，价格可能涨过头，要小心回调", rsi)
	}
}

// ExplainMACD MACD 解读，金叉死叉的判定与评分一致
func ExplainMACD(hist, prev float64) string {
	switch {
	case prev <= 0 && hist > 0:
		return "🟢 **金叉出现** - 短期上涨动能超过了长期动能，就像汽车踩了油门开始加速，是买入信号"
	case prev > 0 && hist <= 0:
		return "🔴 **死叉出现** - 短期动能开始减弱，就像汽车松了油门开始减速，是卖出警告"
	}

	if hist > 0 {
		strength := "温和"
		if hist > 1 {
			strength = "强劲"
		}
		return fmt.Sprintf("🟢 **多头趋势** - 上涨动能%s，就像顺风骑车，省力又快", strength)
	}
	strength := "轻微"
	if hist < -1 {
		strength = "明显"
	}
	return fmt.Sprintf("🔴 **空头趋势** - 下跌动能%s，就像逆风骑车，需要更多力气", strength)
}

// ExplainBollinger 布林带位置解读，上下轨附近指带宽的 20% 以内
func ExplainBollinger(price float64, bb types.Bollinger) string {
	width := bb.Upper - bb.Lower
	switch {
	case price < bb.Lower:
		return fmt.Sprintf("🟢 **跌破下轨** - 股价已经跌到了'地板'下面 ($%.2f)，就像橡皮筋拉得太长，可能要弹回来了", bb.Lower)
	case price < bb.Lower+width*0.2:
		return fmt.Sprintf("🟢 **接近下轨** - 股价在'地板'附近 ($%.2f)，处于相对低位，可能是买入机会", bb.Lower)
	case price > bb.Upper:
		return fmt.Sprintf("🔴 **突破上轨** - 股价已经涨到了'天花板'上面 ($%.2f)，涨得有点猛，可能要回落", bb.Upper)
	case price > bb.Upper-width*0.2:
		return fmt.Sprintf("🟡 **接近上轨** - 股价在'天花板'附近 ($%.2f)，处于相对高位，要注意回调风险", bb.Upper)
	default:
		return fmt.Sprintf("⚪ **正常区间** - 股价在中间位置 (中轨 $%.2f)，波动正常", bb.Middle)
	}
}

// ExplainVolume 量价形态解读
func ExplainVolume(ratio float64, pattern types.VolumePattern) string {
	switch pattern {
	case types.VolumeRiseOnHighVolume:
		return fmt.Sprintf("📈 **放量上涨** (量比 %.1f) - 买盘积极涌入，像超市促销引来大批顾客，上涨动力充足", ratio)
	case types.VolumeFallOnHighVolume:
		return fmt.Sprintf("📉 **放量下跌** (量比 %.1f) - 卖盘大量涌出，像恐慌性抛售，需要警惕", ratio)
	case types.VolumeRiseOnLowVolume:
		return fmt.Sprintf("📈 **缩量上涨** (量比 %.1f) - 涨是涨了但买家不多，像没人气的促销，后劲可能不足", ratio)
	case types.VolumeFallOnLowVolume:
		return fmt.Sprintf("📉 **缩量下跌** (量比 %.1f) - 跌但卖家也不多了，像甩卖接近尾声，可能快到底了", ratio)
	case types.VolumeChoppyOnHighVolume:
		return fmt.Sprintf("⚡ **放量震荡** (量比 %.1f) - 交易活跃但方向不明，多空在激烈博弈", ratio)
	default:
		return fmt.Sprintf("➡️ **量价平稳** (量比 %.1f) - 一切正常，没有异常信号", ratio)
	}
}

// ExplainMovingAverage 均线排列解读
func ExplainMovingAverage(arrangement types.MAArrangement, above, below []string) string {
	switch arrangement {
	case types.MABullishStack:
		return "🟢 **多头排列** - 短期均线在上，长期均线在下，像排队的人越排越高，趋势向上"
	case types.MABearishStack:
		return "🔴 **空头排列** - 短期均线在下，长期均线在上，像滑梯往下滑，趋势向下"
	default:
		return fmt.Sprintf("🟡 **均线缠绕** - 均线交织在一起，方向不明朗（价格在 %s 上方，在 %s 下方）",
			joinOrNone(above), joinOrNone(below))
	}
}

// ExplainATR 波动性解读
func ExplainATR(atrPercent float64) string {
	switch {
	case atrPercent > 5:
		return fmt.Sprintf("⚠️ **高波动** (%.1f%%) - 股价波动剧烈，像坐过山车，风险较大但机会也大", atrPercent)
	case atrPercent > 3:
		return fmt.Sprintf("🔔 **中等波动** (%.1f%%) - 股价有一定波动，正常范围", atrPercent)
	default:
		return fmt.Sprintf("😌 **低波动** (%.1f%%) - 股价比较稳定，适合稳健型投资", atrPercent)
	}
}

// ExplainKDJ KDJ 解读
func ExplainKDJ(kdj types.KDJ, signal types.KDJSignal) string {
	values := fmt.Sprintf("(K=%.0f, D=%.0f, J=%.0f)", kdj.K, kdj.D, kdj.J)
	switch signal {
	case types.KDJGoldenCross:
		return "🟢 **KDJ 金叉** " + values + " - 短期买入信号，像绿灯亮了可以出发"
	case types.KDJDeathCross:
		return "🔴 **KDJ 死叉** " + values + " - 短期卖出信号，像红灯亮了要刹车"
	case types.KDJOverbought, types.KDJHighZone:
		return "🔴 **KDJ 超买** " + values + " - 短期涨太快了，像弹簧压得太紧可能要回弹"
	case types.KDJOversold, types.KDJLowZone:
		return "🟢 **KDJ 超卖** " + values + " - 短期跌太多了，像皮球落地可能要反弹"
	default:
		return "⚪ **KDJ 中性** " + values + " - 目前没有明显的超买超卖信号"
	}
}

// ExplainDivergence 背离解读，indicator 为指标名如 MACD、RSI
func ExplainDivergence(divergence types.Divergence, indicator string) string {
	switch divergence {
	case types.DivergenceBullish:
		return fmt.Sprintf("🟢 **%s 底背离** - 价格在创新低，但%s没有创新低，说明下跌动能在减弱，像马拉松跑到后面速度慢下来了，可能要反弹", indicator, indicator)
	case types.DivergenceBearish:
		return fmt.Sprintf("🔴 **%s 顶背离** - 价格在创新高，但%s没有创新高，说明上涨动能在减弱，像爬山快到顶了越来越吃力，小心回调", indicator, indicator)
	default:
		return fmt.Sprintf("⚪ **无%s背离** - 价格和指标走势一致，趋势正常", indicator)
	}
}

// ExplainSupportResistance 支撑阻力位解读，两者都缺失时给出提示
func ExplainSupportResistance(price float64, support, resistance *float64) string {
	var parts []string
	if support != nil {
		distance := (price - *support) / price * 100
		parts = append(parts, fmt.Sprintf("📉 **最近支撑位**: $%.2f (距离 %.1f%%) - 跌到这里可能会有买盘接住，像地板一样", *support, distance))
	}
	if resistance != nil {
		distance := (*resistance - price) / price * 100
		parts = append(parts, fmt.Sprintf("📈 **最近阻力位**: $%.2f (距离 %.1f%%) - 涨到这里可能会有卖盘压制，像天花板一样", *resistance, distance))
	}
	if len(parts) == 0 {
		return "暂无明确的支撑阻力位"
	}
	return strings.Join(parts, "\n")
}

// ExplainOBV OBV 能量潮解读
func ExplainOBV(signal types.OBVSignal) string {
	switch signal {
	case types.OBVConfirmedUp:
		return "🟢 **OBV 确认上涨** - 价格涨，资金也在流入，像涨潮一样水涨船高，趋势健康"
	case types.OBVConfirmedDown:
		return "🔴 **OBV 确认下跌** - 价格跌，资金也在流出，像退潮一样水落船低，趋势延续"
	case types.OBVBullishDivergence:
		return "🟢 **OBV 底背离** - 价格在跌，但资金在悄悄流入，像有人在偷偷抄底，关注反弹机会"
	case types.OBVBearishDivergence:
		return "🔴 **OBV 顶背离** - 价格在涨，但资金在悄悄流出，像有人在偷偷出货，警惕回调风险"
	default:
		return "⚪ **OBV 中性** - 量价关系正常"
	}
}

// ExplainWilliams 威廉指标解读
func ExplainWilliams(wr float64, signal types.ZoneSignal) string {
	switch signal {
	case types.ZoneOverbought:
		return fmt.Sprintf("🔴 **威廉指标超买** (%.0f) - 短期涨得太急，像冲刺跑太快要喘气，可能要回调", wr)
	case types.ZoneOversold:
		return fmt.Sprintf("🟢 **威廉指标超卖** (%.0f) - 短期跌得太急，像跌倒了要爬起来，可能要反弹", wr)
	default:
		return fmt.Sprintf("⚪ **威廉指标中性** (%.0f) - 目前处于正常区间", wr)
	}
}

// ExplainBias 乖离率解读
func ExplainBias(bias6 float64, signal types.ZoneSignal) string {
	switch signal {
	case types.ZoneOverbought:
		return fmt.Sprintf("🔴 **乖离率偏高** (%.1f%%) - 股价跑得比均线快太多了，像跑步冲太快会累，可能要回来休息（回调）", bias6)
	case types.ZoneOversold:
		return fmt.Sprintf("🟢 **乖离率偏低** (%.1f%%) - 股价跌得比均线远太多了，像橡皮筋拉太长会弹回来，可能要反弹", bias6)
	default:
		return fmt.Sprintf("⚪ **乖离率正常** (%.1f%%) - 股价和均线走得差不多齐，比较健康", bias6)
	}
}

// ExplainTrend 价格走势解读，prices 从旧到新
func ExplainTrend(prices []float64, period string) string {
	if len(prices) < 5 || prices[0] <= 0 {
		return "数据不足，无法判断趋势"
	}

	start := prices[0]
	change := (prices[len(prices)-1] - start) / start * 100

	high, low := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	volatility := (high - low) / start * 100

	var trend string
	switch {
	case change > 10:
		trend = fmt.Sprintf("📈 **强势上涨** - %s涨了 %.1f%%，像坐电梯往上，势头很猛", period, change)
	case change > 3:
		trend = fmt.Sprintf("📈 **温和上涨** - %s涨了 %.1f%%，像爬楼梯，稳步向上", period, change)
	case change > -3:
		trend = fmt.Sprintf("➡️ **横盘震荡** - %s基本持平 (%+.1f%%)，在一个区间内来回波动", period, change)
	case change > -10:
		trend = fmt.Sprintf("📉 **温和下跌** - %s跌了 %.1f%%，像下楼梯，逐步下行", period, -change)
	default:
		trend = fmt.Sprintf("📉 **大幅下跌** - %s跌了 %.1f%%，跌势比较急", period, -change)
	}

	switch {
	case volatility > 20:
		trend += fmt.Sprintf("\n  ⚠️ 波动较大 (%.1f%%)，坐过山车的感觉，风险较高", volatility)
	case volatility > 10:
		trend += fmt.Sprintf("\n  🔔 波动中等 (%.1f%%)，有起有伏但还算正常", volatility)
	}
	return trend
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "无"
	}
	return strings.Join(items, "/")
}
