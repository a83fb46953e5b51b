package signals

import (
	"math"

	"stock-master/pkg/types"
)

// 止损止盈至少离现价的比例
const minBracket = 0.02

// LevelInput 价格建议计算所需的读数
type LevelInput struct {
	Price      float64
	Bollinger  types.Bollinger
	ATR        *float64
	ATRPercent *float64
	Support    *float64
	Resistance *float64
}

// PriceLevels 买卖价位建议
type PriceLevels struct {
	BuyPrice        float64
	SellPrice       float64
	StopLoss        float64
	TakeProfit      float64
	RiskRewardRatio *float64 // 仅ATR算法给出
}

// DerivePriceLevels 计算买入价、卖出价、止损价和止盈价。
// 有ATR时按波动率放大倍数，否则用布林带上下轨，最后参考支撑阻力位修正。
// 修正后保证 止损 < 现价 < 止盈。
func DerivePriceLevels(in LevelInput) PriceLevels {
	p := in.Price
	bb := in.Bollinger

	var levels PriceLevels
	if positive(in.ATR) && positive(in.ATRPercent) {
		atr := *in.ATR
		multiplier := ATRMultiplier(*in.ATRPercent)

		levels.StopLoss = p - atr*multiplier
		levels.TakeProfit = p + atr*multiplier*2.5
		levels.BuyPrice = p - atr*0.5

		rr := 0.0
		if risk := p - levels.StopLoss; risk > 0 {
			rr = round2((levels.TakeProfit - p) / risk)
		}
		levels.RiskRewardRatio = &rr
	} else {
		levels.BuyPrice = math.Min(p*0.97, bb.Lower*1.02)
		levels.StopLoss = bb.Lower * 0.95
		levels.TakeProfit = bb.Upper * 0.95
	}

	levels.SellPrice = math.Max(p*1.05, bb.Upper*0.98)

	// 止损放到支撑位下方 2%
	if positive(in.Support) && levels.StopLoss > *in.Support {
		levels.StopLoss = *in.Support * 0.98
	}
	// 止盈放到阻力位下方 2%
	if positive(in.Resistance) && levels.TakeProfit > *in.Resistance {
		levels.TakeProfit = *in.Resistance * 0.98
	}

	levels.BuyPrice = round2(levels.BuyPrice)
	levels.SellPrice = round2(levels.SellPrice)
	levels.StopLoss = round2(levels.StopLoss)
	levels.TakeProfit = round2(levels.TakeProfit)

	// 支撑阻力位在现价另一侧，或布林带算法落在现价外时，退回最小区间。
	// 现价低于 0.25 时两位小数无法表示该区间。
	if levels.StopLoss >= p {
		levels.StopLoss = round2(p * (1 - minBracket))
	}
	if levels.TakeProfit <= p {
		levels.TakeProfit = round2(p * (1 + minBracket))
	}
	return levels
}

// ATRMultiplier 波动率越高止损放得越宽
func ATRMultiplier(atrPercent float64) float64 {
	switch {
	case atrPercent > 5:
		return 2.5
	case atrPercent > 3:
		return 2.0
	default:
		return 1.5
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
