package signals

import (
	"stock-master/pkg/types"
)

// 评分阈值
const (
	strongBuyScore  = 6
	buyScore        = 3
	strongSellScore = -6
	sellScore       = -3
)

// 形态权重
var (
	strongPatterns = map[types.PatternKind]bool{
		types.PatternThreeWhiteSoldiers:     true,
		types.PatternThreeBlackCrows:        true,
		types.PatternMorningStar:            true,
		types.PatternEveningStar:            true,
		types.PatternHeadAndShouldersTop:    true,
		types.PatternHeadAndShouldersBottom: true,
		types.PatternDoubleBottom:           true,
		types.PatternDoubleTop:              true,
	}
	mediumPatterns = map[types.PatternKind]bool{
		types.PatternBullishEngulfing:   true,
		types.PatternBearishEngulfing:   true,
		types.PatternAscendingTriangle:  true,
		types.PatternDescendingTriangle: true,
	}
)

// Score 综合全部指标读数生成交易信号。
// 不校验输入范围，缺失的可选指标不计分。
func Score(snap *types.Snapshot) types.TradingSignal {
	sc := &scorecard{}

	scoreRSI(sc, snap.RSI)
	scoreMACD(sc, snap.MACDHistogram, snap.PrevMACDHistogram)
	scoreBollinger(sc, snap.CurrentPrice, snap.Bollinger)
	scoreKDJ(sc, snap.KDJSignal)
	scoreDivergence(sc, snap.MACDDivergence, snap.RSIDivergence)
	scoreOBV(sc, snap.OBVSignal)
	scoreZones(sc, snap.WilliamsSignal, snap.BiasSignal)
	scoreVolume(sc, snap.VolumeSignal, snap.VolumeRatio, snap.MACDHistogram)
	scoreMovingAverage(sc, snap.MAArrangement)
	scoreMonthTrend(sc, snap.Prices1M)
	scoreSupportResistance(sc, snap.CurrentPrice, snap.NearestSupport, snap.NearestResistance)
	scorePatterns(sc, snap.Patterns)

	action, confidence := ResolveAction(sc.score)
	levels := DerivePriceLevels(LevelInput{
		Price:      snap.CurrentPrice,
		Bollinger:  snap.Bollinger,
		ATR:        snap.ATR,
		ATRPercent: snap.ATRPercent,
		Support:    snap.NearestSupport,
		Resistance: snap.NearestResistance,
	})

	signal := types.TradingSignal{
		Ticker:                   snap.Ticker,
		CurrentPrice:             snap.CurrentPrice,
		Action:                   action,
		Confidence:               confidence,
		Score:                    sc.score,
		BuyPrice:                 levels.BuyPrice,
		SellPrice:                levels.SellPrice,
		StopLoss:                 levels.StopLoss,
		TakeProfit:               levels.TakeProfit,
		Reasons:                  sc.Reasons(),
		ATR:                      copyFloat(snap.ATR),
		ATRPercent:               copyFloat(snap.ATRPercent),
		RiskRewardRatio:          levels.RiskRewardRatio,
		SuggestedPositionPercent: PositionPercent(confidence),
		VolumeSignal:             snap.VolumeSignal,
		MATrend:                  snap.MAArrangement,
		KDJSignal:                snap.KDJSignal,
		DivergenceSignal:         DivergenceLabel(snap.MACDDivergence, snap.RSIDivergence),
		OBVSignal:                snap.OBVSignal,
		SupportPrice:             copyFloat(snap.NearestSupport),
		ResistancePrice:          copyFloat(snap.NearestResistance),
		PatternsCount:            len(snap.Patterns),
	}
	if len(snap.Patterns) > 0 {
		signal.PatternsSignal = types.SummarizePatterns(snap.Patterns).Signal
	}
	return signal
}

// ResolveAction 根据总分确定操作和置信度
func ResolveAction(score int) (types.Action, types.Confidence) {
	switch {
	case score >= strongBuyScore:
		return types.ActionBuy, types.ConfidenceHigh
	case score >= buyScore:
		return types.ActionBuy, types.ConfidenceMedium
	case score <= strongSellScore:
		return types.ActionSell, types.ConfidenceHigh
	case score <= sellScore:
		return types.ActionSell, types.ConfidenceMedium
	default:
		return types.ActionHold, types.ConfidenceMedium
	}
}

// PositionPercent 建议仓位百分比，只取决于置信度
func PositionPercent(confidence types.Confidence) float64 {
	switch confidence {
	case types.ConfidenceHigh:
		return 30
	case types.ConfidenceMedium:
		return 20
	default:
		return 10
	}
}

// DivergenceLabel MACD背离优先于RSI背离，均无背离时返回空串
func DivergenceLabel(macd, rsi types.Divergence) string {
	if isDirectional(macd) {
		return "MACD_" + string(macd)
	}
	if isDirectional(rsi) {
		return "RSI_" + string(rsi)
	}
	return ""
}

// PatternWeight 形态的分值绝对值
func PatternWeight(kind types.PatternKind) int {
	switch {
	case strongPatterns[kind]:
		return 3
	case mediumPatterns[kind]:
		return 2
	default:
		return 1
	}
}

func isDirectional(d types.Divergence) bool {
	return d == types.DivergenceBullish || d == types.DivergenceBearish
}

func scoreRSI(sc *scorecard, rsi float64) {
	switch {
	case rsi < 30:
		sc.add(3, types.SeverityPositive, "RSI 超卖 (<30)，股价可能跌过头")
	case rsi < 40:
		sc.add(1, types.SeverityNote, "RSI 偏低，股价相对便宜")
	case rsi > 70:
		sc.add(-3, types.SeverityWarning, "RSI 超买 (>70)，股价可能涨过头")
	case rsi > 60:
		sc.add(-1, types.SeverityNote, "RSI 偏高，追高需谨慎")
	}
}

func scoreMACD(sc *scorecard, hist, prev float64) {
	switch {
	case prev <= 0 && hist > 0:
		sc.add(3, types.SeverityPositive, "MACD 金叉，上涨动能启动")
	case prev > 0 && hist <= 0:
		sc.add(-3, types.SeverityWarning, "MACD 死叉，下跌动能启动")
	case hist > 0:
		sc.add(1, types.SeverityNote, "MACD 多头趋势")
	default:
		sc.add(-1, types.SeverityNote, "MACD 空头趋势")
	}
}

func scoreBollinger(sc *scorecard, price float64, bb types.Bollinger) {
	switch {
	case price < bb.Lower:
		sc.add(2, types.SeverityPositive, "跌破布林带下轨，可能超跌反弹")
	case price < bb.Lower+(bb.Middle-bb.Lower)*0.3:
		sc.add(1, types.SeverityNote, "接近布林带下轨，相对低位")
	case price > bb.Upper:
		sc.add(-2, types.SeverityWarning, "突破布林带上轨，可能回调")
	case price > bb.Upper-(bb.Upper-bb.Middle)*0.3:
		sc.add(-1, types.SeverityNote, "接近布林带上轨，追高风险")
	}
}

func scoreKDJ(sc *scorecard, signal types.KDJSignal) {
	switch signal {
	case types.KDJGoldenCross:
		sc.add(3, types.SeverityPositive, "KDJ 金叉，短期买入信号")
	case types.KDJDeathCross:
		sc.add(-3, types.SeverityWarning, "KDJ 死叉，短期卖出信号")
	case types.KDJOversold, types.KDJLowZone:
		sc.add(2, types.SeverityPositive, "KDJ 超卖，短期可能反弹")
	case types.KDJOverbought, types.KDJHighZone:
		sc.add(-2, types.SeverityWarning, "KDJ 超买，短期可能回调")
	}
}

func scoreDivergence(sc *scorecard, macd, rsi types.Divergence) {
	switch macd {
	case types.DivergenceBullish:
		sc.add(4, types.SeverityStrong, "MACD 底背离，强烈反弹信号")
	case types.DivergenceBearish:
		sc.add(-4, types.SeverityStrong, "MACD 顶背离，强烈回调信号")
	}

	switch rsi {
	case types.DivergenceBullish:
		sc.add(3, types.SeverityPositive, "RSI 底背离，动能转强")
	case types.DivergenceBearish:
		sc.add(-3, types.SeverityWarning, "RSI 顶背离，动能转弱")
	}
}

func scoreOBV(sc *scorecard, signal types.OBVSignal) {
	switch signal {
	case types.OBVBullishDivergence:
		sc.add(2, types.SeverityVolume, "OBV 底背离，资金悄悄流入")
	case types.OBVBearishDivergence:
		sc.add(-2, types.SeverityVolume, "OBV 顶背离，资金悄悄流出")
	case types.OBVConfirmedUp:
		sc.add(1, types.SeverityVolume, "OBV 确认上涨趋势")
	case types.OBVConfirmedDown:
		sc.add(-1, types.SeverityVolume, "OBV 确认下跌趋势")
	}
}

func scoreZones(sc *scorecard, williams, bias types.ZoneSignal) {
	switch williams {
	case types.ZoneOversold:
		sc.add(1, types.SeverityNote, "威廉指标超卖")
	case types.ZoneOverbought:
		sc.add(-1, types.SeverityNote, "威廉指标超买")
	}

	switch bias {
	case types.ZoneOversold:
		sc.add(1, types.SeverityNote, "乖离率偏低，可能反弹")
	case types.ZoneOverbought:
		sc.add(-1, types.SeverityNote, "乖离率偏高，可能回调")
	}
}

func scoreVolume(sc *scorecard, signal types.VolumeSignal, ratio *float64, hist float64) {
	if ratio == nil {
		return
	}
	r := *ratio
	switch {
	case signal == types.VolumeBullish && r > 1.5:
		sc.add(2, types.SeverityVolume, "放量上涨 (量比 %.1f)，买盘积极", r)
	case signal == types.VolumeBearish && r > 1.5:
		sc.add(-2, types.SeverityVolume, "放量下跌 (量比 %.1f)，卖压较大", r)
	case signal == types.VolumeNeutral && r < 0.7 && hist < 0:
		sc.add(1, types.SeverityVolume, "缩量下跌 (量比 %.1f)，卖压减轻", r)
	}
}

func scoreMovingAverage(sc *scorecard, arrangement types.MAArrangement) {
	switch arrangement {
	case types.MABullishStack:
		sc.add(2, types.SeverityUp, "均线多头排列，趋势向上")
	case types.MABearishStack:
		sc.add(-2, types.SeverityDown, "均线空头排列，趋势向下")
	}
}

func scoreMonthTrend(sc *scorecard, prices []float64) {
	if len(prices) < 5 || prices[0] <= 0 {
		return
	}
	change := (prices[len(prices)-1] - prices[0]) / prices[0] * 100
	switch {
	case change < -15:
		sc.add(1, types.SeverityNote, "近1月跌幅较大 (%.1f%%)，可能超跌", change)
	case change > 15:
		sc.add(-1, types.SeverityNote, "近1月涨幅较大 (%.1f%%)，注意追高", change)
	}
}

// 支撑位和阻力位都存在时才评估，两个条件互不排斥
func scoreSupportResistance(sc *scorecard, price float64, support, resistance *float64) {
	if !positive(support) || !positive(resistance) || price <= 0 {
		return
	}
	supportDistance := (price - *support) / price * 100
	resistDistance := (*resistance - price) / price * 100

	if supportDistance < 3 {
		sc.add(1, types.SeverityNote, "接近支撑位 $%.2f，可能有支撑", *support)
	}
	if resistDistance < 3 {
		sc.add(-1, types.SeverityNote, "接近阻力位 $%.2f，可能有压力", *resistance)
	}
}

func scorePatterns(sc *scorecard, patterns []types.PatternMatch) {
	for _, p := range patterns {
		var sign int
		switch p.Signal {
		case types.PatternBullish:
			sign = 1
		case types.PatternBearish:
			sign = -1
		default:
			continue
		}

		weight := PatternWeight(p.Kind)
		name := p.Kind.DisplayName()
		switch weight {
		case 3:
			if sign > 0 {
				sc.add(3, types.SeverityStrong, "%s形态，强看涨信号", name)
			} else {
				sc.add(-3, types.SeverityStrong, "%s形态，强看跌信号", name)
			}
		case 2:
			if sign > 0 {
				sc.add(2, types.SeverityPositive, "%s形态，看涨信号", name)
			} else {
				sc.add(-2, types.SeverityWarning, "%s形态，看跌信号", name)
			}
		default:
			sc.add(sign, types.SeverityNote, "%s形态出现", name)
		}
	}
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
