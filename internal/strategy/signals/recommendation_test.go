package signals

import (
	"reflect"
	"testing"

	"stock-master/pkg/types"
)

func baseSnapshot() *types.Snapshot {
	return &types.Snapshot{
		Ticker:            "AAPL",
		CurrentPrice:      100,
		RSI:               50,
		MACDHistogram:     -0.1,
		PrevMACDHistogram: -0.1,
		Bollinger:         types.Bollinger{Upper: 110, Middle: 100, Lower: 90},
	}
}

// loadedSnapshot 每一项可选指标都有读数
func loadedSnapshot() *types.Snapshot {
	snap := baseSnapshot()
	snap.RSI = 35
	snap.MACDHistogram = 0.5
	snap.PrevMACDHistogram = 0.2
	snap.KDJSignal = types.KDJGoldenCross
	snap.MACDDivergence = types.DivergenceBullish
	snap.RSIDivergence = types.DivergenceBearish
	snap.OBVSignal = types.OBVConfirmedUp
	snap.WilliamsSignal = types.ZoneOversold
	snap.BiasSignal = types.ZoneOverbought
	snap.VolumeSignal = types.VolumeBullish
	snap.VolumeRatio = types.Float(2.0)
	snap.MAArrangement = types.MABullishStack
	snap.Prices1M = []float64{100, 95, 90, 85, 80}
	snap.NearestSupport = types.Float(98)
	snap.NearestResistance = types.Float(102)
	snap.Patterns = []types.PatternMatch{
		{Kind: types.PatternMorningStar, Signal: types.PatternBullish, Strength: types.StrengthStrong},
		{Kind: types.PatternBearishEngulfing, Signal: types.PatternBearish, Strength: types.StrengthMedium},
		{Kind: types.PatternDoji, Signal: types.PatternNeutral, Strength: types.StrengthWeak},
		{Kind: types.PatternHammer, Signal: types.PatternBullish, Strength: types.StrengthMedium},
	}
	return snap
}

func TestScoreScenarios(t *testing.T) {
	t.Run("超卖加金叉直接高置信买入", func(t *testing.T) {
		snap := baseSnapshot()
		snap.RSI = 25
		snap.MACDHistogram = 0.5
		snap.PrevMACDHistogram = -0.2

		signal := Score(snap)
		if signal.Score != 6 {
			t.Fatalf("score = %d, want 6", signal.Score)
		}
		if signal.Action != types.ActionBuy || signal.Confidence != types.ConfidenceHigh {
			t.Errorf("got %s/%s, want BUY/高", signal.Action, signal.Confidence)
		}
		want := []string{"✅ RSI 超卖 (<30)，股价可能跌过头", "✅ MACD 金叉，上涨动能启动"}
		if got := signal.ReasonTexts(); !reflect.DeepEqual(got, want) {
			t.Errorf("reasons = %v, want %v", got, want)
		}
		if signal.SuggestedPositionPercent != 30 {
			t.Errorf("position = %v, want 30", signal.SuggestedPositionPercent)
		}
	})

	t.Run("中性读数观望", func(t *testing.T) {
		signal := Score(baseSnapshot())
		if signal.Score <= -3 || signal.Score >= 3 {
			t.Fatalf("score = %d, want in (-3,3)", signal.Score)
		}
		if signal.Action != types.ActionHold {
			t.Errorf("action = %s, want HOLD", signal.Action)
		}
		if signal.DivergenceSignal != "" || signal.PatternsSignal != "" || signal.PatternsCount != 0 {
			t.Errorf("unexpected diagnostics: %+v", signal)
		}
		if signal.RiskRewardRatio != nil {
			t.Errorf("risk reward should be absent without ATR")
		}
	})

	t.Run("高波动ATR止损", func(t *testing.T) {
		snap := baseSnapshot()
		snap.ATR = types.Float(2.0)
		snap.ATRPercent = types.Float(6.0)

		signal := Score(snap)
		if signal.StopLoss != 95 || signal.TakeProfit != 112.5 || signal.BuyPrice != 99 {
			t.Errorf("levels = %v/%v/%v, want 95/112.5/99", signal.StopLoss, signal.TakeProfit, signal.BuyPrice)
		}
		if signal.RiskRewardRatio == nil || *signal.RiskRewardRatio != 2.5 {
			t.Errorf("risk reward = %v, want 2.5", signal.RiskRewardRatio)
		}
	})
}

func TestScoreLoadedSnapshot(t *testing.T) {
	signal := Score(loadedSnapshot())

	if signal.Score != 14 {
		t.Fatalf("score = %d, want 14", signal.Score)
	}
	if signal.Action != types.ActionBuy || signal.Confidence != types.ConfidenceHigh {
		t.Errorf("got %s/%s, want BUY/高", signal.Action, signal.Confidence)
	}

	want := []string{
		"📍 RSI 偏低，股价相对便宜",
		"📍 MACD 多头趋势",
		"✅ KDJ 金叉，短期买入信号",
		"🔥 MACD 底背离，强烈反弹信号",
		"⚠️ RSI 顶背离，动能转弱",
		"📊 OBV 确认上涨趋势",
		"📍 威廉指标超卖",
		"📍 乖离率偏高，可能回调",
		"📊 放量上涨 (量比 2.0)，买盘积极",
		"📈 均线多头排列，趋势向上",
		"📍 近1月跌幅较大 (-20.0%)，可能超跌",
		"📍 接近支撑位 $98.00，可能有支撑",
		"📍 接近阻力位 $102.00，可能有压力",
		"🔥 早晨之星形态，强看涨信号",
		"⚠️ 看跌吞没形态，看跌信号",
		"📍 锤子线形态出现",
	}
	if got := signal.ReasonTexts(); !reflect.DeepEqual(got, want) {
		t.Errorf("reasons =\n%v\nwant\n%v", got, want)
	}

	if signal.DivergenceSignal != "MACD_bullish" {
		t.Errorf("divergence = %q, want MACD_bullish", signal.DivergenceSignal)
	}
	if signal.PatternsSignal != types.PatternBullish || signal.PatternsCount != 4 {
		t.Errorf("patterns = %s/%d, want bullish/4", signal.PatternsSignal, signal.PatternsCount)
	}
	if signal.MATrend != types.MABullishStack || signal.OBVSignal != types.OBVConfirmedUp {
		t.Errorf("echoed fields not copied: %+v", signal)
	}

	// 止盈被阻力位压到现价下方后退回最小区间
	if signal.BuyPrice != 91.8 || signal.StopLoss != 85.5 || signal.TakeProfit != 102 || signal.SellPrice != 107.8 {
		t.Errorf("levels = buy %v stop %v take %v sell %v",
			signal.BuyPrice, signal.StopLoss, signal.TakeProfit, signal.SellPrice)
	}
}

func TestScoreIsSumOfFactors(t *testing.T) {
	snap := loadedSnapshot()
	factors := []func(*scorecard){
		func(sc *scorecard) { scoreRSI(sc, snap.RSI) },
		func(sc *scorecard) { scoreMACD(sc, snap.MACDHistogram, snap.PrevMACDHistogram) },
		func(sc *scorecard) { scoreBollinger(sc, snap.CurrentPrice, snap.Bollinger) },
		func(sc *scorecard) { scoreKDJ(sc, snap.KDJSignal) },
		func(sc *scorecard) { scoreDivergence(sc, snap.MACDDivergence, snap.RSIDivergence) },
		func(sc *scorecard) { scoreOBV(sc, snap.OBVSignal) },
		func(sc *scorecard) { scoreZones(sc, snap.WilliamsSignal, snap.BiasSignal) },
		func(sc *scorecard) { scoreVolume(sc, snap.VolumeSignal, snap.VolumeRatio, snap.MACDHistogram) },
		func(sc *scorecard) { scoreMovingAverage(sc, snap.MAArrangement) },
		func(sc *scorecard) { scoreMonthTrend(sc, snap.Prices1M) },
		func(sc *scorecard) { scoreSupportResistance(sc, snap.CurrentPrice, snap.NearestSupport, snap.NearestResistance) },
		func(sc *scorecard) { scorePatterns(sc, snap.Patterns) },
	}

	sum := 0
	for _, f := range factors {
		sc := &scorecard{}
		f(sc)
		sum += sc.score
	}
	if got := Score(snap).Score; got != sum {
		t.Errorf("score = %d, sum of factors = %d", got, sum)
	}

	// 可选指标全部缺失时只剩 RSI、MACD、布林带
	core := baseSnapshot()
	core.RSI = 65
	sc := &scorecard{}
	scoreRSI(sc, core.RSI)
	scoreMACD(sc, core.MACDHistogram, core.PrevMACDHistogram)
	scoreBollinger(sc, core.CurrentPrice, core.Bollinger)
	if got := Score(core).Score; got != sc.score {
		t.Errorf("core score = %d, want %d", got, sc.score)
	}
}

func TestFactorBoundaries(t *testing.T) {
	bb := types.Bollinger{Upper: 110, Middle: 100, Lower: 90}
	tests := []struct {
		name  string
		apply func(*scorecard)
		want  int
	}{
		{"RSI 29.99", func(sc *scorecard) { scoreRSI(sc, 29.99) }, 3},
		{"RSI 30", func(sc *scorecard) { scoreRSI(sc, 30) }, 1},
		{"RSI 39.99", func(sc *scorecard) { scoreRSI(sc, 39.99) }, 1},
		{"RSI 40", func(sc *scorecard) { scoreRSI(sc, 40) }, 0},
		{"RSI 60", func(sc *scorecard) { scoreRSI(sc, 60) }, 0},
		{"RSI 60.01", func(sc *scorecard) { scoreRSI(sc, 60.01) }, -1},
		{"RSI 70", func(sc *scorecard) { scoreRSI(sc, 70) }, -1},
		{"RSI 70.01", func(sc *scorecard) { scoreRSI(sc, 70.01) }, -3},
		{"RSI 越界照常计分", func(sc *scorecard) { scoreRSI(sc, 150) }, -3},

		{"MACD 金叉", func(sc *scorecard) { scoreMACD(sc, 0.01, 0) }, 3},
		{"MACD 死叉", func(sc *scorecard) { scoreMACD(sc, 0, 0.01) }, -3},
		{"MACD 多头", func(sc *scorecard) { scoreMACD(sc, 0.5, 0.2) }, 1},
		{"MACD 空头", func(sc *scorecard) { scoreMACD(sc, -0.5, -0.2) }, -1},
		{"MACD 零轴持平", func(sc *scorecard) { scoreMACD(sc, 0, 0) }, -1},

		{"跌破下轨", func(sc *scorecard) { scoreBollinger(sc, 89.99, bb) }, 2},
		{"下轨", func(sc *scorecard) { scoreBollinger(sc, 90, bb) }, 1},
		{"下轨区间上沿", func(sc *scorecard) { scoreBollinger(sc, 92.99, bb) }, 1},
		{"离开下轨区间", func(sc *scorecard) { scoreBollinger(sc, 93.5, bb) }, 0},
		{"离开上轨区间", func(sc *scorecard) { scoreBollinger(sc, 106.5, bb) }, 0},
		{"上轨区间", func(sc *scorecard) { scoreBollinger(sc, 107.01, bb) }, -1},
		{"上轨", func(sc *scorecard) { scoreBollinger(sc, 110, bb) }, -1},
		{"突破上轨", func(sc *scorecard) { scoreBollinger(sc, 110.01, bb) }, -2},

		{"KDJ 金叉", func(sc *scorecard) { scoreKDJ(sc, types.KDJGoldenCross) }, 3},
		{"KDJ 死叉", func(sc *scorecard) { scoreKDJ(sc, types.KDJDeathCross) }, -3},
		{"KDJ 超卖", func(sc *scorecard) { scoreKDJ(sc, types.KDJOversold) }, 2},
		{"KDJ 低位", func(sc *scorecard) { scoreKDJ(sc, types.KDJLowZone) }, 2},
		{"KDJ 超买", func(sc *scorecard) { scoreKDJ(sc, types.KDJOverbought) }, -2},
		{"KDJ 高位", func(sc *scorecard) { scoreKDJ(sc, types.KDJHighZone) }, -2},
		{"KDJ 中性", func(sc *scorecard) { scoreKDJ(sc, types.KDJNeutral) }, 0},
		{"KDJ 缺失", func(sc *scorecard) { scoreKDJ(sc, "") }, 0},

		{"MACD 底背离", func(sc *scorecard) { scoreDivergence(sc, types.DivergenceBullish, types.DivergenceNone) }, 4},
		{"MACD 顶背离", func(sc *scorecard) { scoreDivergence(sc, types.DivergenceBearish, "") }, -4},
		{"RSI 底背离", func(sc *scorecard) { scoreDivergence(sc, types.DivergenceNone, types.DivergenceBullish) }, 3},
		{"RSI 顶背离", func(sc *scorecard) { scoreDivergence(sc, "", types.DivergenceBearish) }, -3},
		{"双背离叠加", func(sc *scorecard) { scoreDivergence(sc, types.DivergenceBullish, types.DivergenceBullish) }, 7},

		{"OBV 底背离", func(sc *scorecard) { scoreOBV(sc, types.OBVBullishDivergence) }, 2},
		{"OBV 顶背离", func(sc *scorecard) { scoreOBV(sc, types.OBVBearishDivergence) }, -2},
		{"OBV 确认上涨", func(sc *scorecard) { scoreOBV(sc, types.OBVConfirmedUp) }, 1},
		{"OBV 确认下跌", func(sc *scorecard) { scoreOBV(sc, types.OBVConfirmedDown) }, -1},
		{"OBV 中性", func(sc *scorecard) { scoreOBV(sc, types.OBVNeutral) }, 0},

		{"威廉超卖乖离正常", func(sc *scorecard) { scoreZones(sc, types.ZoneOversold, types.ZoneNeutral) }, 1},
		{"威廉超买", func(sc *scorecard) { scoreZones(sc, types.ZoneOverbought, "") }, -1},
		{"乖离偏低", func(sc *scorecard) { scoreZones(sc, "", types.ZoneOversold) }, 1},
		{"乖离偏高", func(sc *scorecard) { scoreZones(sc, types.ZoneNeutral, types.ZoneOverbought) }, -1},

		{"放量上涨", func(sc *scorecard) { scoreVolume(sc, types.VolumeBullish, types.Float(1.51), 0) }, 2},
		{"量比 1.5 不算放量", func(sc *scorecard) { scoreVolume(sc, types.VolumeBullish, types.Float(1.5), 0) }, 0},
		{"放量下跌", func(sc *scorecard) { scoreVolume(sc, types.VolumeBearish, types.Float(2), 0) }, -2},
		{"缩量下跌", func(sc *scorecard) { scoreVolume(sc, types.VolumeNeutral, types.Float(0.69), -0.1) }, 1},
		{"缩量但MACD为正", func(sc *scorecard) { scoreVolume(sc, types.VolumeNeutral, types.Float(0.5), 0.1) }, 0},
		{"量比 0.7 不算缩量", func(sc *scorecard) { scoreVolume(sc, types.VolumeNeutral, types.Float(0.7), -0.1) }, 0},
		{"缺少量比", func(sc *scorecard) { scoreVolume(sc, types.VolumeBullish, nil, 0) }, 0},

		{"均线多头", func(sc *scorecard) { scoreMovingAverage(sc, types.MABullishStack) }, 2},
		{"均线空头", func(sc *scorecard) { scoreMovingAverage(sc, types.MABearishStack) }, -2},
		{"均线缠绕", func(sc *scorecard) { scoreMovingAverage(sc, types.MATangled) }, 0},

		{"月跌幅 15.1%", func(sc *scorecard) { scoreMonthTrend(sc, []float64{100, 99, 98, 90, 84.9}) }, 1},
		{"月跌幅 14%", func(sc *scorecard) { scoreMonthTrend(sc, []float64{100, 99, 98, 90, 86}) }, 0},
		{"月涨幅 15.1%", func(sc *scorecard) { scoreMonthTrend(sc, []float64{100, 101, 105, 110, 115.1}) }, -1},
		{"少于5个价格", func(sc *scorecard) { scoreMonthTrend(sc, []float64{100, 50, 40, 30}) }, 0},

		{"只有支撑位", func(sc *scorecard) { scoreSupportResistance(sc, 100, types.Float(99), nil) }, 0},
		{"接近支撑位", func(sc *scorecard) { scoreSupportResistance(sc, 100, types.Float(97.01), types.Float(120)) }, 1},
		{"支撑位 3.1%", func(sc *scorecard) { scoreSupportResistance(sc, 100, types.Float(96.9), types.Float(120)) }, 0},
		{"接近阻力位", func(sc *scorecard) { scoreSupportResistance(sc, 100, types.Float(80), types.Float(102.99)) }, -1},
		{"窄区间两者都触发", func(sc *scorecard) { scoreSupportResistance(sc, 100, types.Float(99), types.Float(101)) }, 0},

		{"强形态看涨", func(sc *scorecard) {
			scorePatterns(sc, []types.PatternMatch{{Kind: types.PatternDoubleBottom, Signal: types.PatternBullish}})
		}, 3},
		{"强形态看跌", func(sc *scorecard) {
			scorePatterns(sc, []types.PatternMatch{{Kind: types.PatternHeadAndShouldersTop, Signal: types.PatternBearish}})
		}, -3},
		{"中等形态", func(sc *scorecard) {
			scorePatterns(sc, []types.PatternMatch{{Kind: types.PatternAscendingTriangle, Signal: types.PatternBullish}})
		}, 2},
		{"普通形态", func(sc *scorecard) {
			scorePatterns(sc, []types.PatternMatch{{Kind: types.PatternShootingStar, Signal: types.PatternBearish}})
		}, -1},
		{"中性形态不计分", func(sc *scorecard) {
			scorePatterns(sc, []types.PatternMatch{{Kind: types.PatternMorningStar, Signal: types.PatternNeutral}})
		}, 0},
		{"形态不封顶", func(sc *scorecard) {
			scorePatterns(sc, []types.PatternMatch{
				{Kind: types.PatternThreeWhiteSoldiers, Signal: types.PatternBullish},
				{Kind: types.PatternMorningStar, Signal: types.PatternBullish},
				{Kind: types.PatternDoubleBottom, Signal: types.PatternBullish},
			})
		}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := &scorecard{}
			tt.apply(sc)
			if sc.score != tt.want {
				t.Errorf("delta = %d, want %d", sc.score, tt.want)
			}
			// 每个触发的条件都留下一条理由
			if tt.want != 0 && len(sc.reasons) == 0 {
				t.Errorf("no reason recorded")
			}
		})
	}
}

func TestNeutralPatternLeavesNoReason(t *testing.T) {
	sc := &scorecard{}
	scorePatterns(sc, []types.PatternMatch{{Kind: types.PatternDoji, Signal: types.PatternNeutral}})
	if len(sc.reasons) != 0 {
		t.Errorf("reasons = %v, want none", sc.reasons)
	}
}

func TestResolveAction(t *testing.T) {
	tests := []struct {
		score      int
		action     types.Action
		confidence types.Confidence
	}{
		{-7, types.ActionSell, types.ConfidenceHigh},
		{-6, types.ActionSell, types.ConfidenceHigh},
		{-5, types.ActionSell, types.ConfidenceMedium},
		{-3, types.ActionSell, types.ConfidenceMedium},
		{-2, types.ActionHold, types.ConfidenceMedium},
		{0, types.ActionHold, types.ConfidenceMedium},
		{2, types.ActionHold, types.ConfidenceMedium},
		{3, types.ActionBuy, types.ConfidenceMedium},
		{5, types.ActionBuy, types.ConfidenceMedium},
		{6, types.ActionBuy, types.ConfidenceHigh},
		{7, types.ActionBuy, types.ConfidenceHigh},
	}
	for _, tt := range tests {
		action, confidence := ResolveAction(tt.score)
		if action != tt.action || confidence != tt.confidence {
			t.Errorf("ResolveAction(%d) = %s/%s, want %s/%s", tt.score, action, confidence, tt.action, tt.confidence)
		}
	}
}

func TestPositionPercent(t *testing.T) {
	if got := PositionPercent(types.ConfidenceHigh); got != 30 {
		t.Errorf("high = %v", got)
	}
	if got := PositionPercent(types.ConfidenceMedium); got != 20 {
		t.Errorf("medium = %v", got)
	}
	if got := PositionPercent(types.ConfidenceLow); got != 10 {
		t.Errorf("low = %v", got)
	}
}

func TestDivergenceLabel(t *testing.T) {
	tests := []struct {
		macd, rsi types.Divergence
		want      string
	}{
		{types.DivergenceBullish, types.DivergenceBearish, "MACD_bullish"},
		{types.DivergenceBearish, "", "MACD_bearish"},
		{types.DivergenceNone, types.DivergenceBearish, "RSI_bearish"},
		{"", types.DivergenceBullish, "RSI_bullish"},
		{types.DivergenceNone, types.DivergenceNone, ""},
	}
	for _, tt := range tests {
		if got := DivergenceLabel(tt.macd, tt.rsi); got != tt.want {
			t.Errorf("DivergenceLabel(%q, %q) = %q, want %q", tt.macd, tt.rsi, got, tt.want)
		}
	}
}

func TestPatternWeightCoversAllKinds(t *testing.T) {
	kinds := append(append([]types.PatternKind{}, types.CandlestickKinds...), types.ChartPatternKinds...)
	strong, medium := 0, 0
	for _, k := range kinds {
		switch PatternWeight(k) {
		case 3:
			strong++
		case 2:
			medium++
		case 1:
		default:
			t.Errorf("unexpected weight for %s", k)
		}
	}
	if strong != 8 || medium != 4 {
		t.Errorf("strong=%d medium=%d, want 8/4", strong, medium)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	first := Score(loadedSnapshot())
	second := Score(loadedSnapshot())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input produced different signals")
	}
}

func TestScoreDoesNotAliasInput(t *testing.T) {
	snap := loadedSnapshot()
	signal := Score(snap)
	*snap.NearestSupport = 1
	if *signal.SupportPrice != 98 {
		t.Errorf("signal support changed with input: %v", *signal.SupportPrice)
	}
}
