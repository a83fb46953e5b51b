package signals

import (
	"testing"

	"stock-master/pkg/types"
)

func TestDerivePriceLevelsFallback(t *testing.T) {
	levels := DerivePriceLevels(LevelInput{
		Price:     100,
		Bollinger: types.Bollinger{Upper: 120, Middle: 100, Lower: 90},
	})

	if levels.BuyPrice != 91.8 {
		t.Errorf("buy = %v, want 91.8", levels.BuyPrice)
	}
	if levels.StopLoss != 85.5 {
		t.Errorf("stop = %v, want 85.5", levels.StopLoss)
	}
	if levels.TakeProfit != 114 {
		t.Errorf("take = %v, want 114", levels.TakeProfit)
	}
	if levels.SellPrice != 117.6 {
		t.Errorf("sell = %v, want 117.6", levels.SellPrice)
	}
	if levels.RiskRewardRatio != nil {
		t.Errorf("risk reward = %v, want nil", *levels.RiskRewardRatio)
	}
}

func TestDerivePriceLevelsMultiplier(t *testing.T) {
	tests := []struct {
		atrPercent float64
		stopLoss   float64
		takeProfit float64
	}{
		{6, 95, 112.5},
		{5, 96, 110},
		{3.5, 96, 110},
		{3, 97, 107.5},
		{1, 97, 107.5},
	}
	for _, tt := range tests {
		levels := DerivePriceLevels(LevelInput{
			Price:      100,
			Bollinger:  types.Bollinger{Upper: 110, Middle: 100, Lower: 90},
			ATR:        types.Float(2),
			ATRPercent: types.Float(tt.atrPercent),
		})
		if levels.StopLoss != tt.stopLoss || levels.TakeProfit != tt.takeProfit {
			t.Errorf("atr%%=%v: stop/take = %v/%v, want %v/%v",
				tt.atrPercent, levels.StopLoss, levels.TakeProfit, tt.stopLoss, tt.takeProfit)
		}
		if levels.BuyPrice != 99 {
			t.Errorf("atr%%=%v: buy = %v, want 99", tt.atrPercent, levels.BuyPrice)
		}
		if levels.RiskRewardRatio == nil || *levels.RiskRewardRatio != 2.5 {
			t.Errorf("atr%%=%v: risk reward = %v, want 2.5", tt.atrPercent, levels.RiskRewardRatio)
		}
	}
}

func TestDerivePriceLevelsSupportResistance(t *testing.T) {
	levels := DerivePriceLevels(LevelInput{
		Price:      100,
		Bollinger:  types.Bollinger{Upper: 110, Middle: 100, Lower: 90},
		ATR:        types.Float(2),
		ATRPercent: types.Float(6),
		Support:    types.Float(94),
		Resistance: types.Float(105),
	})

	// 止损高于支撑位时移到支撑位下方 2%
	if levels.StopLoss != 92.12 {
		t.Errorf("stop = %v, want 92.12", levels.StopLoss)
	}
	if levels.TakeProfit != 102.9 {
		t.Errorf("take = %v, want 102.9", levels.TakeProfit)
	}
	// 风险收益比按修正前的价位计算
	if *levels.RiskRewardRatio != 2.5 {
		t.Errorf("risk reward = %v, want 2.5", *levels.RiskRewardRatio)
	}

	// 支撑位在止损上方则不动
	levels = DerivePriceLevels(LevelInput{
		Price:      100,
		Bollinger:  types.Bollinger{Upper: 110, Middle: 100, Lower: 90},
		ATR:        types.Float(2),
		ATRPercent: types.Float(6),
		Support:    types.Float(97),
		Resistance: types.Float(130),
	})
	if levels.StopLoss != 95 || levels.TakeProfit != 112.5 {
		t.Errorf("stop/take = %v/%v, want 95/112.5", levels.StopLoss, levels.TakeProfit)
	}
}

func TestDerivePriceLevelsKeepsBracket(t *testing.T) {
	prices := []float64{1, 7.35, 42, 100, 250.5, 1999}
	bands := []struct{ upper, lower float64 }{
		{1.3, 0.7},
		{1.01, 0.99},
		{0.9, 0.8},
		{1.2, 1.1},
	}
	atrs := []*float64{nil, types.Float(0.001), types.Float(0.02), types.Float(0.1)}
	levelsNear := []*float64{nil, types.Float(0.9), types.Float(0.99), types.Float(1.01), types.Float(1.2)}

	for _, p := range prices {
		for _, b := range bands {
			for _, atrRatio := range atrs {
				for _, sup := range levelsNear {
					for _, res := range levelsNear {
						in := LevelInput{
							Price:     p,
							Bollinger: types.Bollinger{Upper: p * b.upper, Middle: p * (b.upper + b.lower) / 2, Lower: p * b.lower},
						}
						if atrRatio != nil {
							in.ATR = types.Float(p * *atrRatio)
							in.ATRPercent = types.Float(*atrRatio * 100)
						}
						if sup != nil {
							in.Support = types.Float(p * *sup)
						}
						if res != nil {
							in.Resistance = types.Float(p * *res)
						}

						levels := DerivePriceLevels(in)
						if !(levels.StopLoss < p && p < levels.TakeProfit) {
							t.Fatalf("bracket broken for %+v: stop %v price %v take %v", in, levels.StopLoss, p, levels.TakeProfit)
						}
					}
				}
			}
		}
	}
}
