package portfolio

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"stock-master/pkg/types"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRevalue(t *testing.T) {
	at := time.Date(2026, 5, 1, 16, 0, 0, 0, time.UTC)
	holdings := []types.Holding{
		{Ticker: "AAPL", Shares: 100, AvgCost: 150},
		{Ticker: "tsla", Shares: 10, AvgCost: 250},
		{Ticker: "MSFT", Shares: 5, AvgCost: 300}, // 没有报价
		{Ticker: "BABA", Shares: 0, AvgCost: 80},
	}
	prices := map[string]float64{"AAPL": 180, "TSLA": 200, "BABA": 90}

	summary := Revalue(holdings, prices, at)
	if len(summary.Holdings) != 2 {
		t.Fatalf("holdings = %d, want 2", len(summary.Holdings))
	}

	aapl := summary.Holdings[0]
	if aapl.CostBasis != 15000 || aapl.MarketValue != 18000 || aapl.ProfitLoss != 3000 || !almostEqual(aapl.ProfitLossPct, 20) {
		t.Errorf("aapl = %+v", aapl)
	}
	tsla := summary.Holdings[1]
	if tsla.ProfitLoss != -500 || !almostEqual(tsla.ProfitLossPct, -20) {
		t.Errorf("tsla = %+v", tsla)
	}

	if summary.TotalCost != 17500 || summary.TotalValue != 20000 || summary.TotalProfitLoss != 2500 {
		t.Errorf("totals = %+v", summary)
	}
	if !almostEqual(summary.TotalReturnPct, 2500.0/17500*100) {
		t.Errorf("total return = %v", summary.TotalReturnPct)
	}
	if !summary.UpdateTime.Equal(at) {
		t.Errorf("update time = %v", summary.UpdateTime)
	}
}

func TestRevalueEmpty(t *testing.T) {
	summary := Revalue(nil, nil, time.Time{})
	if summary.TotalReturnPct != 0 || len(summary.Holdings) != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if got := FormatSummary(summary); got != "持仓为空，请先添加股票" {
		t.Errorf("got %q", got)
	}
}

func TestFormatSummary(t *testing.T) {
	summary := Revalue([]types.Holding{
		{Ticker: "AAPL", Shares: 100, AvgCost: 150},
		{Ticker: "TSLA", Shares: 10, AvgCost: 250},
	}, map[string]float64{"AAPL": 180, "TSLA": 200}, time.Now())

	got := FormatSummary(summary)
	for _, want := range []string{
		"| 股票 | 数量 | 成本价 | 现价 | 盈亏 |",
		"| AAPL | 100 | $150.00 | $180.00 | +20.0% |",
		"| TSLA | 10 | $250.00 | $200.00 | -20.0% |",
		"**总投入**: $17,500.00",
		"**当前市值**: $20,000.00",
		"**总盈亏**: +$2,500.00 (+14.29%)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestApplyTrade(t *testing.T) {
	day := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	h := types.Holding{Ticker: "AAPL"}

	h, err := ApplyTrade(h, types.Trade{Type: types.TradeBuy, Shares: 10, Price: 100, TradeTime: day})
	if err != nil {
		t.Fatal(err)
	}
	h, err = ApplyTrade(h, types.Trade{Type: types.TradeBuy, Shares: 10, Price: 120, Fee: 20, TradeTime: day.AddDate(0, 0, 5)})
	if err != nil {
		t.Fatal(err)
	}
	if h.Shares != 20 || !almostEqual(h.AvgCost, 111) {
		t.Errorf("after buys = %+v", h)
	}
	if !h.BuyDate.Equal(day) {
		t.Errorf("buy date = %v, want first buy", h.BuyDate)
	}

	h, err = ApplyTrade(h, types.Trade{Type: types.TradeSell, Shares: 5, Price: 130})
	if err != nil {
		t.Fatal(err)
	}
	if h.Shares != 15 || !almostEqual(h.AvgCost, 111) {
		t.Errorf("after sell = %+v", h)
	}

	if _, err := ApplyTrade(h, types.Trade{Type: types.TradeSell, Shares: 16}); !errors.Is(err, ErrInsufficientShares) {
		t.Errorf("oversell err = %v", err)
	}
	if _, err := ApplyTrade(h, types.Trade{Type: "short"}); err == nil {
		t.Error("unknown trade type accepted")
	}
}
