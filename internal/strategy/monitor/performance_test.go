package monitor

import (
	"errors"
	"math"
	"testing"
	"time"

	"stock-master/internal/database"
	"stock-master/pkg/types"
)

type fakeStore struct {
	stats []database.DailySignalStats
	err   error
}

func (f fakeStore) GetDailyStats(string, int) ([]database.DailySignalStats, error) {
	return f.stats, f.err
}

func TestRecord(t *testing.T) {
	pm := NewPerformanceMonitor(nil, 0)
	at := pm.metrics.StartTime.Add(2 * time.Hour)

	pm.Record(types.TradingSignal{Ticker: "aapl", Action: types.ActionBuy, Score: 6, CurrentPrice: 100}, true, at)
	pm.Record(types.TradingSignal{Ticker: "AAPL", Action: types.ActionHold, Score: 2, CurrentPrice: 101}, false, at)
	pm.Record(types.TradingSignal{Ticker: "TSLA", Action: types.ActionSell, Score: -5, CurrentPrice: 200}, true, at)

	m := pm.GetMetrics()
	if m.TotalSignals != 3 || m.BuySignals != 1 || m.SellSignals != 1 || m.HoldSignals != 1 || m.ChangedSignals != 2 {
		t.Errorf("metrics = %+v", m)
	}
	if math.Abs(m.AvgScore-1) > 1e-9 {
		t.Errorf("avg score = %v, want 1", m.AvgScore)
	}
	if math.Abs(m.SignalFrequency-1.5) > 1e-9 {
		t.Errorf("frequency = %v, want 1.5", m.SignalFrequency)
	}

	aapl := m.TickerStats["AAPL"]
	if aapl == nil || aapl.TotalSignals != 2 || aapl.AvgScore != 4 || aapl.LastAction != types.ActionHold || aapl.LastPrice != 101 {
		t.Errorf("aapl = %+v", aapl)
	}

	// 返回的是副本
	aapl.TotalSignals = 99
	if pm.GetMetrics().TickerStats["AAPL"].TotalSignals != 2 {
		t.Error("GetMetrics leaked internal state")
	}
}

func TestDailyReport(t *testing.T) {
	if _, err := NewPerformanceMonitor(nil, time.Minute).GetDailyReport("AAPL"); !errors.Is(err, ErrNoStatsStore) {
		t.Errorf("err = %v", err)
	}

	avg := 3.5
	day := time.Date(2026, 5, 6, 0, 0, 0, 0, time.Local)
	pm := NewPerformanceMonitor(fakeStore{stats: []database.DailySignalStats{
		{Ticker: "AAPL", Date: day, TotalSignals: 4, BuySignals: 3, SellSignals: 1, AvgScore: &avg},
	}}, time.Minute)

	report, err := pm.GetDailyReport("aapl")
	if err != nil {
		t.Fatal(err)
	}
	if report.Ticker != "AAPL" || report.BuyRatio != 75 || report.SellRatio != 25 || report.AvgScore != 3.5 {
		t.Errorf("report = %+v", report)
	}

	empty, err := NewPerformanceMonitor(fakeStore{}, time.Minute).GetDailyReport("MSFT")
	if err != nil || empty.TotalSignals != 0 || empty.Date.IsZero() {
		t.Errorf("empty report = %+v, %v", empty, err)
	}
}
