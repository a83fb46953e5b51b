package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stock-master/internal/analyzer"
	"stock-master/internal/storage"
	"stock-master/internal/strategy/signals"
	"stock-master/pkg/types"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *stubFetcher) FetchAll(_ context.Context, tickers []string) ([]*types.Snapshot, map[string]error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	var out []*types.Snapshot
	failures := map[string]error{}
	for _, t := range tickers {
		if t == "BAD" {
			failures[t] = errors.New("not found")
			continue
		}
		out = append(out, &types.Snapshot{Ticker: t, CurrentPrice: 10, RSI: 50,
			Bollinger: types.Bollinger{Upper: 11, Middle: 10, Lower: 9}})
	}
	return out, failures
}

type stubAnalyzer struct {
	mu   sync.Mutex
	seen [][]string
}

func (a *stubAnalyzer) AnalyzeAll(_ context.Context, snapshots []*types.Snapshot) []analyzer.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	tickers := make([]string, 0, len(snapshots))
	results := make([]analyzer.Result, 0, len(snapshots))
	for _, s := range snapshots {
		tickers = append(tickers, s.Ticker)
		results = append(results, analyzer.Result{Snapshot: s, Signal: signals.Score(s)})
	}
	a.seen = append(a.seen, tickers)
	return results
}

func newState() *storage.StateManager {
	return storage.NewStateManager(types.RedisConfig{}, time.Hour)
}

func TestRunOnceSkipsFailedTickers(t *testing.T) {
	f, a := &stubFetcher{}, &stubAnalyzer{}
	s := NewScheduler(f, a, newState(), nil, []string{"AAPL", "BAD", "MSFT"}, time.Minute)

	results := s.RunOnce(context.Background())
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if got := a.seen[0]; len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("analyzed = %v", got)
	}
}

func TestNextRunTimeAligned(t *testing.T) {
	s := NewScheduler(&stubFetcher{}, &stubAnalyzer{}, newState(), nil, nil, 15*time.Minute)
	s.now = func() time.Time { return time.Date(2026, 6, 1, 10, 7, 30, 0, time.UTC) }

	want := time.Date(2026, 6, 1, 10, 15, 0, 0, time.UTC)
	if got := s.nextRunTime(); !got.Equal(want) {
		t.Errorf("next = %v, want %v", got, want)
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	f := &stubFetcher{}
	s := NewScheduler(f, &stubAnalyzer{}, newState(), nil, []string{"AAPL"}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		f.mu.Lock()
		calls := f.calls
		f.mu.Unlock()
		if calls > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first cycle did not run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
