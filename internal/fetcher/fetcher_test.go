package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stock-master/pkg/types"
)

func newTestClient(url string) *Client {
	c := NewClient(types.ProviderConfig{BaseURL: url + "/", Concurrency: 2}, types.NetworkConfig{Timeout: 5 * time.Second})
	c.retryDelay = 0
	return c
}

func snapshotJSON(ticker string, price float64) string {
	return fmt.Sprintf(`{"ticker":%q,"current_price":%v,"rsi":45,"macd_histogram":0.1,"prev_macd_histogram":0.05,
		"bollinger":{"upper":%v,"middle":%v,"lower":%v},"atr":2.5,"atr_percent":2.5}`,
		ticker, price, price*1.1, price, price*0.9)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snapshots/AAPL" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, snapshotJSON("aapl", 100))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL).Fetch(context.Background(), " aapl ")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Ticker != "AAPL" || snap.CurrentPrice != 100 || snap.ATR == nil || *snap.ATR != 2.5 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Timestamp.IsZero() {
		t.Error("missing timestamp should default to now")
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, snapshotJSON("MSFT", 300))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL).Fetch(context.Background(), "MSFT")
	if err != nil {
		t.Fatal(err)
	}
	if snap.CurrentPrice != 300 || atomic.LoadInt32(&calls) != 3 {
		t.Errorf("price=%v calls=%d", snap.CurrentPrice, calls)
	}
}

func TestFetchGivesUpAfterThreeAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "MSFT")
	if err == nil || !strings.Contains(err.Error(), "第3次尝试") {
		t.Errorf("err = %v", err)
	}
	if atomic.LoadInt32(&calls) != maxAttempts {
		t.Errorf("calls = %d", calls)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/snapshots/BAD":
			// 布林带顺序错误
			fmt.Fprint(w, `{"ticker":"BAD","current_price":10,"bollinger":{"upper":9,"middle":10,"lower":11}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Fetch(context.Background(), "NOPE"); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("err = %v", err)
	}
	if _, err := c.Fetch(context.Background(), "BAD"); !errors.Is(err, types.ErrInvalidSnapshot) {
		t.Errorf("err = %v", err)
	}
	if _, err := c.Fetch(context.Background(), ""); !errors.Is(err, types.ErrInvalidSnapshot) {
		t.Errorf("empty ticker err = %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, "/snapshots/")
		if ticker == "ZZZ" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, snapshotJSON(ticker, 50))
	}))
	defer srv.Close()

	snaps, failures := newTestClient(srv.URL).FetchAll(context.Background(), []string{"AAPL", "ZZZ", "MSFT", "TSLA"})
	if len(snaps) != 3 || len(failures) != 1 {
		t.Fatalf("snaps=%d failures=%v", len(snaps), failures)
	}
	if snaps[0].Ticker != "AAPL" || snaps[1].Ticker != "MSFT" || snaps[2].Ticker != "TSLA" {
		t.Errorf("order = %s %s %s", snaps[0].Ticker, snaps[1].Ticker, snaps[2].Ticker)
	}
	if !errors.Is(failures["ZZZ"], ErrTickerNotFound) {
		t.Errorf("failure = %v", failures["ZZZ"])
	}
}
