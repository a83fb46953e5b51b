package fetcher

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"stock-master/pkg/types"
)

// ErrTickerNotFound 行情服务没有该股票的数据
var ErrTickerNotFound = errors.New("股票不存在")

const maxAttempts = 3

// Client 行情数据服务客户端，按股票代码获取指标快照
type Client struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int
	retryDelay  time.Duration
}

func NewClient(provider types.ProviderConfig, networkConfig types.NetworkConfig) *Client {
	timeout := networkConfig.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: false,
		},
	}

	// 如果配置了代理，则使用代理
	if networkConfig.Proxy != "" {
		proxyURL, err := url.Parse(networkConfig.Proxy)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
			zap.L().Info("✅ 已配置HTTP代理", zap.String("proxy", networkConfig.Proxy))
		} else {
			zap.L().Warn("⚠️ 代理地址格式错误", zap.Error(err))
		}
	}

	concurrency := provider.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	zap.L().Info("✅ 初始化行情数据客户端",
		zap.String("base_url", provider.BaseURL),
		zap.Duration("timeout", timeout),
		zap.Int("concurrency", concurrency))

	return &Client{
		baseURL:     strings.TrimRight(provider.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout, Transport: transport},
		concurrency: concurrency,
		retryDelay:  time.Second,
	}
}

// Fetch 获取单只股票的指标快照，网络错误和5xx最多重试3次
func (c *Client) Fetch(ctx context.Context, ticker string) (*types.Snapshot, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("%w: 缺少股票代码", types.ErrInvalidSnapshot)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			zap.L().Info("🔄 重试获取数据", zap.String("ticker", ticker), zap.Int("attempt", attempt))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.retryDelay):
			}
		}

		snap, retry, err := c.fetchOnce(ctx, ticker)
		if err == nil {
			return snap, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = fmt.Errorf("%w(第%d次尝试)", err, attempt)
	}

	return nil, lastErr
}

// fetchOnce 发送一次请求，返回是否值得重试
func (c *Client) fetchOnce(ctx context.Context, ticker string) (*types.Snapshot, bool, error) {
	apiURL := c.baseURL + "/snapshots/" + url.PathEscape(ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("HTTP状态码错误: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("HTTP状态码错误: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("读取响应失败: %w", err)
	}

	var snap types.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, false, fmt.Errorf("解析快照失败: %w", err)
	}
	if snap.Ticker == "" {
		snap.Ticker = ticker
	}
	snap.Ticker = strings.ToUpper(snap.Ticker)
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	if err := snap.Validate(); err != nil {
		return nil, false, err
	}

	return &snap, false, nil
}

// FetchAll 并发获取多只股票，返回成功的快照（保持输入顺序）和每只失败股票的错误
func (c *Client) FetchAll(ctx context.Context, tickers []string) ([]*types.Snapshot, map[string]error) {
	results := make([]*types.Snapshot, len(tickers))
	failures := make(map[string]error)

	var wg sync.WaitGroup
	var mutex sync.Mutex
	sem := make(chan struct{}, c.concurrency)

	for i, ticker := range tickers {
		wg.Add(1)
		go func(idx int, t string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				mutex.Lock()
				failures[t] = ctx.Err()
				mutex.Unlock()
				return
			}
			defer func() { <-sem }()

			snap, err := c.Fetch(ctx, t)
			if err != nil {
				zap.L().Warn("❌ 获取快照失败", zap.String("ticker", t), zap.Error(err))
				mutex.Lock()
				failures[t] = err
				mutex.Unlock()
				return
			}
			results[idx] = snap
		}(i, ticker)
	}
	wg.Wait()

	snapshots := make([]*types.Snapshot, 0, len(tickers))
	for _, snap := range results {
		if snap != nil {
			snapshots = append(snapshots, snap)
		}
	}

	zap.L().Info("✅ 获取到快照数据",
		zap.Int("requested", len(tickers)),
		zap.Int("succeeded", len(snapshots)),
		zap.Int("failed", len(failures)))

	return snapshots, failures
}
