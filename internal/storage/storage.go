package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"stock-master/pkg/types"
)

const (
	priceKeyPrefix  = "stock:price:"
	signalKeyPrefix = "stock:signal:"
	redisTimeout    = 3 * time.Second
)

// CircularQueue 按时间窗口保留价格数据点
type CircularQueue struct {
	data   []types.PriceDataPoint
	maxAge time.Duration
	mutex  sync.RWMutex
}

func NewCircularQueue(maxAge time.Duration) *CircularQueue {
	return &CircularQueue{
		data:   make([]types.PriceDataPoint, 0, 32),
		maxAge: maxAge,
	}
}

// Add 追加数据点并清理比最新点早 maxAge 以上的旧数据，乱序的点会被丢弃
func (cq *CircularQueue) Add(point types.PriceDataPoint) {
	cq.mutex.Lock()
	defer cq.mutex.Unlock()

	if n := len(cq.data); n > 0 && point.Timestamp.Before(cq.data[n-1].Timestamp) {
		return
	}
	cq.data = append(cq.data, point)

	cutoff := point.Timestamp.Add(-cq.maxAge)
	newStart := len(cq.data) - 1
	for i, p := range cq.data {
		if !p.Timestamp.Before(cutoff) {
			newStart = i
			break
		}
	}
	if newStart > 0 {
		cq.data = append(cq.data[:0:0], cq.data[newStart:]...)
	}
}

func (cq *CircularQueue) GetOldest() *types.PriceDataPoint {
	cq.mutex.RLock()
	defer cq.mutex.RUnlock()

	if len(cq.data) == 0 {
		return nil
	}
	p := cq.data[0]
	return &p
}

func (cq *CircularQueue) GetLatest() *types.PriceDataPoint {
	cq.mutex.RLock()
	defer cq.mutex.RUnlock()

	if len(cq.data) == 0 {
		return nil
	}
	p := cq.data[len(cq.data)-1]
	return &p
}

// Prices 窗口内全部价格，从旧到新
func (cq *CircularQueue) Prices() []float64 {
	cq.mutex.RLock()
	defer cq.mutex.RUnlock()

	prices := make([]float64, len(cq.data))
	for i, p := range cq.data {
		prices[i] = p.Price
	}
	return prices
}

func (cq *CircularQueue) Length() int {
	cq.mutex.RLock()
	defer cq.mutex.RUnlock()
	return len(cq.data)
}

// StateManager 价格窗口与最新信号的状态管理器，内存为主，Redis 备份
type StateManager struct {
	priceHistory map[string]*CircularQueue
	signals      map[string]types.TradingSignal
	mutex        sync.RWMutex
	windowSize   time.Duration
	redisClient  *redis.Client
	useRedis     bool
}

func NewStateManager(redisConfig types.RedisConfig, window time.Duration) *StateManager {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	sm := &StateManager{
		priceHistory: make(map[string]*CircularQueue),
		signals:      make(map[string]types.TradingSignal),
		windowSize:   window,
	}

	// 尝试连接Redis
	if redisConfig.URL != "" {
		sm.redisClient = redis.NewClient(&redis.Options{
			Addr:     redisConfig.URL,
			Password: redisConfig.Password,
			DB:       redisConfig.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sm.redisClient.Ping(ctx).Err(); err != nil {
			zap.L().Warn("⚠️ Redis连接失败，使用纯内存模式", zap.Error(err))
			sm.useRedis = false
		} else {
			zap.L().Info("✅ Redis连接成功", zap.String("addr", redisConfig.URL))
			sm.useRedis = true
		}
	} else {
		zap.L().Info("🔧 未配置Redis，使用纯内存模式")
	}

	return sm
}

// Store 记录一个价格点并异步备份到Redis
func (sm *StateManager) Store(ticker string, price float64, timestamp time.Time) {
	point := types.PriceDataPoint{Price: price, Timestamp: timestamp}

	sm.queue(ticker).Add(point)

	if sm.useRedis {
		go sm.backupPrice(ticker, point)
	}
}

func (sm *StateManager) queue(ticker string) *CircularQueue {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	q := sm.priceHistory[ticker]
	if q == nil {
		q = NewCircularQueue(sm.windowSize)
		sm.priceHistory[ticker] = q
	}
	return q
}

// Prices 某只股票窗口内的价格序列，从旧到新
func (sm *StateManager) Prices(ticker string) []float64 {
	sm.mutex.RLock()
	q := sm.priceHistory[ticker]
	sm.mutex.RUnlock()

	if q == nil {
		return nil
	}
	return q.Prices()
}

// backupPrice 价格点写入Redis有序集合，以时间戳为分数
func (sm *StateManager) backupPrice(ticker string, point types.PriceDataPoint) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	key := priceKeyPrefix + ticker
	value, err := json.Marshal(point)
	if err != nil {
		zap.L().Error("序列化价格数据失败", zap.String("ticker", ticker), zap.Error(err))
		return
	}

	err = sm.redisClient.ZAdd(ctx, key, &redis.Z{
		Score:  float64(point.Timestamp.Unix()),
		Member: value,
	}).Err()
	if err != nil {
		zap.L().Error("Redis存储失败", zap.String("ticker", ticker), zap.Error(err))
		return
	}

	// 只保留窗口内的数据
	sm.redisClient.Expire(ctx, key, 2*sm.windowSize)
	cutoff := point.Timestamp.Add(-sm.windowSize).Unix()
	sm.redisClient.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10))
}

// Restore 启动时从Redis恢复价格窗口
func (sm *StateManager) Restore(ctx context.Context, tickers []string) error {
	if !sm.useRedis {
		return nil
	}

	since := strconv.FormatInt(time.Now().Add(-sm.windowSize).Unix(), 10)
	for _, ticker := range tickers {
		members, err := sm.redisClient.ZRangeByScore(ctx, priceKeyPrefix+ticker, &redis.ZRangeBy{
			Min: since,
			Max: "+inf",
		}).Result()
		if err != nil {
			return fmt.Errorf("恢复价格窗口失败 %s: %w", ticker, err)
		}

		q := sm.queue(ticker)
		for _, m := range members {
			var point types.PriceDataPoint
			if err := json.Unmarshal([]byte(m), &point); err != nil {
				zap.L().Warn("跳过无法解析的价格数据", zap.String("ticker", ticker), zap.Error(err))
				continue
			}
			q.Add(point)
		}
		zap.L().Debug("价格窗口已恢复", zap.String("ticker", ticker), zap.Int("points", q.Length()))
	}
	return nil
}

// SaveSignal 缓存最新信号，返回与上一次相比是否有变化
func (sm *StateManager) SaveSignal(ctx context.Context, signal types.TradingSignal) (bool, error) {
	prev, hasPrev := sm.LatestSignal(ctx, signal.Ticker)

	sm.mutex.Lock()
	sm.signals[signal.Ticker] = signal
	sm.mutex.Unlock()

	changed := !hasPrev || Changed(prev, signal)

	if sm.useRedis {
		value, err := json.Marshal(signal)
		if err != nil {
			return changed, fmt.Errorf("序列化信号失败: %w", err)
		}
		ctx, cancel := context.WithTimeout(ctx, redisTimeout)
		defer cancel()
		if err := sm.redisClient.Set(ctx, signalKeyPrefix+signal.Ticker, value, sm.windowSize).Err(); err != nil {
			return changed, fmt.Errorf("Redis缓存信号失败: %w", err)
		}
	}
	return changed, nil
}

// LatestSignal 最新信号，内存没有时查Redis
func (sm *StateManager) LatestSignal(ctx context.Context, ticker string) (types.TradingSignal, bool) {
	sm.mutex.RLock()
	signal, ok := sm.signals[ticker]
	sm.mutex.RUnlock()
	if ok || !sm.useRedis {
		return signal, ok
	}

	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	data, err := sm.redisClient.Get(ctx, signalKeyPrefix+ticker).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("Redis读取信号失败", zap.String("ticker", ticker), zap.Error(err))
		}
		return types.TradingSignal{}, false
	}
	if err := json.Unmarshal(data, &signal); err != nil {
		zap.L().Warn("Redis信号数据损坏", zap.String("ticker", ticker), zap.Error(err))
		return types.TradingSignal{}, false
	}

	sm.mutex.Lock()
	sm.signals[ticker] = signal
	sm.mutex.Unlock()
	return signal, true
}

// Changed 操作建议或止损止盈变化才算新信号
func Changed(prev, next types.TradingSignal) bool {
	return prev.Action != next.Action ||
		prev.StopLoss != next.StopLoss ||
		prev.TakeProfit != next.TakeProfit
}

func (sm *StateManager) GetAllTickers() []string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	tickers := make([]string, 0, len(sm.priceHistory))
	for ticker := range sm.priceHistory {
		tickers = append(tickers, ticker)
	}
	return tickers
}

// GetRedisStats 获取存储统计信息
func (sm *StateManager) GetRedisStats() map[string]interface{} {
	sm.mutex.RLock()
	stats := map[string]interface{}{
		"redis_enabled":  sm.useRedis,
		"memory_tickers": len(sm.priceHistory),
		"cached_signals": len(sm.signals),
	}
	sm.mutex.RUnlock()

	if sm.useRedis {
		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
		defer cancel()

		keys, err := sm.redisClient.Keys(ctx, priceKeyPrefix+"*").Result()
		if err == nil {
			stats["redis_keys"] = len(keys)
		} else {
			stats["redis_error"] = err.Error()
		}
	}

	return stats
}

// Close 关闭Redis连接
func (sm *StateManager) Close() error {
	if sm.redisClient != nil {
		return sm.redisClient.Close()
	}
	return nil
}
