package ranking

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"stock-master/pkg/types"
)

// Method 排名方式
type Method string

const (
	MethodRSI       Method = "rsi"
	MethodMomentum  Method = "momentum"
	MethodComposite Method = "composite"
	MethodSignal    Method = "signal" // 按评分引擎总分
)

// ErrUnknownMethod 不支持的排名方式
var ErrUnknownMethod = errors.New("不支持的排名方式")

// 排名用到的常量
const (
	rsiCap          = 70.0
	crossoverBonus  = 15.0
	trendBonus      = 5.0
	compositeWeight = 0.6
	macdScale       = 20.0
	macdWeight      = 0.4
)

// Entry 参与排名的一只股票，缺失的读数用 Options 中的默认值
type Entry struct {
	Ticker            string   `json:"ticker"`
	RSI               *float64 `json:"rsi,omitempty"`
	MACDHistogram     *float64 `json:"macd_histogram,omitempty"`
	PrevMACDHistogram *float64 `json:"prev_macd_histogram,omitempty"`
	SignalScore       *int     `json:"signal_score,omitempty"`
}

// Options 排名参数
type Options struct {
	DefaultRSI float64
}

// Ranked 排名结果，Rank 从1开始
type Ranked struct {
	Rank   int     `json:"rank"`
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
}

// ParseMethod 解析排名方式
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MethodRSI, MethodMomentum, MethodComposite, MethodSignal:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// FromSignal 由快照和评分结果构造排名条目
func FromSignal(snap *types.Snapshot, signal types.TradingSignal) Entry {
	rsi := snap.RSI
	hist := snap.MACDHistogram
	prev := snap.PrevMACDHistogram
	score := signal.Score
	return Entry{
		Ticker:            strings.ToUpper(snap.Ticker),
		RSI:               &rsi,
		MACDHistogram:     &hist,
		PrevMACDHistogram: &prev,
		SignalScore:       &score,
	}
}

// Rank 计算分数并按分数从高到低排序，同分保持输入顺序
func Rank(entries []Entry, method Method, opts Options) ([]Ranked, error) {
	scorer, err := scorerFor(method)
	if err != nil {
		return nil, err
	}

	ranked := make([]Ranked, 0, len(entries))
	for _, e := range entries {
		ranked = append(ranked, Ranked{
			Ticker: strings.ToUpper(e.Ticker),
			Score:  scorer(e, opts),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

type scorer func(Entry, Options) float64

func scorerFor(method Method) (scorer, error) {
	switch method {
	case MethodRSI:
		return rsiScore, nil
	case MethodMomentum:
		return momentumScore, nil
	case MethodComposite:
		return compositeScore, nil
	case MethodSignal:
		return signalScore, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// 超买区间不再加分
func rsiScore(e Entry, opts Options) float64 {
	if e.RSI == nil || *e.RSI == 0 {
		return opts.DefaultRSI
	}
	if *e.RSI > rsiCap {
		return rsiCap
	}
	return *e.RSI
}

func momentumScore(e Entry, opts Options) float64 {
	score := opts.DefaultRSI
	if e.RSI != nil {
		score = *e.RSI
	}
	if e.MACDHistogram == nil {
		return score
	}

	hist := *e.MACDHistogram
	if e.PrevMACDHistogram != nil {
		prev := *e.PrevMACDHistogram
		switch {
		case prev <= 0 && hist > 0:
			return score + crossoverBonus
		case prev > 0 && hist <= 0:
			return score - crossoverBonus
		}
	}
	if hist > 0 {
		return score + trendBonus
	}
	return score - trendBonus
}

func compositeScore(e Entry, opts Options) float64 {
	rsi := opts.DefaultRSI
	if e.RSI != nil {
		rsi = *e.RSI
	}
	hist := 0.0
	if e.MACDHistogram != nil {
		hist = *e.MACDHistogram
	}
	return rsi*compositeWeight + hist*macdScale*macdWeight
}

func signalScore(e Entry, _ Options) float64 {
	if e.SignalScore == nil {
		return 0
	}
	return float64(*e.SignalScore)
}
