package types

import "time"

// TradeType 交易类型
type TradeType string

const (
	TradeBuy      TradeType = "买入"
	TradeSell     TradeType = "卖出"
	TradeIntraday TradeType = "做T"
)

// Holding 持仓
type Holding struct {
	Ticker  string    `json:"ticker"`
	Name    string    `json:"name"`
	Market  string    `json:"market"` // 美股/港股/A股
	Shares  float64   `json:"shares"`
	AvgCost float64   `json:"avg_cost"`
	BuyDate time.Time `json:"buy_date"`
	Notes   string    `json:"notes"`
}

// Trade 交易记录
type Trade struct {
	Ticker    string    `json:"ticker"`
	Type      TradeType `json:"trade_type"`
	Shares    float64   `json:"shares"`
	Price     float64   `json:"price"`
	Amount    float64   `json:"amount"`
	Fee       float64   `json:"fee"`
	Signal    string    `json:"signal"` // 触发信号
	Notes     string    `json:"notes"`
	TradeTime time.Time `json:"trade_time"`
}

// HoldingValuation 按现价重估后的持仓
type HoldingValuation struct {
	Holding
	CurrentPrice  float64 `json:"current_price"`
	CostBasis     float64 `json:"cost_basis"`
	MarketValue   float64 `json:"market_value"`
	ProfitLoss    float64 `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// PortfolioSummary 持仓汇总
type PortfolioSummary struct {
	Holdings        []HoldingValuation `json:"holdings"`
	TotalCost       float64            `json:"total_cost"`
	TotalValue      float64            `json:"total_value"`
	TotalProfitLoss float64            `json:"total_profit_loss"`
	TotalReturnPct  float64            `json:"total_return_pct"`
	UpdateTime      time.Time          `json:"update_time"`
}
