package portfolio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"stock-master/pkg/types"
)

// ErrInsufficientShares 卖出数量超过持仓
var ErrInsufficientShares = errors.New("持仓数量不足")

var printer = message.NewPrinter(language.English)

// Revalue 按现价重估持仓，没有报价或数量为0的持仓跳过
func Revalue(holdings []types.Holding, prices map[string]float64, at time.Time) types.PortfolioSummary {
	summary := types.PortfolioSummary{UpdateTime: at}

	for _, h := range holdings {
		if h.Shares <= 0 {
			continue
		}
		price, ok := prices[strings.ToUpper(h.Ticker)]
		if !ok || price <= 0 {
			continue
		}

		costBasis := h.Shares * h.AvgCost
		marketValue := h.Shares * price
		profitLoss := marketValue - costBasis
		profitLossPct := 0.0
		if costBasis > 0 {
			profitLossPct = profitLoss / costBasis * 100
		}

		summary.Holdings = append(summary.Holdings, types.HoldingValuation{
			Holding:       h,
			CurrentPrice:  price,
			CostBasis:     costBasis,
			MarketValue:   marketValue,
			ProfitLoss:    profitLoss,
			ProfitLossPct: profitLossPct,
		})
		summary.TotalCost += costBasis
		summary.TotalValue += marketValue
	}

	summary.TotalProfitLoss = summary.TotalValue - summary.TotalCost
	if summary.TotalCost > 0 {
		summary.TotalReturnPct = summary.TotalProfitLoss / summary.TotalCost * 100
	}
	return summary
}

// ApplyTrade 把一笔成交计入持仓。买入按加权平均更新成本价，卖出只减少数量，做T不改变持仓。
func ApplyTrade(h types.Holding, t types.Trade) (types.Holding, error) {
	switch t.Type {
	case types.TradeBuy:
		shares := h.Shares + t.Shares
		if shares > 0 {
			h.AvgCost = (h.Shares*h.AvgCost + t.Shares*t.Price + t.Fee) / shares
		}
		h.Shares = shares
		if h.BuyDate.IsZero() {
			h.BuyDate = t.TradeTime
		}
	case types.TradeSell:
		if t.Shares > h.Shares {
			return h, fmt.Errorf("%w: %s 持有 %.0f 股，卖出 %.0f 股", ErrInsufficientShares, h.Ticker, h.Shares, t.Shares)
		}
		h.Shares -= t.Shares
	case types.TradeIntraday:
	default:
		return h, fmt.Errorf("未知交易类型: %s", t.Type)
	}
	return h, nil
}

// FormatSummary 持仓汇总的 markdown 表格
func FormatSummary(summary types.PortfolioSummary) string {
	if len(summary.Holdings) == 0 {
		return "持仓为空，请先添加股票"
	}

	lines := []string{
		"**持仓汇总**",
		"",
		"| 股票 | 数量 | 成本价 | 现价 | 盈亏 |",
		"|------|------|--------|------|------|",
	}
	for _, h := range summary.Holdings {
		lines = append(lines, fmt.Sprintf("| %s | %.0f | $%.2f | $%.2f | %s%.1f%% |",
			h.Ticker, h.Shares, h.AvgCost, h.CurrentPrice, sign(h.ProfitLoss), h.ProfitLossPct))
	}

	totalSign := sign(summary.TotalProfitLoss)
	lines = append(lines,
		"",
		"**总投入**: $"+printer.Sprintf("%.2f", summary.TotalCost),
		"**当前市值**: $"+printer.Sprintf("%.2f", summary.TotalValue),
		fmt.Sprintf("**总盈亏**: %s$%s (%s%.2f%%)",
			totalSign, printer.Sprintf("%.2f", summary.TotalProfitLoss), totalSign, summary.TotalReturnPct),
	)
	return strings.Join(lines, "\n")
}

func sign(v float64) string {
	if v >= 0 {
		return "+"
	}
	return ""
}
