package notifier

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"stock-master/pkg/types"
)

// Interface 通知接口
type Interface interface {
	SendSignal(alert *types.SignalAlert) error
	SendBatchSignals(alerts []*types.SignalAlert) error
}

// New 根据配置选择通知服务（优先级：钉钉 > PushPlus > 控制台）
func New(cfg *types.Config) Interface {
	if cfg.DingTalk.WebhookURL != "" {
		return NewDingTalkNotifier(cfg.DingTalk.WebhookURL, cfg.DingTalk.Secret)
	}
	if cfg.PushPlus.UserToken != "" {
		return NewPushPlusNotifier(cfg.PushPlus.UserToken, cfg.PushPlus.To)
	}
	return NewConsoleNotifier()
}

// safePadding 安全地计算填充空格数量，避免负数
func safePadding(content string, totalWidth int) int {
	// 按字符数而不是字节数计算
	padding := totalWidth - utf8.RuneCountInString(content) - 4
	if padding < 0 {
		padding = 0
	}
	return padding
}

func actionLabel(action types.Action) string {
	switch action {
	case types.ActionBuy:
		return "🟢 买入"
	case types.ActionSell:
		return "🔴 卖出"
	default:
		return "⚪ 观望"
	}
}

// groupByAction 按操作分组，买入按评分从高到低，卖出按评分从低到高
func groupByAction(alerts []*types.SignalAlert) (buys, sells, holds []*types.SignalAlert) {
	for _, alert := range alerts {
		switch alert.Signal.Action {
		case types.ActionBuy:
			buys = append(buys, alert)
		case types.ActionSell:
			sells = append(sells, alert)
		default:
			holds = append(holds, alert)
		}
	}

	sort.SliceStable(buys, func(i, j int) bool {
		return buys[i].Signal.Score > buys[j].Signal.Score
	})
	sort.SliceStable(sells, func(i, j int) bool {
		return sells[i].Signal.Score < sells[j].Signal.Score
	})
	return buys, sells, holds
}

func displayName(alert *types.SignalAlert) string {
	if alert.Name != "" {
		return fmt.Sprintf("%s (%s)", alert.Ticker, alert.Name)
	}
	return alert.Ticker
}

// signalTitle 单条信号的消息标题
func signalTitle(alert *types.SignalAlert) string {
	return fmt.Sprintf("📈 交易信号 - %s %s", alert.Ticker, actionLabel(alert.Signal.Action))
}

// batchTitle 批量信号的消息标题
func batchTitle(alerts []*types.SignalAlert) string {
	return fmt.Sprintf("📊 批量交易信号 - %d只股票", len(alerts))
}

// buildMarkdown 单条信号的 markdown 内容，有简报时附在后面
func buildMarkdown(alert *types.SignalAlert) string {
	s := alert.Signal

	var b strings.Builder
	fmt.Fprintf(&b, "## %s 信号变化\n\n", actionLabel(s.Action))
	fmt.Fprintf(&b, "**股票**: %s  \n", displayName(alert))
	fmt.Fprintf(&b, "**当前价格**: $%.2f  \n", s.CurrentPrice)
	fmt.Fprintf(&b, "**综合评分**: %+d (置信度: %s)  \n", s.Score, s.Confidence)
	fmt.Fprintf(&b, "**止损价**: $%.2f  \n", s.StopLoss)
	fmt.Fprintf(&b, "**止盈价**: $%.2f  \n", s.TakeProfit)
	if s.SuggestedPositionPercent > 0 && s.Action == types.ActionBuy {
		fmt.Fprintf(&b, "**建议仓位**: %.0f%%  \n", s.SuggestedPositionPercent)
	}
	fmt.Fprintf(&b, "**信号时间**: %s  \n", alert.AlertTime.Format("2006-01-02 15:04:05"))

	if alert.Digest != "" {
		b.WriteString("\n---\n")
		b.WriteString(alert.Digest)
		b.WriteString("\n")
	} else if len(s.Reasons) > 0 {
		b.WriteString("\n**理由**:\n")
		for _, r := range s.Reasons {
			fmt.Fprintf(&b, "- %s\n", r.String())
		}
	}

	b.WriteString("\n> ⚠️ 技术分析仅供参考，不构成投资建议")
	return b.String()
}

// buildBatchMarkdown 批量信号的 markdown 内容，每组最多 maxShow 只
func buildBatchMarkdown(alerts []*types.SignalAlert, maxShow int) string {
	buys, sells, holds := groupByAction(alerts)

	var b strings.Builder
	b.WriteString("## 🚨 批量交易信号\n\n")
	b.WriteString("**信号统计**:  \n")
	fmt.Fprintf(&b, "🟢 买入: %d只  \n", len(buys))
	fmt.Fprintf(&b, "🔴 卖出: %d只  \n", len(sells))
	fmt.Fprintf(&b, "⚪ 观望: %d只  \n", len(holds))
	fmt.Fprintf(&b, "🕐 信号时间: %s  \n\n", alerts[0].AlertTime.Format("2006-01-02 15:04:05"))

	writeGroup := func(title string, group []*types.SignalAlert) {
		if len(group) == 0 {
			return
		}
		fmt.Fprintf(&b, "**%s**:\n", title)
		for i, alert := range group {
			if i == maxShow {
				fmt.Fprintf(&b, "- ... 还有%d只\n", len(group)-maxShow)
				break
			}
			s := alert.Signal
			fmt.Fprintf(&b, "- **%s**: $%.2f 评分 %+d，止损 $%.2f / 止盈 $%.2f\n",
				displayName(alert), s.CurrentPrice, s.Score, s.StopLoss, s.TakeProfit)
		}
		b.WriteString("\n")
	}
	writeGroup("🟢 买入信号", buys)
	writeGroup("🔴 卖出信号", sells)
	writeGroup("⚪ 观望", holds)

	b.WriteString("> ⚠️ 技术分析仅供参考，不构成投资建议")
	return b.String()
}
