package notifier

import (
	"fmt"
	"io"
	"os"
	"strings"

	"stock-master/pkg/types"
)

// ConsoleNotifier 控制台通知器
type ConsoleNotifier struct {
	out io.Writer
}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{out: os.Stdout}
}

func (cn *ConsoleNotifier) SendSignal(alert *types.SignalAlert) error {
	cn.printSignal(alert)
	return nil
}

func (cn *ConsoleNotifier) SendBatchSignals(alerts []*types.SignalAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	if len(alerts) == 1 {
		return cn.SendSignal(alerts[0])
	}

	cn.printBatchSignals(alerts)
	return nil
}

func (cn *ConsoleNotifier) line(content string, width int) {
	fmt.Fprintf(cn.out, "║ %s%s ║\n", content, strings.Repeat(" ", safePadding(content, width)))
}

func (cn *ConsoleNotifier) blank(width int) {
	fmt.Fprintln(cn.out, "║"+strings.Repeat(" ", width)+"║")
}

func (cn *ConsoleNotifier) printSignal(alert *types.SignalAlert) {
	const width = 60
	s := alert.Signal

	fmt.Fprintln(cn.out)
	fmt.Fprintln(cn.out, "╔"+strings.Repeat("═", width)+"╗")
	cn.line(fmt.Sprintf("🚨 交易信号变化！%s", actionLabel(s.Action)), width)
	cn.blank(width)
	cn.line("股票: "+displayName(alert), width)
	cn.line(fmt.Sprintf("当前价格: $%.2f", s.CurrentPrice), width)
	cn.line(fmt.Sprintf("综合评分: %+d (置信度: %s)", s.Score, s.Confidence), width)
	cn.line(fmt.Sprintf("止损/止盈: $%.2f / $%.2f", s.StopLoss, s.TakeProfit), width)
	cn.line("信号时间: "+alert.AlertTime.Format("2006-01-02 15:04:05"), width)

	if len(s.Reasons) > 0 {
		cn.blank(width)
		for _, r := range s.Reasons {
			cn.line(r.String(), width)
		}
	}

	fmt.Fprintln(cn.out, "╚"+strings.Repeat("═", width)+"╝")
	fmt.Fprintln(cn.out)
}

func (cn *ConsoleNotifier) printBatchSignals(alerts []*types.SignalAlert) {
	const width = 80
	buys, sells, holds := groupByAction(alerts)

	fmt.Fprintln(cn.out)
	fmt.Fprintln(cn.out, "╔"+strings.Repeat("═", width)+"╗")
	cn.line(fmt.Sprintf("🚨 批量交易信号 - %d只股票", len(alerts)), width)
	cn.line(fmt.Sprintf("🟢 买入: %d只  🔴 卖出: %d只  ⚪ 观望: %d只", len(buys), len(sells), len(holds)), width)
	cn.blank(width)

	for _, group := range [][]*types.SignalAlert{buys, sells, holds} {
		if len(group) == 0 {
			continue
		}
		for i, alert := range group {
			s := alert.Signal
			cn.line(fmt.Sprintf("  %d. %s %s: $%.2f 评分 %+d",
				i+1, actionLabel(s.Action), alert.Ticker, s.CurrentPrice, s.Score), width)
		}
		cn.blank(width)
	}

	cn.line("信号时间: "+alerts[0].AlertTime.Format("2006-01-02 15:04:05"), width)
	fmt.Fprintln(cn.out, "╚"+strings.Repeat("═", width)+"╝")
	fmt.Fprintln(cn.out)
}
