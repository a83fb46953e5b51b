package signals

import (
	"fmt"

	"stock-master/pkg/types"
)

// scorecard 累加评分并按评估顺序记录理由
type scorecard struct {
	score   int
	reasons []types.Reason
}

func (sc *scorecard) add(delta int, sev types.Severity, format string, args ...interface{}) {
	sc.score += delta
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	sc.reasons = append(sc.reasons, types.Reason{Severity: sev, Text: text})
}

// Reasons 返回理由副本，调用方修改不影响记分卡
func (sc *scorecard) Reasons() []types.Reason {
	out := make([]types.Reason, len(sc.reasons))
	copy(out, sc.reasons)
	return out
}
