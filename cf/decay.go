package cf

import (
	"math"
	"time"
)

// 时效衰减参数。
const (
	// DefaultHalfLifeDays 是衰减半衰期：30 天前的交互影响力减半
	DefaultHalfLifeDays = 30.0
	// MinDecay 是衰减下限，远古交互的影响力不归零
	MinDecay = 0.1
	// DecayBoost 是衰减对预测分的最大加成幅度
	DecayBoost = 0.3
)

// Decay 计算指数时效衰减系数，范围 [MinDecay, 1]。
// last 为零值（用户对该物品无交互）时返回 1.0，即不惩罚新物品。
func Decay(last, now time.Time, halfLifeDays float64) float64 {
	if last.IsZero() {
		return 1.0
	}
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	days := now.Sub(last).Hours() / 24
	if days <= 0 {
		return 1.0
	}
	d := math.Exp(-math.Ln2 * days / halfLifeDays)
	if d < MinDecay {
		return MinDecay
	}
	return d
}

// AdjustScore 把衰减系数折算进预测分：adjusted = raw × (1 + DecayBoost × decay)。
// 近期活跃信号最多放大 1.3 倍，远古信号至少保留 1.03 倍，排序单调性不被破坏。
func AdjustScore(raw, decay float64) float64 {
	return raw * (1 + DecayBoost*decay)
}
