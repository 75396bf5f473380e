// Package coldstart 实现冷启动控制：按用户交互总量决定冷启动候选
// 在最终结果中的占比，并在个性化结果质量达标时完全让位。
package coldstart

import (
	"math"
	"math/rand"

	"github.com/moviekit/moviekit/core"
)

// WeightFor 返回冷启动候选的目标占比，按用户交互总量（评分数+观看数）分档：
//
//	< 5    → 1.00  纯冷启动（个性化信号不可信）
//	5~10   → 0.30
//	11~20  → 0.20
//	21~50  → 0.10
//	> 50   → 0.05  保留一点探索流量
func WeightFor(totalInteractions int) float64 {
	switch {
	case totalInteractions < 5:
		return 1.0
	case totalInteractions <= 10:
		return 0.30
	case totalInteractions <= 20:
		return 0.20
	case totalInteractions <= 50:
		return 0.10
	default:
		return 0.05
	}
}

// 质量门槛：融合结果中至少有 MinQualityResults 条"有效"候选时，
// 认为个性化结果可以独立成篇，跳过冷启动注入。
const (
	MinQualityResults = 5
	MinQualityScore   = 0.3
)

// QualityMet 判断融合结果是否达到质量门槛。
// 有效候选的判定：混合分超过门槛，或任一源有非零原始贡献
// （反聚集可能把高分压低，原始贡献是更稳的信号）。
func QualityMet(items []*core.Item) bool {
	count := 0
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Score > MinQualityScore {
			count++
		} else if res, ok := it.Meta["hybrid"].(*core.HybridResult); ok && (res.CFRaw > 0 || res.CBRaw > 0) {
			count++
		}
		if count >= MinQualityResults {
			return true
		}
	}
	return false
}

// Blend 按占比混合冷启动候选与个性化候选，并打乱顺序。
//
// 规则：
//   - 冷启动条数 = round(limit × weight)，受候选量约束
//   - 个性化候选填满剩余名额
//   - 混合后整体 shuffle：冷启动内容不该永远沉在底部，
//     也不该以一个可预测的块状出现
//
// rng 由调用方注入，测试可用固定种子复现。
func Blend(cold, personalized []*core.Item, weight float64, limit int, rng *rand.Rand) []*core.Item {
	if limit <= 0 {
		limit = len(personalized) + len(cold)
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}

	nCold := int(math.Round(float64(limit) * weight))
	if nCold > len(cold) {
		nCold = len(cold)
	}
	nPers := limit - nCold
	if nPers > len(personalized) {
		nPers = len(personalized)
	}
	// 个性化不足时用冷启动回填
	if nPers+nCold < limit && len(cold) > nCold {
		extra := limit - nPers - nCold
		if extra > len(cold)-nCold {
			extra = len(cold) - nCold
		}
		nCold += extra
	}

	out := make([]*core.Item, 0, nCold+nPers)
	out = append(out, cold[:nCold]...)
	out = append(out, personalized[:nPers]...)

	if rng != nil {
		rng.Shuffle(len(out), func(i, j int) {
			out[i], out[j] = out[j], out[i]
		})
	}
	return out
}
