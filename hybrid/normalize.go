// Package hybrid 实现双信号融合：各源分数先做分位数归一化，
// 再按权重加权合并为单一混合分，最后做反聚集处理保证分数可区分。
package hybrid

import (
	"math"
	"sort"
)

// 归一化参数。
const (
	// MinSamples 是启用分位数估计的最低正样本数。
	// 样本太少时分位数毫无意义（p5/p95 直接落在端点上，最低分会被压成 0），
	// 此时退回各源的先验量纲区间。
	MinSamples = 5

	// 分位数截断点：p5~p95，避免离群分拉爆区间
	lowPercentile  = 0.05
	highPercentile = 0.95

	// MinSpread 是有效区间的最小宽度，低于它视为退化
	MinSpread = 0.01

	// MaxNormalized 是归一化分数上限。留出 2% 余量，
	// 融合后分数不会饱和在 1.0 上挤成一团。
	MaxNormalized = 0.98
)

// Range 是一个源的分数归一化区间。
type Range struct {
	Min float64
	Max float64
}

// 各源的先验量纲区间：CF 预测分落在 0~5 量纲，内容相似度落在 0~1。
var (
	DefaultCFRange = Range{Min: 0, Max: 5}
	DefaultCBRange = Range{Min: 0, Max: 1}
)

// ResolveRange 根据一批原始分数估计归一化区间。
//
// 规则：
//  1. 只统计有限正分；正样本不足 MinSamples 时直接用先验区间
//  2. 取 p5/p95 分位数（线性插值）作为区间端点
//  3. 分位数区间退化（宽度 < MinSpread）时退回真实 min/max
//  4. min/max 仍退化时（所有分几乎相同）退回先验区间
func ResolveRange(scores []float64, def Range) Range {
	positives := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s) {
			positives = append(positives, s)
		}
	}
	if len(positives) < MinSamples {
		return def
	}

	sort.Float64s(positives)
	lo := percentile(positives, lowPercentile)
	hi := percentile(positives, highPercentile)
	if hi-lo >= MinSpread {
		return Range{Min: lo, Max: hi}
	}

	min, max := positives[0], positives[len(positives)-1]
	if max-min >= MinSpread {
		return Range{Min: min, Max: max}
	}
	return def
}

// percentile 对已排序切片取 p 分位（线性插值）。
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Normalize 把原始分映射到 [0, MaxNormalized]。
// 非法分（NaN / Inf / 非正）一律归 0：宁可该源不贡献，也不让脏分污染融合。
// 异常分的日志由 Merge 统一记录，这里保持纯函数。
// 对已在区间内的分数重复调用是幂等的（clamp 后线性映射）。
func Normalize(score float64, r Range) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) || score <= 0 {
		return 0
	}
	if score < r.Min {
		score = r.Min
	}
	if score > r.Max {
		score = r.Max
	}
	spread := r.Max - r.Min
	if spread <= 0 {
		return 0
	}
	n := (score - r.Min) / spread
	if n > MaxNormalized {
		n = MaxNormalized
	}
	return n
}

// Normalizer 持有一次融合中各源的已解析区间。
type Normalizer struct {
	CF Range
	CB Range
}

// NewNormalizer 从两侧原始分数解析归一化区间。
func NewNormalizer(cfScores, cbScores []float64) *Normalizer {
	return &Normalizer{
		CF: ResolveRange(cfScores, DefaultCFRange),
		CB: ResolveRange(cbScores, DefaultCBRange),
	}
}

// NormalizeCF 归一化 CF 原始分。
func (n *Normalizer) NormalizeCF(score float64) float64 { return Normalize(score, n.CF) }

// NormalizeCB 归一化内容相似原始分。
func (n *Normalizer) NormalizeCB(score float64) float64 { return Normalize(score, n.CB) }
