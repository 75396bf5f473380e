package hybrid

import (
	"log/slog"
	"math"
	"sort"

	"github.com/moviekit/moviekit/core"
)

// 默认融合权重：CF 略占优（行为信号比内容信号更能预测偏好）。
const (
	DefaultCFWeight = 0.6
	DefaultCBWeight = 0.4
)

// 反聚集参数：融合分挤成一团时重新拉开分布。
const (
	// 触发条件：分数极差 < ClusterRangeThreshold 或标准差 < ClusterStdThreshold
	ClusterRangeThreshold = 0.1
	ClusterStdThreshold   = 0.05

	// 线性拉伸的目标区间
	stretchLow  = 0.1
	stretchHigh = 0.9

	// 完全退化（所有分几乎相等）时按名次均匀铺开的区间
	flatLow  = 0.3
	flatHigh = 0.7

	// 极差低于它视为完全退化，线性拉伸会放大数值噪声
	degenerateRange = 1e-4
)

// Merger 把 CF 与内容两侧的原始分归一化后加权合并。
type Merger struct {
	CFWeight float64
	CBWeight float64
	Logger   *slog.Logger
}

func NewMerger() *Merger {
	return &Merger{CFWeight: DefaultCFWeight, CBWeight: DefaultCBWeight}
}

func (m *Merger) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}

// anomalousScore 判定原始分是否为数值异常。异常分会被归一化清零，
// 同时记录日志供排查上游打分问题。
func anomalousScore(s float64) bool {
	return math.IsNaN(s) || math.IsInf(s, 0) || s <= 0
}

// resolveWeights 计算本次融合的实际权重。
//
// 规则：
//   - alpha 覆盖优先：cf=alpha, cb=1-alpha（请求级 AB 实验开关）
//   - 单源时该源权重强制为 1.0（另一侧没有分数可稀释）
//   - 双源时归一化到和为 1
func (m *Merger) resolveWeights(alpha *float64, hasCF, hasCB bool) (wCF, wCB float64) {
	wCF, wCB = m.CFWeight, m.CBWeight
	if wCF <= 0 && wCB <= 0 {
		wCF, wCB = DefaultCFWeight, DefaultCBWeight
	}
	if alpha != nil {
		a := *alpha
		if a < 0 {
			a = 0
		}
		if a > 1 {
			a = 1
		}
		wCF, wCB = a, 1-a
	}

	switch {
	case hasCF && !hasCB:
		return 1, 0
	case !hasCF && hasCB:
		return 0, 1
	case !hasCF && !hasCB:
		return 0, 0
	}

	sum := wCF + wCB
	if sum <= 0 {
		return DefaultCFWeight, DefaultCBWeight
	}
	return wCF / sum, wCB / sum
}

// Merge 融合两侧候选，返回按混合分降序的结果。
//
// 流程：
//  1. 按两侧原始分解析归一化区间
//  2. 并集合并：同一物品的两侧归一化分加权求和
//  3. 反聚集：分布过于集中时拉开
//  4. 截断到 limit（limit <= 0 不截断）
//
// CF 侧先处理，两侧都命中的物品 Sources 顺序固定为 [cf, content]，
// 同分时排序对 CF 侧稳定。
func (m *Merger) Merge(cfItems, cbItems []core.ItemScore, alpha *float64, limit int) []core.HybridResult {
	wCF, wCB := m.resolveWeights(alpha, len(cfItems) > 0, len(cbItems) > 0)

	cfScores := make([]float64, len(cfItems))
	for i, s := range cfItems {
		cfScores[i] = s.Score
	}
	cbScores := make([]float64, len(cbItems))
	for i, s := range cbItems {
		cbScores[i] = s.Score
	}
	norm := NewNormalizer(cfScores, cbScores)

	index := make(map[string]int)
	results := make([]core.HybridResult, 0, len(cfItems)+len(cbItems))

	for _, s := range cfItems {
		if anomalousScore(s.Score) {
			m.logger().Warn("anomalous cf score sanitized", "item", s.ItemID, "score", s.Score)
		}
		n := norm.NormalizeCF(s.Score)
		results = append(results, core.HybridResult{
			ItemID:      s.ItemID,
			HybridScore: wCF * n,
			CFScore:     n,
			CFRaw:       s.Score,
			Sources:     []string{"cf"},
		})
		index[s.ItemID] = len(results) - 1
	}
	for _, s := range cbItems {
		if anomalousScore(s.Score) {
			m.logger().Warn("anomalous cb score sanitized", "item", s.ItemID, "score", s.Score)
		}
		n := norm.NormalizeCB(s.Score)
		if i, ok := index[s.ItemID]; ok {
			results[i].HybridScore += wCB * n
			results[i].CBScore = n
			results[i].CBRaw = s.Score
			results[i].Sources = append(results[i].Sources, "content")
			continue
		}
		results = append(results, core.HybridResult{
			ItemID:      s.ItemID,
			HybridScore: wCB * n,
			CBScore:     n,
			CBRaw:       s.Score,
			Sources:     []string{"content"},
		})
		index[s.ItemID] = len(results) - 1
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].HybridScore > results[j].HybridScore
	})

	declusterScores(results)

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// declusterScores 检测融合分是否挤成一团，是则拉开分布（保持原有排序）。
// results 必须已按分数降序。
func declusterScores(results []core.HybridResult) {
	if len(results) < 2 {
		return
	}

	max := results[0].HybridScore
	min := results[len(results)-1].HybridScore
	spread := max - min

	var sum float64
	for _, r := range results {
		sum += r.HybridScore
	}
	mean := sum / float64(len(results))
	var variance float64
	for _, r := range results {
		d := r.HybridScore - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(len(results)))

	if spread >= ClusterRangeThreshold && std >= ClusterStdThreshold {
		return
	}

	if spread > degenerateRange {
		// 线性拉伸到 [stretchLow, stretchHigh]，排序不变
		scale := (stretchHigh - stretchLow) / spread
		for i := range results {
			results[i].HybridScore = stretchLow + (results[i].HybridScore-min)*scale
		}
		return
	}

	// 完全退化：按名次在 [flatLow, flatHigh] 均匀铺开，名次靠前分数更高
	n := len(results)
	step := (flatHigh - flatLow) / float64(n-1)
	for i := range results {
		results[i].HybridScore = flatHigh - float64(i)*step
	}
}
