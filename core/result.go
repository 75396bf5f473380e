package core

// HybridResult 是融合层的输出：单个物品的混合分与各源明细。
// 保留归一化前后的分数，便于调试与 explain。
type HybridResult struct {
	ItemID      string  `json:"item_id"`
	HybridScore float64 `json:"hybrid_score"`

	CFScore float64 `json:"cf_score"` // 归一化后（0~1）
	CBScore float64 `json:"cb_score"` // 归一化后（0~1）
	CFRaw   float64 `json:"cf_raw"`   // 源内原始分
	CBRaw   float64 `json:"cb_raw"`

	// Sources 是命中来源列表："cf" / "content" / "cold_start" / "popular"
	Sources []string `json:"sources"`
}

// HasSource 判断结果是否来自指定来源。
func (r *HybridResult) HasSource(name string) bool {
	for _, s := range r.Sources {
		if s == name {
			return true
		}
	}
	return false
}
