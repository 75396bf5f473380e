package core

import "github.com/moviekit/moviekit/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/场景信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string // 使用 string 类型（通用，支持所有 ID 格式）
	Scene  string // 场景：home_feed / item_detail / ...
	Limit  int    // 期望返回条数

	// Alpha 是 CF/CB 融合权重的请求级覆盖（0~1，cf=alpha, cb=1-alpha）。
	// nil 表示使用配置的默认权重。主要用于 AB 实验与调参。
	Alpha *float64

	// SeedItemID 是相关推荐场景的锚点物品（item_detail 页）。
	SeedItemID string

	// Labels 是用户级标签，可驱动整个 Pipeline 行为。
	// 例如：cold_start_weight、quality_gate 等。
	Labels map[string]utils.Label

	// Params 请求级上下文参数：device_type、experiment bucket、
	// 以及节点间传递的中间数据（建议加前缀区分）。
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// PutParam 写入请求级参数。
func (rctx *RecommendContext) PutParam(key string, v any) {
	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[key] = v
}

// GetParam 读取请求级参数。
func (rctx *RecommendContext) GetParam(key string) (any, bool) {
	if rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}
