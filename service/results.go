package service

import (
	"strings"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pkg/utils"
)

var labelPopular = utils.Label{Value: "popular", Source: "recall"}

// itemsToResults 把 Pipeline 输出转换为对外结果结构。
// 融合节点产出的物品直接携带明细；冷启动/热门物品补一个只有来源信息的结果。
func itemsToResults(items []*core.Item) []core.HybridResult {
	out := make([]core.HybridResult, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if res, ok := it.Meta["hybrid"].(*core.HybridResult); ok {
			out = append(out, *res)
			continue
		}
		sources := []string{"unknown"}
		if lbl, ok := it.GetLabel("recall_source"); ok && lbl.Value != "" {
			sources = strings.Split(lbl.Value, "|")
		}
		out = append(out, core.HybridResult{
			ItemID:      it.ID,
			HybridScore: it.Score,
			Sources:     sources,
		})
	}
	return out
}
