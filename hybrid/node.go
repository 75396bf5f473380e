package hybrid

import (
	"context"
	"strings"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pipeline"
	"github.com/moviekit/moviekit/pkg/utils"
)

// MergeNode 是融合 Rank Node：把上游 fanout（union 合并，不去重）产出的
// 双源候选归一化、加权合并成单一排序。
//
// 约定：上游召回源用 recall_source label 标注来源（"cf" / "content"），
// Item.Score 为源内原始分。下游拿到的 Item.Score 是混合分，
// 明细保存在 Meta["hybrid"]。
type MergeNode struct {
	Merger *Merger

	// Limit 是融合后保留的候选数，0 表示不截断。
	// 注意这里通常不截断到最终条数，冷启动混合还要在 postprocess 注入。
	Limit int
}

func NewMergeNode() *MergeNode {
	return &MergeNode{Merger: NewMerger()}
}

func (n *MergeNode) Name() string        { return "rank.hybrid" }
func (n *MergeNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *MergeNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	var cfScores, cbScores []core.ItemScore
	// 保留每个物品的 label/meta，融合后合并回输出
	contrib := make(map[string][]*core.Item)

	for _, it := range items {
		if it == nil {
			continue
		}
		src, _ := it.GetLabel("recall_source")
		switch {
		case strings.Contains(src.Value, "cf"):
			cfScores = append(cfScores, core.ItemScore{ItemID: it.ID, Score: it.Score})
		case strings.Contains(src.Value, "content"):
			cbScores = append(cbScores, core.ItemScore{ItemID: it.ID, Score: it.Score})
		default:
			// 未标注来源的候选不参与融合，直接丢弃
			continue
		}
		contrib[it.ID] = append(contrib[it.ID], it)
	}

	var alpha *float64
	if rctx != nil {
		alpha = rctx.Alpha
	}

	merger := n.Merger
	if merger == nil {
		merger = NewMerger()
	}
	results := merger.Merge(cfScores, cbScores, alpha, n.Limit)

	out := make([]*core.Item, 0, len(results))
	for i := range results {
		res := results[i]
		it := core.NewItem(res.ItemID)
		it.Score = res.HybridScore
		it.PutMeta("hybrid", &res)
		it.PutLabel("hybrid_sources", utils.Label{
			Value:  strings.Join(res.Sources, "+"),
			Source: "rank",
		})
		for _, src := range contrib[res.ItemID] {
			for k, v := range src.Labels {
				if k == "hybrid_sources" {
					continue
				}
				it.PutLabel(k, v)
			}
			for k, v := range src.Meta {
				if _, exists := it.Meta[k]; !exists {
					it.Meta[k] = v
				}
			}
		}
		out = append(out, it)
	}
	return out, nil
}
