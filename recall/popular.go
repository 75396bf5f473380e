package recall

import (
	"context"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pipeline"
)

// Popular 是热门召回源：按评分人数降序取全站热门。
// 主链路兜底用（CF 与内容都拿不出结果时），也可单独作为 Node 使用。
type Popular struct {
	Catalog core.CatalogStore

	// TopN 是召回条数
	TopN int

	// IDs 是无 Catalog 时的内存 fallback（demo / 测试）
	IDs []string
}

func (r *Popular) Name() string        { return "popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Popular) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	topN := r.TopN
	if topN <= 0 {
		topN = 50
	}

	var ids []string
	if r.Catalog != nil {
		got, err := r.Catalog.PopularItems(ctx, topN)
		if err != nil {
			return nil, err
		}
		ids = got
	}
	if len(ids) == 0 {
		ids = r.IDs
	}

	out := make([]*core.Item, 0, len(ids))
	for i, id := range ids {
		it := core.NewItem(id)
		// 伪分数按名次递减，仅用于热门兜底场景内的排序
		it.Score = 1.0 - float64(i)/float64(len(ids)+1)
		out = append(out, it)
	}
	return out, nil
}
