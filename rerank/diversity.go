// Package rerank 提供排序后的分布调优 Node：题材多样性约束与 Top-N 截断。
package rerank

import (
	"context"
	"log/slog"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pipeline"
)

// GenreSpread 是题材多样性 ReRank Node：限制同一题材在结果中的条数上限，
// 避免整页都是同类影片（相似图扩散天然倾向于聚集在用户最强的题材上）。
//
// 题材来源优先级：
//   - meta["genres"]（[]string，上游已补充元信息时直接用）
//   - Catalog 批量查询（未补充时懒查一次）
//
// 被挤掉的物品追加在队尾而不是丢弃：多样性约束只调顺序，不减少候选。
type GenreSpread struct {
	Catalog core.CatalogStore
	Logger  *slog.Logger

	// MaxPerGenre 是单一题材的条数上限，0 取默认值 3
	MaxPerGenre int
}

const defaultMaxPerGenre = 3

func (n *GenreSpread) Name() string        { return "rerank.diversity" }
func (n *GenreSpread) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *GenreSpread) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n *GenreSpread) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) < 2 {
		return items, nil
	}

	maxPer := n.MaxPerGenre
	if maxPer <= 0 {
		maxPer = defaultMaxPerGenre
	}

	genres := n.resolveGenres(ctx, items)

	count := make(map[string]int)
	kept := make([]*core.Item, 0, len(items))
	deferred := make([]*core.Item, 0)

	for _, it := range items {
		if it == nil {
			continue
		}
		gs := genres[it.ID]
		if len(gs) == 0 {
			// 题材未知的物品不受约束
			kept = append(kept, it)
			continue
		}
		over := false
		for _, g := range gs {
			if count[g] >= maxPer {
				over = true
				break
			}
		}
		if over {
			deferred = append(deferred, it)
			continue
		}
		for _, g := range gs {
			count[g]++
		}
		kept = append(kept, it)
	}

	return append(kept, deferred...), nil
}

// resolveGenres 收集每个物品的题材列表，meta 里没有时批量查目录。
func (n *GenreSpread) resolveGenres(ctx context.Context, items []*core.Item) map[string][]string {
	out := make(map[string][]string, len(items))
	var missing []string
	for _, it := range items {
		if it == nil {
			continue
		}
		if gs, ok := it.Meta["genres"].([]string); ok {
			out[it.ID] = gs
			continue
		}
		missing = append(missing, it.ID)
	}

	if len(missing) == 0 || n.Catalog == nil {
		return out
	}
	metas, err := n.Catalog.BatchGetItems(ctx, missing)
	if err != nil {
		// 目录不可用时放弃约束，保持原有顺序
		n.logger().Warn("genre lookup failed, diversity constraint skipped", "err", err)
		return out
	}
	for id, meta := range metas {
		out[id] = meta.Genres
	}
	return out
}
