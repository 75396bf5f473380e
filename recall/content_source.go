package recall

import (
	"context"

	"github.com/moviekit/moviekit/content"
	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pkg/utils"
)

// Content 是内容相似召回源：沿相似图从用户正反馈种子扩散候选。
// 口碑兜底结果会带上 cb_fallback label，下游可据此区分处理。
type Content struct {
	Recommender *content.Recommender

	// TopN 是召回条数
	TopN int
}

func (s *Content) Name() string { return "content" }

func (s *Content) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	topN := s.TopN
	if topN <= 0 {
		topN = 50
	}
	recs, err := s.Recommender.ForUser(ctx, rctx.UserID, topN)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(recs))
	for _, rec := range recs {
		it := core.NewItem(rec.ItemID)
		it.Score = rec.Score
		if rec.Fallback {
			it.PutLabel("cb_fallback", utils.Label{Value: "true", Source: "recall"})
		}
		out = append(out, it)
	}
	return out, nil
}
