package recall

import (
	"context"

	"github.com/moviekit/moviekit/cf"
	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/feedback"
)

// CF 是协同过滤召回源：从训练好的 ALS 模型为用户取 Top-N 候选。
//
// 降级语义：模型未就绪或用户不在训练集中时返回空结果而非错误，
// 让 fanout 继续走内容/冷启动链路。
type CF struct {
	Loader       *cf.Loader
	Interactions core.InteractionStore

	// TopN 是召回条数（融合前的候选量，通常是最终条数的数倍）
	TopN int

	// HalfLifeDays 为 0 时使用 cf.DefaultHalfLifeDays
	HalfLifeDays float64
}

func (s *CF) Name() string { return "cf" }

func (s *CF) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	model, err := s.Loader.Get(ctx)
	if err != nil {
		if core.IsModelNotReady(err) {
			return nil, nil
		}
		return nil, err
	}
	if !model.HasUser(rctx.UserID) {
		return nil, nil
	}

	records, err := s.Interactions.ByUser(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}

	topN := s.TopN
	if topN <= 0 {
		topN = 50
	}
	scored, err := model.Recommend(rctx.UserID, topN, cf.RecommendOptions{
		Exclude:         feedback.ExcludedItems(records),
		LastInteraction: feedback.LatestTimestamps(records),
		HalfLifeDays:    s.HalfLifeDays,
	})
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]*core.Item, 0, len(scored))
	for _, is := range scored {
		it := core.NewItem(is.ItemID)
		it.Score = is.Score
		out = append(out, it)
	}
	return out, nil
}
