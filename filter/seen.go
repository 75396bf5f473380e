package filter

import (
	"context"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/feedback"
)

// SeenFilter 过滤用户已消费的物品：评过分的、看完的不再推荐。
// 看了一半的不过滤（续播是合理推荐）。
//
// 剔除集合按 (user, 请求) 粒度懒加载并缓存在 rctx.Params 中，
// 一次请求内多次过滤只查一次交互库。
type SeenFilter struct {
	Interactions core.InteractionStore
}

const seenParamKey = "filter.seen.exclude"

func NewSeenFilter(interactions core.InteractionStore) *SeenFilter {
	return &SeenFilter{Interactions: interactions}
}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	exclude, err := f.excludeSet(ctx, rctx)
	if err != nil {
		return false, err
	}
	_, seen := exclude[item.ID]
	return seen, nil
}

func (f *SeenFilter) excludeSet(ctx context.Context, rctx *core.RecommendContext) (map[string]struct{}, error) {
	if cached, ok := rctx.GetParam(seenParamKey); ok {
		if set, ok := cached.(map[string]struct{}); ok {
			return set, nil
		}
	}

	records, err := f.Interactions.ByUser(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	set := feedback.ExcludedItems(records)
	rctx.PutParam(seenParamKey, set)
	return set, nil
}
