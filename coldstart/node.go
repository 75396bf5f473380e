package coldstart

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/feedback"
	"github.com/moviekit/moviekit/pipeline"
	"github.com/moviekit/moviekit/pkg/utils"
)

// BlendNode 是冷启动混合 PostProcess Node：在融合排序之后、
// 结果返回之前，按用户冷启动占比注入探索候选。
type BlendNode struct {
	Interactions core.InteractionStore
	Source       *CandidateSource
	Logger       *slog.Logger

	// Limit 是最终返回条数，0 时用 rctx.Limit
	Limit int

	// NewRand 生成本次请求的随机源；默认用时间种子。测试注入固定种子。
	NewRand func() *rand.Rand
}

func NewBlendNode(interactions core.InteractionStore, source *CandidateSource, logger *slog.Logger) *BlendNode {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlendNode{
		Interactions: interactions,
		Source:       source,
		Logger:       logger,
	}
}

func (n *BlendNode) Name() string        { return "postprocess.coldstart" }
func (n *BlendNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *BlendNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.Limit
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 {
		limit = 10
	}

	records, err := n.Interactions.ByUser(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	ratings, views := feedback.Counts(records)
	weight := WeightFor(ratings + views)

	if rctx != nil {
		rctx.PutLabel("cold_start_weight", utils.Label{
			Value:  formatWeight(weight),
			Source: "postprocess",
		})
	}

	// 个性化结果质量达标：质量门槛优先于交互量分档，不注入，直接截断返回。
	// 交互量极少的用户也可能拿到高质量页（收藏/片单喂给内容侧），不应被覆盖。
	if QualityMet(items) {
		if len(items) > limit {
			items = items[:limit]
		}
		return items, nil
	}

	// 已有候选与已交互的物品不再作为冷启动候选
	exclude := feedback.ExcludedItems(records)
	for _, it := range items {
		if it != nil {
			exclude[it.ID] = struct{}{}
		}
	}

	cold, err := n.Source.Candidates(ctx, rctx.UserID, limit, exclude)
	if err != nil {
		// 冷启动候选失败时退回个性化结果，哪怕很短
		n.Logger.Warn("cold start candidates unavailable", "user", rctx.UserID, "err", err)
		if len(items) > limit {
			items = items[:limit]
		}
		return items, nil
	}

	rng := n.newRand()
	return Blend(cold, items, weight, limit, rng), nil
}

func (n *BlendNode) newRand() *rand.Rand {
	if n.NewRand != nil {
		return n.NewRand()
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func formatWeight(w float64) string {
	switch {
	case w >= 1.0:
		return "1.00"
	case w >= 0.30:
		return "0.30"
	case w >= 0.20:
		return "0.20"
	case w >= 0.10:
		return "0.10"
	default:
		return "0.05"
	}
}
