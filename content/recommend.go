package content

import (
	"context"
	"log/slog"
	"sort"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/feedback"
)

// 用户推荐的打分参数。
const (
	// maxSimWeight / meanSimWeight: 候选分 = 0.7×最大相似度 + 0.3×平均相似度。
	// 最大值主导（一个强相似种子足够），平均值奖励被多个种子命中的候选。
	maxSimWeight  = 0.7
	meanSimWeight = 0.3

	// FallbackMinRating 是口碑兜底的最低均分
	FallbackMinRating = 4.0

	// 兜底结果按名次递减的伪相似度，保持与真实相似度同一量纲
	fallbackBaseScore = 0.7
	fallbackScoreStep = 0.03
	fallbackMinScore  = 0.1
)

// Rec 是内容侧的单条推荐结果。
type Rec struct {
	ItemID string
	Score  float64
	// SourceCount 是命中该候选的种子数
	SourceCount int
	// Fallback 标记结果来自口碑兜底而非相似图
	Fallback bool
}

// Recommender 基于相似图产出内容侧推荐。
type Recommender struct {
	Catalog      core.CatalogStore
	Interactions core.InteractionStore
	Logger       *slog.Logger

	// SeedLimit 是参与扩散的正反馈种子上限（最近优先），0 表示不限
	SeedLimit int
}

func NewRecommender(catalog core.CatalogStore, interactions core.InteractionStore, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{
		Catalog:      catalog,
		Interactions: interactions,
		Logger:       logger,
		SeedLimit:    50,
	}
}

// ForUser 为用户生成内容侧 Top-N。
//
// 流程：
//  1. 从交互历史取正反馈种子（高分评分 / 看完 / 收藏 / 想看）
//  2. 沿相似图扩散，候选分 = 0.7×max(sim) + 0.3×mean(sim)
//  3. 剔除已评分与已看完的物品
//  4. 无种子或扩散为空时退化为口碑兜底（高分未看）
func (r *Recommender) ForUser(ctx context.Context, userID string, limit int) ([]Rec, error) {
	records, err := r.Interactions.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seeds := feedback.PositiveItems(records)
	if r.SeedLimit > 0 && len(seeds) > r.SeedLimit {
		// PositiveItems 按时间序返回，保留最近的种子
		seeds = seeds[len(seeds)-r.SeedLimit:]
	}
	exclude := feedback.ExcludedItems(records)

	if len(seeds) == 0 {
		return r.fallback(ctx, exclude, limit)
	}

	type agg struct {
		max   float64
		sum   float64
		count int
	}
	cands := make(map[string]*agg)
	seedSet := make(map[string]struct{}, len(seeds))
	for _, s := range seeds {
		seedSet[s] = struct{}{}
	}

	for _, seed := range seeds {
		neighbors, err := r.Catalog.Neighbors(ctx, seed, 0)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		for _, nb := range neighbors {
			if _, isSeed := seedSet[nb.ItemID]; isSeed {
				continue
			}
			if _, excluded := exclude[nb.ItemID]; excluded {
				continue
			}
			a := cands[nb.ItemID]
			if a == nil {
				a = &agg{}
				cands[nb.ItemID] = a
			}
			if nb.Weight > a.max {
				a.max = nb.Weight
			}
			a.sum += nb.Weight
			a.count++
		}
	}

	if len(cands) == 0 {
		return r.fallback(ctx, exclude, limit)
	}

	out := make([]Rec, 0, len(cands))
	for itemID, a := range cands {
		mean := a.sum / float64(a.count)
		out = append(out, Rec{
			ItemID:      itemID,
			Score:       maxSimWeight*a.max + meanSimWeight*mean,
			SourceCount: a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].SourceCount != out[j].SourceCount {
			return out[i].SourceCount > out[j].SourceCount
		}
		return out[i].ItemID < out[j].ItemID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fallback 返回高分未看的口碑兜底，伪相似度按名次递减。
func (r *Recommender) fallback(ctx context.Context, exclude map[string]struct{}, limit int) ([]Rec, error) {
	fetch := limit * 3
	if fetch <= 0 {
		fetch = 30
	}
	top, err := r.Catalog.TopRated(ctx, fetch)
	if err != nil {
		return nil, err
	}

	out := make([]Rec, 0, limit)
	for _, is := range top {
		if is.Score < FallbackMinRating {
			break // TopRated 按均分降序，后面只会更低
		}
		if _, excluded := exclude[is.ItemID]; excluded {
			continue
		}
		score := fallbackBaseScore - fallbackScoreStep*float64(len(out))
		if score < fallbackMinScore {
			score = fallbackMinScore
		}
		out = append(out, Rec{ItemID: is.ItemID, Score: score, Fallback: true})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Related 返回与锚点影片相似的影片（详情页场景）。
// 相似图没有邻居时退化为同题材热门。
func (r *Recommender) Related(ctx context.Context, itemID string, limit int) ([]Rec, error) {
	neighbors, err := r.Catalog.Neighbors(ctx, itemID, limit)
	if err != nil && !core.IsStoreNotFound(err) {
		return nil, err
	}
	if len(neighbors) > 0 {
		out := make([]Rec, 0, len(neighbors))
		for _, nb := range neighbors {
			out = append(out, Rec{ItemID: nb.ItemID, Score: nb.Weight, SourceCount: 1})
		}
		return out, nil
	}

	// 同题材热门兜底
	meta, err := r.Catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	genres := make(map[string]struct{}, len(meta.Genres))
	for _, g := range meta.Genres {
		genres[g] = struct{}{}
	}

	popular, err := r.Catalog.PopularItems(ctx, 200)
	if err != nil {
		return nil, err
	}
	metas, err := r.Catalog.BatchGetItems(ctx, popular)
	if err != nil {
		return nil, err
	}

	out := make([]Rec, 0, limit)
	for _, candID := range popular {
		if candID == itemID {
			continue
		}
		cand, ok := metas[candID]
		if !ok {
			continue
		}
		if len(genres) > 0 && !sharesGenre(cand.Genres, genres) {
			continue
		}
		score := fallbackBaseScore - fallbackScoreStep*float64(len(out))
		if score < fallbackMinScore {
			score = fallbackMinScore
		}
		out = append(out, Rec{ItemID: candID, Score: score, Fallback: true})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func sharesGenre(genres []string, want map[string]struct{}) bool {
	for _, g := range genres {
		if _, ok := want[g]; ok {
			return true
		}
	}
	return false
}
