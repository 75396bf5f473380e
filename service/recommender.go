package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"

	"github.com/moviekit/moviekit/cf"
	"github.com/moviekit/moviekit/coldstart"
	"github.com/moviekit/moviekit/content"
	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/filter"
	"github.com/moviekit/moviekit/hybrid"
	"github.com/moviekit/moviekit/pipeline"
	"github.com/moviekit/moviekit/recall"
)

// Deps 是门面的运行时依赖。Cache 可为 nil（不缓存）。
type Deps struct {
	Interactions core.InteractionStore
	Profiles     core.ProfileStore
	Catalog      core.CatalogStore
	Cache        core.Store
	Logger       *slog.Logger

	// NewRand 注入冷启动混合的随机源（测试用），nil 取时间种子
	NewRand func() *rand.Rand
}

// Recommender 是混合推荐门面：一个默认 Pipeline + 结果缓存 + 运维接口。
type Recommender struct {
	cfg    Config
	deps   Deps
	loader *cf.Loader
	cb     *content.Recommender
	pipe   *pipeline.Pipeline
	logger *slog.Logger
}

// New 组装默认推荐链路：
//
//	recall.fanout(cf + content, union 合并)
//	→ filter(seen)
//	→ rank.hybrid
//	→ postprocess.coldstart
func New(cfg Config, deps Deps) *Recommender {
	cfg.normalize()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	loader := cf.NewLoader(cfg.ModelPath, logger)
	cb := content.NewRecommender(deps.Catalog, deps.Interactions, logger)

	merger := hybrid.NewMerger()
	merger.CFWeight = cfg.CFWeight
	merger.CBWeight = cfg.CBWeight
	merger.Logger = logger

	blend := coldstart.NewBlendNode(
		deps.Interactions,
		coldstart.NewCandidateSource(deps.Profiles, deps.Catalog, logger),
		logger,
	)
	blend.NewRand = deps.NewRand

	pipe := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.CF{
						Loader:       loader,
						Interactions: deps.Interactions,
						TopN:         cfg.RecallTopN,
						HalfLifeDays: cfg.HalfLifeDays,
					},
					&recall.Content{Recommender: cb, TopN: cfg.RecallTopN},
				},
				MergeStrategy: "union",
				Logger:        logger,
			},
			&filter.FilterNode{
				Filters: []filter.Filter{filter.NewSeenFilter(deps.Interactions)},
			},
			&hybrid.MergeNode{Merger: merger},
			blend,
		},
	}

	r := &Recommender{
		cfg:    cfg,
		deps:   deps,
		loader: loader,
		cb:     cb,
		pipe:   pipe,
		logger: logger,
	}
	loader.Preload()
	return r
}

// Loader 暴露模型加载器（训练完成后 Reload 用）。
func (r *Recommender) Loader() *cf.Loader { return r.loader }

// ModelStatus 返回 CF 模型状态（健康检查接口）。
func (r *Recommender) ModelStatus() cf.LoaderStatus { return r.loader.Status() }

func cacheKey(userID string) string { return "rec:user:" + userID }

// RecommendForUser 为用户生成混合推荐。
//
// alpha 非 nil 时覆盖融合权重（cf=alpha, cb=1-alpha）；
// 覆盖请求不读写缓存，避免实验流量污染正常结果。
// 所有链路都拿不出候选时退化为全站热门。
func (r *Recommender) RecommendForUser(ctx context.Context, userID string, limit int, alpha *float64) ([]core.HybridResult, error) {
	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}

	useCache := r.deps.Cache != nil && r.cfg.CacheTTLSeconds > 0 && alpha == nil
	if useCache {
		if cached, ok := r.cacheGet(ctx, userID, limit); ok {
			return cached, nil
		}
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  "home_feed",
		Limit:  limit,
		Alpha:  alpha,
	}

	items, err := r.pipe.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		items, err = r.popularFallback(ctx, rctx, limit)
		if err != nil {
			return nil, err
		}
	}

	results := itemsToResults(items)
	if len(results) > limit {
		results = results[:limit]
	}

	if useCache {
		r.cacheSet(ctx, userID, results)
	}
	return results, nil
}

// popularFallback 是最后一道兜底：全站热门（同样剔除已看）。
func (r *Recommender) popularFallback(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	pop := &recall.Popular{Catalog: r.deps.Catalog, TopN: limit * 2}
	items, err := pop.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}
	seen := filter.NewSeenFilter(r.deps.Interactions)
	node := &filter.FilterNode{Filters: []filter.Filter{seen}}
	items, err = node.Process(ctx, rctx, items)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.PutLabel("recall_source", labelPopular)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	r.logger.Debug("popular fallback served", "user", rctx.UserID, "items", len(items))
	return items, nil
}

// Trending 返回全站高分榜（均分降序，实现方含最低评分人数门槛），
// 供无用户态的落地页使用。
func (r *Recommender) Trending(ctx context.Context, limit int) ([]core.ItemScore, error) {
	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}
	return r.deps.Catalog.TopRated(ctx, limit)
}

// RelatedItems 返回与锚点影片相似的影片（详情页场景）。
func (r *Recommender) RelatedItems(ctx context.Context, itemID string, limit int) ([]content.Rec, error) {
	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}
	return r.cb.Related(ctx, itemID, limit)
}

// SimilarByFactors 返回 CF 因子空间中的相似影片（口味意义上的相似，
// 与内容相似互补）。模型未就绪时返回 MODEL_NOT_READY。
func (r *Recommender) SimilarByFactors(ctx context.Context, itemID string, limit int) ([]core.ItemScore, error) {
	model, err := r.loader.Get(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = r.cfg.DefaultLimit
	}
	return model.SimilarItems(itemID, limit)
}

// InvalidateUser 删除用户的推荐结果缓存（新交互写入后调用）。
func (r *Recommender) InvalidateUser(ctx context.Context, userID string) error {
	if r.deps.Cache == nil {
		return nil
	}
	return r.deps.Cache.Delete(ctx, cacheKey(userID))
}

func (r *Recommender) cacheGet(ctx context.Context, userID string, limit int) ([]core.HybridResult, bool) {
	data, err := r.deps.Cache.Get(ctx, cacheKey(userID))
	if err != nil {
		if !core.IsStoreNotFound(err) {
			r.logger.Warn("recommendation cache read failed", "user", userID, "err", err)
		}
		return nil, false
	}
	var results []core.HybridResult
	if err := json.Unmarshal(data, &results); err != nil {
		r.logger.Warn("recommendation cache corrupt", "user", userID, "err", err)
		return nil, false
	}
	// 缓存的是整页结果，条数不足以覆盖本次请求时视为未命中
	if len(results) < limit {
		return nil, false
	}
	return results[:limit], true
}

func (r *Recommender) cacheSet(ctx context.Context, userID string, results []core.HybridResult) {
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := r.deps.Cache.Set(ctx, cacheKey(userID), data, r.cfg.CacheTTLSeconds); err != nil {
		r.logger.Warn("recommendation cache write failed", "user", userID, "err", err)
	}
}
