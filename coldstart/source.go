package coldstart

import (
	"context"
	"log/slog"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/pkg/utils"
)

// 冷启动候选的伪分数：按名次递减，落在质量门槛之下的量纲，
// 不会在后续排序里压过真实的个性化分。
const (
	candidateBaseScore = 0.6
	candidateScoreStep = 0.02
	candidateMinScore  = 0.1
)

// CandidateSource 产出冷启动候选：用用户声明的题材偏好（注册引导收集）
// 圈定热门池。没有声明偏好时返回空——冷启动不以纯热度兜底，
// 兜底由上游的推荐链路负责。
type CandidateSource struct {
	Profiles core.ProfileStore
	Catalog  core.CatalogStore
	Logger   *slog.Logger

	// PoolSize 是题材筛选时拉取的热门池大小
	PoolSize int
}

func NewCandidateSource(profiles core.ProfileStore, catalog core.CatalogStore, logger *slog.Logger) *CandidateSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateSource{
		Profiles: profiles,
		Catalog:  catalog,
		Logger:   logger,
		PoolSize: 200,
	}
}

// Candidates 返回冷启动候选，已按热度排序并打好 cold_start 标签。
// exclude 中的物品（用户已交互或已在个性化结果中）被跳过。
func (s *CandidateSource) Candidates(ctx context.Context, userID string, limit int, exclude map[string]struct{}) ([]*core.Item, error) {
	var genres []string
	if s.Profiles != nil {
		var err error
		genres, err = s.Profiles.GenrePreferences(ctx, userID)
		if err != nil {
			// 画像读取失败视同没有偏好，不阻断请求
			s.Logger.Warn("genre preferences unavailable", "user", userID, "err", err)
			genres = nil
		}
	}
	// 没有题材偏好就没有冷启动依据
	if len(genres) == 0 {
		return nil, nil
	}

	poolSize := s.PoolSize
	if poolSize <= 0 {
		poolSize = 200
	}
	popular, err := s.Catalog.PopularItems(ctx, poolSize)
	if err != nil {
		return nil, err
	}

	want := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		want[g] = struct{}{}
	}
	metas, err := s.Catalog.BatchGetItems(ctx, popular)
	if err != nil {
		return nil, err
	}
	var pool []string
	for _, id := range popular {
		meta, ok := metas[id]
		if !ok {
			continue
		}
		for _, g := range meta.Genres {
			if _, match := want[g]; match {
				pool = append(pool, id)
				break
			}
		}
	}

	out := make([]*core.Item, 0, limit)
	for _, id := range pool {
		if _, skip := exclude[id]; skip {
			continue
		}
		it := core.NewItem(id)
		it.Score = candidateBaseScore - candidateScoreStep*float64(len(out))
		if it.Score < candidateMinScore {
			it.Score = candidateMinScore
		}
		it.PutLabel("recall_source", utils.Label{Value: "cold_start", Source: "postprocess"})
		it.PutLabel("cold_start", utils.Label{Value: "true", Source: "postprocess"})
		out = append(out, it)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
