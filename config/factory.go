// Package config 把 YAML/JSON Pipeline 配置组装成可运行的 Node 链。
// 召回源、过滤器等需要的运行时依赖（存储、模型加载器）通过 Deps 注入。
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/moviekit/moviekit/cf"
	"github.com/moviekit/moviekit/coldstart"
	"github.com/moviekit/moviekit/content"
	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/filter"
	"github.com/moviekit/moviekit/hybrid"
	"github.com/moviekit/moviekit/pipeline"
	"github.com/moviekit/moviekit/pkg/conv"
	"github.com/moviekit/moviekit/recall"
	"github.com/moviekit/moviekit/rerank"
)

// Deps 是 Node 构建所需的运行时依赖。
type Deps struct {
	Loader       *cf.Loader
	Interactions core.InteractionStore
	Profiles     core.ProfileStore
	Catalog      core.CatalogStore
	Store        core.Store // 黑名单等运营数据
	Logger       *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// DefaultFactory 返回注册了全部内置 Node 的工厂。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.fanout", func(cfg map[string]any) (pipeline.Node, error) {
		return buildFanoutNode(deps, cfg)
	})
	factory.Register("recall.popular", func(cfg map[string]any) (pipeline.Node, error) {
		return buildPopularNode(deps, cfg)
	})
	factory.Register("filter", func(cfg map[string]any) (pipeline.Node, error) {
		return buildFilterNode(deps, cfg)
	})
	factory.Register("rank.hybrid", func(cfg map[string]any) (pipeline.Node, error) {
		return buildHybridNode(deps, cfg)
	})
	factory.Register("rerank.diversity", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.GenreSpread{
			Catalog:     deps.Catalog,
			Logger:      deps.logger(),
			MaxPerGenre: int(conv.ConfigGetInt64(cfg, "max_per_genre", 0)),
		}, nil
	})
	factory.Register("rerank.topn", func(cfg map[string]any) (pipeline.Node, error) {
		return &rerank.TopN{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
	})
	factory.Register("postprocess.coldstart", func(cfg map[string]any) (pipeline.Node, error) {
		return buildColdStartNode(deps, cfg)
	})

	return factory
}

func buildFanoutNode(deps Deps, config map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := config["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet[string](sourceMap, "type", "")
		topN := int(conv.ConfigGetInt64(sourceMap, "top_n", 50))
		switch sourceType {
		case "cf":
			if deps.Loader == nil || deps.Interactions == nil {
				return nil, fmt.Errorf("cf source requires model loader and interaction store")
			}
			sources = append(sources, &recall.CF{
				Loader:       deps.Loader,
				Interactions: deps.Interactions,
				TopN:         topN,
				HalfLifeDays: conv.ConfigGetFloat64(sourceMap, "half_life_days", 0),
			})
		case "content":
			if deps.Catalog == nil || deps.Interactions == nil {
				return nil, fmt.Errorf("content source requires catalog and interaction store")
			}
			sources = append(sources, &recall.Content{
				Recommender: content.NewRecommender(deps.Catalog, deps.Interactions, deps.logger()),
				TopN:        topN,
			})
		case "popular":
			sources = append(sources, &recall.Popular{
				Catalog: deps.Catalog,
				TopN:    topN,
				IDs:     conv.SliceAnyToString(sourceMap["ids"]),
			})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet[bool](config, "dedup", true),
		MergeStrategy: conv.ConfigGet[string](config, "merge_strategy", "union"),
		Logger:        deps.logger(),
	}
	if sec := conv.ConfigGetInt64(config, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(config, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func buildPopularNode(deps Deps, config map[string]any) (pipeline.Node, error) {
	return &recall.Popular{
		Catalog: deps.Catalog,
		TopN:    int(conv.ConfigGetInt64(config, "top_n", 50)),
		IDs:     conv.SliceAnyToString(config["ids"]),
	}, nil
}

func buildFilterNode(deps Deps, config map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := config["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		filterType := conv.ConfigGet[string](filterMap, "type", "")
		switch filterType {
		case "seen":
			if deps.Interactions == nil {
				return nil, fmt.Errorf("seen filter requires interaction store")
			}
			filters = append(filters, filter.NewSeenFilter(deps.Interactions))

		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["item_ids"])
			key := conv.ConfigGet[string](filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, deps.Store, key))

		case "rule":
			expr := conv.ConfigGet[string](filterMap, "expr", "")
			rf, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("rule filter: %w", err)
			}
			filters = append(filters, rf)

		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

func buildHybridNode(deps Deps, config map[string]any) (pipeline.Node, error) {
	node := hybrid.NewMergeNode()
	node.Merger.CFWeight = conv.ConfigGetFloat64(config, "cf_weight", hybrid.DefaultCFWeight)
	node.Merger.CBWeight = conv.ConfigGetFloat64(config, "cb_weight", hybrid.DefaultCBWeight)
	node.Merger.Logger = deps.logger()
	node.Limit = int(conv.ConfigGetInt64(config, "limit", 0))
	return node, nil
}

func buildColdStartNode(deps Deps, config map[string]any) (pipeline.Node, error) {
	if deps.Interactions == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("coldstart node requires interaction store and catalog")
	}
	source := coldstart.NewCandidateSource(deps.Profiles, deps.Catalog, deps.logger())
	if n := conv.ConfigGetInt64(config, "pool_size", 0); n > 0 {
		source.PoolSize = int(n)
	}
	node := coldstart.NewBlendNode(deps.Interactions, source, deps.logger())
	node.Limit = int(conv.ConfigGetInt64(config, "limit", 0))
	return node, nil
}
