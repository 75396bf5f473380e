package content

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/moviekit/moviekit/core"
)

// 相似图构建参数。
const (
	// DefaultTopK 是每个物品保留的邻居数
	DefaultTopK = 20
	// DefaultMinSimilarity 是入图的相似度下限，低于它的边没有推荐价值
	DefaultMinSimilarity = 0.05
	// fallbackPoolSize 是无题材物品增量构建时的热门比较池大小
	fallbackPoolSize = 200
)

// 构建进度状态。
const (
	BuildRunning   = "running"
	BuildCompleted = "completed"
	BuildError     = "error"
)

// Progress 是单个物品相似度构建的进度快照。
type Progress struct {
	Status  string `json:"status"` // running / completed / error
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`
}

// Engine 负责相似图的离线构建与维护。
//
// 两种入口：
//   - BuildAll: 全量重建（定时任务调用）
//   - BuildItemAsync: 单物品异步构建（新上架影片即时补边），进度可查询
type Engine struct {
	Catalog core.CatalogStore

	TopK          int
	MinSimilarity float64
	Workers       int // BuildAll 的并发 worker 数，0 取 GOMAXPROCS
	Logger        *slog.Logger

	progress sync.Map // item id -> Progress
}

func NewEngine(catalog core.CatalogStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Catalog:       catalog,
		TopK:          DefaultTopK,
		MinSimilarity: DefaultMinSimilarity,
		Logger:        logger,
	}
}

func (e *Engine) topK() int {
	if e.TopK > 0 {
		return e.TopK
	}
	return DefaultTopK
}

func (e *Engine) minSim() float64 {
	if e.MinSimilarity > 0 {
		return e.MinSimilarity
	}
	return DefaultMinSimilarity
}

func (e *Engine) loadCorpus(ctx context.Context) (*Corpus, error) {
	ids, err := e.Catalog.AllItemIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load item ids: %w", err)
	}
	metas, err := e.Catalog.BatchGetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load item metas: %w", err)
	}
	list := make([]*core.ItemMeta, 0, len(metas))
	for _, m := range metas {
		list = append(list, m)
	}
	return NewCorpus(list), nil
}

// neighborsOf 计算语料中下标 i 的 Top-K 邻居（全量扫描，BuildAll 用）。
func (e *Engine) neighborsOf(c *Corpus, i int) []core.Neighbor {
	pool := make([]int, 0, c.Len())
	for j := 0; j < c.Len(); j++ {
		pool = append(pool, j)
	}
	return e.neighborsAmong(c, i, pool)
}

// neighborsAmong 在给定候选下标集合内计算下标 i 的 Top-K 邻居。
func (e *Engine) neighborsAmong(c *Corpus, i int, pool []int) []core.Neighbor {
	out := make([]core.Neighbor, 0, len(pool))
	for _, j := range pool {
		if j == i {
			continue
		}
		sim := c.Similarity(i, j)
		if sim < e.minSim() {
			continue
		}
		out = append(out, core.Neighbor{ItemID: c.IDAt(j), Weight: sim})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Weight != out[b].Weight {
			return out[a].Weight > out[b].Weight
		}
		return out[a].ItemID < out[b].ItemID
	})
	if len(out) > e.topK() {
		out = out[:e.topK()]
	}
	return out
}

// candidatePool 圈定单物品增量构建的比较池：优先同题材物品；
// 目标物品没有题材时退回全站热门池。全量重建不走这里。
func (e *Engine) candidatePool(ctx context.Context, c *Corpus, i int) ([]int, error) {
	target := c.MetaAt(i)
	if len(target.Genres) > 0 {
		want := make(map[string]struct{}, len(target.Genres))
		for _, g := range target.Genres {
			want[strings.ToLower(strings.TrimSpace(g))] = struct{}{}
		}
		pool := make([]int, 0, c.Len())
		for j := 0; j < c.Len(); j++ {
			if j == i {
				continue
			}
			for _, g := range c.MetaAt(j).Genres {
				if _, ok := want[strings.ToLower(strings.TrimSpace(g))]; ok {
					pool = append(pool, j)
					break
				}
			}
		}
		return pool, nil
	}

	popular, err := e.Catalog.PopularItems(ctx, fallbackPoolSize)
	if err != nil {
		return nil, err
	}
	pool := make([]int, 0, len(popular))
	for _, id := range popular {
		if j, ok := c.IndexOf(id); ok && j != i {
			pool = append(pool, j)
		}
	}
	return pool, nil
}

// BuildAll 全量重建相似图，返回处理的物品数。
// 语料一次性载入内存，物品间两两相似度按 worker 并发计算。
func (e *Engine) BuildAll(ctx context.Context) (int, error) {
	corpus, err := e.loadCorpus(ctx)
	if err != nil {
		return 0, err
	}
	n := corpus.Len()
	if n < 2 {
		return 0, nil
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			neighbors := e.neighborsOf(corpus, i)
			return e.Catalog.SaveNeighbors(egCtx, corpus.IDAt(i), neighbors)
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	e.Logger.Info("similarity graph rebuilt", "items", n, "top_k", e.topK())
	return n, nil
}

// BuildItemAsync 在后台为单个物品构建相似边（双向写入），立即返回。
// 进度通过 Progress 查询。同一物品重复触发时后一次会覆盖前一次的进度。
func (e *Engine) BuildItemAsync(itemID string) {
	e.progress.Store(itemID, Progress{Status: BuildRunning, Percent: 0, Message: "loading catalog"})
	go func() {
		// 离线任务不绑定请求生命周期
		ctx := context.Background()
		if err := e.buildItem(ctx, itemID); err != nil {
			e.progress.Store(itemID, Progress{Status: BuildError, Percent: 100, Message: err.Error()})
			e.Logger.Warn("item similarity build failed", "item", itemID, "err", err)
			return
		}
		e.progress.Store(itemID, Progress{Status: BuildCompleted, Percent: 100})
	}()
}

func (e *Engine) buildItem(ctx context.Context, itemID string) error {
	corpus, err := e.loadCorpus(ctx)
	if err != nil {
		return err
	}
	i, ok := corpus.IndexOf(itemID)
	if !ok {
		return core.NewDomainError(core.ModuleContent, core.ErrorCodeNotFound, "content: item not in catalog: "+itemID)
	}

	pool, err := e.candidatePool(ctx, corpus, i)
	if err != nil {
		return err
	}

	e.progress.Store(itemID, Progress{Status: BuildRunning, Percent: 30, Message: "computing similarities"})
	neighbors := e.neighborsAmong(corpus, i, pool)
	if err := e.Catalog.SaveNeighbors(ctx, itemID, neighbors); err != nil {
		return err
	}

	// 反向边：把新物品插入每个邻居自己的邻居表
	e.progress.Store(itemID, Progress{Status: BuildRunning, Percent: 70, Message: "writing reverse edges"})
	for _, nb := range neighbors {
		existing, err := e.Catalog.Neighbors(ctx, nb.ItemID, 0)
		if err != nil {
			return err
		}
		merged := mergeNeighbor(existing, core.Neighbor{ItemID: itemID, Weight: nb.Weight}, e.topK())
		if err := e.Catalog.SaveNeighbors(ctx, nb.ItemID, merged); err != nil {
			return err
		}
	}
	return nil
}

// mergeNeighbor 把一条边并入邻居表，保持按权重降序并截断到 topK。
func mergeNeighbor(existing []core.Neighbor, nb core.Neighbor, topK int) []core.Neighbor {
	out := make([]core.Neighbor, 0, len(existing)+1)
	for _, e := range existing {
		if e.ItemID == nb.ItemID {
			continue
		}
		out = append(out, e)
	}
	out = append(out, nb)
	sort.Slice(out, func(a, b int) bool {
		if out[a].Weight != out[b].Weight {
			return out[a].Weight > out[b].Weight
		}
		return out[a].ItemID < out[b].ItemID
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Progress 返回单个物品的构建进度；从未构建过返回 (Progress{}, false)。
func (e *Engine) Progress(itemID string) (Progress, bool) {
	v, ok := e.progress.Load(itemID)
	if !ok {
		return Progress{}, false
	}
	return v.(Progress), true
}
