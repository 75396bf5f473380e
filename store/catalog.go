package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/moviekit/moviekit/core"
)

// 目录数据在 KV 后端中的布局：
//   - item:meta        Hash，field 为 item id，value 为 ItemMeta JSON
//   - sim:{item_id}    ZSET，member 为邻居 id，score 为相似度
//   - popular:items    ZSET，member 为 item id，score 为评分人数
//   - toprated:items   ZSET，member 为 item id，score 为均分（仅收录评分人数达标的物品）
const (
	keyItemMeta = "item:meta"
	keyPopular  = "popular:items"
	keyTopRated = "toprated:items"
)

func simKey(itemID string) string { return "sim:" + itemID }

// CatalogAdapter 把 core.KeyValueStore 适配为 core.CatalogStore。
// MemoryStore 与 RedisStore 都可以作为后端：测试用内存，生产用 Redis。
type CatalogAdapter struct {
	kv core.KeyValueStore

	// MinRatingCount 是进入高分榜的最低评分人数门槛
	MinRatingCount int
}

func NewCatalogAdapter(kv core.KeyValueStore) *CatalogAdapter {
	return &CatalogAdapter{kv: kv, MinRatingCount: 5}
}

var _ core.CatalogStore = (*CatalogAdapter)(nil)

func (c *CatalogAdapter) Name() string { return "catalog/" + c.kv.Name() }

// PutItem 写入物品元信息，并同步维护热门榜与高分榜。
// 离线导入目录数据时使用；不属于在线只读接口。
func (c *CatalogAdapter) PutItem(ctx context.Context, meta *core.ItemMeta) error {
	if meta == nil || meta.ID == "" {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "catalog: item meta missing id")
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal item meta: %w", err)
	}
	if err := c.kv.HSet(ctx, keyItemMeta, meta.ID, data); err != nil {
		return err
	}
	if err := c.kv.ZAdd(ctx, keyPopular, float64(meta.RatingCount), meta.ID); err != nil {
		return err
	}
	if meta.RatingCount >= c.MinRatingCount {
		if err := c.kv.ZAdd(ctx, keyTopRated, meta.AvgRating, meta.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *CatalogAdapter) GetItem(ctx context.Context, itemID string) (*core.ItemMeta, error) {
	data, err := c.kv.HGet(ctx, keyItemMeta, itemID)
	if err != nil {
		return nil, err
	}
	var meta core.ItemMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal item meta %s: %w", itemID, err)
	}
	return &meta, nil
}

func (c *CatalogAdapter) BatchGetItems(ctx context.Context, itemIDs []string) (map[string]*core.ItemMeta, error) {
	result := make(map[string]*core.ItemMeta, len(itemIDs))
	for _, id := range itemIDs {
		meta, err := c.GetItem(ctx, id)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		result[id] = meta
	}
	return result, nil
}

func (c *CatalogAdapter) AllItemIDs(ctx context.Context) ([]string, error) {
	all, err := c.kv.HGetAll(ctx, keyItemMeta)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *CatalogAdapter) Neighbors(ctx context.Context, itemID string, limit int) ([]core.Neighbor, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	scored, err := c.kv.ZRangeWithScores(ctx, simKey(itemID), 0, stop)
	if err != nil {
		return nil, err
	}
	neighbors := make([]core.Neighbor, 0, len(scored))
	for _, sm := range scored {
		neighbors = append(neighbors, core.Neighbor{ItemID: sm.Member, Weight: sm.Score})
	}
	return neighbors, nil
}

func (c *CatalogAdapter) SaveNeighbors(ctx context.Context, itemID string, neighbors []core.Neighbor) error {
	// 覆盖写：先清空旧邻居表，避免残留失效边
	if err := c.kv.Delete(ctx, simKey(itemID)); err != nil {
		return err
	}
	for _, nb := range neighbors {
		if err := c.kv.ZAdd(ctx, simKey(itemID), nb.Weight, nb.ItemID); err != nil {
			return err
		}
	}
	return nil
}

func (c *CatalogAdapter) PopularItems(ctx context.Context, limit int) ([]string, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	return c.kv.ZRange(ctx, keyPopular, 0, stop)
}

func (c *CatalogAdapter) TopRated(ctx context.Context, limit int) ([]core.ItemScore, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	scored, err := c.kv.ZRangeWithScores(ctx, keyTopRated, 0, stop)
	if err != nil {
		return nil, err
	}
	result := make([]core.ItemScore, 0, len(scored))
	for _, sm := range scored {
		result = append(result, core.ItemScore{ItemID: sm.Member, Score: sm.Score})
	}
	return result, nil
}
