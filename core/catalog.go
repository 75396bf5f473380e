package core

import "context"

// ItemMeta 是物品（影片）的目录元信息，是内容相似计算的原始输入。
type ItemMeta struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	ReleaseYear int      `json:"release_year"`
	AvgRating   float64  `json:"avg_rating"`   // 社区均分（0~5）
	RatingCount int      `json:"rating_count"` // 评分人数（热度代理）
}

// Neighbor 是相似图中的一条边：目标物品与相似度权重。
type Neighbor struct {
	ItemID string  `json:"item_id"`
	Weight float64 `json:"weight"`
}

// ItemScore 是 (物品, 分数) 对，用于热门榜 / 高分榜等排序列表。
type ItemScore struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

// CatalogStore 是物品目录与相似图的领域接口。
//
// 相似图是内容引擎的产物：离线批量构建后写入，在线只读。
// 实现可以基于 KeyValueStore（ZSET 邻居表）或直接内存。
type CatalogStore interface {
	// Name 返回后端名称（用于日志/监控）
	Name() string

	// GetItem 读取单个物品元信息；不存在返回 ErrStoreNotFound
	GetItem(ctx context.Context, itemID string) (*ItemMeta, error)

	// BatchGetItems 批量读取物品元信息，缺失的 key 被跳过
	BatchGetItems(ctx context.Context, itemIDs []string) (map[string]*ItemMeta, error)

	// AllItemIDs 返回全量物品 ID（离线相似图构建用）
	AllItemIDs(ctx context.Context) ([]string, error)

	// Neighbors 返回物品的相似邻居，按权重降序，最多 limit 条
	Neighbors(ctx context.Context, itemID string, limit int) ([]Neighbor, error)

	// SaveNeighbors 覆盖写入物品的邻居表（双向边由调用方负责写两次）
	SaveNeighbors(ctx context.Context, itemID string, neighbors []Neighbor) error

	// PopularItems 按热度（评分人数）降序返回物品 ID
	PopularItems(ctx context.Context, limit int) ([]string, error)

	// TopRated 按均分降序返回高分物品（实现方应用最低评分人数门槛）
	TopRated(ctx context.Context, limit int) ([]ItemScore, error)
}
