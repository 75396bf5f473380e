package filter

import (
	"context"

	"github.com/moviekit/moviekit/core"
)

// BlacklistFilter 过滤运营下架/屏蔽的影片。
// 列表可以来自内存配置，也可以从 Store 按 key 读取（运营实时维护）。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单物品 ID 列表
	ItemIDs []string

	// Store 用于从存储中读取黑名单（可选），value 为 JSON 数组
	Store core.Store

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string, store core.Store, key string) *BlacklistFilter {
	return &BlacklistFilter{
		ItemIDs: itemIDs,
		Store:   store,
		Key:     key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.ItemIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.Store != nil && f.Key != "" {
		ids, err := loadIDList(ctx, f.Store, f.Key)
		if err == nil {
			for _, id := range ids {
				if item.ID == id {
					return true, nil
				}
			}
		}
	}

	return false, nil
}
