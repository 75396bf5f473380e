package filter

import (
	"context"
	"encoding/json"

	"github.com/moviekit/moviekit/core"
)

// loadIDList 从 Store 读取 JSON 数组形式的物品 ID 列表。
// key 不存在视为空列表。
func loadIDList(ctx context.Context, s core.Store, key string) ([]string, error) {
	data, err := s.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
