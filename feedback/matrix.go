package feedback

import (
	"sort"

	"github.com/moviekit/moviekit/core"
)

// Matrix 是稀疏的用户-物品偏好矩阵，CF 训练的直接输入。
// 行/列索引与外部 ID 的映射一并保存，训练产物依赖它还原 ID。
type Matrix struct {
	Users []string // 行下标 -> user id
	Items []string // 列下标 -> item id

	UserIndex map[string]int
	ItemIndex map[string]int

	// Rows[u] 是用户 u 的非零列：item 下标 -> 偏好强度
	Rows []map[int]float64

	// Interactions 是构建矩阵时实际采纳的交互条数（过滤之后）
	Interactions int
}

// BuildOptions 控制矩阵构建的过滤行为。
type BuildOptions struct {
	// MinUserInteractions / MinItemInteractions 是进入矩阵的最低交互数门槛，
	// 低于门槛的用户/物品对分解没有贡献，只会拖慢训练。
	MinUserInteractions int
	MinItemInteractions int

	Weights Weights
}

// DefaultBuildOptions 返回默认构建参数（双侧门槛为 5）。
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		MinUserInteractions: 5,
		MinItemInteractions: 5,
		Weights:             DefaultWeights(),
	}
}

// Build 把交互记录流聚合成偏好矩阵。
//
// 聚合规则：
//  1. 每条记录按权重表折算偏好强度，强度为 0 的记录忽略
//  2. 同一 (user, item) 取强度最大值（max 聚合）
//  3. 过滤交互数不达标的用户与物品（先过滤物品再过滤用户）
//  4. 行列按 ID 字典序编号，保证同样输入产出同样的索引
func Build(records []core.InteractionRecord, opts BuildOptions) *Matrix {
	// (user, item) -> max 强度
	prefs := make(map[string]map[string]float64)
	for _, rec := range records {
		if rec.UserID == "" || rec.ItemID == "" {
			continue
		}
		w := opts.Weights.Of(rec)
		if w <= 0 {
			continue
		}
		row := prefs[rec.UserID]
		if row == nil {
			row = make(map[string]float64)
			prefs[rec.UserID] = row
		}
		if w > row[rec.ItemID] {
			row[rec.ItemID] = w
		}
	}

	// 统计每个物品被多少用户触达
	itemCount := make(map[string]int)
	for _, row := range prefs {
		for itemID := range row {
			itemCount[itemID]++
		}
	}

	// 过滤低频物品
	if opts.MinItemInteractions > 1 {
		for _, row := range prefs {
			for itemID := range row {
				if itemCount[itemID] < opts.MinItemInteractions {
					delete(row, itemID)
				}
			}
		}
	}

	// 过滤低频用户
	userIDs := make([]string, 0, len(prefs))
	for userID, row := range prefs {
		if len(row) >= opts.MinUserInteractions {
			userIDs = append(userIDs, userID)
		}
	}
	sort.Strings(userIDs)

	// 收集留存物品
	itemSet := make(map[string]struct{})
	for _, userID := range userIDs {
		for itemID := range prefs[userID] {
			itemSet[itemID] = struct{}{}
		}
	}
	itemIDs := make([]string, 0, len(itemSet))
	for itemID := range itemSet {
		itemIDs = append(itemIDs, itemID)
	}
	sort.Strings(itemIDs)

	m := &Matrix{
		Users:     userIDs,
		Items:     itemIDs,
		UserIndex: make(map[string]int, len(userIDs)),
		ItemIndex: make(map[string]int, len(itemIDs)),
		Rows:      make([]map[int]float64, len(userIDs)),
	}
	for i, id := range userIDs {
		m.UserIndex[id] = i
	}
	for j, id := range itemIDs {
		m.ItemIndex[id] = j
	}
	for i, userID := range userIDs {
		row := make(map[int]float64, len(prefs[userID]))
		for itemID, w := range prefs[userID] {
			row[m.ItemIndex[itemID]] = w
			m.Interactions++
		}
		m.Rows[i] = row
	}
	return m
}

// NumUsers 返回矩阵行数。
func (m *Matrix) NumUsers() int { return len(m.Users) }

// NumItems 返回矩阵列数。
func (m *Matrix) NumItems() int { return len(m.Items) }
