package core

import (
	"context"
	"time"
)

// 交互类型常量。每种交互携带的 Value 语义不同：
//   - rating: 评分值（0~5）
//   - view: 观看进度（0~1）
//   - favorite / watchlist / comment: Value 无意义，存在即信号
//   - cold_start: 冷启动来源的先验质量分（0~1）
const (
	InteractionRating    = "rating"
	InteractionView      = "view"
	InteractionFavorite  = "favorite"
	InteractionWatchlist = "watchlist"
	InteractionComment   = "comment"
	InteractionColdStart = "cold_start"
)

// 观看状态常量（仅 view 交互使用）。
const (
	ViewStarted    = "started"     // 刚开始（进度 < 30%）
	ViewInProgress = "in_progress" // 看了一部分（30% ~ 70%）
	ViewFinished   = "finished"    // 看完（进度 >= 70% 或显式完成）
)

// InteractionRecord 是一条用户-物品交互记录，是 CF 训练与画像推断的原始输入。
type InteractionRecord struct {
	UserID    string    `json:"user_id"`
	ItemID    string    `json:"item_id"`
	Kind      string    `json:"kind"`
	Value     float64   `json:"value"`
	State     string    `json:"state,omitempty"` // view 专用
	Timestamp time.Time `json:"timestamp"`
}

// InteractionStore 是交互数据的领域接口，由基础设施层实现
// （内存实现用于测试，生产接业务库的读副本）。
type InteractionStore interface {
	// Name 返回后端名称（用于日志/监控）
	Name() string

	// All 返回全量交互记录（离线训练用）
	All(ctx context.Context) ([]InteractionRecord, error)

	// ByUser 返回单个用户的全部交互记录（在线画像推断用）
	ByUser(ctx context.Context, userID string) ([]InteractionRecord, error)
}

// ProfileStore 提供用户声明式画像（注册/引导流程中用户主动声明的偏好）。
// 与 InteractionStore 的行为数据互补：冷启动阶段行为数据不足，只能依赖声明偏好。
type ProfileStore interface {
	// GenrePreferences 返回用户声明的题材偏好（可能为空）
	GenrePreferences(ctx context.Context, userID string) ([]string, error)
}
