package feedback

import (
	"time"

	"github.com/moviekit/moviekit/core"
)

// 正反馈判定阈值。
const (
	// PositiveRatingThreshold 是评分进入正反馈集合的最低分
	PositiveRatingThreshold = 3.5
	// FinishedProgressThreshold 是观看进度视同看完的下限
	FinishedProgressThreshold = 0.7
)

// PositiveItems 返回用户正反馈物品列表（内容推荐的种子集合）。
//
// 正反馈判定：
//   - 评分 >= 3.5
//   - 观看进度 >= 70% 或状态为 finished
//   - 收藏 / 想看
//
// 返回顺序按首次命中顺序，去重。
func PositiveItems(records []core.InteractionRecord) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if !isPositive(rec) {
			continue
		}
		if _, ok := seen[rec.ItemID]; ok {
			continue
		}
		seen[rec.ItemID] = struct{}{}
		out = append(out, rec.ItemID)
	}
	return out
}

func isPositive(rec core.InteractionRecord) bool {
	switch rec.Kind {
	case core.InteractionRating:
		return rec.Value >= PositiveRatingThreshold
	case core.InteractionView:
		return rec.State == core.ViewFinished || rec.Value >= FinishedProgressThreshold
	case core.InteractionFavorite, core.InteractionWatchlist:
		return true
	default:
		return false
	}
}

// ExcludedItems 返回推荐结果中应剔除的物品集合：
// 用户评过分的、看完的都不再推；看了一半的不剔除（续播是合理推荐）。
func ExcludedItems(records []core.InteractionRecord) map[string]struct{} {
	out := make(map[string]struct{})
	for _, rec := range records {
		switch rec.Kind {
		case core.InteractionRating:
			out[rec.ItemID] = struct{}{}
		case core.InteractionView:
			if rec.State == core.ViewFinished || rec.Value >= FinishedProgressThreshold {
				out[rec.ItemID] = struct{}{}
			}
		}
	}
	return out
}

// LatestTimestamps 返回用户对每个物品的最近交互时间（时效衰减用）。
func LatestTimestamps(records []core.InteractionRecord) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, rec := range records {
		if rec.Timestamp.IsZero() {
			continue
		}
		if last, ok := out[rec.ItemID]; !ok || rec.Timestamp.After(last) {
			out[rec.ItemID] = rec.Timestamp
		}
	}
	return out
}

// Counts 统计用户的评分数与观看数（冷启动权重的输入）。
func Counts(records []core.InteractionRecord) (ratings, views int) {
	for _, rec := range records {
		switch rec.Kind {
		case core.InteractionRating:
			ratings++
		case core.InteractionView:
			views++
		}
	}
	return ratings, views
}
