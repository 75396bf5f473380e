// Package feedback 把原始用户交互流转换为 CF 训练可用的加权反馈：
// 每种交互类型按业务权重折算成隐式偏好强度，同一 (user, item) 的多条
// 交互取最强信号（max 聚合，不累加，避免刷行为放大权重）。
package feedback

import "github.com/moviekit/moviekit/core"

// Weights 定义各交互类型的偏好权重。所有权重折算后落在 [0,1] 区间。
// 训练产物会把权重表一并固化进模型文件，保证训练/推理两侧口径一致。
type Weights struct {
	View      float64 `json:"view"`       // 观看（按进度折算）
	Rating    float64 `json:"rating"`     // 评分（按分值折算）
	Favorite  float64 `json:"favorite"`   // 收藏
	Watchlist float64 `json:"watchlist"`  // 想看
	Comment   float64 `json:"comment"`    // 评论
	ColdStart float64 `json:"cold_start"` // 冷启动来源的先验上限
}

// DefaultWeights 返回默认权重表。
// 观看是最强信号，评分次之；冷启动先验只给很小的权重，避免污染真实行为。
func DefaultWeights() Weights {
	return Weights{
		View:      0.35,
		Rating:    0.25,
		Favorite:  0.10,
		Watchlist: 0.08,
		Comment:   0.07,
		ColdStart: 0.05,
	}
}

// Of 计算单条交互记录的偏好强度。
//
// 折算规则：
//   - view: 按观看状态折算进度系数（finished=1.0 / in_progress=0.7 / started=0.3）
//   - rating: 权重 × (分值/5)
//   - favorite / watchlist / comment: 固定权重
//   - cold_start: 按先验质量分三档（>0.8 → 满额，>0.6 → 0.04，其余 0.03）
//
// 未知类型返回 0（忽略）。
func (w Weights) Of(rec core.InteractionRecord) float64 {
	switch rec.Kind {
	case core.InteractionView:
		switch rec.State {
		case core.ViewFinished:
			return w.View
		case core.ViewInProgress:
			return w.View * 0.7
		case core.ViewStarted:
			return w.View * 0.3
		default:
			// 没有状态时退化为按进度值折算
			p := rec.Value
			if p < 0 {
				p = 0
			}
			if p > 1 {
				p = 1
			}
			return w.View * p
		}
	case core.InteractionRating:
		v := rec.Value
		if v < 0 {
			v = 0
		}
		if v > 5 {
			v = 5
		}
		return w.Rating * (v / 5.0)
	case core.InteractionFavorite:
		return w.Favorite
	case core.InteractionWatchlist:
		return w.Watchlist
	case core.InteractionComment:
		return w.Comment
	case core.InteractionColdStart:
		switch {
		case rec.Value > 0.8:
			return w.ColdStart
		case rec.Value > 0.6:
			return 0.04
		default:
			return 0.03
		}
	default:
		return 0
	}
}
