package cf

import (
	"sort"
	"time"

	"github.com/moviekit/moviekit/core"
)

// ErrUserNotInModel 表示用户不在训练集中（新用户或交互不足）。
var ErrUserNotInModel = core.NewDomainError(core.ModuleCF, core.ErrorCodeNotFound, "cf: user not in model")

// RecommendOptions 控制在线打分行为。
type RecommendOptions struct {
	// Exclude 是不参与推荐的物品集合（已看完/已评分）
	Exclude map[string]struct{}

	// LastInteraction 是用户对各物品的最近交互时间，用于时效加成
	LastInteraction map[string]time.Time

	// HalfLifeDays 为 0 时使用 DefaultHalfLifeDays
	HalfLifeDays float64

	// Now 为零值时取当前时间（测试注入用）
	Now time.Time
}

// Recommend 为用户生成 Top-N 候选，按时效调整后的预测分降序。
// 分数为因子内积经时效加成后的原始分，未归一化。
func (m *Model) Recommend(userID string, n int, opts RecommendOptions) ([]core.ItemScore, error) {
	uv, ok := m.UserVector(userID)
	if !ok {
		return nil, ErrUserNotInModel
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	scored := make([]core.ItemScore, 0, len(m.Items))
	for j, itemID := range m.Items {
		if _, excluded := opts.Exclude[itemID]; excluded {
			continue
		}
		raw := dot(uv, m.ItemFactors[j])
		if raw <= 0 {
			continue
		}
		var last time.Time
		if opts.LastInteraction != nil {
			last = opts.LastInteraction[itemID]
		}
		d := Decay(last, now, opts.HalfLifeDays)
		scored = append(scored, core.ItemScore{ItemID: itemID, Score: AdjustScore(raw, d)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ItemID < scored[j].ItemID
	})

	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

// Predict 返回用户对单个物品的原始预测分（不含时效加成）。
// 用户或物品不在模型中返回 (0, false)。
func (m *Model) Predict(userID, itemID string) (float64, bool) {
	uv, ok := m.UserVector(userID)
	if !ok {
		return 0, false
	}
	iv, ok := m.ItemVector(itemID)
	if !ok {
		return 0, false
	}
	return dot(uv, iv), true
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
