package cf

import (
	"math"
	"sort"

	"github.com/moviekit/moviekit/core"
)

// SimilarItems 返回与给定物品因子空间最相近的 Top-N 物品（余弦相似度）。
// 物品不在模型中返回 NOT_FOUND。
func (m *Model) SimilarItems(itemID string, n int) ([]core.ItemScore, error) {
	iv, ok := m.ItemVector(itemID)
	if !ok {
		return nil, core.NewDomainError(core.ModuleCF, core.ErrorCodeNotFound, "cf: item not in model")
	}
	normA := norm(iv)
	if normA == 0 {
		return nil, nil
	}

	scored := make([]core.ItemScore, 0, len(m.Items))
	for j, other := range m.Items {
		if other == itemID {
			continue
		}
		nb := norm(m.ItemFactors[j])
		if nb == 0 {
			continue
		}
		sim := dot(iv, m.ItemFactors[j]) / (normA * nb)
		if sim <= 0 {
			continue
		}
		scored = append(scored, core.ItemScore{ItemID: other, Score: sim})
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

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}
