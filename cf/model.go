// Package cf 实现协同过滤侧：隐式反馈 ALS 训练、模型文件管理与在线打分。
package cf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/feedback"
)

// SchemaVersion 是模型文件的结构版本号。结构变更时递增，
// 加载端拒绝版本不一致的文件，宁可退化为无模型也不读错数据。
const SchemaVersion = 2

// Model 是训练产物：用户/物品因子矩阵与 ID 映射。
// 训练参数与权重表一并固化，保证训练/推理口径一致。
type Model struct {
	SchemaVersion int       `json:"schema_version"`
	TrainedAt     time.Time `json:"trained_at"`

	Factors        int     `json:"factors"`
	Iterations     int     `json:"iterations"`
	Regularization float64 `json:"regularization"`

	Users []string `json:"users"` // 行下标 -> user id
	Items []string `json:"items"` // 列下标 -> item id

	UserFactors [][]float64 `json:"user_factors"`
	ItemFactors [][]float64 `json:"item_factors"`

	Weights feedback.Weights `json:"interaction_weights"`

	// 索引在加载时由 Users/Items 重建，不落盘
	userIndex map[string]int
	itemIndex map[string]int
}

// ErrModelSchema 表示模型文件版本与当前代码不兼容。
var ErrModelSchema = core.NewDomainError(core.ModuleCF, core.ErrorCodeSchemaVersion, "cf: model schema version mismatch")

func (m *Model) buildIndex() {
	m.userIndex = make(map[string]int, len(m.Users))
	for i, id := range m.Users {
		m.userIndex[id] = i
	}
	m.itemIndex = make(map[string]int, len(m.Items))
	for j, id := range m.Items {
		m.itemIndex[id] = j
	}
}

// UserVector 返回用户因子向量；用户不在模型中返回 (nil, false)。
func (m *Model) UserVector(userID string) ([]float64, bool) {
	i, ok := m.userIndex[userID]
	if !ok {
		return nil, false
	}
	return m.UserFactors[i], true
}

// ItemVector 返回物品因子向量；物品不在模型中返回 (nil, false)。
func (m *Model) ItemVector(itemID string) ([]float64, bool) {
	j, ok := m.itemIndex[itemID]
	if !ok {
		return nil, false
	}
	return m.ItemFactors[j], true
}

// HasUser 判断用户是否在训练集中。
func (m *Model) HasUser(userID string) bool {
	_, ok := m.userIndex[userID]
	return ok
}

// Save 原子写入模型文件：先写临时文件再 rename，
// 加载端永远不会读到写了一半的模型。
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename model: %w", err)
	}
	return nil
}

// LoadModel 从文件加载模型并重建索引。
// 版本不一致返回 ErrModelSchema；文件不存在返回原始 os 错误（调用方用 os.IsNotExist 判断）。
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, ErrModelSchema
	}
	if len(m.UserFactors) != len(m.Users) || len(m.ItemFactors) != len(m.Items) {
		return nil, core.NewDomainError(core.ModuleCF, core.ErrorCodeInvalidInput,
			fmt.Sprintf("cf: model factor/id size mismatch: %d users vs %d rows", len(m.Users), len(m.UserFactors)))
	}
	m.buildIndex()
	return &m, nil
}
