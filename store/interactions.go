package store

import (
	"context"
	"sort"
	"sync"

	"github.com/moviekit/moviekit/core"
)

// MemoryInteractions 是内存实现的 InteractionStore，用于测试/开发/离线训练输入。
// 生产环境通常实现一个读业务库副本的 InteractionStore。
type MemoryInteractions struct {
	mu      sync.RWMutex
	records []core.InteractionRecord
	byUser  map[string][]int // user id -> records 下标
}

func NewMemoryInteractions() *MemoryInteractions {
	return &MemoryInteractions{
		byUser: make(map[string][]int),
	}
}

var _ core.InteractionStore = (*MemoryInteractions)(nil)

func (s *MemoryInteractions) Name() string { return "interactions/memory" }

// Add 追加一条交互记录。
func (s *MemoryInteractions) Add(rec core.InteractionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byUser[rec.UserID] = append(s.byUser[rec.UserID], len(s.records))
	s.records = append(s.records, rec)
}

// AddAll 批量追加。
func (s *MemoryInteractions) AddAll(recs []core.InteractionRecord) {
	for _, r := range recs {
		s.Add(r)
	}
}

func (s *MemoryInteractions) All(ctx context.Context) ([]core.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.InteractionRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryInteractions) ByUser(ctx context.Context, userID string) ([]core.InteractionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idxs := s.byUser[userID]
	out := make([]core.InteractionRecord, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.records[i])
	}
	// 按时间升序，便于调用方取最近交互
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// MemoryProfiles 是内存实现的 ProfileStore，保存用户声明的题材偏好。
type MemoryProfiles struct {
	mu    sync.RWMutex
	prefs map[string][]string
}

func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{prefs: make(map[string][]string)}
}

var _ core.ProfileStore = (*MemoryProfiles)(nil)

// SetGenrePreferences 覆盖写入用户题材偏好。
func (s *MemoryProfiles) SetGenrePreferences(userID string, genres []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]string, len(genres))
	copy(cp, genres)
	s.prefs[userID] = cp
}

func (s *MemoryProfiles) GenrePreferences(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genres, ok := s.prefs[userID]
	if !ok {
		return nil, nil
	}
	cp := make([]string, len(genres))
	copy(cp, genres)
	return cp, nil
}
