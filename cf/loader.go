package cf

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/moviekit/moviekit/core"
)

// ErrModelNotReady 表示模型尚未就绪（未加载、加载中或加载失败）。
// 调用方应退化到内容推荐/热门，而不是阻塞请求。
var ErrModelNotReady = core.NewDomainError(core.ModuleCF, core.ErrorCodeModelNotReady, "cf: model not ready")

// WaitTimeout 是 Get 等待进行中加载的时间上限。
const WaitTimeout = 30 * time.Second

// LoaderStatus 描述模型加载状态快照。
type LoaderStatus struct {
	Loaded    bool      `json:"loaded"`
	Loading   bool      `json:"loading"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
	Users     int       `json:"users"`
	Items     int       `json:"items"`
	Error     string    `json:"error,omitempty"`
}

// Loader 管理模型文件的懒加载与热替换。
//
// 并发语义：
//   - 同一时刻至多一个加载在进行，其余 Get 等待同一次加载完成
//   - 等待有上限（WaitTimeout 或 ctx 取消），超时返回 ErrModelNotReady
//   - 加载失败会记录错误并允许下次 Get 重试
type Loader struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	model    *Model
	loading  bool
	done     chan struct{} // 本轮加载完成信号
	lastErr  error
	loadedAt time.Time
}

func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

// Get 返回当前模型；未加载时触发加载并在上限内等待。
func (l *Loader) Get(ctx context.Context) (*Model, error) {
	l.mu.Lock()
	if l.model != nil {
		m := l.model
		l.mu.Unlock()
		return m, nil
	}

	if !l.loading {
		l.loading = true
		l.done = make(chan struct{})
		go l.load(l.done)
	}
	done := l.done
	l.mu.Unlock()

	timer := time.NewTimer(WaitTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		return nil, ErrModelNotReady
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model == nil {
		return nil, ErrModelNotReady
	}
	return l.model, nil
}

// Preload 在后台触发一次加载（服务启动时调用，非阻塞）。
func (l *Loader) Preload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.model != nil || l.loading {
		return
	}
	l.loading = true
	l.done = make(chan struct{})
	go l.load(l.done)
}

// Reload 丢弃当前模型并同步重新加载（训练完成后调用）。
func (l *Loader) Reload(ctx context.Context) error {
	l.mu.Lock()
	if l.loading {
		done := l.done
		l.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		l.mu.Lock()
	}
	l.model = nil
	l.loading = true
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	l.load(done)

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *Loader) load(done chan struct{}) {
	defer close(done)

	start := time.Now()
	m, err := LoadModel(l.path)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	l.lastErr = err
	if err != nil {
		l.logger.Warn("cf model load failed", "path", l.path, "err", err)
		return
	}
	l.model = m
	l.loadedAt = time.Now()
	l.logger.Info("cf model loaded",
		"path", l.path,
		"users", len(m.Users),
		"items", len(m.Items),
		"trained_at", m.TrainedAt,
		"elapsed", time.Since(start))
}

// Status 返回加载状态快照（健康检查/运维接口用）。
func (l *Loader) Status() LoaderStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := LoaderStatus{
		Loaded:   l.model != nil,
		Loading:  l.loading,
		LoadedAt: l.loadedAt,
	}
	if l.model != nil {
		st.TrainedAt = l.model.TrainedAt
		st.Users = len(l.model.Users)
		st.Items = len(l.model.Items)
	}
	if l.lastErr != nil {
		st.Error = l.lastErr.Error()
	}
	return st
}
