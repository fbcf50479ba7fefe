package generation

import (
	"context"
	"sync"

	apperrors "livro-ai-api/pkg/errors"
	"livro-ai-api/pkg/logger"
	"livro-ai-api/pkg/metrics"
)

// Manager 按用户维护生成会话。
// 每个用户同一时刻至多一个活动会话；全新生成会替换旧会话，
// 载入已保存书稿时用正文预热新会话。
type Manager struct {
	factory  ChatModelFactory
	provider string // 空串表示使用配置的默认提供商

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager 创建会话管理器
func NewManager(factory ChatModelFactory, provider string) *Manager {
	return &Manager{
		factory:  factory,
		provider: provider,
		sessions: make(map[string]*Session),
	}
}

// StartNew 为用户开启全新会话，替换任何已有会话
func (m *Manager) StartNew(ctx context.Context, userID string) (*Session, error) {
	chatModel, err := m.factory.Get(ctx, m.provider)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMProviderError, "failed to acquire chat model")
	}

	s := newSession(chatModel)
	m.mu.Lock()
	if _, had := m.sessions[userID]; !had {
		metrics.ActiveSessions.Inc()
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	logger.Debug(ctx, "generation session started", "user_id", userID)
	return s, nil
}

// PrimeWithHistory 开启新会话并以书稿正文预热。
// 预热回复只用于建立模型上下文，内容被丢弃不进入书稿；
// 预热失败时会话被移除，调用方决定是否降级。
func (m *Manager) PrimeWithHistory(ctx context.Context, userID, body string) error {
	s, err := m.StartNew(ctx, userID)
	if err != nil {
		return err
	}

	reply, err := s.Ask(ctx, primingPreamble(body))
	if err != nil {
		m.Reset(ctx, userID)
		logger.Warn(ctx, "session priming failed", "user_id", userID, "error", err)
		return apperrors.ErrLLMCallFailed.WithError(err)
	}

	logger.Debug(ctx, "session primed with saved book",
		"user_id", userID,
		"discarded_reply_len", len(reply),
	)
	return nil
}

// Get 返回用户当前会话
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Reset 移除用户会话
func (m *Manager) Reset(ctx context.Context, userID string) {
	m.mu.Lock()
	if _, had := m.sessions[userID]; had {
		delete(m.sessions, userID)
		metrics.ActiveSessions.Dec()
	}
	m.mu.Unlock()

	logger.Debug(ctx, "generation session reset", "user_id", userID)
}
