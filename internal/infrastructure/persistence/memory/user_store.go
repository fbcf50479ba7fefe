package memory

import (
	"context"
	"sync"
	"time"

	"livro-ai-api/internal/domain/entity"
	"livro-ai-api/internal/domain/repository"
)

// UserStore 进程内用户仓储，配合 memory 后端让服务可完全脱离外部依赖运行
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*entity.User // key: user ID
}

// NewUserStore 创建进程内用户仓储
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*entity.User)}
}

var _ repository.UserRepository = (*UserStore)(nil)

// Create 创建用户；邮箱冲突时返回 ErrDuplicateEmail
func (s *UserStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID 按 ID 获取用户，未找到返回 (nil, nil)
func (s *UserStore) GetByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

// GetByEmail 按邮箱获取用户，未找到返回 (nil, nil)
func (s *UserStore) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// ExistsByEmail 检查邮箱是否存在
func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := s.GetByEmail(ctx, email)
	return u != nil, err
}

// UpdateLastLogin 更新最后登录时间
func (s *UserStore) UpdateLastLogin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[id]; ok {
		now := time.Now()
		u.LastLoginAt = &now
		u.UpdatedAt = now
	}
	return nil
}

func cloneUser(u *entity.User) *entity.User {
	cp := *u
	return &cp
}
