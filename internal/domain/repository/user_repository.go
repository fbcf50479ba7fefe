// Package repository 定义领域仓储接口
package repository

import (
	"context"
	"errors"

	"livro-ai-api/internal/domain/entity"
)

// ErrDuplicateEmail 邮箱已被注册
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository 用户仓储接口
type UserRepository interface {
	// Create 创建用户；邮箱冲突时返回 ErrDuplicateEmail
	Create(ctx context.Context, user *entity.User) error
	// GetByID 按 ID 获取用户，未找到返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetByEmail 按邮箱获取用户，未找到返回 (nil, nil)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// ExistsByEmail 检查邮箱是否存在
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// UpdateLastLogin 更新最后登录时间
	UpdateLastLogin(ctx context.Context, id string) error
}
