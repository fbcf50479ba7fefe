package dto

import (
	"time"

	"livro-ai-api/internal/domain/entity"
)

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Name     string `json:"name" binding:"max=128"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthUser 认证响应中的用户信息
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int       `json:"expires_in"`
	User        *AuthUser `json:"user"`
}

// UserProfile 用户信息
type UserProfile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToAuthUser 实体转认证用户 DTO
func ToAuthUser(u *entity.User) *AuthUser {
	return &AuthUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}

// ToUserProfile 实体转用户信息 DTO
func ToUserProfile(u *entity.User) *UserProfile {
	return &UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
