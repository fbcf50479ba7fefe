// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"livro-ai-api/internal/application/generation"
	"livro-ai-api/internal/config"
	"livro-ai-api/internal/domain/entity"
	"livro-ai-api/internal/domain/repository"
	"livro-ai-api/internal/interfaces/http/dto"
	"livro-ai-api/pkg/logger"
	"livro-ai-api/pkg/utils"
)

const refreshCookiePath = "/v1/auth/refresh"

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtManager   *utils.JWTManager
	jwtCfg       config.JWTConfig
	userRepo     repository.UserRepository
	orchestrator *generation.Orchestrator
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(jwtCfg config.JWTConfig, userRepo repository.UserRepository, orchestrator *generation.Orchestrator) *AuthHandler {
	return &AuthHandler{
		jwtManager:   utils.NewJWTManager(jwtCfg.Secret, jwtCfg.Issuer),
		jwtCfg:       jwtCfg,
		userRepo:     userRepo,
		orchestrator: orchestrator,
	}
}

// Register 用户注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user := entity.NewUser(req.Email, req.Name)
	if err := user.SetPassword(req.Password); err != nil {
		logger.Error(ctx, "failed to hash password", err)
		dto.InternalError(c, "registration failed")
		return
	}

	// 唯一约束是最终裁决，并发注册同邮箱只会成功一个
	if err := h.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			dto.Conflict(c, "email already registered")
			return
		}
		logger.Error(ctx, "failed to create user", err)
		dto.InternalError(c, "registration failed")
		return
	}

	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email, h.jwtCfg.Expiration, h.jwtCfg.RefreshExpiration)
	if err != nil {
		dto.InternalError(c, "user created but failed to generate tokens")
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	dto.Created(c, &dto.AuthResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   int(h.jwtCfg.Expiration.Seconds()),
		User:        dto.ToAuthUser(user),
	})
}

// Login 用户登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "login failed")
		return
	}

	// 不区分"用户不存在"与"密码错误"，避免账号枚举
	if user == nil || !user.CheckPassword(req.Password) {
		dto.Unauthorized(c, "invalid email or password")
		return
	}

	if err := h.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to update last login time", "error", err, "user_id", user.ID)
	}

	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email, h.jwtCfg.Expiration, h.jwtCfg.RefreshExpiration)
	if err != nil {
		dto.InternalError(c, "failed to generate tokens")
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	dto.Success(c, &dto.AuthResponse{
		AccessToken: tokens.AccessToken,
		ExpiresIn:   int(h.jwtCfg.Expiration.Seconds()),
		User:        dto.ToAuthUser(user),
	})
}

// RefreshToken 用 Cookie 中的 RefreshToken 换取新 AccessToken
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		dto.Unauthorized(c, "missing refresh token")
		return
	}

	claims, err := h.jwtManager.ParseToken(refreshToken)
	if err != nil || claims.Type != "refresh" {
		dto.Unauthorized(c, "invalid refresh token")
		return
	}

	newAccessToken, err := h.jwtManager.GenerateToken(claims.UserID, claims.Email, "access", h.jwtCfg.Expiration)
	if err != nil {
		dto.InternalError(c, "failed to generate access token")
		return
	}

	dto.Success(c, gin.H{
		"access_token": newAccessToken,
		"expires_in":   int(h.jwtCfg.Expiration.Seconds()),
	})
}

// Logout 登出：清除 RefreshToken 并丢弃当前生成会话与工作区
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if userID := c.GetString("user_id"); userID != "" && h.orchestrator != nil {
		if err := h.orchestrator.Reset(ctx, userID); err != nil {
			logger.Warn(ctx, "failed to reset workspace on logout", "error", err, "user_id", userID)
		}
	}

	c.SetCookie("refresh_token", "", -1, refreshCookiePath, "", false, true)
	dto.Success(c, gin.H{"message": "logged out"})
}

// Me 返回当前用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	user, err := h.userRepo.GetByID(ctx, c.GetString("user_id"))
	if err != nil {
		logger.Error(ctx, "failed to get user", err)
		dto.InternalError(c, "failed to load profile")
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}

	dto.Success(c, dto.ToUserProfile(user))
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	maxAge := int(h.jwtCfg.RefreshExpiration.Seconds())
	if maxAge <= 0 {
		maxAge = int((7 * 24 * time.Hour).Seconds())
	}
	c.SetCookie("refresh_token", token, maxAge, refreshCookiePath, "", false, true)
}
