package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login 用户名密码登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Unauthorized(c, "Invalid username or password")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
	})
}

// RefreshToken 刷新Token对
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			Unauthorized(c, "Invalid or expired refresh token")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, pair)
}

// Logout 注销刷新Token
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.RefreshToken != "" {
		if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
			InternalError(c, err.Error())
			return
		}
	}

	Success(c, nil)
}

// Me 返回当前登录用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	privilege, _ := c.Get("privilege")
	Success(c, gin.H{
		"user_id":   GetUserID(c),
		"username":  GetUserName(c),
		"privilege": privilege,
	})
}
