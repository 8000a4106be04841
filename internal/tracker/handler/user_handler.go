package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// UserHandler 用户管理处理器，全部接口仅管理员可用
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List 获取用户列表
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": users})
}

// Add 新增用户
func (h *UserHandler) Add(c *gin.Context) {
	var req struct {
		Username  string `json:"username" binding:"required"`
		Password  string `json:"password" binding:"required"`
		Privilege string `json:"privilege"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.svc.Add(c.Request.Context(), req.Username, req.Password, req.Privilege)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			Error(c, 40900, "Username already exists")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, user)
}

// UpdatePassword 重置用户密码
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "User ID is required")
		return
	}

	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.svc.UpdatePassword(c.Request.Context(), id, req.Password); err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

// Delete 删除用户
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "User ID is required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}
