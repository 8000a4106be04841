package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// TemplateHandler 清单模板处理器
type TemplateHandler struct {
	svc *service.TemplateService
}

// NewTemplateHandler 创建模板处理器
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// ListTypes 获取案件类型列表
func (h *TemplateHandler) ListTypes(c *gin.Context) {
	types, err := h.svc.ListTypes(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": types})
}

// AddType 新增案件类型，同名时幂等返回已有类型
func (h *TemplateHandler) AddType(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tt, err := h.svc.AddType(c.Request.Context(), req.Name)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, tt)
}

// DeleteType 删除案件类型及其模板任务
func (h *TemplateHandler) DeleteType(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Template type ID is required")
		return
	}

	if err := h.svc.DeleteType(c.Request.Context(), id); err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

// ListTasks 获取某类型下的模板任务（按序号）
func (h *TemplateHandler) ListTasks(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Template type ID is required")
		return
	}

	tasks, err := h.svc.ListTasks(c.Request.Context(), id)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": tasks})
}

// AddTask 新增模板任务
func (h *TemplateHandler) AddTask(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Template type ID is required")
		return
	}

	var req struct {
		Sequence          int    `json:"sequence"`
		Name              string `json:"name" binding:"required"`
		DefaultStatus     string `json:"default_status"`
		DayOffset         *int   `json:"day_offset"`
		DocumentsRequired string `json:"documents_required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	task := &entity.TemplateTask{
		TemplateTypeID:    id,
		Sequence:          req.Sequence,
		Name:              req.Name,
		DefaultStatus:     req.DefaultStatus,
		DayOffset:         req.DayOffset,
		DocumentsRequired: req.DocumentsRequired,
	}
	if err := h.svc.AddTask(c.Request.Context(), task); err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, task)
}

// UpdateTask 编辑模板任务
func (h *TemplateHandler) UpdateTask(c *gin.Context) {
	id := c.Param("taskId")
	if id == "" {
		BadRequest(c, "Template task ID is required")
		return
	}

	var req struct {
		Sequence          int    `json:"sequence"`
		Name              string `json:"name" binding:"required"`
		DefaultStatus     string `json:"default_status"`
		DayOffset         *int   `json:"day_offset"`
		DocumentsRequired string `json:"documents_required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	task := &entity.TemplateTask{
		ID:                id,
		Sequence:          req.Sequence,
		Name:              req.Name,
		DefaultStatus:     req.DefaultStatus,
		DayOffset:         req.DayOffset,
		DocumentsRequired: req.DocumentsRequired,
	}
	if err := h.svc.UpdateTask(c.Request.Context(), task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Template task not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, task)
}

// DeleteTask 删除模板任务
func (h *TemplateHandler) DeleteTask(c *gin.Context) {
	id := c.Param("taskId")
	if id == "" {
		BadRequest(c, "Template task ID is required")
		return
	}

	if err := h.svc.DeleteTask(c.Request.Context(), id); err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}
