package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// CaseHandler 案件处理器
type CaseHandler struct {
	svc *service.CaseService
}

// NewCaseHandler 创建案件处理器
func NewCaseHandler(svc *service.CaseService) *CaseHandler {
	return &CaseHandler{svc: svc}
}

// List 获取案件列表（含到期日/逾期数/表现标签）
func (h *CaseHandler) List(c *gin.Context) {
	cases, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, gin.H{"items": cases})
}

// Get 获取案件详情
func (h *CaseHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Case ID is required")
		return
	}

	kase, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Case not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, kase)
}

// Create 建案，按案件类型展开清单任务
func (h *CaseHandler) Create(c *gin.Context) {
	var req service.CreateCaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kase, err := h.svc.Create(c.Request.Context(), &req, GetUserName(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, kase)
}

// Update 编辑案件名称/状态/类型，仅管理员
func (h *CaseHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Case ID is required")
		return
	}

	var req service.UpdateCaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kase, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Case not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, kase)
}

// Delete 删除案件及其任务/附件/备注，仅管理员
func (h *CaseHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Case ID is required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

// UpdateStatus 单独修改案件状态，首次推进到 In Progress 会落开始日期并回算到期日
func (h *CaseHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Case ID is required")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Case not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

// AddRemark 新增案件备注
func (h *CaseHandler) AddRemark(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Case ID is required")
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	remark, err := h.svc.AddRemark(c.Request.Context(), id, GetUserName(c), req.Message)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Case not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, remark)
}

// ListRemarks 获取案件备注（新到旧）
func (h *CaseHandler) ListRemarks(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Case ID is required")
		return
	}

	remarks, err := h.svc.ListRemarks(c.Request.Context(), id)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": remarks})
}
