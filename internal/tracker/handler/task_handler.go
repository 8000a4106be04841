package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/middleware"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// TaskHandler 任务处理器
type TaskHandler struct {
	svc *service.TaskService
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// ListForCase 获取案件任务清单（带表现标签与附件数）
func (h *TaskHandler) ListForCase(c *gin.Context) {
	caseID := c.Param("id")
	if caseID == "" {
		BadRequest(c, "Case ID is required")
		return
	}

	tasks, err := h.svc.ListForCase(c.Request.Context(), caseID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": tasks})
}

// Get 获取任务详情
func (h *TaskHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Task ID is required")
		return
	}

	task, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Task not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, task)
}

// Update 编辑任务。非管理员提交的到期日在此丢弃后写库，
// 因此非管理员每次保存都会清掉该任务的显式到期日。
func (h *TaskHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Task ID is required")
		return
	}

	var req struct {
		Name          string `json:"name" binding:"required"`
		Status        string `json:"status" binding:"required"`
		StartDate     string `json:"start_date"`
		CompletedDate string `json:"completed_date"`
		DueDate       string `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		BadRequest(c, "Invalid start_date: "+err.Error())
		return
	}
	completedDate, err := parseDate(req.CompletedDate)
	if err != nil {
		BadRequest(c, "Invalid completed_date: "+err.Error())
		return
	}

	input := &service.UpdateTaskInput{
		TaskID:        id,
		Name:          req.Name,
		Status:        req.Status,
		StartDate:     startDate,
		CompletedDate: completedDate,
		UpdatedBy:     GetUserName(c),
	}

	if middleware.IsAdmin(c) {
		dueDate, err := parseDate(req.DueDate)
		if err != nil {
			BadRequest(c, "Invalid due_date: "+err.Error())
			return
		}
		input.DueDate = dueDate
	}

	result, err := h.svc.UpdateDetails(c.Request.Context(), input)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}
