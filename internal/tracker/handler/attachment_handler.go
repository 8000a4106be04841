package handler

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/config"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// AttachmentHandler 附件处理器
type AttachmentHandler struct {
	svc *service.AttachmentService
	cfg *config.Config
}

// NewAttachmentHandler 创建附件处理器
func NewAttachmentHandler(svc *service.AttachmentService, cfg *config.Config) *AttachmentHandler {
	return &AttachmentHandler{svc: svc, cfg: cfg}
}

// Upload 上传任务附件（multipart 表单字段 file）
func (h *AttachmentHandler) Upload(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		BadRequest(c, "Task ID is required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "File is required: "+err.Error())
		return
	}

	maxSize := int64(h.cfg.Upload.MaxSizeMB) << 20
	if fileHeader.Size > maxSize {
		BadRequest(c, fmt.Sprintf("File too large, max %dMB", h.cfg.Upload.MaxSizeMB))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	att, err := h.svc.Upload(c.Request.Context(), taskID, fileHeader.Filename, GetUserName(c), f, fileHeader.Size, contentType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Task not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, att)
}

// List 获取任务附件列表（新到旧）
func (h *AttachmentHandler) List(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		BadRequest(c, "Task ID is required")
		return
	}

	items, err := h.svc.List(c.Request.Context(), taskID)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": items})
}

// Download 下载附件，以原始文件名回传
func (h *AttachmentHandler) Download(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Attachment ID is required")
		return
	}

	att, reader, err := h.svc.Download(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Attachment not found")
			return
		}
		InternalError(c, err.Error())
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(att.OriginalFilename)))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(200)
	_, _ = io.Copy(c.Writer, reader)
}

// Delete 删除附件记录及对象
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Attachment ID is required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "Attachment not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}
