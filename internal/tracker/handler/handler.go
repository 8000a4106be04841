package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/config"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Case       *CaseHandler
	Task       *TaskHandler
	Template   *TemplateHandler
	Attachment *AttachmentHandler
	Report     *ReportHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Case:       NewCaseHandler(svc.Case),
		Task:       NewTaskHandler(svc.Task),
		Template:   NewTemplateHandler(svc.Template),
		Attachment: NewAttachmentHandler(svc.Attachment, cfg),
		Report:     NewReportHandler(svc.Report),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetUserName 从上下文获取用户名
func GetUserName(c *gin.Context) string {
	name, _ := c.Get("user_name")
	if n, ok := name.(string); ok {
		return n
	}
	return ""
}

const dateLayout = "2006-01-02"

// parseDate 解析 YYYY-MM-DD 日期串，空串返回 nil
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
