package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/service"
)

// ReportHandler 报表、仪表盘与日历处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建报表处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// parseRange 解析 from/to 查询参数，缺省取最近30天
func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if s := c.Query("from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return from, to, fmt.Errorf("invalid from: %w", err)
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return from, to, fmt.Errorf("invalid to: %w", err)
		}
		to = t
	}
	if to.Before(from) {
		return from, to, fmt.Errorf("to must not be before from")
	}
	return from, to, nil
}

// AffectedCases 获取日期范围内有动静的案件
func (h *ReportHandler) AffectedCases(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	cases, err := h.svc.AffectedCases(c.Request.Context(), from, to)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": cases})
}

// AffectedTasks 获取日期范围内有动静的任务
func (h *ReportHandler) AffectedTasks(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	tasks, err := h.svc.AffectedTasks(c.Request.Context(), from, to)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": tasks})
}

// Dashboard 仪表盘：范围内案件与任务一次取回
func (h *ReportHandler) Dashboard(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	data, err := h.svc.Dashboard(c.Request.Context(), from, to)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, data)
}

// CalendarDay 获取指定日期到期的未完成任务
func (h *ReportHandler) CalendarDay(c *gin.Context) {
	s := c.Query("date")
	if s == "" {
		BadRequest(c, "date is required")
		return
	}
	date, err := time.Parse(dateLayout, s)
	if err != nil {
		BadRequest(c, "invalid date: "+err.Error())
		return
	}

	tasks, err := h.svc.TasksDueOn(c.Request.Context(), date)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": tasks})
}

// CalendarRange 获取日期范围内到期的未完成任务
func (h *ReportHandler) CalendarRange(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	tasks, err := h.svc.TasksDueBetween(c.Request.Context(), from, to)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"items": tasks})
}

// Export 导出报表为 xlsx
func (h *ReportHandler) Export(c *gin.Context) {
	from, to, err := parseRange(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	f, err := h.svc.ExportExcel(c.Request.Context(), from, to)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("report_%s_%s.xlsx", from.Format(dateLayout), to.Format(dateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(200)
	_ = f.Write(c.Writer)
}
