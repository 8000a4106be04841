package service

import (
	"context"
	"fmt"
	"time"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/xuri/excelize/v2"
)

// ReportService 报表服务：日期区间报表、看板数据、日历查询与导出
type ReportService struct {
	caseRepo *repository.CaseRepository
	taskRepo *repository.TaskRepository
	now      Clock
}

// NewReportService 创建报表服务
func NewReportService(caseRepo *repository.CaseRepository, taskRepo *repository.TaskRepository, now Clock) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{caseRepo: caseRepo, taskRepo: taskRepo, now: now}
}

// AffectedCases 区间内活跃的案件报表，带考核标签
func (s *ReportService) AffectedCases(ctx context.Context, from, to time.Time) ([]entity.Case, error) {
	cases, err := s.caseRepo.ListAffected(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return s.decorateCases(ctx, cases)
}

// AffectedTasks 区间内到期/开始/完成的任务报表，带考核标签
func (s *ReportService) AffectedTasks(ctx context.Context, from, to time.Time) ([]entity.Task, error) {
	tasks, err := s.taskRepo.ListAffected(ctx, from, to)
	if err != nil {
		return nil, err
	}
	today := s.now()
	for i := range tasks {
		tasks[i].Performance = TaskPerformance(tasks[i].Status, tasks[i].DueDate, tasks[i].CompletedDate, today)
		tasks[i].DueDateDisplay = DueDateDisplay(tasks[i].DueDate, tasks[i].DayOffset)
	}
	return tasks, nil
}

// DashboardData 看板数据集
type DashboardData struct {
	Cases []entity.Case `json:"cases"`
	Tasks []entity.Task `json:"tasks"`
}

// Dashboard 获取看板窗口内的案件与任务数据集
func (s *ReportService) Dashboard(ctx context.Context, from, to time.Time) (*DashboardData, error) {
	cases, err := s.caseRepo.ListDashboard(ctx, from, to)
	if err != nil {
		return nil, err
	}
	cases, err = s.decorateCases(ctx, cases)
	if err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListAffected(ctx, from, to)
	if err != nil {
		return nil, err
	}
	today := s.now()
	for i := range tasks {
		tasks[i].Performance = TaskPerformance(tasks[i].Status, tasks[i].DueDate, tasks[i].CompletedDate, today)
	}

	return &DashboardData{Cases: cases, Tasks: tasks}, nil
}

// TasksDueOn 日历单日视图：当天到期且未完成的任务
func (s *ReportService) TasksDueOn(ctx context.Context, date time.Time) ([]repository.CalendarTask, error) {
	return s.taskRepo.ListDueOn(ctx, dateOf(date))
}

// TasksDueBetween 日历月视图：区间内到期的任务，带考核标签
func (s *ReportService) TasksDueBetween(ctx context.Context, from, to time.Time) ([]repository.CalendarTask, error) {
	rows, err := s.taskRepo.ListDueBetween(ctx, dateOf(from), dateOf(to))
	if err != nil {
		return nil, err
	}
	today := s.now()
	for i := range rows {
		rows[i].Performance = TaskPerformance(rows[i].Status, rows[i].DueDate, nil, today)
		if rows[i].DueDate != nil {
			rows[i].DueDateDisplay = rows[i].DueDate.Format("2006-01-02")
		}
	}
	return rows, nil
}

// ExportExcel 导出区间报表为 xlsx，Cases 和 Tasks 各一个工作表
func (s *ReportService) ExportExcel(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	cases, err := s.AffectedCases(ctx, from, to)
	if err != nil {
		return nil, err
	}
	tasks, err := s.AffectedTasks(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	const caseSheet = "Cases"
	f.SetSheetName("Sheet1", caseSheet)
	caseHeaders := []string{"Case", "Type", "Status", "Start Date", "Due Date", "Completed Date", "Performance"}
	for i, h := range caseHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(caseSheet, cell, h)
	}
	for row, c := range cases {
		values := []interface{}{
			c.Name, c.CaseType, c.Status,
			formatDate(c.StartDate), formatDate(c.DueDate), formatDate(c.CompletedDate),
			c.Performance,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(caseSheet, cell, v)
		}
	}

	const taskSheet = "Tasks"
	if _, err := f.NewSheet(taskSheet); err != nil {
		return nil, fmt.Errorf("create tasks sheet: %w", err)
	}
	taskHeaders := []string{"Task", "Status", "Due Date", "Start Date", "Completed Date", "Performance"}
	for i, h := range taskHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(taskSheet, cell, h)
	}
	for row, t := range tasks {
		values := []interface{}{
			t.Name, t.Status,
			formatDate(t.DueDate), formatDate(t.StartDate), formatDate(t.CompletedDate),
			t.Performance,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(taskSheet, cell, v)
		}
	}

	return f, nil
}

// decorateCases 补齐案件聚合值与考核标签
func (s *ReportService) decorateCases(ctx context.Context, cases []entity.Case) ([]entity.Case, error) {
	if len(cases) == 0 {
		return cases, nil
	}

	today := dateOf(s.now())
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}
	stats, err := s.caseRepo.TaskStats(ctx, ids, today)
	if err != nil {
		return nil, err
	}
	for i := range cases {
		st := stats[cases[i].ID]
		cases[i].DueDate = st.DueDate
		cases[i].OverdueTasks = st.OverdueTasks
		cases[i].Performance = CasePerformance(cases[i].Status, st.DueDate, cases[i].CompletedDate, st.OverdueTasks)
	}
	return cases, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
