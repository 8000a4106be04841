package repository

import (
	"context"
	"errors"
	"time"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"gorm.io/gorm"
)

// TaskRepository 任务仓库
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓库
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// DB 返回底层连接
func (r *TaskRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找任务
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*entity.Task, error) {
	var task entity.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &task, nil
}

// CreateBatch 批量创建任务
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []entity.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&tasks).Error
}

// ListByCase 获取案件的任务列表，按创建顺序
func (r *TaskRepository) ListByCase(ctx context.Context, caseID string) ([]entity.Task, error) {
	var tasks []entity.Task
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at ASC, id ASC").
		Find(&tasks).Error
	return tasks, err
}

// CountIncomplete 统计案件未完成任务数
func (r *TaskRepository) CountIncomplete(ctx context.Context, caseID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Task{}).
		Where("case_id = ? AND status != ?", caseID, entity.StatusCompleted).
		Count(&count).Error
	return count, err
}

// CalendarTask 带案件信息的日历任务行
type CalendarTask struct {
	TaskID   string     `json:"task_id"`
	TaskName string     `json:"task_name"`
	Status   string     `json:"status"`
	DueDate  *time.Time `json:"due_date"`
	CaseID   string     `json:"case_id"`
	CaseName string     `json:"case_name"`

	Performance    string `json:"performance,omitempty" gorm:"-"`
	DueDateDisplay string `json:"due_date_display,omitempty" gorm:"-"`
}

// ListDueOn 获取指定日期到期且未完成的任务
func (r *TaskRepository) ListDueOn(ctx context.Context, date time.Time) ([]CalendarTask, error) {
	var rows []CalendarTask
	err := r.db.WithContext(ctx).Model(&entity.Task{}).
		Select("tasks.id AS task_id, tasks.task_name, tasks.status, tasks.due_date, cases.id AS case_id, cases.case_name").
		Joins("JOIN cases ON tasks.case_id = cases.id").
		Where("tasks.due_date = ? AND tasks.status != ?", date, entity.StatusCompleted).
		Order("cases.case_name ASC, tasks.task_name ASC").
		Scan(&rows).Error
	return rows, err
}

// ListDueBetween 获取到期日落在区间内的任务
func (r *TaskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]CalendarTask, error) {
	var rows []CalendarTask
	err := r.db.WithContext(ctx).Model(&entity.Task{}).
		Select("tasks.id AS task_id, tasks.task_name, tasks.status, tasks.due_date, cases.id AS case_id, cases.case_name").
		Joins("JOIN cases ON tasks.case_id = cases.id").
		Where("tasks.due_date BETWEEN ? AND ?", from, to).
		Order("tasks.due_date ASC, cases.case_name ASC, tasks.task_name ASC").
		Scan(&rows).Error
	return rows, err
}

// ListAffected 获取日期区间内到期、开始或完成的任务
func (r *TaskRepository) ListAffected(ctx context.Context, from, to time.Time) ([]entity.Task, error) {
	var tasks []entity.Task
	err := r.db.WithContext(ctx).
		Where("due_date BETWEEN ? AND ?", from, to).
		Or("task_start_date BETWEEN ? AND ?", from, to).
		Or("task_completed_date BETWEEN ? AND ?", from, to).
		Order("due_date ASC").
		Find(&tasks).Error
	return tasks, err
}
