package repository

import (
	"context"
	"errors"
	"time"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"gorm.io/gorm"
)

// CaseRepository 案件仓库
type CaseRepository struct {
	db *gorm.DB
}

// NewCaseRepository 创建案件仓库
func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

// DB 返回底层连接，供跨仓库事务使用
func (r *CaseRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 根据ID查找案件
func (r *CaseRepository) FindByID(ctx context.Context, id string) (*entity.Case, error) {
	var c entity.Case
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create 创建案件
func (r *CaseRepository) Create(ctx context.Context, c *entity.Case) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Update 更新案件基本信息
func (r *CaseRepository) Update(ctx context.Context, c *entity.Case) error {
	return r.db.WithContext(ctx).Model(&entity.Case{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"case_name":  c.Name,
			"status":     c.Status,
			"case_type":  c.CaseType,
			"updated_at": time.Now(),
		}).Error
}

// Delete 删除案件，级联删除任务、备注和附件记录
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_attachments WHERE task_id IN (SELECT id FROM tasks WHERE case_id = ?)", id).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", id).Delete(&entity.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", id).Delete(&entity.Remark{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.Case{}).Error
	})
}

// List 获取全部案件，按创建顺序
func (r *CaseRepository) List(ctx context.Context) ([]entity.Case, error) {
	var cases []entity.Case
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&cases).Error
	return cases, err
}

// ListAffected 获取日期区间内活跃的案件：区间内开始、区间内完结、或跨越整个区间
func (r *CaseRepository) ListAffected(ctx context.Context, from, to time.Time) ([]entity.Case, error) {
	var cases []entity.Case
	err := r.db.WithContext(ctx).
		Where("start_date BETWEEN ? AND ?", from, to).
		Or("completed_date BETWEEN ? AND ?", from, to).
		Or("start_date < ? AND (completed_date > ? OR completed_date IS NULL)", from, to).
		Order("created_at ASC, id ASC").
		Find(&cases).Error
	return cases, err
}

// ListDashboard 获取看板窗口内的案件：未开始/搁置的全部，加上窗口内活跃的
func (r *CaseRepository) ListDashboard(ctx context.Context, from, to time.Time) ([]entity.Case, error) {
	var cases []entity.Case
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{entity.StatusNotStarted, entity.StatusOnHold}).
		Or("start_date <= ? AND (completed_date >= ? OR completed_date IS NULL)", to, from).
		Order("created_at ASC, id ASC").
		Find(&cases).Error
	return cases, err
}

// CaseStats 案件的任务聚合值
type CaseStats struct {
	CaseID       string
	DueDate      *time.Time
	OverdueTasks int64
}

// TaskStats 按案件聚合任务的到期日和逾期数，today 为逾期判断基准
func (r *CaseRepository) TaskStats(ctx context.Context, caseIDs []string, today time.Time) (map[string]CaseStats, error) {
	stats := make(map[string]CaseStats)
	if len(caseIDs) == 0 {
		return stats, nil
	}

	var dueRows []struct {
		CaseID  string
		DueDate *time.Time
	}
	err := r.db.WithContext(ctx).Model(&entity.Task{}).
		Select("case_id, MAX(due_date) AS due_date").
		Where("case_id IN ?", caseIDs).
		Group("case_id").
		Scan(&dueRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range dueRows {
		stats[row.CaseID] = CaseStats{CaseID: row.CaseID, DueDate: row.DueDate}
	}

	var overdueRows []struct {
		CaseID string
		Count  int64
	}
	err = r.db.WithContext(ctx).Model(&entity.Task{}).
		Select("case_id, COUNT(*) AS count").
		Where("case_id IN ? AND due_date < ? AND status != ?", caseIDs, today, entity.StatusCompleted).
		Group("case_id").
		Scan(&overdueRows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range overdueRows {
		s := stats[row.CaseID]
		s.CaseID = row.CaseID
		s.OverdueTasks = row.Count
		stats[row.CaseID] = s
	}

	return stats, nil
}
