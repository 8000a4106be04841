package service

import (
	"context"
	"fmt"
	"time"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"gorm.io/gorm"
)

// ScheduleService 日期推算引擎：任务状态/日期变化后回算案件的开始和完成日期
type ScheduleService struct {
	caseRepo *repository.CaseRepository
	taskRepo *repository.TaskRepository
	now      Clock
}

// NewScheduleService 创建日期推算引擎
func NewScheduleService(caseRepo *repository.CaseRepository, taskRepo *repository.TaskRepository, now Clock) *ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{caseRepo: caseRepo, taskRepo: taskRepo, now: now}
}

// UpdateCaseDates 从当前任务状态回算案件日期：
// 案件开始日期取进行中/已完成任务的最早开始日；开始日期变化时所有带偏移的任务按
// 新开始日重算到期日（显式到期日同样被覆盖）；未完成任务数为零时案件完成日期取
// 任务最晚完成日（缺省为今天），否则清空。整个序列在一个事务内完成。
func (s *ScheduleService) UpdateCaseDates(ctx context.Context, caseID string) error {
	today := dateOf(s.now())

	return s.caseRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c entity.Case
		if err := tx.Where("id = ?", caseID).First(&c).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}

		var minStart struct {
			MinDate *time.Time
		}
		err := tx.Model(&entity.Task{}).
			Select("MIN(task_start_date) AS min_date").
			Where("case_id = ? AND status IN ?", caseID, []string{entity.StatusInProgress, entity.StatusCompleted}).
			Scan(&minStart).Error
		if err != nil {
			return err
		}

		newStart := c.StartDate
		if minStart.MinDate != nil {
			newStart = minStart.MinDate
		}

		if newStart != nil && !sameDate(newStart, c.StartDate) {
			if err := recalcDueDates(tx, caseID, *newStart); err != nil {
				return err
			}
		}

		var incomplete int64
		err = tx.Model(&entity.Task{}).
			Where("case_id = ? AND status != ?", caseID, entity.StatusCompleted).
			Count(&incomplete).Error
		if err != nil {
			return err
		}

		var newCompleted *time.Time
		if incomplete == 0 {
			var maxCompleted struct {
				MaxDate *time.Time
			}
			err = tx.Model(&entity.Task{}).
				Select("MAX(task_completed_date) AS max_date").
				Where("case_id = ? AND status = ?", caseID, entity.StatusCompleted).
				Scan(&maxCompleted).Error
			if err != nil {
				return err
			}
			newCompleted = maxCompleted.MaxDate
			if newCompleted == nil {
				newCompleted = &today
			}
		}

		return tx.Model(&entity.Case{}).
			Where("id = ?", caseID).
			Updates(map[string]interface{}{
				"start_date":     newStart,
				"completed_date": newCompleted,
			}).Error
	})
}

// RecalcDueDates 按给定开始日期重算案件所有带偏移任务的到期日。
// 案件开始日期在任务路径之外被改写时（状态切换引擎直接调用）使用。
func (s *ScheduleService) RecalcDueDates(ctx context.Context, caseID string, start time.Time) error {
	return recalcDueDates(s.taskRepo.DB().WithContext(ctx), caseID, start)
}

// recalcDueDates 对每个 day_offset 非空的任务写入 start+offset，显式到期日一并覆盖
func recalcDueDates(tx *gorm.DB, caseID string, start time.Time) error {
	var tasks []entity.Task
	if err := tx.Where("case_id = ? AND day_offset IS NOT NULL", caseID).Find(&tasks).Error; err != nil {
		return err
	}

	start = dateOf(start)
	for _, task := range tasks {
		due := start.AddDate(0, 0, *task.DayOffset)
		err := tx.Model(&entity.Task{}).
			Where("id = ?", task.ID).
			Update("due_date", due).Error
		if err != nil {
			return fmt.Errorf("recalc due date for task %s: %w", task.ID, err)
		}
	}
	return nil
}
