package service

import (
	"context"
	"errors"
	"time"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
)

// TaskService 任务服务：状态切换引擎的任务侧入口
type TaskService struct {
	taskRepo *repository.TaskRepository
	caseRepo *repository.CaseRepository
	attRepo  *repository.AttachmentRepository
	caseSvc  *CaseService
	schedule *ScheduleService
	now      Clock
}

// NewTaskService 创建任务服务
func NewTaskService(
	taskRepo *repository.TaskRepository,
	caseRepo *repository.CaseRepository,
	attRepo *repository.AttachmentRepository,
	caseSvc *CaseService,
	schedule *ScheduleService,
	now Clock,
) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		taskRepo: taskRepo,
		caseRepo: caseRepo,
		attRepo:  attRepo,
		caseSvc:  caseSvc,
		schedule: schedule,
		now:      now,
	}
}

// UpdateTaskInput 任务编辑输入。DueDate 以传入值为准写库：
// 调用方（handler）已在边界处丢弃非管理员提交的到期日。
type UpdateTaskInput struct {
	TaskID        string
	Name          string
	Status        string
	StartDate     *time.Time
	CompletedDate *time.Time
	DueDate       *time.Time
	UpdatedBy     string
}

// UpdateTaskResult 任务编辑结果
type UpdateTaskResult struct {
	Status          string `json:"status"`
	CaseAutoStarted bool   `json:"case_auto_started"`
}

// UpdateDetails 编辑任务并联动案件状态。
// 提交完成日期强制状态为 Completed；提交开始日期把未完成任务推到 In Progress；
// In Progress 缺省开始日期补今天；Completed 缺省完成日期沿用旧值或今天；
// 非 Completed 状态不保留完成日期。写库后回算案件日期，案件因此首次有了
// 开始日期且仍是 Not Started 时自动推进到 In Progress，最后检测自动完结。
// 任务已不存在时按原样返回传入状态，不报错。
func (s *TaskService) UpdateDetails(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskResult, error) {
	today := dateOf(s.now())

	task, err := s.taskRepo.FindByID(ctx, input.TaskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &UpdateTaskResult{Status: input.Status}, nil
		}
		return nil, err
	}
	caseID := task.CaseID

	finalStatus := input.Status
	if input.CompletedDate != nil {
		finalStatus = entity.StatusCompleted
	} else if input.StartDate != nil && finalStatus != entity.StatusCompleted {
		finalStatus = entity.StatusInProgress
	}

	startDate := input.StartDate
	if startDate == nil && finalStatus == entity.StatusInProgress {
		startDate = &today
	}

	completedDate := input.CompletedDate
	if finalStatus == entity.StatusCompleted && completedDate == nil {
		completedDate = task.CompletedDate
		if completedDate == nil {
			completedDate = &today
		}
	}
	if finalStatus != entity.StatusCompleted {
		completedDate = nil
	}

	nowTime := s.now()
	err = s.taskRepo.DB().WithContext(ctx).Model(&entity.Task{}).
		Where("id = ?", input.TaskID).
		Updates(map[string]interface{}{
			"task_name":           input.Name,
			"status":              finalStatus,
			"task_start_date":     startDate,
			"task_completed_date": completedDate,
			"due_date":            input.DueDate,
			"last_updated_by":     input.UpdatedBy,
			"last_updated_at":     nowTime,
		}).Error
	if err != nil {
		return nil, err
	}

	if err := s.schedule.UpdateCaseDates(ctx, caseID); err != nil {
		return nil, err
	}

	caseAutoStarted := false
	c, err := s.caseRepo.FindByID(ctx, caseID)
	if err == nil && c.Status == entity.StatusNotStarted && c.StartDate != nil {
		if err := s.caseSvc.UpdateStatus(ctx, caseID, entity.StatusInProgress); err != nil {
			return nil, err
		}
		caseAutoStarted = true
	}

	if _, err := s.caseSvc.CheckAndComplete(ctx, caseID); err != nil {
		return nil, err
	}

	final, err := s.taskRepo.FindByID(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	return &UpdateTaskResult{Status: final.Status, CaseAutoStarted: caseAutoStarted}, nil
}

// ListForCase 获取案件任务列表，带考核标签、到期日显示和附件数
func (s *TaskService) ListForCase(ctx context.Context, caseID string) ([]entity.Task, error) {
	tasks, err := s.taskRepo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	counts, err := s.attRepo.CountByTask(ctx, ids)
	if err != nil {
		return nil, err
	}

	today := s.now()
	for i := range tasks {
		tasks[i].Performance = TaskPerformance(tasks[i].Status, tasks[i].DueDate, tasks[i].CompletedDate, today)
		tasks[i].DueDateDisplay = DueDateDisplay(tasks[i].DueDate, tasks[i].DayOffset)
		tasks[i].Attachments = counts[tasks[i].ID]
	}
	return tasks, nil
}

// Get 获取单个任务，带考核标签
func (s *TaskService) Get(ctx context.Context, id string) (*entity.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Performance = TaskPerformance(task.Status, task.DueDate, task.CompletedDate, s.now())
	task.DueDateDisplay = DueDateDisplay(task.DueDate, task.DayOffset)
	return task, nil
}
