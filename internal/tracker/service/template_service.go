package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
)

// TemplateService 模板服务：案件类型与清单条目管理，以及建案时的清单展开
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	taskRepo     *repository.TaskRepository
	now          Clock
}

// NewTemplateService 创建模板服务
func NewTemplateService(templateRepo *repository.TemplateRepository, taskRepo *repository.TaskRepository, now Clock) *TemplateService {
	if now == nil {
		now = time.Now
	}
	return &TemplateService{templateRepo: templateRepo, taskRepo: taskRepo, now: now}
}

// ListTypes 获取案件类型列表
func (s *TemplateService) ListTypes(ctx context.Context) ([]entity.TemplateType, error) {
	return s.templateRepo.ListTypes(ctx)
}

// AddType 新增案件类型，重名时静默跳过
func (s *TemplateService) AddType(ctx context.Context, name string) (*entity.TemplateType, error) {
	tt := &entity.TemplateType{
		ID:        uuid.New().String()[:32],
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.templateRepo.CreateType(ctx, tt); err != nil {
		return nil, err
	}
	return tt, nil
}

// DeleteType 删除案件类型，级联删除清单条目。已建案件的任务不受影响。
func (s *TemplateService) DeleteType(ctx context.Context, id string) error {
	return s.templateRepo.DeleteType(ctx, id)
}

// ListTasks 获取某类型的清单条目
func (s *TemplateService) ListTasks(ctx context.Context, templateTypeID string) ([]entity.TemplateTask, error) {
	return s.templateRepo.ListTasks(ctx, templateTypeID)
}

// AddTask 新增清单条目
func (s *TemplateService) AddTask(ctx context.Context, task *entity.TemplateTask) error {
	task.ID = uuid.New().String()[:32]
	if task.DefaultStatus == "" {
		task.DefaultStatus = entity.StatusNotStarted
	}
	task.CreatedAt = s.now()
	task.UpdatedAt = s.now()
	return s.templateRepo.CreateTask(ctx, task)
}

// UpdateTask 更新清单条目
func (s *TemplateService) UpdateTask(ctx context.Context, task *entity.TemplateTask) error {
	task.UpdatedAt = s.now()
	return s.templateRepo.UpdateTask(ctx, task)
}

// DeleteTask 删除清单条目
func (s *TemplateService) DeleteTask(ctx context.Context, id string) error {
	return s.templateRepo.DeleteTask(ctx, id)
}

// PopulateTasks 将案件类型的清单按序号展开为具体任务。
// 类型为空或清单为空时不做任何事。到期日留空，等案件有了开始日期再推算。
// 非幂等：重复调用会重复建任务，只在建案时调用一次。
func (s *TemplateService) PopulateTasks(ctx context.Context, caseID, caseType string) error {
	if caseType == "" {
		return nil
	}

	templateTasks, err := s.templateRepo.ListTasksByTypeName(ctx, caseType)
	if err != nil {
		return fmt.Errorf("load template tasks: %w", err)
	}
	if len(templateTasks) == 0 {
		return nil
	}

	now := s.now()
	tasks := make([]entity.Task, 0, len(templateTasks))
	for i, tt := range templateTasks {
		tasks = append(tasks, entity.Task{
			ID:                uuid.New().String()[:32],
			CaseID:            caseID,
			Name:              tt.Name,
			Status:            tt.DefaultStatus,
			DayOffset:         tt.DayOffset,
			DocumentsRequired: tt.DocumentsRequired,
			// 保序：created_at 单调递增，读取按创建顺序排列
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
			UpdatedAt: now,
		})
	}

	return s.taskRepo.CreateBatch(ctx, tasks)
}
