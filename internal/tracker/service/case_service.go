package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
)

// CaseService 案件服务：增删改查、状态切换与自动完结
type CaseService struct {
	caseRepo    *repository.CaseRepository
	taskRepo    *repository.TaskRepository
	remarkRepo  *repository.RemarkRepository
	templateSvc *TemplateService
	schedule    *ScheduleService
	now         Clock
}

// NewCaseService 创建案件服务
func NewCaseService(
	caseRepo *repository.CaseRepository,
	taskRepo *repository.TaskRepository,
	remarkRepo *repository.RemarkRepository,
	templateSvc *TemplateService,
	schedule *ScheduleService,
	now Clock,
) *CaseService {
	if now == nil {
		now = time.Now
	}
	return &CaseService{
		caseRepo:    caseRepo,
		taskRepo:    taskRepo,
		remarkRepo:  remarkRepo,
		templateSvc: templateSvc,
		schedule:    schedule,
		now:         now,
	}
}

// CreateCaseInput 建案输入
type CreateCaseInput struct {
	Name     string `json:"name" binding:"required"`
	Status   string `json:"status"`
	CaseType string `json:"case_type"`
}

// Create 建案并按案件类型展开清单任务
func (s *CaseService) Create(ctx context.Context, input *CreateCaseInput, createdBy string) (*entity.Case, error) {
	status := input.Status
	if status == "" {
		status = entity.StatusNotStarted
	}

	c := &entity.Case{
		ID:        uuid.New().String()[:32],
		Name:      input.Name,
		Status:    status,
		CaseType:  input.CaseType,
		CreatedBy: createdBy,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	// 类型只在建案时用一次，之后模板改动不回溯已建案件
	if err := s.templateSvc.PopulateTasks(ctx, c.ID, input.CaseType); err != nil {
		return nil, fmt.Errorf("populate tasks: %w", err)
	}

	return c, nil
}

// List 获取案件列表，带到期日、逾期任务数和考核标签
func (s *CaseService) List(ctx context.Context) ([]entity.Case, error) {
	cases, err := s.caseRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, cases)
}

// Get 获取单个案件，带聚合值和考核标签
func (s *CaseService) Get(ctx context.Context, id string) (*entity.Case, error) {
	c, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	decorated, err := s.decorate(ctx, []entity.Case{*c})
	if err != nil {
		return nil, err
	}
	return &decorated[0], nil
}

// UpdateCaseInput 案件编辑输入
type UpdateCaseInput struct {
	Name     string `json:"name" binding:"required"`
	Status   string `json:"status" binding:"required"`
	CaseType string `json:"case_type"`
}

// Update 直接编辑案件的名称/状态/类型。管理员显式编辑不触发自动逻辑。
func (s *CaseService) Update(ctx context.Context, id string, input *UpdateCaseInput) (*entity.Case, error) {
	c, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = input.Name
	c.Status = input.Status
	c.CaseType = input.CaseType
	if err := s.caseRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete 删除案件，级联删除任务、备注与附件记录
func (s *CaseService) Delete(ctx context.Context, id string) error {
	if _, err := s.caseRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.caseRepo.Delete(ctx, id)
}

// UpdateStatus 切换案件状态。首次进入 In Progress 时一并写入开始日期并按偏移
// 推算全部任务到期日；任何路径最后都回算一次案件日期。
func (s *CaseService) UpdateStatus(ctx context.Context, id, status string) error {
	c, err := s.caseRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	today := dateOf(s.now())
	if status == entity.StatusInProgress && c.StartDate == nil {
		err = s.caseRepo.DB().WithContext(ctx).Model(&entity.Case{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     status,
				"start_date": today,
			}).Error
		if err != nil {
			return err
		}
		if err := s.schedule.RecalcDueDates(ctx, id, today); err != nil {
			return err
		}
	} else {
		err = s.caseRepo.DB().WithContext(ctx).Model(&entity.Case{}).
			Where("id = ?", id).
			Update("status", status).Error
		if err != nil {
			return err
		}
	}

	return s.schedule.UpdateCaseDates(ctx, id)
}

// CheckAndComplete 所有任务完成时将案件置为 Completed 并回算日期。
// 每次任务编辑后被动触发，返回是否发生了自动完结。
func (s *CaseService) CheckAndComplete(ctx context.Context, id string) (bool, error) {
	incomplete, err := s.taskRepo.CountIncomplete(ctx, id)
	if err != nil {
		return false, err
	}
	if incomplete != 0 {
		return false, nil
	}

	err = s.caseRepo.DB().WithContext(ctx).Model(&entity.Case{}).
		Where("id = ?", id).
		Update("status", entity.StatusCompleted).Error
	if err != nil {
		return false, err
	}
	if err := s.schedule.UpdateCaseDates(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// AddRemark 追加案件备注
func (s *CaseService) AddRemark(ctx context.Context, caseID, userName, message string) (*entity.Remark, error) {
	if _, err := s.caseRepo.FindByID(ctx, caseID); err != nil {
		return nil, err
	}
	remark := &entity.Remark{
		ID:        uuid.New().String()[:32],
		CaseID:    caseID,
		UserName:  userName,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.remarkRepo.Create(ctx, remark); err != nil {
		return nil, err
	}
	return remark, nil
}

// ListRemarks 获取案件备注，最新在前
func (s *CaseService) ListRemarks(ctx context.Context, caseID string) ([]entity.Remark, error) {
	return s.remarkRepo.ListByCase(ctx, caseID)
}

// decorate 补齐案件的聚合值与考核标签
func (s *CaseService) decorate(ctx context.Context, cases []entity.Case) ([]entity.Case, error) {
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
