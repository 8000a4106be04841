package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/phangsc88/legal-case-tracker/internal/config"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Auth       *AuthService
	User       *UserService
	Template   *TemplateService
	Schedule   *ScheduleService
	Case       *CaseService
	Task       *TaskService
	Report     *ReportService
	Attachment *AttachmentService
}

// NewServices 创建服务集合。now 为空时用系统时钟。
func NewServices(
	repos *repository.Repositories,
	rdb *redis.Client,
	minioClient *minio.Client,
	cfg *config.Config,
	logger *zap.Logger,
	now Clock,
) *Services {
	schedule := NewScheduleService(repos.Case, repos.Task, now)
	templateSvc := NewTemplateService(repos.Template, repos.Task, now)
	caseSvc := NewCaseService(repos.Case, repos.Task, repos.Remark, templateSvc, schedule, now)
	taskSvc := NewTaskService(repos.Task, repos.Case, repos.Attachment, caseSvc, schedule, now)

	return &Services{
		Auth:       NewAuthService(repos.User, rdb, cfg),
		User:       NewUserService(repos.User, now),
		Template:   templateSvc,
		Schedule:   schedule,
		Case:       caseSvc,
		Task:       taskSvc,
		Report:     NewReportService(repos.Case, repos.Task, now),
		Attachment: NewAttachmentService(repos.Attachment, repos.Task, minioClient, cfg.MinIO.Bucket, logger, now),
	}
}
