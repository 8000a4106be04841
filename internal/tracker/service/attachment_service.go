package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"go.uber.org/zap"
)

// AttachmentService 附件服务：对象存到MinIO，存储名与原始文件名解耦
type AttachmentService struct {
	attRepo     *repository.AttachmentRepository
	taskRepo    *repository.TaskRepository
	minioClient *minio.Client
	bucketName  string
	logger      *zap.Logger
	now         Clock
}

// NewAttachmentService 创建附件服务
func NewAttachmentService(
	attRepo *repository.AttachmentRepository,
	taskRepo *repository.TaskRepository,
	minioClient *minio.Client,
	bucketName string,
	logger *zap.Logger,
	now Clock,
) *AttachmentService {
	if now == nil {
		now = time.Now
	}
	return &AttachmentService{
		attRepo:     attRepo,
		taskRepo:    taskRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
		logger:      logger,
		now:         now,
	}
}

// Upload 上传附件并登记记录
func (s *AttachmentService) Upload(ctx context.Context, taskID, originalFilename, uploadedBy string, reader io.Reader, size int64, contentType string) (*entity.Attachment, error) {
	if _, err := s.taskRepo.FindByID(ctx, taskID); err != nil {
		return nil, err
	}

	id := uuid.New().String()[:32]
	storedName := fmt.Sprintf("attachments/%s%s", id, filepath.Ext(originalFilename))

	_, err := s.minioClient.PutObject(ctx, s.bucketName, storedName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	att := &entity.Attachment{
		ID:               id,
		TaskID:           taskID,
		OriginalFilename: originalFilename,
		StoredFilename:   storedName,
		UploadedBy:       uploadedBy,
		UploadedAt:       s.now(),
	}
	if err := s.attRepo.Create(ctx, att); err != nil {
		return nil, err
	}
	return att, nil
}

// List 获取任务附件列表
func (s *AttachmentService) List(ctx context.Context, taskID string) ([]entity.Attachment, error) {
	return s.attRepo.ListByTask(ctx, taskID)
}

// Download 读取附件对象流
func (s *AttachmentService) Download(ctx context.Context, id string) (*entity.Attachment, io.ReadCloser, error) {
	att, err := s.attRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	obj, err := s.minioClient.GetObject(ctx, s.bucketName, att.StoredFilename, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get attachment object: %w", err)
	}
	return att, obj, nil
}

// Delete 删除附件。对象删除是尽力而为：失败只记警告，记录照常删除。
func (s *AttachmentService) Delete(ctx context.Context, id string) error {
	att, err := s.attRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.minioClient.RemoveObject(ctx, s.bucketName, att.StoredFilename, minio.RemoveObjectOptions{})
	if err != nil {
		s.logger.Warn("remove attachment object failed, deleting record anyway",
			zap.String("attachment_id", att.ID),
			zap.String("stored_filename", att.StoredFilename),
			zap.Error(err),
		)
	}

	return s.attRepo.Delete(ctx, id)
}
