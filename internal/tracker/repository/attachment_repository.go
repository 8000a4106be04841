package repository

import (
	"context"
	"errors"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"gorm.io/gorm"
)

// AttachmentRepository 任务附件仓库
type AttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository 创建附件仓库
func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// FindByID 根据ID查找附件
func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*entity.Attachment, error) {
	var att entity.Attachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&att).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &att, nil
}

// Create 创建附件记录
func (r *AttachmentRepository) Create(ctx context.Context, att *entity.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

// ListByTask 获取任务附件，最新的在前
func (r *AttachmentRepository) ListByTask(ctx context.Context, taskID string) ([]entity.Attachment, error) {
	var atts []entity.Attachment
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("upload_timestamp DESC").
		Find(&atts).Error
	return atts, err
}

// CountByTask 按任务聚合附件数量
func (r *AttachmentRepository) CountByTask(ctx context.Context, taskIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	if len(taskIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		TaskID string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&entity.Attachment{}).
		Select("task_id, COUNT(*) AS count").
		Where("task_id IN ?", taskIDs).
		Group("task_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TaskID] = row.Count
	}
	return counts, nil
}

// Delete 删除附件记录
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Attachment{}).Error
}
