package repository

import (
	"context"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"gorm.io/gorm"
)

// RemarkRepository 案件备注仓库
type RemarkRepository struct {
	db *gorm.DB
}

// NewRemarkRepository 创建备注仓库
func NewRemarkRepository(db *gorm.DB) *RemarkRepository {
	return &RemarkRepository{db: db}
}

// Create 追加备注
func (r *RemarkRepository) Create(ctx context.Context, remark *entity.Remark) error {
	return r.db.WithContext(ctx).Create(remark).Error
}

// ListByCase 获取案件备注，最新的在前
func (r *RemarkRepository) ListByCase(ctx context.Context, caseID string) ([]entity.Remark, error) {
	var remarks []entity.Remark
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&remarks).Error
	return remarks, err
}
