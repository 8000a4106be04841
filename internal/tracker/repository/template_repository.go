package repository

import (
	"context"
	"errors"

	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateRepository 模板仓库
type TemplateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建模板仓库
func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// ListTypes 获取全部案件类型，按名称排序
func (r *TemplateRepository) ListTypes(ctx context.Context) ([]entity.TemplateType, error) {
	var types []entity.TemplateType
	err := r.db.WithContext(ctx).Order("type_name ASC").Find(&types).Error
	return types, err
}

// FindTypeByID 根据ID查找案件类型
func (r *TemplateRepository) FindTypeByID(ctx context.Context, id string) (*entity.TemplateType, error) {
	var tt entity.TemplateType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tt, nil
}

// CreateType 创建案件类型，重名时静默跳过
func (r *TemplateRepository) CreateType(ctx context.Context, tt *entity.TemplateType) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "type_name"}},
			DoNothing: true,
		}).
		Create(tt).Error
}

// DeleteType 删除案件类型，级联删除其模板任务
func (r *TemplateRepository) DeleteType(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_type_id = ?", id).Delete(&entity.TemplateTask{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entity.TemplateType{}).Error
	})
}

// ListTasks 获取模板任务清单，按序号排序
func (r *TemplateRepository) ListTasks(ctx context.Context, templateTypeID string) ([]entity.TemplateTask, error) {
	var tasks []entity.TemplateTask
	err := r.db.WithContext(ctx).
		Where("template_type_id = ?", templateTypeID).
		Order("task_sequence ASC").
		Find(&tasks).Error
	return tasks, err
}

// ListTasksByTypeName 按类型名称获取模板任务清单，按序号排序
func (r *TemplateRepository) ListTasksByTypeName(ctx context.Context, typeName string) ([]entity.TemplateTask, error) {
	var tasks []entity.TemplateTask
	err := r.db.WithContext(ctx).Model(&entity.TemplateTask{}).
		Joins("JOIN template_types ON task_templates.template_type_id = template_types.id").
		Where("template_types.type_name = ?", typeName).
		Order("task_templates.task_sequence ASC").
		Find(&tasks).Error
	return tasks, err
}

// CreateTask 创建模板任务
func (r *TemplateRepository) CreateTask(ctx context.Context, task *entity.TemplateTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// UpdateTask 更新模板任务的序号、名称、默认状态、偏移和所需文件，所属类型不变
func (r *TemplateRepository) UpdateTask(ctx context.Context, task *entity.TemplateTask) error {
	result := r.db.WithContext(ctx).Model(&entity.TemplateTask{}).
		Where("id = ?", task.ID).
		Updates(map[string]interface{}{
			"task_sequence":      task.Sequence,
			"task_name":          task.Name,
			"default_status":     task.DefaultStatus,
			"day_offset":         task.DayOffset,
			"documents_required": task.DocumentsRequired,
			"updated_at":         task.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTask 删除模板任务
func (r *TemplateRepository) DeleteTask(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.TemplateTask{}).Error
}
