package entity

import (
	"time"
)

// TemplateType 案件类型（清单模板）
type TemplateType struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"column:type_name;size:128;not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`

	// 关联
	Tasks []TemplateTask `json:"tasks,omitempty" gorm:"foreignKey:TemplateTypeID"`
}

func (TemplateType) TableName() string {
	return "template_types"
}

// TemplateTask 模板任务（清单条目）
type TemplateTask struct {
	ID                string    `json:"id" gorm:"primaryKey;size:32"`
	TemplateTypeID    string    `json:"template_type_id" gorm:"size:32;not null;index"`
	Sequence          int       `json:"sequence" gorm:"column:task_sequence;not null;default:0"`
	Name              string    `json:"name" gorm:"column:task_name;size:256;not null"`
	DefaultStatus     string    `json:"default_status" gorm:"size:32;not null;default:'Not Started'"`
	DayOffset         *int      `json:"day_offset"`
	DocumentsRequired string    `json:"documents_required" gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (TemplateTask) TableName() string {
	return "task_templates"
}
