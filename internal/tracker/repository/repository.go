package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	User       *UserRepository
	Case       *CaseRepository
	Task       *TaskRepository
	Template   *TemplateRepository
	Remark     *RemarkRepository
	Attachment *AttachmentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Case:       NewCaseRepository(db),
		Task:       NewTaskRepository(db),
		Template:   NewTemplateRepository(db),
		Remark:     NewRemarkRepository(db),
		Attachment: NewAttachmentRepository(db),
	}
}
