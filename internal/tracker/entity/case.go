package entity

import (
	"time"
)

// Case 案件实体
type Case struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	Name          string     `json:"name" gorm:"column:case_name;size:256;not null"`
	Status        string     `json:"status" gorm:"size:32;not null;default:'Not Started'"`
	CaseType      string     `json:"case_type" gorm:"size:128"`
	StartDate     *time.Time `json:"start_date" gorm:"type:date"`
	CompletedDate *time.Time `json:"completed_date" gorm:"type:date"`
	CreatedBy     string     `json:"created_by" gorm:"size:64"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// 读取时计算，不落库
	DueDate      *time.Time `json:"due_date,omitempty" gorm:"-"`
	OverdueTasks int64      `json:"overdue_tasks" gorm:"-"`
	Performance  string     `json:"performance,omitempty" gorm:"-"`

	// 关联
	Tasks   []Task   `json:"tasks,omitempty" gorm:"foreignKey:CaseID"`
	Remarks []Remark `json:"remarks,omitempty" gorm:"foreignKey:CaseID"`
}

func (Case) TableName() string {
	return "cases"
}

// Task 任务实体
type Task struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	CaseID            string     `json:"case_id" gorm:"size:32;not null;index"`
	Name              string     `json:"name" gorm:"column:task_name;size:256;not null"`
	Status            string     `json:"status" gorm:"size:32;not null;default:'Not Started'"`
	DayOffset         *int       `json:"day_offset"`
	DueDate           *time.Time `json:"due_date" gorm:"type:date"`
	StartDate         *time.Time `json:"start_date" gorm:"column:task_start_date;type:date"`
	CompletedDate     *time.Time `json:"completed_date" gorm:"column:task_completed_date;type:date"`
	DocumentsRequired string     `json:"documents_required" gorm:"type:text"`
	LastUpdatedBy     string     `json:"last_updated_by" gorm:"size:64"`
	LastUpdatedAt     *time.Time `json:"last_updated_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// 读取时计算，不落库
	Performance    string `json:"performance,omitempty" gorm:"-"`
	DueDateDisplay string `json:"due_date_display,omitempty" gorm:"-"`
	Attachments    int64  `json:"attachments" gorm:"-"`
}

func (Task) TableName() string {
	return "tasks"
}

// Remark 案件备注（追加写入，不可修改）
type Remark struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	CaseID    string    `json:"case_id" gorm:"size:32;not null;index"`
	UserName  string    `json:"user_name" gorm:"size:64"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Remark) TableName() string {
	return "case_remarks"
}

// CaseStatus 案件/任务状态
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusOnHold     = "On Hold"
	StatusCompleted  = "Completed"
)

// Performance 考核标签
const (
	PerfCompletedOnTime = "Completed On Time"
	PerfCompletedLate   = "Completed Late"
	PerfOnTime          = "On Time"
	PerfOverdue         = "Overdue"
	PerfPending         = "Pending"
)
