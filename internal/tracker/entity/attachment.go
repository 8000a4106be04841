package entity

import (
	"time"
)

// Attachment 任务附件，stored_filename 为系统生成的对象名，与原始文件名解耦
type Attachment struct {
	ID               string    `json:"id" gorm:"primaryKey;size:32"`
	TaskID           string    `json:"task_id" gorm:"size:32;not null;index"`
	OriginalFilename string    `json:"original_filename" gorm:"size:256;not null"`
	StoredFilename   string    `json:"stored_filename" gorm:"size:256;not null"`
	UploadedBy       string    `json:"uploaded_by" gorm:"size:64"`
	UploadedAt       time.Time `json:"uploaded_at" gorm:"column:upload_timestamp"`
}

func (Attachment) TableName() string {
	return "task_attachments"
}
