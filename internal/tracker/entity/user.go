package entity

import (
	"time"
)

// User 用户实体
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Username     string    `json:"username" gorm:"size:64;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"size:256;not null"`
	Privilege    string    `json:"privilege" gorm:"size:16;not null;default:'User'"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// Privilege 用户权限级别
const (
	PrivilegeAdmin = "Admin"
	PrivilegeUser  = "User"
)

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Privilege == PrivilegeAdmin
}
