package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/entity"
	"github.com/phangsc88/legal-case-tracker/internal/tracker/repository"
	"golang.org/x/crypto/bcrypt"
)

// ErrUsernameTaken 用户名已存在
var ErrUsernameTaken = errors.New("username already exists")

// UserService 用户管理服务
type UserService struct {
	userRepo *repository.UserRepository
	now      Clock
}

// NewUserService 创建用户管理服务
func NewUserService(userRepo *repository.UserRepository, now Clock) *UserService {
	if now == nil {
		now = time.Now
	}
	return &UserService{userRepo: userRepo, now: now}
}

// Add 新增用户，密码存bcrypt哈希，重名拒绝
func (s *UserService) Add(ctx context.Context, username, password, privilege string) (*entity.User, error) {
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if privilege != entity.PrivilegeAdmin {
		privilege = entity.PrivilegeUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     username,
		PasswordHash: string(hash),
		Privilege:    privilege,
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// List 获取全部用户
func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	return s.userRepo.List(ctx)
}

// UpdatePassword 管理员重置用户密码
func (s *UserService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hash))
}

// Delete 删除用户
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}
