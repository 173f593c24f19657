// Package user 提供用户注册、资料维护与管理员操作。
package user

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ashwinyue/fastagent/internal/config"
	"github.com/ashwinyue/fastagent/internal/model"
)

// 业务错误
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already registered")
	ErrEmailTaken       = errors.New("email already registered")
	ErrCannotDeleteSelf = errors.New("cannot delete current admin account")
)

// Repository 用户存储接口，由 repository.UserRepository 实现
type Repository interface {
	Create(user *model.User) error
	GetByID(id uint) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	Delete(id uint) error
	List(offset, limit int) ([]*model.User, error)
}

// Service 用户服务
type Service struct {
	repo Repository
}

// NewService 创建用户服务
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register 注册新用户
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*model.User, error) {
	if _, err := s.repo.GetByUsername(req.Username); err == nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.repo.GetByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Get 获取用户
func (s *Service) Get(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List 列出用户（管理员）
func (s *Service) List(ctx context.Context, skip, limit int) ([]*model.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	users, err := s.repo.List(skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateRequest 更新用户请求。指针字段缺省表示不修改。
type UpdateRequest struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6"`
	IsActive *bool   `json:"is_active"`
	IsAdmin  *bool   `json:"is_admin"`
}

// Update 更新用户资料。allowAdminFields 为 false 时忽略 is_admin（普通用户
// 不能修改自己的管理员状态）。
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest, allowAdminFields bool) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		if _, err := s.repo.GetByUsername(*req.Username); err == nil {
			return nil, ErrUsernameTaken
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.GetByEmail(*req.Email); err == nil {
			return nil, ErrEmailTaken
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsAdmin != nil && allowAdminFields {
		user.IsAdmin = *req.IsAdmin
	}

	if err := s.repo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Delete 删除用户（管理员）。不能删除当前登录的管理员账户。
func (s *Service) Delete(ctx context.Context, id, currentUserID uint) error {
	if id == currentUserID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// EnsureInitialAdmin 启动时创建初始管理员账户（已存在则跳过）
func (s *Service) EnsureInitialAdmin(ctx context.Context, cfg *config.Config) error {
	if _, err := s.repo.GetByUsername(cfg.Admin.Username); err == nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &model.User{
		Username:     cfg.Admin.Username,
		Email:        cfg.Admin.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := s.repo.Create(admin); err != nil {
		return fmt.Errorf("failed to create initial admin: %w", err)
	}

	log.Printf("创建初始管理员账户: %s", admin.Username)
	return nil
}
