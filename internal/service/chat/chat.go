// Package chat 提供会话与消息的业务逻辑。
// 所有操作都限定在当前用户的数据内，非本人的会话一律视同不存在。
package chat

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ashwinyue/fastagent/internal/model"
)

// 默认会话标题
const DefaultSessionTitle = "新会话"

// 业务错误
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Repository 聊天存储接口，由 repository.ChatRepository 实现
type Repository interface {
	CreateSession(session *model.ChatSession) error
	GetSession(id, userID uint) (*model.ChatSession, error)
	ListSessions(userID uint, offset, limit int) ([]*model.SessionWithCount, error)
	CountSessions(userID uint) (int64, error)
	UpdateSession(session *model.ChatSession) error
	DeleteSession(id, userID uint) error
	CreateMessage(msg *model.ChatMessage) error
	ListMessages(sessionID uint) ([]*model.ChatMessage, error)
	GetMessage(messageID, sessionID uint) (*model.ChatMessage, error)
	DeleteMessage(messageID, sessionID uint) error
	BatchDeleteMessages(sessionID uint, messageIDs []uint) (int64, error)
	ClearMessages(sessionID uint) (int64, error)
}

// HistoryCache 会话历史缓存，由 session.Manager 实现
type HistoryCache interface {
	Append(ctx context.Context, sessionID uint, role, content string)
	Invalidate(ctx context.Context, sessionID uint)
}

// Service 聊天服务
type Service struct {
	repo  Repository
	cache HistoryCache
}

// NewService 创建聊天服务。cache 可为 nil。
func NewService(repo Repository, cache HistoryCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// CreateSession 创建会话，标题缺省为「新会话」
func (s *Service) CreateSession(ctx context.Context, userID uint, req *CreateSessionRequest) (*model.ChatSession, error) {
	title := req.Title
	if title == "" {
		title = DefaultSessionTitle
	}

	session := &model.ChatSession{
		UserID:   userID,
		Title:    title,
		IsActive: true,
	}

	if err := s.repo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession 获取会话
func (s *Service) GetSession(ctx context.Context, id, userID uint) (*model.ChatSession, error) {
	session, err := s.repo.GetSession(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions 分页列出会话（带消息数），按最近活跃排序
func (s *Service) ListSessions(ctx context.Context, userID uint, page, size int) ([]*model.SessionWithCount, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	sessions, err := s.repo.ListSessions(userID, offset, size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	total, err := s.repo.CountSessions(userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return sessions, total, nil
}

// UpdateSessionRequest 更新会话请求。指针字段缺省表示不修改。
type UpdateSessionRequest struct {
	Title    *string `json:"title"`
	IsActive *bool   `json:"is_active"`
}

// UpdateSession 更新会话
func (s *Service) UpdateSession(ctx context.Context, id, userID uint, req *UpdateSessionRequest) (*model.ChatSession, error) {
	session, err := s.GetSession(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		session.Title = *req.Title
	}
	if req.IsActive != nil {
		session.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateSession(session); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return session, nil
}

// DeleteSession 删除会话及其全部消息
func (s *Service) DeleteSession(ctx context.Context, id, userID uint) error {
	if err := s.repo.DeleteSession(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return nil
}

// AddMessageRequest 追加消息请求
type AddMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

// AddMessage 向会话追加消息
func (s *Service) AddMessage(ctx context.Context, sessionID, userID uint, req *AddMessageRequest) (*model.ChatMessage, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	message := &model.ChatMessage{
		SessionID: sessionID,
		Role:      req.Role,
		Content:   req.Content,
	}
	if err := s.repo.CreateMessage(message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if s.cache != nil {
		s.cache.Append(ctx, sessionID, message.Role, message.Content)
	}
	return message, nil
}

// ListMessages 按时间顺序获取会话消息
func (s *Service) ListMessages(ctx context.Context, sessionID, userID uint) ([]*model.ChatMessage, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// DeleteMessage 删除单条消息
func (s *Service) DeleteMessage(ctx context.Context, sessionID, messageID, userID uint) error {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return err
	}

	if err := s.repo.DeleteMessage(messageID, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, sessionID)
	}
	return nil
}

// BatchDeleteMessages 批量删除消息，返回实际删除数。
// 无效 ID 被忽略，删除 0 条不是错误。
func (s *Service) BatchDeleteMessages(ctx context.Context, sessionID, userID uint, messageIDs []uint) (int64, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return 0, err
	}

	if len(messageIDs) == 0 {
		return 0, nil
	}

	deleted, err := s.repo.BatchDeleteMessages(sessionID, messageIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to batch delete messages: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, sessionID)
	}
	return deleted, nil
}

// ClearMessages 清空会话消息，会话本身保留，返回实际删除数
func (s *Service) ClearMessages(ctx context.Context, sessionID, userID uint) (int64, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return 0, err
	}

	deleted, err := s.repo.ClearMessages(sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear messages: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, sessionID)
	}
	return deleted, nil
}
