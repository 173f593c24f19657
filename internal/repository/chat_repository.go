package repository

import (
	"time"

	"github.com/ashwinyue/fastagent/internal/model"
	"gorm.io/gorm"
)

// ChatRepository 聊天数据访问。所有会话查询均按 user_id 过滤，
// 归属校验在查询层完成。
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建聊天仓库
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateSession 创建会话
func (r *ChatRepository) CreateSession(session *model.ChatSession) error {
	return r.db.Create(session).Error
}

// GetSession 获取会话，非本人的会话视同不存在
func (r *ChatRepository) GetSession(id, userID uint) (*model.ChatSession, error) {
	var session model.ChatSession
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions 列出会话，带消息数，按 updated_at 倒序
func (r *ChatRepository) ListSessions(userID uint, offset, limit int) ([]*model.SessionWithCount, error) {
	var sessions []*model.SessionWithCount
	err := r.db.Model(&model.ChatSession{}).
		Select("chat_sessions.*, COUNT(chat_messages.id) AS message_count").
		Joins("LEFT JOIN chat_messages ON chat_messages.session_id = chat_sessions.id").
		Where("chat_sessions.user_id = ?", userID).
		Group("chat_sessions.id").
		Order("chat_sessions.updated_at DESC").
		Offset(offset).Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// CountSessions 统计用户会话数
func (r *ChatRepository) CountSessions(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.ChatSession{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// UpdateSession 更新会话
func (r *ChatRepository) UpdateSession(session *model.ChatSession) error {
	return r.db.Save(session).Error
}

// DeleteSession 删除会话及其消息
func (r *ChatRepository) DeleteSession(id, userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.ChatSession{}, "id = ? AND user_id = ?", id, userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Delete(&model.ChatMessage{}, "session_id = ?", id).Error
	})
}

// CreateMessage 插入消息并推进会话 updated_at
func (r *ChatRepository) CreateMessage(msg *model.ChatMessage) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", msg.SessionID).
			Update("updated_at", time.Now().Local()).Error
	})
}

// ListMessages 按时间顺序获取会话消息
func (r *ChatRepository) ListMessages(sessionID uint) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// ListRecentMessages 获取会话最近的 N 条消息（时间顺序返回）
func (r *ChatRepository) ListRecentMessages(sessionID uint, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// 倒序取出后翻转为时间顺序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// GetMessage 获取单条消息，限定所属会话
func (r *ChatRepository) GetMessage(messageID, sessionID uint) (*model.ChatMessage, error) {
	var message model.ChatMessage
	err := r.db.Where("id = ? AND session_id = ?", messageID, sessionID).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// DeleteMessage 删除单条消息并推进会话 updated_at
func (r *ChatRepository) DeleteMessage(messageID, sessionID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.ChatMessage{}, "id = ? AND session_id = ?", messageID, sessionID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", sessionID).
			Update("updated_at", time.Now().Local()).Error
	})
}

// BatchDeleteMessages 批量删除消息，返回实际删除数。
// 不属于该会话的 ID 被忽略，删除 0 条不是错误。
func (r *ChatRepository) BatchDeleteMessages(sessionID uint, messageIDs []uint) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.ChatMessage{}, "session_id = ? AND id IN ?", sessionID, messageIDs)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", sessionID).
			Update("updated_at", time.Now().Local()).Error
	})
	return deleted, err
}

// ClearMessages 清空会话消息，返回实际删除数
func (r *ChatRepository) ClearMessages(sessionID uint) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.ChatMessage{}, "session_id = ?", sessionID)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return tx.Model(&model.ChatSession{}).
			Where("id = ?", sessionID).
			Update("updated_at", time.Now().Local()).Error
	})
	return deleted, err
}
