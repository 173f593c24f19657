// Package session 维护送入 Agent 的会话历史缓存。
// Redis 为主存储，不可用时退化为进程内缓存；未命中时从持久层读穿。
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/fastagent/internal/model"
)

const (
	// 会话历史在 Redis 中的过期时间（24小时）
	historyTTL = 24 * time.Hour
	// Redis key 前缀
	sessionKeyPrefix = "session:"
	// 送入 Agent 的最大历史条数
	maxHistoryMessages = 20
)

// Loader 缓存未命中时从持久层加载最近消息
type Loader interface {
	ListRecentMessages(sessionID uint, limit int) ([]*model.ChatMessage, error)
}

// Manager 会话历史缓存管理器
type Manager struct {
	mu     sync.RWMutex
	memory map[uint][]*schema.Message
	redis  *redis.Client
	loader Loader
}

// messageData 消息数据（用于 Redis 存储）
type messageData struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewManager 创建会话历史管理器
func NewManager(redisClient *redis.Client, loader Loader) *Manager {
	return &Manager{
		memory: make(map[uint][]*schema.Message),
		redis:  redisClient,
		loader: loader,
	}
}

// History 返回会话最近的历史消息（时间顺序，最多 maxHistoryMessages 条）。
// 缓存不可用时退化为空历史，不阻断查询流程。
func (m *Manager) History(ctx context.Context, sessionID uint) []*schema.Message {
	m.mu.RLock()
	messages, ok := m.memory[sessionID]
	m.mu.RUnlock()
	if ok {
		return trimHistory(messages)
	}

	if m.redis != nil {
		if messages := m.loadFromRedis(ctx, sessionID); messages != nil {
			m.store(sessionID, messages)
			return trimHistory(messages)
		}
	}

	// 读穿持久层
	if m.loader != nil {
		stored, err := m.loader.ListRecentMessages(sessionID, maxHistoryMessages)
		if err != nil {
			log.Printf("Warning: failed to load session %d history: %v", sessionID, err)
			return nil
		}
		messages = make([]*schema.Message, 0, len(stored))
		for _, msg := range stored {
			messages = append(messages, &schema.Message{
				Role:    roleToSchema(msg.Role),
				Content: msg.Content,
			})
		}
		m.store(sessionID, messages)
		m.saveToRedis(ctx, sessionID, messages)
		return trimHistory(messages)
	}

	return nil
}

// Append 追加一条消息到缓存
func (m *Manager) Append(ctx context.Context, sessionID uint, role, content string) {
	// 冷缓存先读穿，避免单条新消息遮蔽已持久化的历史
	m.mu.RLock()
	_, ok := m.memory[sessionID]
	m.mu.RUnlock()
	if !ok {
		m.History(ctx, sessionID)
	}

	m.mu.Lock()
	messages := append(m.memory[sessionID], &schema.Message{
		Role:    roleToSchema(role),
		Content: content,
	})
	messages = trimHistory(messages)
	m.memory[sessionID] = messages
	m.mu.Unlock()

	m.saveToRedis(ctx, sessionID, messages)
}

// Invalidate 使会话缓存失效（删除/清空消息后调用）
func (m *Manager) Invalidate(ctx context.Context, sessionID uint) {
	m.mu.Lock()
	delete(m.memory, sessionID)
	m.mu.Unlock()

	if m.redis != nil {
		key := redisKey(sessionID)
		if err := m.redis.Del(ctx, key).Err(); err != nil {
			log.Printf("Warning: failed to delete session %d from redis: %v", sessionID, err)
		}
	}
}

func (m *Manager) store(sessionID uint, messages []*schema.Message) {
	m.mu.Lock()
	m.memory[sessionID] = messages
	m.mu.Unlock()
}

func (m *Manager) loadFromRedis(ctx context.Context, sessionID uint) []*schema.Message {
	data, err := m.redis.Get(ctx, redisKey(sessionID)).Result()
	if err != nil {
		return nil
	}

	var stored []messageData
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil
	}

	messages := make([]*schema.Message, len(stored))
	for i, md := range stored {
		messages[i] = &schema.Message{
			Role:    roleToSchema(md.Role),
			Content: md.Content,
		}
	}
	return messages
}

func (m *Manager) saveToRedis(ctx context.Context, sessionID uint, messages []*schema.Message) {
	if m.redis == nil {
		return
	}

	stored := make([]messageData, len(messages))
	for i, msg := range messages {
		stored[i] = messageData{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return
	}
	if err := m.redis.Set(ctx, redisKey(sessionID), data, historyTTL).Err(); err != nil {
		log.Printf("Warning: failed to save session %d to redis: %v", sessionID, err)
	}
}

func redisKey(sessionID uint) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, sessionID)
}

func trimHistory(messages []*schema.Message) []*schema.Message {
	if len(messages) <= maxHistoryMessages {
		return messages
	}
	return messages[len(messages)-maxHistoryMessages:]
}

// roleToSchema 将字符串角色转换为 schema.RoleType
func roleToSchema(role string) schema.RoleType {
	switch role {
	case model.RoleSystem:
		return schema.System
	case model.RoleAssistant:
		return schema.Assistant
	case model.RoleUser:
		return schema.User
	default:
		return schema.User
	}
}
