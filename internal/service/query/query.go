// Package query 实现查询处理流水线：
// 解析会话 → 落库用户消息 → 构造提示词 → 调用 Agent → 提取答案 → 落库助手消息。
package query

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/fastagent/internal/model"
	"github.com/ashwinyue/fastagent/internal/service/agent"
	"github.com/ashwinyue/fastagent/internal/service/chat"
	"github.com/ashwinyue/fastagent/internal/textutil"
)

// ChatService 会话与消息操作，由 chat.Service 实现
type ChatService interface {
	CreateSession(ctx context.Context, userID uint, req *chat.CreateSessionRequest) (*model.ChatSession, error)
	GetSession(ctx context.Context, id, userID uint) (*model.ChatSession, error)
	AddMessage(ctx context.Context, sessionID, userID uint, req *chat.AddMessageRequest) (*model.ChatMessage, error)
}

// Invoker 调用 Agent，由 agent.Client 实现
type Invoker interface {
	Invoke(ctx context.Context, prompt string, history []*schema.Message) (string, error)
}

// HistoryProvider 会话历史，由 session.Manager 实现
type HistoryProvider interface {
	History(ctx context.Context, sessionID uint) []*schema.Message
}

// Service 查询编排服务
type Service struct {
	chat    ChatService
	invoker Invoker
	history HistoryProvider
}

// NewService 创建查询服务
func NewService(chatSvc ChatService, invoker Invoker, history HistoryProvider) *Service {
	return &Service{chat: chatSvc, invoker: invoker, history: history}
}

// Request 查询请求。SessionID 为 0 时自动新建会话。
type Request struct {
	Query     string `json:"query" binding:"required"`
	SessionID uint   `json:"session_id"`
}

// Response 查询响应
type Response struct {
	Answer    string `json:"answer"`
	SessionID uint   `json:"session_id"`
}

// Process 处理一次查询。
// 用户消息在调用 Agent 之前落库，Agent 失败时用户消息保留、助手消息不产生。
func (s *Service) Process(ctx context.Context, userID uint, req *Request) (*Response, error) {
	log.Printf("收到查询 (user=%d, session=%d): %s", userID, req.SessionID, req.Query)

	session, err := s.resolveSession(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	// 历史在写入本次提问之前获取，避免当前问题重复出现
	var history []*schema.Message
	if s.history != nil {
		history = s.history.History(ctx, session.ID)
	}

	if _, err := s.chat.AddMessage(ctx, session.ID, userID, &chat.AddMessageRequest{
		Role:    model.RoleUser,
		Content: req.Query,
	}); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	prompt, urls := agent.PreparePrompt(req.Query)
	if len(urls) > 0 {
		log.Printf("提取的URL: %v", urls)
	}

	raw, err := s.invoker.Invoke(ctx, prompt, history)
	if err != nil {
		return nil, fmt.Errorf("agent query failed: %w", err)
	}

	answer := textutil.ExtractMarkedContent(raw, agent.AnswerStartMarker, agent.AnswerEndMarker)

	if _, err := s.chat.AddMessage(ctx, session.ID, userID, &chat.AddMessageRequest{
		Role:    model.RoleAssistant,
		Content: answer,
	}); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	return &Response{Answer: answer, SessionID: session.ID}, nil
}

// resolveSession 解析目标会话：无 ID 新建，有 ID 做归属校验
func (s *Service) resolveSession(ctx context.Context, userID uint, req *Request) (*model.ChatSession, error) {
	if req.SessionID == 0 {
		session, err := s.chat.CreateSession(ctx, userID, &chat.CreateSessionRequest{
			Title: implicitTitle(req.Query),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		log.Printf("创建新会话: %d", session.ID)
		return session, nil
	}

	return s.chat.GetSession(ctx, req.SessionID, userID)
}

// implicitTitle 用查询前 30 个字符生成会话标题
func implicitTitle(query string) string {
	runes := []rune(query)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	return "查询: " + string(runes) + "..."
}
