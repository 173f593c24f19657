package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/fastagent/internal/middleware"
	"github.com/ashwinyue/fastagent/internal/service"
	"github.com/ashwinyue/fastagent/internal/service/chat"
	"github.com/ashwinyue/fastagent/internal/service/query"
)

// ChatHandler 聊天处理器
type ChatHandler struct {
	svc *service.Services
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(svc *service.Services) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// CreateSession 创建会话
// POST /api/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req chat.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	session, err := h.svc.Chat.CreateSession(c.Request.Context(), userID, &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, session)
}

// ListSessions 分页列出会话（带消息数）
// GET /api/sessions
func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	sessions, total, err := h.svc.Chat.ListSessions(c.Request.Context(), userID, page, size)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{
		"items": sessions,
		"total": total,
	})
}

// GetSession 获取会话
// GET /api/sessions/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := h.svc.Chat.GetSession(c.Request.Context(), id, userID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, session)
}

// UpdateSession 更新会话
// PUT /api/sessions/:id
func (h *ChatHandler) UpdateSession(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req chat.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	session, err := h.svc.Chat.UpdateSession(c.Request.Context(), id, userID, &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, session)
}

// DeleteSession 删除会话及其全部消息
// DELETE /api/sessions/:id
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.svc.Chat.DeleteSession(c.Request.Context(), id, userID); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}

// AddMessage 向会话追加消息
// POST /api/sessions/:id/messages
func (h *ChatHandler) AddMessage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req chat.AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	message, err := h.svc.Chat.AddMessage(c.Request.Context(), id, userID, &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, message)
}

// ListMessages 按时间顺序获取会话消息
// GET /api/sessions/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	messages, err := h.svc.Chat.ListMessages(c.Request.Context(), id, userID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, messages)
}

// DeleteMessage 删除单条消息
// DELETE /api/sessions/:id/messages/:message_id
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	messageID, ok := parseIDParam(c, "message_id")
	if !ok {
		return
	}

	if err := h.svc.Chat.DeleteMessage(c.Request.Context(), id, messageID, userID); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}

// BatchDeleteRequest 批量删除消息请求
type BatchDeleteRequest struct {
	MessageIDs []uint `json:"message_ids" binding:"required"`
}

// BatchDeleteMessages 批量删除消息，返回实际删除数
// DELETE /api/sessions/:id/messages
func (h *ChatHandler) BatchDeleteMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	deleted, err := h.svc.Chat.BatchDeleteMessages(c.Request.Context(), id, userID, req.MessageIDs)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{
		"status":        "success",
		"deleted_count": deleted,
	})
}

// ClearMessages 清空会话消息，会话本身保留
// DELETE /api/sessions/:id/clear
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.Chat.ClearMessages(c.Request.Context(), id, userID)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, gin.H{
		"status":        "success",
		"deleted_count": deleted,
	})
}

// Query 查询处理流水线入口
// POST /api/sessions/query
func (h *ChatHandler) Query(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req query.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Query.Process(c.Request.Context(), userID, &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, resp)
}
