package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/fastagent/internal/middleware"
	"github.com/ashwinyue/fastagent/internal/service"
	"github.com/ashwinyue/fastagent/internal/service/user"
)

// UserHandler 用户处理器
type UserHandler struct {
	svc *service.Services
}

// NewUserHandler 创建用户处理器
func NewUserHandler(svc *service.Services) *UserHandler {
	return &UserHandler{svc: svc}
}

// Register 注册新用户
// POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	created, err := h.svc.User.Register(c.Request.Context(), &req)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, created)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse 令牌响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token 登录获取访问令牌
// POST /api/users/token
func (h *UserHandler) Token(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	authed, err := h.svc.Auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		Error(c, err)
		return
	}

	token, err := h.svc.Auth.CreateAccessToken(authed)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me 获取当前用户信息
// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	current, ok := middleware.GetCurrentUser(c)
	if !ok {
		Unauthorized(c, "not authenticated")
		return
	}
	Success(c, current)
}

// UpdateMe 更新当前用户信息
// PUT /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	current, ok := middleware.GetCurrentUser(c)
	if !ok {
		Unauthorized(c, "not authenticated")
		return
	}

	var req user.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	// 普通用户不能修改自己的管理员状态
	updated, err := h.svc.User.Update(c.Request.Context(), current.ID, &req, false)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, updated)
}

// ListUsers 获取所有用户（仅管理员）
// GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	users, err := h.svc.User.List(c.Request.Context(), skip, limit)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, users)
}

// GetUser 获取指定用户（仅管理员）
// GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := h.svc.User.Get(c.Request.Context(), id)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, found)
}

// UpdateUser 更新指定用户（仅管理员）
// PUT /api/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req user.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updated, err := h.svc.User.Update(c.Request.Context(), id, &req, true)
	if err != nil {
		Error(c, err)
		return
	}

	Success(c, updated)
}

// DeleteUser 删除指定用户（仅管理员）
// DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	current, _ := middleware.GetCurrentUser(c)

	if err := h.svc.User.Delete(c.Request.Context(), id, current.ID); err != nil {
		Error(c, err)
		return
	}

	NoContent(c)
}

// parseIDParam 解析路径中的数字 ID
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
