package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/fastagent/internal/database"
)

// SystemHandler 系统处理器
type SystemHandler struct {
	db *database.DB
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(db *database.DB) *SystemHandler {
	return &SystemHandler{db: db}
}

// Health 健康检查
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	status := "healthy"
	dbStatus := "up"

	if err := h.db.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		dbStatus = "down"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"database":  dbStatus,
	})
}
