package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/fastagent/internal/handler"
	"github.com/ashwinyue/fastagent/internal/middleware"
	"github.com/ashwinyue/fastagent/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers, svc *service.Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware(svc.Config.Server.CORSOrigins))

	requireAuth := middleware.RequireAuth(svc.Auth)
	requireAdmin := middleware.RequireAdmin()

	// 健康检查
	r.GET("/health", h.System.Health)

	api := r.Group("/api")
	{
		// 用户
		users := api.Group("/users")
		{
			// 公开接口
			users.POST("/register", h.User.Register)
			users.POST("/token", h.User.Token)

			// 当前用户
			users.GET("/me", requireAuth, h.User.Me)
			users.PUT("/me", requireAuth, h.User.UpdateMe)

			// 管理员接口
			admin := users.Group("", requireAuth, requireAdmin)
			{
				admin.GET("", h.User.ListUsers)
				admin.GET("/:id", h.User.GetUser)
				admin.PUT("/:id", h.User.UpdateUser)
				admin.DELETE("/:id", h.User.DeleteUser)
			}
		}

		// 会话与查询
		sessions := api.Group("/sessions", requireAuth)
		{
			sessions.POST("/query", h.Chat.Query)

			sessions.POST("", h.Chat.CreateSession)
			sessions.GET("", h.Chat.ListSessions)
			sessions.GET("/:id", h.Chat.GetSession)
			sessions.PUT("/:id", h.Chat.UpdateSession)
			sessions.DELETE("/:id", h.Chat.DeleteSession)

			sessions.POST("/:id/messages", h.Chat.AddMessage)
			sessions.GET("/:id/messages", h.Chat.ListMessages)
			sessions.DELETE("/:id/messages", h.Chat.BatchDeleteMessages)
			sessions.DELETE("/:id/messages/:message_id", h.Chat.DeleteMessage)
			sessions.DELETE("/:id/clear", h.Chat.ClearMessages)
		}
	}

	return r
}
