// Package testutil 提供测试辅助工具
package testutil

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ashwinyue/fastagent/internal/config"
	"github.com/ashwinyue/fastagent/internal/database"
	"github.com/ashwinyue/fastagent/internal/handler"
	"github.com/ashwinyue/fastagent/internal/model"
	"github.com/ashwinyue/fastagent/internal/repository"
	"github.com/ashwinyue/fastagent/internal/router"
	"github.com/ashwinyue/fastagent/internal/service"
	"github.com/ashwinyue/fastagent/internal/service/query"
)

// Env 完整的测试环境：内存数据库 + 全部服务 + 路由
type Env struct {
	DB       *gorm.DB
	Config   *config.Config
	Repos    *repository.Repositories
	Services *service.Services
	Router   *gin.Engine
}

// Option 测试环境选项
type Option func(*options)

type options struct {
	invoker query.Invoker
}

// WithInvoker 替换查询服务使用的 Agent 调用器
func WithInvoker(inv query.Invoker) Option {
	return func(o *options) {
		o.invoker = inv
	}
}

// NewEnv 创建测试环境。
// 数据库为内存 sqlite，Redis 不可用（历史缓存退化为进程内），
// 模型未配置时 Agent 不可用，可用 WithInvoker 注入假调用器。
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	cfg := TestConfig()
	repos := repository.NewRepositories(db)

	svc, err := service.NewServices(repos, cfg, nil)
	if err != nil {
		t.Fatalf("failed to init services: %v", err)
	}

	if o.invoker != nil {
		svc.Query = query.NewService(svc.Chat, o.invoker, svc.SessionMgr)
	}

	if err := svc.User.EnsureInitialAdmin(context.Background(), cfg); err != nil {
		t.Fatalf("failed to ensure initial admin: %v", err)
	}

	handlers := handler.New(svc, &database.DB{DB: db})
	r := router.SetupRouter(handlers, svc)

	return &Env{
		DB:       db,
		Config:   cfg,
		Repos:    repos,
		Services: svc,
		Router:   r,
	}
}

// TestConfig 返回测试配置
func TestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "fastagent-test",
			Environment: "test",
		},
		Server: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        8002,
			Mode:        gin.TestMode,
			CORSOrigins: []string{"*"},
		},
		Auth: config.AuthConfig{
			SecretKey:          "test-secret-key",
			AccessTokenMinutes: 60,
		},
		AI: config.AIConfig{
			// API Key 为空，模型初始化失败，Agent 走不可用兜底
			Provider: "deepseek",
		},
		Agent: config.AgentConfig{
			Name:          "tech_assistant",
			Timeout:       5,
			MaxAttempts:   2,
			RetryDelay:    1,
			MaxIterations: 10,
		},
		Admin: config.AdminConfig{
			Username: "admin",
			Password: "admin123",
			Email:    "admin@example.com",
		},
	}
}
