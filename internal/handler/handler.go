package handler

import (
	"github.com/ashwinyue/fastagent/internal/database"
	"github.com/ashwinyue/fastagent/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	User   *UserHandler
	Chat   *ChatHandler
	System *SystemHandler
}

// New 创建所有处理器
func New(svc *service.Services, db *database.DB) *Handlers {
	return &Handlers{
		User:   NewUserHandler(svc),
		Chat:   NewChatHandler(svc),
		System: NewSystemHandler(db),
	}
}
