package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cloudwego/eino-ext/components/model/openai"
	duckduckgov2 "github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino/components/model"
	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/fastagent/internal/config"
	"github.com/ashwinyue/fastagent/internal/repository"
	"github.com/ashwinyue/fastagent/internal/service/agent"
	"github.com/ashwinyue/fastagent/internal/service/auth"
	"github.com/ashwinyue/fastagent/internal/service/chat"
	"github.com/ashwinyue/fastagent/internal/service/query"
	"github.com/ashwinyue/fastagent/internal/service/session"
	"github.com/ashwinyue/fastagent/internal/service/user"
)

// Services 服务集合
type Services struct {
	User  *user.Service
	Auth  *auth.Service
	Chat  *chat.Service
	Query *query.Service

	// 配置
	Config     *config.Config
	SessionMgr *session.Manager

	// Agent 客户端，模型未配置时为 nil
	Agent *agent.Client
}

// NewServices 创建所有服务。
// Agent 初始化失败只记录警告，服务照常启动，查询接口返回错误。
func NewServices(repo *repository.Repositories, cfg *config.Config, redisClient *redis.Client) (*Services, error) {
	ctx := context.Background()

	// 会话历史缓存，读穿聊天仓库
	sessionMgr := session.NewManager(redisClient, repo.Chat)

	chatSvc := chat.NewService(repo.Chat, sessionMgr)
	userSvc := user.NewService(repo.User)
	authSvc := auth.NewService(repo.User, cfg)

	// 创建 Agent 客户端
	var agentClient *agent.Client
	chatModel, err := newToolCallingChatModel(ctx, cfg)
	if err != nil {
		log.Printf("Warning: failed to create chat model: %v", err)
	} else {
		allTools := newTools(ctx)
		log.Printf("Initialized %d tools", len(allTools))

		agentClient, err = agent.NewClient(ctx, cfg, chatModel, allTools)
		if err != nil {
			log.Printf("Warning: failed to create agent client: %v", err)
		}
	}

	var invoker query.Invoker = agentClient
	if agentClient == nil {
		invoker = unavailableInvoker{}
	}
	querySvc := query.NewService(chatSvc, invoker, sessionMgr)

	return &Services{
		User:  userSvc,
		Auth:  authSvc,
		Chat:  chatSvc,
		Query: querySvc,

		Config:     cfg,
		SessionMgr: sessionMgr,

		Agent: agentClient,
	}, nil
}

// newToolCallingChatModel 创建支持工具调用的 ChatModel
func newToolCallingChatModel(ctx context.Context, cfg *config.Config) (model.ToolCallingChatModel, error) {
	aiCfg := cfg.AI

	var apiKey, baseURL, modelName string

	switch aiCfg.Provider {
	case "openai":
		apiKey = aiCfg.OpenAI.APIKey
		baseURL = aiCfg.OpenAI.BaseURL
		modelName = aiCfg.OpenAI.Model
	case "alibaba", "qwen", "dashscope":
		apiKey = aiCfg.Alibaba.AccessKeySecret
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
		modelName = aiCfg.Alibaba.Model
	case "deepseek":
		apiKey = aiCfg.DeepSeek.APIKey
		baseURL = aiCfg.DeepSeek.BaseURL
		modelName = aiCfg.DeepSeek.Model
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("api_key is required for provider: %s", aiCfg.Provider)
	}

	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	temperature := float32(0.7)

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       modelName,
		Temperature: &temperature,
	})
}

// newWebSearchTool 创建网络搜索工具
func newWebSearchTool(ctx context.Context) einotool.InvokableTool {
	searchTool, err := duckduckgov2.NewTextSearchTool(ctx, &duckduckgov2.Config{
		ToolName:   "web_search",
		ToolDesc:   "Search the web for current information using DuckDuckGo. Use this to gather background material and authoritative references for technical questions.",
		MaxResults: 10,
	})
	if err != nil {
		log.Printf("Warning: failed to create web search tool: %v", err)
		return &stubTool{name: "web_search"}
	}

	return searchTool
}

// newTools 初始化所有工具
func newTools(ctx context.Context) []einotool.BaseTool {
	return []einotool.BaseTool{
		newWebSearchTool(ctx),
	}
}

// stubTool 占位工具
type stubTool struct {
	name string
}

func (t *stubTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: t.name,
		Desc: t.name + " (unavailable)",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "The query string",
				Required: true,
			},
		}),
	}, nil
}

func (t *stubTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...einotool.Option) (string, error) {
	return fmt.Sprintf(`{"error":"%s is not available"}`, t.name), nil
}

// unavailableInvoker Agent 未初始化时的兜底
type unavailableInvoker struct{}

func (unavailableInvoker) Invoke(ctx context.Context, prompt string, history []*schema.Message) (string, error) {
	return "", errors.New("agent is not configured")
}
