// Package agent 封装对外部 Agent 运行时的调用：提示词构造、超时与重试。
// 直接使用 eino ADK，不做额外编排。
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/fastagent/internal/config"
)

// ErrTimeout 单次调用超时
var ErrTimeout = errors.New("agent request timed out")

// Runner 执行一轮 Agent 对话并返回最终助手消息
type Runner interface {
	Run(ctx context.Context, messages []adk.Message) (string, error)
}

// Client Agent 调用客户端。Agent 在构造时创建一次，进程内共享只读。
type Client struct {
	runner  Runner
	timeout time.Duration
	policy  RetryPolicy
}

// NewClient 创建 Agent 客户端
func NewClient(ctx context.Context, cfg *config.Config, chatModel model.ToolCallingChatModel, tools []tool.BaseTool) (*Client, error) {
	agentCfg := &adk.ChatModelAgentConfig{
		Name:          cfg.Agent.Name,
		Description:   "专业的技术开发助手",
		Instruction:   Instruction,
		Model:         chatModel,
		MaxIterations: cfg.Agent.MaxIterations,
	}

	if len(tools) > 0 {
		agentCfg.ToolsConfig = adk.ToolsConfig{
			ToolsNodeConfig: compose.ToolsNodeConfig{
				Tools: tools,
			},
		}
	}

	einoAgent, err := adk.NewChatModelAgent(ctx, agentCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return &Client{
		runner:  &einoRunner{agent: einoAgent},
		timeout: time.Duration(cfg.Agent.Timeout) * time.Second,
		policy: RetryPolicy{
			MaxAttempts: cfg.Agent.MaxAttempts,
			Delay:       time.Duration(cfg.Agent.RetryDelay) * time.Second,
		},
	}, nil
}

// NewClientWithRunner 用指定的 Runner 创建客户端，测试用
func NewClientWithRunner(runner Runner, timeout time.Duration, policy RetryPolicy) *Client {
	return &Client{runner: runner, timeout: timeout, policy: policy}
}

// Invoke 调用 Agent。每次尝试带独立超时，超时与其他错误同样重试，
// 耗尽后返回最后一次错误。成功时记录原始响应前 500 字符。
func (c *Client) Invoke(ctx context.Context, prompt string, history []*schema.Message) (string, error) {
	messages := buildMessages(history, prompt)

	var result string
	err := c.policy.Do(ctx, "agent 调用", func(ctx context.Context) error {
		callCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		out, err := c.runner.Run(callCtx, messages)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return ErrTimeout
			}
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Printf("Agent响应(原始，前500字符): %s", truncateRunes(result, 500))
	return result, nil
}

// einoRunner 基于 eino ADK 的 Runner
type einoRunner struct {
	agent *adk.ChatModelAgent
}

func (r *einoRunner) Run(ctx context.Context, messages []adk.Message) (string, error) {
	iter := r.agent.Run(ctx, &adk.AgentInput{
		Messages:        messages,
		EnableStreaming: false,
	})

	var result string
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}

		if event.Err != nil {
			if event.Err == io.EOF {
				break
			}
			return "", fmt.Errorf("agent event error: %w", event.Err)
		}

		if event.Output != nil && event.Output.MessageOutput != nil {
			msg, err := event.Output.MessageOutput.GetMessage()
			if err != nil {
				continue
			}
			if msg.Role == schema.Assistant {
				result = msg.Content
			}
		}
	}
	return result, nil
}

// buildMessages 构建消息列表：历史在前，当前提示词在末尾
func buildMessages(history []*schema.Message, prompt string) []adk.Message {
	result := make([]adk.Message, 0, len(history)+1)
	for _, msg := range history {
		result = append(result, &schema.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	result = append(result, &schema.Message{
		Role:    schema.User,
		Content: prompt,
	})
	return result
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
