// Package callback 提供 Eino 组件执行的日志回调
package callback

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"
)

// Logger 记录 Agent 内部组件（模型调用、工具调用）的执行事件。
// 错误始终记录，开始/结束事件仅在调试模式下记录。
type Logger struct {
	debug bool
}

// NewLogger 创建日志回调处理器
func NewLogger(debug bool) *Logger {
	return &Logger{debug: debug}
}

// OnStart 组件执行开始
func (l *Logger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if l.debug {
		log.Printf("[Agent] %s/%s 开始: %s", info.Component, info.Name, summarize(input))
	}
	return ctx
}

// OnEnd 组件执行成功结束
func (l *Logger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if l.debug {
		log.Printf("[Agent] %s/%s 结束: %s", info.Component, info.Name, summarize(output))
	}
	return ctx
}

// OnError 组件执行出错
func (l *Logger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	log.Printf("[Agent] %s/%s 出错: %v", info.Component, info.Name, err)
	return ctx
}

// OnStartWithStreamInput 流式输入开始
func (l *Logger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	if l.debug {
		log.Printf("[Agent] %s/%s 流式输入开始", info.Component, info.Name)
	}
	return ctx
}

// OnEndWithStreamOutput 流式输出结束
func (l *Logger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	if l.debug {
		log.Printf("[Agent] %s/%s 流式输出结束", info.Component, info.Name)
	}
	return ctx
}

// Register 注册为全局回调，进程内只应调用一次
func Register(debug bool) {
	callbacks.AppendGlobalHandlers(NewLogger(debug))
}

// summarize 压缩回调数据，避免日志过大
func summarize(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	runes := []rune(s)
	if len(runes) > 200 {
		return string(runes[:200]) + "..."
	}
	return s
}
